package history

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	_ "modernc.org/sqlite"
)

const defaultRecentLimit = 20

type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the history database at path. The
// modernc driver keeps the build cgo-free.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	gdb, err := gorm.Open(sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        path,
	}, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("accessing history database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := gdb.Exec(`PRAGMA journal_mode=WAL;`).Error; err != nil {
		return nil, fmt.Errorf("enabling WAL: %w", err)
	}
	if err := gdb.Exec(`PRAGMA busy_timeout=5000;`).Error; err != nil {
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if err := gdb.AutoMigrate(&Run{}); err != nil {
		return nil, fmt.Errorf("migrating history schema: %w", err)
	}

	return &Store{db: gdb}, nil
}

// Record inserts one run, stamping an id and start time when absent.
func (s *Store) Record(run Run) error {
	if s == nil || s.db == nil {
		return errors.New("history store is not initialized")
	}
	if run.RunID == "" {
		run.RunID = uuid.NewString()
	}
	if run.StartedAt == 0 {
		run.StartedAt = time.Now().UTC().Unix()
	}
	return s.db.Create(&run).Error
}

// Recent returns the newest runs, most recent first. A non-positive
// limit falls back to the default.
func (s *Store) Recent(limit int) ([]Run, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("history store is not initialized")
	}
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	var runs []Run
	err := s.db.
		Order("started_at DESC, run_id DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, err
	}
	return runs, nil
}

// Clear removes every recorded run.
func (s *Store) Clear() error {
	if s == nil || s.db == nil {
		return errors.New("history store is not initialized")
	}
	return s.db.Where("1 = 1").Delete(&Run{}).Error
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

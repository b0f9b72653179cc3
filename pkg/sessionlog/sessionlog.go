// Package sessionlog keeps the in-memory activity trail shown to the user
// alongside browse and recreate operations. Entries are append-only and
// live for the session; nothing is persisted here.
package sessionlog

import (
	"fmt"
	"sync"
	"time"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarn    Level = "warn"
	LevelError   Level = "error"
)

// Notifier receives user-facing notices. Frontends decide how to surface
// them; severities share the session log vocabulary.
type Notifier func(level Level, message string)

// Entry is one line of the session log. Time is the local wall-clock
// time the entry was appended, formatted for display.
type Entry struct {
	Time    string
	Level   Level
	Message string
}

type Log struct {
	mu      sync.Mutex
	entries []Entry
}

func New() *Log {
	return &Log{}
}

// Append records a formatted entry stamped with the current local time.
func (l *Log) Append(level Level, format string, args ...interface{}) {
	entry := Entry{
		Time:    time.Now().Format("15:04:05"),
		Level:   level,
		Message: fmt.Sprintf(format, args...),
	}
	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()
}

func (l *Log) Info(format string, args ...interface{}) {
	l.Append(LevelInfo, format, args...)
}

func (l *Log) Success(format string, args ...interface{}) {
	l.Append(LevelSuccess, format, args...)
}

func (l *Log) Warn(format string, args ...interface{}) {
	l.Append(LevelWarn, format, args...)
}

func (l *Log) Error(format string, args ...interface{}) {
	l.Append(LevelError, format, args...)
}

// Entries returns a copy of the log in append order.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Clear drops all entries. Only an explicit user action should call this.
func (l *Log) Clear() {
	l.mu.Lock()
	l.entries = nil
	l.mu.Unlock()
}

// ankiforge is the terminal frontend for the AnkiForge backend: browse
// cards, recreate notes in bulk, watch service health and inspect the
// local run history.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/ankiforge/ankiforge/internal/api"
	"github.com/ankiforge/ankiforge/internal/config"
	"github.com/ankiforge/ankiforge/pkg/logger"
	"github.com/ankiforge/ankiforge/pkg/sessionlog"
	"github.com/ankiforge/ankiforge/pkg/version"
)

func main() {
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		fmt.Fprintln(os.Stderr, "warning: could not read .env:", err)
	}

	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// appEnv carries the wiring shared by every subcommand. It is populated
// once in the app's Before hook.
type appEnv struct {
	cfg     *config.Config
	log     *logger.Logger
	journal *sessionlog.Log
	client  *api.Client
}

func newApp() *cli.App {
	env := &appEnv{}

	return &cli.App{
		Name:    "ankiforge",
		Usage:   "browse and regenerate Anki cards through the AnkiForge backend",
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Value: "ankiforge.yaml",
				Usage: "path to the config file",
			},
			&cli.StringFlag{
				Name:  "backend",
				Usage: "backend base URL (overrides config and environment)",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "enable verbose logging",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug mode with trace logging",
			},
			&cli.BoolFlag{
				Name:  "show-log",
				Usage: "print the session log after the command finishes",
			},
		},
		Before: func(c *cli.Context) error {
			return env.setup(c)
		},
		After: func(c *cli.Context) error {
			if c.Bool("show-log") && env.journal != nil {
				printJournal(os.Stderr, env.journal)
			}
			return nil
		},
		Commands: []*cli.Command{
			decksCommand(env),
			browseCommand(env),
			noteTypesCommand(env),
			recreateCommand(env),
			healthCommand(env),
			historyCommand(env),
		},
	}
}

func (e *appEnv) setup(c *cli.Context) error {
	e.log = logger.New(logger.WithPrefix("[ankiforge] "))
	e.log.SetVerbose(c.Bool("verbose"))
	if c.Bool("debug") {
		e.log.SetLevel(logger.LevelTrace)
	}

	cfg, err := loadConfig(c.String("config"), c.IsSet("config"))
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}
	if c.IsSet("backend") {
		cfg.BackendURL = c.String("backend")
	}
	e.cfg = cfg

	e.journal = sessionlog.New()
	e.client = api.New(cfg.BackendURL, e.log, api.WithTimeout(cfg.RequestTimeout()))

	e.log.Debug("using backend %s", e.client.BaseURL())
	return nil
}

// loadConfig falls back to built-in defaults when the default config file
// is simply absent. An explicitly passed path must exist.
func loadConfig(path string, explicit bool) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	if explicit || !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	return config.Default(), nil
}

// notify prints user-facing notices to stderr, keeping stdout clean for
// table output.
func (e *appEnv) notify(level sessionlog.Level, message string) {
	fmt.Fprintf(os.Stderr, "[%s] %s\n", level, message)
}

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/ankiforge/ankiforge/internal/history"
)

func historyCommand(e *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "list recorded recreate runs",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Value: 20, Usage: "number of runs to show"},
			&cli.BoolFlag{Name: "clear", Usage: "delete the recorded runs instead of listing them"},
			&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "confirm --clear"},
		},
		Action: func(c *cli.Context) error {
			store, err := history.Open(e.cfg.HistoryDBPath)
			if err != nil {
				return fmt.Errorf("opening history at %s: %w", e.cfg.HistoryDBPath, err)
			}
			defer store.Close()

			if c.Bool("clear") {
				if !c.Bool("yes") {
					return errors.New("pass --yes to confirm clearing the run history")
				}
				if err := store.Clear(); err != nil {
					return fmt.Errorf("clearing history: %w", err)
				}
				fmt.Println("run history cleared.")
				return nil
			}

			runs, err := store.Recent(c.Int("limit"))
			if err != nil {
				return fmt.Errorf("reading history: %w", err)
			}
			printRuns(os.Stdout, runs)
			return nil
		},
	}
}

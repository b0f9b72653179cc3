package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ankiforge/ankiforge/internal/health"
)

func healthCommand(e *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "check the Anki bridge and the Ollama model server",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "watch", Usage: "keep polling until interrupted"},
			&cli.DurationFlag{Name: "interval", Usage: "poll interval for --watch (defaults to the configured one)"},
		},
		Action: func(c *cli.Context) error {
			checker := health.NewChecker(e.client, e.log)

			if !c.Bool("watch") {
				snap := health.Snapshot{
					Anki:   checker.CheckAnki(c.Context),
					Ollama: checker.CheckOllama(c.Context),
				}
				printHealth(os.Stdout, snap)
				if !snap.Anki.OK || !snap.Ollama.OK {
					return errors.New("one or more services are down")
				}
				return nil
			}

			interval := e.cfg.HealthInterval()
			if c.IsSet("interval") {
				interval = c.Duration("interval")
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			poller := health.NewPoller(checker, interval, e.log, e.journal)
			poller.OnUpdate(func(snap health.Snapshot) {
				fmt.Printf("--- %s ---\n", time.Now().Format("15:04:05"))
				printHealth(os.Stdout, snap)
			})

			e.log.Info("watching service health every %s", interval)
			poller.Run(ctx)
			return nil
		},
	}
}

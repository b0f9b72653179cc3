package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/ankiforge/ankiforge/internal/api"
	"github.com/ankiforge/ankiforge/internal/browse"
	"github.com/ankiforge/ankiforge/internal/history"
	"github.com/ankiforge/ankiforge/internal/recreate"
)

func recreateCommand(e *appEnv) *cli.Command {
	flags := append(filterFlags(),
		&cli.StringFlag{Name: "cards", Usage: "comma-separated card ids to recreate"},
		&cli.BoolFlag{Name: "from-query", Usage: "recreate every card the filter flags match"},
		&cli.StringSliceFlag{Name: "models", Usage: "target model names (repeatable)"},
		&cli.StringFlag{Name: "difficulty", Value: api.DifficultyMixed, Usage: "difficulty for the model list variant (easy, medium, hard, mixed)"},
		&cli.StringFlag{Name: "mode", Usage: "generation mode (basic, cloze, both)"},
		&cli.StringFlag{Name: "basic-model", Usage: "model for basic notes (mode variant)"},
		&cli.StringFlag{Name: "cloze-model", Usage: "model for cloze notes (mode variant)"},
		&cli.StringFlag{Name: "tag", Usage: "extra tag stamped on created notes (mode variant)"},
		&cli.StringFlag{Name: "target-deck", Usage: "deck for the created notes (empty keeps original decks)"},
		&cli.BoolFlag{Name: "suspend", Usage: "suspend the source cards after recreation"},
		&cli.IntFlag{Name: "count", Value: 1, Usage: "notes to generate per source note"},
		&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "actually send the request"},
	)

	return &cli.Command{
		Name:  "recreate",
		Usage: "regenerate notes for the selected cards through the backend",
		Flags: flags,
		Action: func(c *cli.Context) error {
			var ctrl *browse.Controller
			var cardIDs []int64

			switch {
			case c.IsSet("cards") && c.Bool("from-query"):
				return errors.New("--cards and --from-query are mutually exclusive")
			case c.IsSet("cards"):
				ids, err := parseCardIDs(c.String("cards"))
				if err != nil {
					return err
				}
				cardIDs = ids
			case c.Bool("from-query"):
				filters, err := filtersFromFlags(c)
				if err != nil {
					return err
				}
				ctrl = browse.NewController(browse.Config{
					Client:   e.client,
					Journal:  e.journal,
					Logger:   e.log,
					Notify:   e.notify,
					PageSize: e.cfg.PageSize,
					Debounce: e.cfg.Debounce(),
					Filters:  filters,
				})
				defer ctrl.Close()
				ids, err := collectCardIDs(c.Context, ctrl)
				if err != nil {
					return fmt.Errorf("collecting cards for query %q: %w", ctrl.Query(), err)
				}
				cardIDs = ids
			default:
				return errors.New("select cards with --cards or --from-query")
			}

			req := api.RecreateRequest{
				CardIDs:         cardIDs,
				SuspendOriginal: c.Bool("suspend"),
				CountPerNote:    c.Int("count"),
				ModelNames:      c.StringSlice("models"),
				Mode:            c.String("mode"),
				BasicModel:      c.String("basic-model"),
				ClozeModel:      c.String("cloze-model"),
				ExtraTag:        c.String("tag"),
			}
			if len(req.ModelNames) > 0 {
				req.Difficulty = c.String("difficulty")
			}
			if deck := c.String("target-deck"); deck != "" {
				req.TargetDeckName = &deck
			} else if !c.IsSet("target-deck") && e.cfg.DefaultDeck != "" {
				deck := e.cfg.DefaultDeck
				req.TargetDeckName = &deck
			}

			printRecreatePlan(os.Stdout, req)
			if !c.Bool("yes") {
				fmt.Println("\nnothing sent; re-run with --yes to proceed.")
				return nil
			}

			types, err := e.client.NoteTypes(c.Context)
			if err != nil {
				e.log.Warn("note types unavailable, skipping the model check: %v", err)
				e.journal.Warn("note types could not be fetched; model availability was not checked")
				types = nil
			}

			orch := recreate.New(e.client, e.journal, e.log, e.notify)
			outcome := orch.Run(c.Context, req, types)

			if outcome.Status != recreate.StatusRejected {
				if err := recordRun(e, req, outcome); err != nil {
					e.log.Warn("recording run history: %v", err)
				}
			}

			printOutcome(os.Stdout, outcome)

			if outcome.ShouldRefresh() && ctrl != nil {
				if err := ctrl.FetchNow(c.Context); err == nil {
					fmt.Printf("the query now matches %d cards\n", ctrl.Total())
				}
			}

			switch outcome.Status {
			case recreate.StatusAllCreated, recreate.StatusPartial:
				return nil
			default:
				if outcome.Err != nil {
					return fmt.Errorf("recreate ended as %s: %w", outcome.Status, outcome.Err)
				}
				return fmt.Errorf("recreate ended as %s", outcome.Status)
			}
		},
	}
}

func parseCardIDs(raw string) ([]int64, error) {
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad card id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func collectCardIDs(ctx context.Context, ctrl *browse.Controller) ([]int64, error) {
	var ids []int64
	_, err := ctrl.ForEachPage(ctx, func(page api.CardPage, _ int) error {
		for _, row := range page.Items {
			ids = append(ids, row.CardID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func printRecreatePlan(w io.Writer, req api.RecreateRequest) {
	fmt.Fprintf(w, "cards:    %d\n", len(req.CardIDs))
	if len(req.ModelNames) > 0 {
		fmt.Fprintf(w, "variant:  model list (%s), difficulty %s\n", strings.Join(req.ModelNames, ", "), req.Difficulty)
	} else if req.Mode != "" {
		fmt.Fprintf(w, "variant:  mode %s (basic %q, cloze %q)\n", req.Mode, req.BasicModel, req.ClozeModel)
		if req.ExtraTag != "" {
			fmt.Fprintf(w, "tag:      %s\n", req.ExtraTag)
		}
	}
	if req.TargetDeckName != nil {
		fmt.Fprintf(w, "deck:     %s\n", *req.TargetDeckName)
	} else {
		fmt.Fprintf(w, "deck:     (original)\n")
	}
	fmt.Fprintf(w, "count:    %d per note\n", req.CountPerNote)
	fmt.Fprintf(w, "suspend:  %t\n", req.SuspendOriginal)
}

func printOutcome(w io.Writer, outcome recreate.Outcome) {
	fmt.Fprintf(w, "\noutcome: %s", outcome.Status)
	if outcome.RequestID != "" {
		fmt.Fprintf(w, " (request %s)", outcome.RequestID)
	}
	fmt.Fprintln(w)

	if resp := outcome.Response; resp != nil {
		fmt.Fprintf(w, "created %d, failed %d, notes %d, suspended %d\n",
			resp.TotalCreated, resp.TotalFailed, resp.TotalSelectedNotes, resp.TotalSuspendedCards)
	}
	if outcome.Status == recreate.StatusFailed {
		if outcome.Summary.NoDetail {
			fmt.Fprintln(w, "no per-note failure detail was provided.")
			return
		}
		fmt.Fprintf(w, "failures by stage: %s\n", outcome.Summary.StageLine())
		for _, line := range outcome.Summary.FirstErrors {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
}

// recordRun persists the finished run. Rejected runs never get here: they
// sent nothing, so there is nothing worth keeping.
func recordRun(e *appEnv, req api.RecreateRequest, outcome recreate.Outcome) error {
	store, err := history.Open(e.cfg.HistoryDBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	run := history.Run{
		RequestID:       outcome.RequestID,
		CardCount:       len(req.CardIDs),
		Variant:         variantLabel(req),
		ModelSummary:    strings.Join(req.ReferencedModels(), ", "),
		CountPerNote:    req.CountPerNote,
		SuspendOriginal: req.SuspendOriginal,
		Outcome:         string(outcome.Status),
	}
	if req.TargetDeckName != nil {
		run.TargetDeck = *req.TargetDeckName
	}
	if resp := outcome.Response; resp != nil {
		run.Created = resp.TotalCreated
		run.Failed = resp.TotalFailed
		run.SelectedNotes = resp.TotalSelectedNotes
		run.SuspendedCards = resp.TotalSuspendedCards
	}
	if outcome.Err != nil {
		run.ErrorHead = clip(outcome.Err.Error(), api.BodyHeadLimit)
	}
	return store.Record(run)
}

func variantLabel(req api.RecreateRequest) string {
	if len(req.ModelNames) > 0 {
		return "models/" + req.Difficulty
	}
	return "mode/" + req.Mode
}

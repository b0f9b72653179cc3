package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/ankiforge/ankiforge/internal/api"
	"github.com/ankiforge/ankiforge/internal/browse"
	"github.com/ankiforge/ankiforge/internal/search"
)

func decksCommand(e *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "decks",
		Usage: "list the deck names known to the backend",
		Action: func(c *cli.Context) error {
			decks, err := e.client.Decks(c.Context)
			if err != nil {
				return fmt.Errorf("listing decks: %w", err)
			}
			for _, deck := range decks {
				fmt.Println(deck)
			}
			e.log.Debug("listed %d decks", len(decks))
			return nil
		},
	}
}

func noteTypesCommand(e *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "note-types",
		Usage: "list note types and whether recreation supports them",
		Action: func(c *cli.Context) error {
			types, err := e.client.NoteTypes(c.Context)
			if err != nil {
				return fmt.Errorf("listing note types: %w", err)
			}
			printNoteTypes(os.Stdout, types)
			return nil
		},
	}
}

// filterFlags are shared between browse and recreate --from-query.
func filterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "deck", Usage: "restrict to one deck"},
		&cli.StringFlag{Name: "status", Usage: "card state filter (is:new, is:learn, is:due, is:review, is:suspended, is:buried)"},
		&cli.StringFlag{Name: "text", Usage: "free text appended to the query"},
		&cli.StringFlag{Name: "query", Usage: "advanced query; overrides every other filter"},
	}
}

func filtersFromFlags(c *cli.Context) (search.Filters, error) {
	f := search.Filters{
		Deck:     c.String("deck"),
		Status:   c.String("status"),
		FreeText: c.String("text"),
		Advanced: c.String("query"),
	}
	if !search.ValidStatus(f.Status) {
		return search.Filters{}, fmt.Errorf("unknown status %q (expected one of %s)",
			f.Status,
			strings.Join([]string{
				search.StatusNew, search.StatusLearning, search.StatusDue,
				search.StatusReview, search.StatusSuspended, search.StatusBuried,
			}, ", "))
	}
	return f, nil
}

func browseCommand(e *appEnv) *cli.Command {
	flags := append(filterFlags(),
		&cli.IntFlag{Name: "offset", Usage: "first row to show"},
		&cli.IntFlag{Name: "limit", Usage: "rows per page (defaults to the configured page size)"},
		&cli.BoolFlag{Name: "all", Usage: "walk every page instead of one"},
		&cli.IntFlag{Name: "preview-width", Value: 60, Usage: "question preview width in runes"},
	)

	return &cli.Command{
		Name:  "browse",
		Usage: "fetch and print a page of cards for the active filters",
		Flags: flags,
		Action: func(c *cli.Context) error {
			filters, err := filtersFromFlags(c)
			if err != nil {
				return err
			}

			limit := e.cfg.PageSize
			if c.IsSet("limit") {
				limit = c.Int("limit")
			}

			ctrl := browse.NewController(browse.Config{
				Client:   e.client,
				Journal:  e.journal,
				Logger:   e.log,
				Notify:   e.notify,
				PageSize: limit,
				Debounce: e.cfg.Debounce(),
				Filters:  filters,
			})
			defer ctrl.Close()

			width := c.Int("preview-width")

			if c.Bool("all") {
				stats, err := ctrl.ForEachPage(c.Context, func(page api.CardPage, offset int) error {
					printCardTable(os.Stdout, page.Items, width)
					return nil
				})
				if err != nil {
					return fmt.Errorf("walking pages: %w", err)
				}
				fmt.Printf("\n%d cards in %d pages (query %q)\n", stats.Cards, stats.Pages, ctrl.Query())
				return nil
			}

			if err := ctrl.Paginate(c.Context, c.Int("offset"), limit); err != nil {
				return fmt.Errorf("fetching cards: %w", err)
			}

			items := ctrl.Items()
			printCardTable(os.Stdout, items, width)
			if len(items) == 0 {
				fmt.Printf("\nno cards for query %q\n", ctrl.Query())
				return nil
			}
			first := ctrl.Offset() + 1
			fmt.Printf("\nrows %d-%d of %d (query %q)\n", first, ctrl.Offset()+len(items), ctrl.Total(), ctrl.Query())
			return nil
		},
	}
}

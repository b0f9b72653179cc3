package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/ankiforge/ankiforge/internal/api"
	"github.com/ankiforge/ankiforge/internal/health"
	"github.com/ankiforge/ankiforge/internal/history"
	"github.com/ankiforge/ankiforge/pkg/cardtext"
	"github.com/ankiforge/ankiforge/pkg/models"
	"github.com/ankiforge/ankiforge/pkg/sessionlog"
)

const cardRowFormat = "%-13s  %-20s  %-16s  %-9s  %4s  %5s  %4s  %4s  %-9s  %s\n"

func printCardTable(w io.Writer, items []models.CardRow, previewWidth int) {
	if len(items) == 0 {
		return
	}

	fmt.Fprintf(w, cardRowFormat, "CARD ID", "DECK", "MODEL", "STATE", "IVL", "EASE", "REPS", "LAPS", "FLAG", "QUESTION")
	fmt.Fprintf(w, cardRowFormat, "-------", "----", "-----", "-----", "---", "----", "----", "----", "----", "--------")
	for _, row := range items {
		state, _ := models.QueueLabel(row.Queue)
		fmt.Fprintf(w, cardRowFormat,
			strconv.FormatInt(row.CardID, 10),
			clip(row.DeckName, 20),
			clip(row.ModelName, 16),
			state,
			strconv.Itoa(row.Interval),
			models.EasePercent(row.Factor),
			strconv.Itoa(row.Reps),
			strconv.Itoa(row.Lapses),
			models.FlagLabel(row.Flag),
			cardtext.Preview(row.Question, previewWidth),
		)
	}
}

func printNoteTypes(w io.Writer, types []api.NoteType) {
	if len(types) == 0 {
		fmt.Fprintln(w, "no note types reported.")
		return
	}

	fmt.Fprintf(w, "%-36s  %-10s  %s\n", "NAME", "FAMILY", "SUPPORT")
	fmt.Fprintf(w, "%-36s  %-10s  %s\n", "----", "------", "-------")
	for _, t := range types {
		fmt.Fprintf(w, "%-36s  %-10s  %s\n", clip(t.Name, 36), t.Family, supportText(t))
	}
}

func supportText(t api.NoteType) string {
	if t.SupportLabel != "" {
		return t.SupportLabel
	}
	if t.Supported {
		return "supported"
	}
	return "unsupported"
}

func printJournal(w io.Writer, journal *sessionlog.Log) {
	entries := journal.Entries()
	if len(entries) == 0 {
		fmt.Fprintln(w, "(session log is empty)")
		return
	}
	for _, entry := range entries {
		fmt.Fprintf(w, "%s [%s] %s\n", entry.Time, entry.Level, entry.Message)
	}
}

func printHealth(w io.Writer, snap health.Snapshot) {
	fmt.Fprintf(w, "%-8s  %-5s  %s\n", "SERVICE", "STATE", "DETAIL")
	fmt.Fprintf(w, "%-8s  %-5s  %s\n", "-------", "-----", "------")
	fmt.Fprintf(w, "%-8s  %-5s  %s\n", "anki", stateText(snap.Anki.Checked, snap.Anki.OK), ankiDetail(snap.Anki))
	fmt.Fprintf(w, "%-8s  %-5s  %s\n", "ollama", stateText(snap.Ollama.Checked, snap.Ollama.OK), ollamaDetail(snap.Ollama))
}

func stateText(checked, ok bool) string {
	switch {
	case !checked:
		return "?"
	case ok:
		return "up"
	default:
		return "down"
	}
}

func ankiDetail(s health.AnkiStatus) string {
	if !s.OK {
		return s.Error
	}
	if s.ConnectVersion > 0 {
		return fmt.Sprintf("AnkiConnect version %d", s.ConnectVersion)
	}
	return ""
}

func ollamaDetail(s health.OllamaStatus) string {
	if !s.OK {
		return s.Error
	}
	detail := fmt.Sprintf("model %s", s.Model)
	if !s.ModelAvailable {
		detail += " (not pulled)"
	}
	if s.TimeoutS > 0 {
		detail += fmt.Sprintf(", timeout %.0fs", s.TimeoutS)
	}
	return detail
}

func printRuns(w io.Writer, runs []history.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "no recreate runs recorded.")
		return
	}

	const runFormat = "%-19s  %-15s  %5s  %7s  %6s  %-16s  %s\n"
	fmt.Fprintf(w, runFormat, "STARTED", "OUTCOME", "CARDS", "CREATED", "FAILED", "DECK", "MODELS")
	fmt.Fprintf(w, runFormat, "-------", "-------", "-----", "-------", "------", "----", "------")
	for _, run := range runs {
		fmt.Fprintf(w, runFormat,
			time.Unix(run.StartedAt, 0).Local().Format("2006-01-02 15:04:05"),
			run.Outcome,
			strconv.Itoa(run.CardCount),
			strconv.Itoa(run.Created),
			strconv.Itoa(run.Failed),
			clip(run.TargetDeck, 16),
			clip(run.ModelSummary, 40),
		)
		if run.ErrorHead != "" {
			fmt.Fprintf(w, "%21s error: %s\n", "", run.ErrorHead)
		}
	}
}

// clip shortens plain text to max runes for table cells. Card HTML goes
// through cardtext.Preview instead.
func clip(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

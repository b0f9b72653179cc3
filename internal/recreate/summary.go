package recreate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ankiforge/ankiforge/internal/api"
)

const (
	// maxErrorLines bounds how many individual failure lines are kept;
	// the stage counts still cover everything.
	maxErrorLines = 6

	// errorTextLimit truncates one backend error message for display.
	errorTextLimit = 220
)

// StageCount is the number of failed notes observed at one stage.
type StageCount struct {
	Stage string
	Count int
}

// FailureSummary aggregates the per-note results of a failed run.
// NoDetail is set when the response carried no usable results array.
type FailureSummary struct {
	Stages      []StageCount
	FirstErrors []string
	Failed      int
	NoDetail    bool
}

// StageLine renders the stage counts as one log-friendly line.
func (s FailureSummary) StageLine() string {
	parts := make([]string, len(s.Stages))
	for i, sc := range s.Stages {
		parts[i] = fmt.Sprintf("%s=%d", sc.Stage, sc.Count)
	}
	return strings.Join(parts, ", ")
}

// Summarize groups failed results by stage, most frequent stage first
// (ties broken by name), and keeps the first few error lines. A nil
// response or a missing/malformed results array yields NoDetail instead
// of an error: the envelope counters already told the headline story.
func Summarize(resp *api.RecreateResponse) FailureSummary {
	if resp == nil {
		return FailureSummary{NoDetail: true}
	}
	results, ok := resp.DecodedResults()
	if !ok {
		return FailureSummary{NoDetail: true}
	}

	counts := make(map[string]int)
	var lines []string
	failed := 0
	for _, r := range results {
		if r.Success {
			continue
		}
		failed++
		stage := r.Stage
		if stage == "" {
			stage = "unknown"
		}
		counts[stage]++
		if len(lines) < maxErrorLines {
			lines = append(lines, failureLine(stage, r))
		}
	}

	stages := make([]StageCount, 0, len(counts))
	for stage, n := range counts {
		stages = append(stages, StageCount{Stage: stage, Count: n})
	}
	sort.Slice(stages, func(i, j int) bool {
		if stages[i].Count != stages[j].Count {
			return stages[i].Count > stages[j].Count
		}
		return stages[i].Stage < stages[j].Stage
	})

	return FailureSummary{Stages: stages, FirstErrors: lines, Failed: failed}
}

func failureLine(stage string, r api.RecreateResult) string {
	msg := r.Error
	if runes := []rune(msg); len(runes) > errorTextLimit {
		msg = string(runes[:errorTextLimit])
	}
	if r.ModelName != "" {
		return fmt.Sprintf("note %d (%s) failed at %s: %s", r.OldNoteID, r.ModelName, stage, msg)
	}
	return fmt.Sprintf("note %d failed at %s: %s", r.OldNoteID, stage, msg)
}

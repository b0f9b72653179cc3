// Package recreate drives bulk note recreation: precondition checks, the
// backend call, and the interpretation of its structured outcome into
// notifications, session log entries and a per-stage failure breakdown.
package recreate

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ankiforge/ankiforge/internal/api"
	"github.com/ankiforge/ankiforge/pkg/logger"
	"github.com/ankiforge/ankiforge/pkg/sessionlog"
)

// Poster is the slice of the backend client the orchestrator needs.
type Poster interface {
	Recreate(ctx context.Context, req api.RecreateRequest) (*api.RecreateResponse, error)
}

// Status names the terminal state of one recreate run.
type Status string

const (
	// StatusRejected means a precondition failed and no request was sent.
	StatusRejected Status = "rejected"

	// StatusTransportError means the request never completed.
	StatusTransportError Status = "transport-error"

	// StatusProtocolError means the response body was not JSON.
	StatusProtocolError Status = "protocol-error"

	// StatusDecodeError means the response claimed JSON but failed to parse.
	StatusDecodeError Status = "decode-error"

	// StatusFailed means the backend reported the run as failed.
	StatusFailed Status = "failed"

	StatusAllCreated  Status = "all-created"
	StatusPartial     Status = "partial"
	StatusNoneCreated Status = "none-created"
)

// Outcome is the digested result of a run.
type Outcome struct {
	Status    Status
	RequestID string
	Response  *api.RecreateResponse
	Summary   FailureSummary
	Err       error
}

// ShouldRefresh reports whether the card browser should re-fetch its
// page: any run that created at least one note changed backend state.
func (o Outcome) ShouldRefresh() bool {
	return o.Status == StatusAllCreated || o.Status == StatusPartial
}

type Orchestrator struct {
	poster  Poster
	journal *sessionlog.Log
	logger  *logger.Logger
	notify  sessionlog.Notifier
}

func New(poster Poster, journal *sessionlog.Log, log *logger.Logger, notify sessionlog.Notifier) *Orchestrator {
	if journal == nil {
		journal = sessionlog.New()
	}
	if log == nil {
		log = logger.New()
	}
	return &Orchestrator{poster: poster, journal: journal, logger: log, notify: notify}
}

// Run validates the request, sends it once and digests the outcome.
// available may carry the note types fetched for the picker; when
// non-nil, referenced models must exist there and be supported.
//
// Precondition failures warn and never reach the wire. After a completed
// call, protocol mismatches and decode failures are reported as such,
// domain failures get the per-stage breakdown, and the three success
// shapes (all created, partial, none created) notify at success, warn
// and error level respectively.
func (o *Orchestrator) Run(ctx context.Context, req api.RecreateRequest, available []api.NoteType) Outcome {
	if err := req.Validate(); err != nil {
		return o.reject(err)
	}
	if err := CheckModels(&req, available); err != nil {
		return o.reject(err)
	}
	if req.ClientRequestID == "" {
		req.ClientRequestID = uuid.NewString()
	}

	o.journal.Info("recreating %d cards (request %s)", len(req.CardIDs), req.ClientRequestID)
	o.logger.Info("recreate run %s: %d cards", req.ClientRequestID, len(req.CardIDs))

	resp, err := o.poster.Recreate(ctx, req)
	if err != nil {
		return o.digestError(req, resp, err)
	}
	return o.digestSuccess(req, resp)
}

func (o *Orchestrator) reject(err error) Outcome {
	o.journal.Warn("recreate request rejected: %v", err)
	o.notifyf(sessionlog.LevelWarn, "Nothing sent: %v", err)
	return Outcome{Status: StatusRejected, Err: err}
}

func (o *Orchestrator) digestError(req api.RecreateRequest, resp *api.RecreateResponse, err error) Outcome {
	outcome := Outcome{RequestID: req.ClientRequestID, Response: resp, Err: err}

	var nonJSON *api.NonJSONError
	var bodyErr *api.BodyError
	var apiErr *api.APIError
	switch {
	case errors.As(err, &nonJSON):
		outcome.Status = StatusProtocolError
		o.journal.Error("recreate answered with a non-JSON body (content-type %s): %s", nonJSON.ContentType, nonJSON.Head)
		o.notifyf(sessionlog.LevelError, "Recreate failed: the backend answered with a non-JSON response.")

	case errors.As(err, &bodyErr):
		outcome.Status = StatusDecodeError
		o.journal.Error("recreate response could not be decoded: %s", bodyErr.Message)
		o.notifyf(sessionlog.LevelError, "Recreate failed: the backend response could not be decoded.")

	case errors.As(err, &apiErr):
		outcome.Status = StatusFailed
		outcome.Summary = Summarize(resp)
		o.logDomainFailure(apiErr, outcome.Summary)
		o.notifyf(sessionlog.LevelError, "Recreate failed: %s", failureNotice(apiErr, outcome.Summary))

	default:
		outcome.Status = StatusTransportError
		o.journal.Error("recreate request did not reach the backend: %v", err)
		o.notifyf(sessionlog.LevelError, "Recreate failed: could not reach the backend.")
	}

	o.logger.Warn("recreate run %s ended as %s: %v", req.ClientRequestID, outcome.Status, err)
	return outcome
}

func (o *Orchestrator) logDomainFailure(apiErr *api.APIError, summary FailureSummary) {
	if apiErr.Message != "" {
		o.journal.Error("recreate failed (HTTP %d): %s", apiErr.Status, apiErr.Message)
	} else {
		o.journal.Error("recreate failed (HTTP %d)", apiErr.Status)
	}

	if summary.NoDetail {
		o.journal.Warn("no per-note failure detail was provided")
		return
	}
	o.journal.Error("failures by stage: %s", summary.StageLine())
	for _, line := range summary.FirstErrors {
		o.journal.Error("%s", line)
	}
}

func failureNotice(apiErr *api.APIError, summary FailureSummary) string {
	if summary.NoDetail {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return fmt.Sprintf("HTTP %d", apiErr.Status)
	}
	return fmt.Sprintf("%d note(s) failed; see the session log for the breakdown", summary.Failed)
}

func (o *Orchestrator) digestSuccess(req api.RecreateRequest, resp *api.RecreateResponse) Outcome {
	outcome := Outcome{RequestID: req.ClientRequestID, Response: resp}

	o.journal.Info("recreate finished: created %d, failed %d, notes %d, suspended %d (request %s)",
		resp.TotalCreated, resp.TotalFailed, resp.TotalSelectedNotes, resp.TotalSuspendedCards, resp.RequestID)
	o.logger.Info("recreate run %s finished: created=%d failed=%d", req.ClientRequestID, resp.TotalCreated, resp.TotalFailed)

	switch {
	case resp.TotalFailed == 0:
		outcome.Status = StatusAllCreated
		o.notifyf(sessionlog.LevelSuccess, "Created %d note(s).", resp.TotalCreated)
	case resp.TotalCreated > 0:
		outcome.Status = StatusPartial
		o.notifyf(sessionlog.LevelWarn, "Created %d note(s), %d failed.", resp.TotalCreated, resp.TotalFailed)
	default:
		outcome.Status = StatusNoneCreated
		o.notifyf(sessionlog.LevelError, "No notes were created (%d failed).", resp.TotalFailed)
	}
	return outcome
}

func (o *Orchestrator) notifyf(level sessionlog.Level, format string, args ...interface{}) {
	if o.notify != nil {
		o.notify(level, fmt.Sprintf(format, args...))
	}
}

// CheckModels verifies every model the request references against the
// fetched note types. A nil list skips the check (the picker was never
// loaded); an empty list of referenced names cannot happen on a request
// that already passed Validate.
func CheckModels(req *api.RecreateRequest, available []api.NoteType) error {
	if available == nil {
		return nil
	}
	byName := make(map[string]api.NoteType, len(available))
	for _, t := range available {
		byName[t.Name] = t
	}
	for _, name := range req.ReferencedModels() {
		t, ok := byName[name]
		if !ok {
			return fmt.Errorf("model %q is not available on the backend", name)
		}
		if !t.Supported {
			label := t.SupportLabel
			if label == "" {
				label = "unsupported"
			}
			return fmt.Errorf("model %q cannot be used: %s", name, label)
		}
	}
	return nil
}

// Package health tracks the two services the backend fronts: the Anki
// desktop bridge and the Ollama model server. Each probe produces a whole
// status record; consumers never see a half-updated one.
package health

import (
	"context"
	"time"

	"github.com/ankiforge/ankiforge/internal/api"
	"github.com/ankiforge/ankiforge/pkg/logger"
)

// Client is the slice of the backend API the checker needs.
type Client interface {
	AnkiHealth(ctx context.Context) (api.AnkiHealth, error)
	OllamaHealth(ctx context.Context) (api.OllamaHealth, error)
}

// AnkiStatus is one settled probe of the Anki bridge. Checked stays
// false only for the zero value, before any probe has answered.
type AnkiStatus struct {
	Checked        bool
	OK             bool
	Error          string
	ConnectVersion int
	CheckedAt      time.Time
}

// OllamaStatus is one settled probe of the model server.
type OllamaStatus struct {
	Checked        bool
	OK             bool
	Error          string
	Model          string
	ModelAvailable bool
	TimeoutS       float64
	CheckedAt      time.Time
}

type Checker struct {
	client Client
	logger *logger.Logger
}

func NewChecker(client Client, log *logger.Logger) *Checker {
	if log == nil {
		log = logger.New()
	}
	return &Checker{client: client, logger: log}
}

// CheckAnki probes the Anki bridge. Probe failures of any kind (transport,
// protocol, decode) mark the service down with the failure text; they are
// never returned as errors, so one dead service cannot take polling down.
func (c *Checker) CheckAnki(ctx context.Context) AnkiStatus {
	report, err := c.client.AnkiHealth(ctx)
	now := time.Now()
	if err != nil {
		c.logger.Debug("anki health probe failed: %v", err)
		return AnkiStatus{Checked: true, OK: false, Error: err.Error(), CheckedAt: now}
	}
	return AnkiStatus{
		Checked:        true,
		OK:             report.OK,
		Error:          report.Error,
		ConnectVersion: report.AnkiConnectVersion,
		CheckedAt:      now,
	}
}

// CheckOllama probes the model server, with the same failure handling as
// CheckAnki.
func (c *Checker) CheckOllama(ctx context.Context) OllamaStatus {
	report, err := c.client.OllamaHealth(ctx)
	now := time.Now()
	if err != nil {
		c.logger.Debug("ollama health probe failed: %v", err)
		return OllamaStatus{Checked: true, OK: false, Error: err.Error(), CheckedAt: now}
	}
	return OllamaStatus{
		Checked:        true,
		OK:             report.OK,
		Error:          report.Error,
		Model:          report.Model,
		ModelAvailable: report.ModelAvailable,
		TimeoutS:       report.TimeoutS,
		CheckedAt:      now,
	}
}

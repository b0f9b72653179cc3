package health

import (
	"context"
	"sync"
	"time"

	"github.com/ankiforge/ankiforge/pkg/logger"
	"github.com/ankiforge/ankiforge/pkg/sessionlog"
)

// DefaultInterval is the pause between poll rounds.
const DefaultInterval = 6 * time.Second

// Snapshot pairs the latest status of both services.
type Snapshot struct {
	Anki   AnkiStatus
	Ollama OllamaStatus
}

// Poller re-probes both services on a fixed cadence. The two probes run
// independently each round: one service being down never hides the state
// of the other. Up/down transitions are appended to the session log.
type Poller struct {
	checker  *Checker
	interval time.Duration
	logger   *logger.Logger
	journal  *sessionlog.Log

	mu       sync.Mutex
	onUpdate func(Snapshot)
	current  Snapshot
}

func NewPoller(checker *Checker, interval time.Duration, log *logger.Logger, journal *sessionlog.Log) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if log == nil {
		log = logger.New()
	}
	return &Poller{checker: checker, interval: interval, logger: log, journal: journal}
}

// OnUpdate registers a hook called after every poll round with the fresh
// snapshot. Set it before Run.
func (p *Poller) OnUpdate(fn func(Snapshot)) {
	p.mu.Lock()
	p.onUpdate = fn
	p.mu.Unlock()
}

// Snapshot returns the latest pair of status records.
func (p *Poller) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Run polls until ctx is cancelled. The first round fires immediately so
// a fresh session shows real state instead of pending placeholders.
func (p *Poller) Run(ctx context.Context) {
	p.poll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("health polling stopped: %v", ctx.Err())
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	var wg sync.WaitGroup
	var anki AnkiStatus
	var ollama OllamaStatus

	wg.Add(2)
	go func() {
		defer wg.Done()
		anki = p.checker.CheckAnki(ctx)
	}()
	go func() {
		defer wg.Done()
		ollama = p.checker.CheckOllama(ctx)
	}()
	wg.Wait()

	p.mu.Lock()
	previous := p.current
	p.current = Snapshot{Anki: anki, Ollama: ollama}
	hook := p.onUpdate
	p.mu.Unlock()

	p.journalTransition("anki", previous.Anki.Checked, previous.Anki.OK, anki.OK, anki.Error)
	p.journalTransition("ollama", previous.Ollama.Checked, previous.Ollama.OK, ollama.OK, ollama.Error)

	if hook != nil {
		hook(Snapshot{Anki: anki, Ollama: ollama})
	}
}

func (p *Poller) journalTransition(service string, wasChecked, wasOK, nowOK bool, errText string) {
	if p.journal == nil {
		return
	}
	if wasChecked && wasOK == nowOK {
		return
	}
	if nowOK {
		p.journal.Success("%s is up", service)
		return
	}
	if errText != "" {
		p.journal.Warn("%s is down: %s", service, errText)
	} else {
		p.journal.Warn("%s is down", service)
	}
}

package browse

import (
	"sync"
	"time"
)

// scheduler coalesces bursts of requests into a single deferred firing.
// Each Schedule replaces the pending timer, so only the last request
// within the quiet window fires.
type scheduler struct {
	mu    sync.Mutex
	delay time.Duration
	fire  func()
	timer *time.Timer
}

func newScheduler(delay time.Duration, fire func()) *scheduler {
	return &scheduler{delay: delay, fire: fire}
}

func (s *scheduler) Schedule() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, s.fire)
}

// Stop cancels the pending firing, if any. A firing already started is
// not interrupted.
func (s *scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

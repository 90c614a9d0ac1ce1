package alerts

import (
	"sync"
	"time"
)

// Scheduler drives the processor's drain tick. The interval implementation is
// the production default; tests clock the processor externally with the
// manual one.
type Scheduler interface {
	// Start begins invoking tick until Stop is called.
	Start(tick func())
	// Stop halts the schedule. Stopping is the only control surface: a tick
	// already in flight runs to completion.
	Stop()
}

// IntervalScheduler invokes the tick on a fixed wall-clock interval.
type IntervalScheduler struct {
	interval time.Duration

	mu   sync.Mutex
	done chan struct{}
}

// NewIntervalScheduler creates a scheduler with the given interval.
func NewIntervalScheduler(interval time.Duration) *IntervalScheduler {
	return &IntervalScheduler{interval: interval}
}

// Start implements Scheduler.
func (s *IntervalScheduler) Start(tick func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done != nil {
		return
	}
	done := make(chan struct{})
	s.done = done

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				tick()
			}
		}
	}()
}

// Stop implements Scheduler.
func (s *IntervalScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done != nil {
		close(s.done)
		s.done = nil
	}
}

// ManualScheduler is an externally clocked scheduler. Fire runs the tick
// inline; Start and Stop only gate whether Fire does anything.
type ManualScheduler struct {
	mu      sync.Mutex
	tick    func()
	running bool
}

// NewManualScheduler creates a stopped manual scheduler.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// Start implements Scheduler.
func (s *ManualScheduler) Start(tick func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tick = tick
	s.running = true
}

// Stop implements Scheduler.
func (s *ManualScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
}

// Fire runs one tick if the scheduler is started.
func (s *ManualScheduler) Fire() {
	s.mu.Lock()
	tick := s.tick
	running := s.running
	s.mu.Unlock()

	if running && tick != nil {
		tick()
	}
}

package storage

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"truecrime-studio/models"
)

// Scheduler debounces saves of a hot state container. Every NotifyChange
// restarts the window; when it elapses without further changes, the snapshot
// is taken and saved. Bursts of keystroke-level edits therefore coalesce
// into one write of the multi-kilobyte collection instead of one per edit.
//
// The scheduler knows nothing about any UI framework: wire snapshot and save
// to whatever owns the mutable state.
type Scheduler struct {
	window   time.Duration
	snapshot func() *models.Project
	save     func(*models.Project) bool
	log      *zap.Logger

	mu       sync.Mutex
	timer    *time.Timer
	disposed bool

	// runMu serializes the snapshot-and-save. Dispose takes it too, so a
	// fire already past its disposed check finishes before Dispose returns.
	runMu sync.Mutex
}

// NewScheduler builds a scheduler. snapshot returns the current full state,
// or nil when there is nothing worth persisting (all content slices empty);
// save performs the repository write.
func NewScheduler(window time.Duration, snapshot func() *models.Project, save func(*models.Project) bool, log *zap.Logger) *Scheduler {
	return &Scheduler{
		window:   window,
		snapshot: snapshot,
		save:     save,
		log:      log,
	}
}

// NotifyChange records that observed state mutated. The debounce timer is
// (re)started; a pending timer is always cleared first, so rapid calls keep
// pushing the save out.
func (s *Scheduler) NotifyChange() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.window, s.fire)
}

// Flush saves immediately, cancelling any pending timer. Used by explicit
// "save now" actions and shutdown.
func (s *Scheduler) Flush() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
	s.runMu.Lock()
	defer s.runMu.Unlock()
	s.run()
}

// Dispose cancels any pending timer unconditionally and waits out a save
// already in flight. No save starts after Dispose returns.
func (s *Scheduler) Dispose() {
	s.mu.Lock()
	s.disposed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
	// The acquire is the wait: once it succeeds no fire is mid-run, and any
	// later fire sees disposed and aborts.
	s.runMu.Lock()
	s.runMu.Unlock() //nolint:staticcheck
}

func (s *Scheduler) fire() {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.mu.Unlock()
	s.run()
}

func (s *Scheduler) run() {
	p := s.snapshot()
	if p == nil || !p.HasContent() {
		return
	}
	if !s.save(p) {
		s.log.Warn("autosave write did not land", zap.String("project_id", p.ID))
	}
}

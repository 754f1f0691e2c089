package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// NextRun returns the first instant strictly after `after` that falls on the
// scheduled weekday and time of day in loc.
func NextRun(after time.Time, s Schedule, loc *time.Location) time.Time {
	local := after.In(loc)
	candidate := time.Date(local.Year(), local.Month(), local.Day(), s.Hour, s.Minute, 0, 0, loc)

	days := (int(s.Weekday) - int(candidate.Weekday()) + 7) % 7
	candidate = candidate.AddDate(0, 0, days)
	if !candidate.After(local) {
		candidate = candidate.AddDate(0, 0, 7)
	}
	return candidate
}

// Scheduler fires the engine's weekly run at the configured slot.
type Scheduler struct {
	mu     sync.RWMutex
	engine *Engine
	logger *slog.Logger
	now    func() time.Time
	cancel context.CancelFunc
	done   chan struct{}
}

func NewScheduler(engine *Engine, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		engine: engine,
		logger: logger.With("component", "scheduler"),
		now:    time.Now,
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	cfg := s.engine.Config()

	go func() {
		defer close(s.done)

		for {
			next := NextRun(s.now(), cfg.Schedule, cfg.Location)
			s.logger.Info("next weekly run scheduled", "at", next)
			timer := time.NewTimer(time.Until(next))

			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
				s.engine.RunWeekly(context.WithoutCancel(ctx))
			}
		}
	}()
}

// Stop cancels the loop and waits for an in-flight run to return.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

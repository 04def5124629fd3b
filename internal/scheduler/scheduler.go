package scheduler

import (
	"context"
	"roulette_backend/internal/model"
	"roulette_backend/pkg/logger"
	"sync"
	"time"
)

// Runner is the part of the round service driven by the scheduler
type Runner interface {
	CreateNextHourly(ctx context.Context) (*model.Round, error)
	DrainOverdue(ctx context.Context) model.DrainResult
	Cleanup(ctx context.Context) (int64, error)
}

type Intervals struct {
	Drain   time.Duration
	Round   time.Duration
	Cleanup time.Duration
}

type Status struct {
	Running   bool
	Stopping  bool
	StartedAt *time.Time
	LastDrain *time.Time
	LastRun   model.DrainResult
}

// State owns the periodic loops. Start and Stop are idempotent.
type State struct {
	runner    Runner
	intervals Intervals

	mu        sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
	stopping  bool
	startedAt *time.Time
	lastDrain *time.Time
	lastRun   model.DrainResult
}

func New(runner Runner, intervals Intervals) *State {
	return &State{
		runner:    runner,
		intervals: intervals,
	}
}

// Start launches the drain, round creation and cleanup loops.
// It reports false when the scheduler is already running or still stopping.
func (s *State) Start(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return false
	}

	// Loops outlive the request that started them
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	now := time.Now()

	s.cancel = cancel
	s.done = done
	s.startedAt = &now

	go s.run(runCtx, done)

	logger.Info("Scheduler started",
		"drain_interval", s.intervals.Drain,
		"round_interval", s.intervals.Round,
		"cleanup_interval", s.intervals.Cleanup,
	)
	return true
}

// Stop cancels the loops and waits for them to exit.
// It reports false when the scheduler was not running or another Stop is in progress.
func (s *State) Stop() bool {
	s.mu.Lock()
	if s.cancel == nil || s.stopping {
		s.mu.Unlock()
		return false
	}
	s.stopping = true
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	<-done

	// Cleared only once the loops are gone, so Start cannot overlap them
	s.mu.Lock()
	s.cancel = nil
	s.done = nil
	s.startedAt = nil
	s.stopping = false
	s.mu.Unlock()

	logger.Info("Scheduler stopped")
	return true
}

func (s *State) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Status{
		Running:   s.cancel != nil && !s.stopping,
		Stopping:  s.stopping,
		StartedAt: s.startedAt,
		LastDrain: s.lastDrain,
		LastRun:   s.lastRun,
	}
}

func (s *State) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	s.createNext(ctx)
	s.drain(ctx)

	var wg sync.WaitGroup
	wg.Go(func() { every(ctx, s.intervals.Drain, s.drain) })
	wg.Go(func() { every(ctx, s.intervals.Round, s.createNext) })
	wg.Go(func() { every(ctx, s.intervals.Cleanup, s.cleanup) })
	wg.Wait()
}

func every(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}

func (s *State) drain(ctx context.Context) {
	res := s.runner.DrainOverdue(ctx)
	now := time.Now()

	s.mu.Lock()
	s.lastDrain = &now
	s.lastRun = res
	s.mu.Unlock()
}

func (s *State) createNext(ctx context.Context) {
	if _, err := s.runner.CreateNextHourly(ctx); err != nil && ctx.Err() == nil {
		logger.Error("Failed to schedule next round", "error", err)
	}
}

func (s *State) cleanup(ctx context.Context) {
	deleted, err := s.runner.Cleanup(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logger.Error("Cleanup failed", "error", err)
		}
		return
	}
	logger.Debug("Cleanup finished", "deleted", deleted)
}

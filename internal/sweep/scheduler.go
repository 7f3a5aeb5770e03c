package sweep

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultInterval is the time between sweeps.
const DefaultInterval = 24 * time.Hour

// Runner is one unit of periodic work. *Sweeper implements it.
type Runner interface {
	Run(ctx context.Context) (Result, error)
}

// Scheduler runs a Runner at start and then every interval until stopped.
type Scheduler struct {
	mu       sync.Mutex
	runner   Runner
	interval time.Duration
	logger   *slog.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewScheduler creates a scheduler. A zero interval uses DefaultInterval.
func NewScheduler(runner Runner, interval time.Duration, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{runner: runner, interval: interval, logger: logger}
}

// Start launches the loop in a goroutine. The first pass runs immediately.
// Calling Start on a running scheduler does nothing.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	done := s.done

	go func() {
		defer close(done)

		s.tick(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()

	s.logger.Info("expiry sweep scheduled", slog.Duration("interval", s.interval))
}

// Stop cancels the loop and waits for an in-flight pass to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if _, err := s.runner.Run(ctx); err != nil {
		s.logger.Error("expiry sweep failed", slog.String("error", err.Error()))
	}
}

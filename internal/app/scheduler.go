package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// StaleCanceller is implemented by the appointment service.
type StaleCanceller interface {
	AutoCancelStale(ctx context.Context) (int, error)
}

// Scheduler runs the background housekeeping tasks.
type Scheduler struct {
	appointments StaleCanceller
	interval     time.Duration
	logger       *zap.Logger
	stopChan     chan struct{}
}

func NewScheduler(appointments StaleCanceller, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		appointments: appointments,
		interval:     interval,
		logger:       logger,
		stopChan:     make(chan struct{}),
	}
}

// Start launches the background tasks.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler", zap.Duration("interval", s.interval))

	go s.runAutoCancelTask(ctx)
}

// Stop terminates the background tasks.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	close(s.stopChan)
}

// runAutoCancelTask periodically expires pending appointments whose start
// time has passed, releasing their slots.
func (s *Scheduler) runAutoCancelTask(ctx context.Context) {
	// First run right at startup.
	s.autoCancel(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.autoCancel(ctx)
		case <-s.stopChan:
			s.logger.Info("Auto-cancel task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Auto-cancel task cancelled")
			return
		}
	}
}

func (s *Scheduler) autoCancel(ctx context.Context) {
	count, err := s.appointments.AutoCancelStale(ctx)
	if err != nil {
		s.logger.Error("Failed to auto-cancel stale appointments", zap.Error(err))
		return
	}

	if count > 0 {
		s.logger.Info("Auto-cancel pass finished", zap.Int("cancelled", count))
	}
}

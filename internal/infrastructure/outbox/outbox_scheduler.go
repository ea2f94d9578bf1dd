package outbox

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type Scheduler struct {
	dispatcher *Dispatcher
	interval   time.Duration
	logger     *zap.Logger
}

func NewScheduler(d *Dispatcher, intervalSec int, logger *zap.Logger) *Scheduler {
	if intervalSec <= 0 {
		intervalSec = 5
	}
	return &Scheduler{
		dispatcher: d,
		interval:   time.Duration(intervalSec) * time.Second,
		logger:     logger,
	}
}

// Run dispatches on every tick until ctx is cancelled. It blocks; start it in its own goroutine.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("outbox scheduler stopped")
			return nil
		case <-ticker.C:
			n, err := s.dispatcher.DispatchOnce(ctx)
			if err != nil {
				s.logger.Error("outbox dispatch error", zap.Error(err))
			} else if n > 0 {
				s.logger.Info("outbox dispatch processed messages", zap.Int("count", n))
			}
		}
	}
}

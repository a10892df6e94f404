package usecase

import (
	"context"
	"sync"
	"time"

	applogger "QuantPull/pkg/logger"
)

// CollectScheduler re-enqueues the full collection workload on a fixed
// period. The first round goes out immediately on Start so a fresh deploy
// does not wait a full period for data.
type CollectScheduler struct {
	collector *Collector
	every     time.Duration
	log       *applogger.Logger

	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewCollectScheduler(collector *Collector, every time.Duration, log *applogger.Logger) *CollectScheduler {
	return &CollectScheduler{
		collector: collector,
		every:     every,
		log:       log,
		stopCh:    make(chan struct{}),
	}
}

// Start launches the scheduling loop. A non-positive period disables it.
func (s *CollectScheduler) Start(ctx context.Context) {
	if s.every <= 0 {
		s.log.Info("collection scheduler disabled")
		return
	}

	go func() {
		s.enqueueRound(ctx)

		ticker := time.NewTicker(s.every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopCh:
				return
			case <-ticker.C:
				s.enqueueRound(ctx)
			}
		}
	}()
	s.log.Info("collection scheduler started", applogger.Duration("every", s.every))
}

func (s *CollectScheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

func (s *CollectScheduler) enqueueRound(ctx context.Context) {
	n, err := s.collector.EnqueueAll(ctx)
	if err != nil {
		s.log.Error("scheduled enqueue failed",
			applogger.Int("accepted", n),
			applogger.Error(err),
		)
		return
	}
	s.log.Info("collection round enqueued", applogger.Int("jobs", n))
}

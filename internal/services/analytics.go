package services

import (
	"context"
	"sync"
	"time"

	"storefront/internal/models"
	"storefront/internal/realtime"

	"go.uber.org/zap"
)

/*
LEARNING: ANALYTICS WORKER POOL PATTERN

Client tracking events arrive on websocket read goroutines. Writing them to
the database there would let one slow insert stall a connection, so they are
handed to a fixed pool of workers through a bounded channel.

Key Concepts:
1. **Worker Pool**: Fixed number of workers processing jobs from a queue
2. **Bounded queue**: Track never blocks; a full queue drops the event
3. **Graceful Shutdown**: Close the queue, let workers drain it, wait on the WaitGroup
*/

var analyticsKinds = map[models.AnalyticsKind]realtime.Kind{
	models.AnalyticsPageView:    realtime.KindPageView,
	models.AnalyticsProductView: realtime.KindProductView,
	models.AnalyticsCartAction:  realtime.KindCartAction,
}

// AnalyticsServiceImpl persists tracking events and mirrors them to admins
type AnalyticsServiceImpl struct {
	repo AnalyticsRepository
	hub  Publisher
	log  *zap.Logger

	// Worker pool components
	jobs    chan models.AnalyticsEvent
	workers int
	wg      sync.WaitGroup

	mu      sync.RWMutex
	stopped bool
}

func NewAnalyticsService(repo AnalyticsRepository, hub Publisher, numWorkers, queueSize int, log *zap.Logger) *AnalyticsServiceImpl {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &AnalyticsServiceImpl{
		repo:    repo,
		hub:     hub,
		log:     log.Named("analytics"),
		jobs:    make(chan models.AnalyticsEvent, queueSize),
		workers: numWorkers,
	}
}

// Start spawns the workers
func (s *AnalyticsServiceImpl) Start() {
	s.log.Info("🔧 Starting analytics worker pool", zap.Int("workers", s.workers))

	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
}

func (s *AnalyticsServiceImpl) worker(id int) {
	defer s.wg.Done()

	for event := range s.jobs {
		if err := s.process(event); err != nil {
			s.log.Warn("failed to process analytics event",
				zap.Int("worker", id),
				zap.String("kind", string(event.Kind)),
				zap.Error(err))
		}
	}
}

// Track queues an event without blocking. It returns false when the queue is
// full or the pool has stopped.
func (s *AnalyticsServiceImpl) Track(event models.AnalyticsEvent) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.stopped {
		return false
	}
	select {
	case s.jobs <- event:
		return true
	default:
		return false
	}
}

// process mirrors the event to admins first so the live feed does not wait
// on the insert.
func (s *AnalyticsServiceImpl) process(event models.AnalyticsEvent) error {
	if kind, ok := analyticsKinds[event.Kind]; ok {
		s.hub.Publish(realtime.Envelope{Kind: kind, Target: realtime.ToAdmins(), Payload: event})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.repo.Store(ctx, &event)
}

// Shutdown stops accepting events and waits for queued ones to be written
func (s *AnalyticsServiceImpl) Shutdown() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.jobs)
	s.mu.Unlock()

	s.wg.Wait()
	s.log.Info("✓ Analytics worker pool stopped")
}

package service

import (
	"context"
	"sync"

	"ai-shopflow-be/internal/pkg/logger"
	"ai-shopflow-be/pkg/events"
	"ai-shopflow-be/pkg/nats"
)

type ILifecycleConsumerService interface {
	Start() error
	Counts() map[string]int
}

// LifecycleConsumerService subscribes to the session lifecycle subjects and
// keeps rolling counters. It is the durable-consumer side of the bus the
// orchestrator publishes to; outage of this consumer never affects runs.
type LifecycleConsumerService struct {
	subscriber *nats.Subscriber
	logger     logger.ILogger

	mu     sync.Mutex
	counts map[string]int
}

var _ ILifecycleConsumerService = &LifecycleConsumerService{}

func NewLifecycleConsumerService(subscriber *nats.Subscriber, log logger.ILogger) *LifecycleConsumerService {
	return &LifecycleConsumerService{
		subscriber: subscriber,
		logger:     log,
		counts:     make(map[string]int),
	}
}

func (s *LifecycleConsumerService) Start() error {
	return s.subscriber.Subscribe("shopflow.session.>", "shopflow-lifecycle", s.handle)
}

func (s *LifecycleConsumerService) handle(ctx context.Context, event events.Event) error {
	s.mu.Lock()
	s.counts[event.EventType()]++
	s.mu.Unlock()

	s.logger.Info("Lifecycle", "Session lifecycle event", map[string]interface{}{
		"event_type": event.EventType(),
		"payload":    event.Payload(),
	})
	return nil
}

// Counts returns a snapshot of how many events of each type were consumed.
func (s *LifecycleConsumerService) Counts() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make(map[string]int, len(s.counts))
	for eventType, count := range s.counts {
		snapshot[eventType] = count
	}
	return snapshot
}

package operations

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/bootheat/pkg/event"
)

// OrderEventSubscriber listens to order lifecycle events, drops the boards
// they make stale and wakes approval waits.
type OrderEventSubscriber struct {
	subscriber events.Subscriber
	cache      *BoardCache
	poller     *ApprovalPoller
	logger     apt.Logger
	stopped    atomic.Bool
}

func NewOrderEventSubscriber(subscriber events.Subscriber, cache *BoardCache, poller *ApprovalPoller, logger apt.Logger) *OrderEventSubscriber {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &OrderEventSubscriber{
		subscriber: subscriber,
		cache:      cache,
		poller:     poller,
		logger:     logger,
	}
}

// Start begins listening to order events.
func (s *OrderEventSubscriber) Start(ctx context.Context) error {
	if s.subscriber == nil {
		s.logger.Info("NATS subscriber not configured, boards refresh on interval only")
		return nil
	}

	s.stopped.Store(false)
	if err := s.subscriber.Subscribe(ctx, event.OrdersTopic, s.handleEvent); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", event.OrdersTopic, err)
	}

	s.logger.Info("order event subscriber started", "topic", event.OrdersTopic)
	return nil
}

// Stop makes later deliveries no-ops.
func (s *OrderEventSubscriber) Stop(ctx context.Context) error {
	s.stopped.Store(true)
	return nil
}

func (s *OrderEventSubscriber) handleEvent(ctx context.Context, msg []byte) error {
	if s.stopped.Load() {
		return nil
	}

	var env event.Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		s.logger.Error("failed to unmarshal order event", "error", err)
		return nil
	}

	switch env.EventType {
	case event.EventOrderCreated:
		s.cache.Invalidate(env.BoothID)
	case event.EventOrderStatusChanged:
		s.cache.Invalidate(env.BoothID)
		if s.poller != nil {
			s.poller.Notify(env.OrderID)
		}
	case event.EventVisitOpened, event.EventVisitClosed:
		s.cache.Invalidate(env.BoothID)
	default:
		s.logger.Debug("ignoring unknown event type", "event_type", env.EventType)
		return nil
	}

	s.logger.Debug("order event applied", "event_type", env.EventType, "booth_id", env.BoothID, "order_id", env.OrderID)
	return nil
}

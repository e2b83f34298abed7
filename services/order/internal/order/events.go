package order

import (
	"context"
	"encoding/json"

	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/bootheat/pkg/event"
	"github.com/google/uuid"
)

func (s *Service) publishOrderCreated(ctx context.Context, o *Order) {
	evt := event.OrderEvent{
		EventID:     uuid.NewString(),
		EventType:   event.EventOrderCreated,
		OccurredAt:  s.now().UTC(),
		OrderID:     o.ID,
		OrderCode:   o.OrderCode,
		BoothID:     o.BoothID,
		TableID:     o.TableID,
		VisitID:     o.VisitIDValue(),
		Status:      o.Status,
		TotalAmount: o.TotalAmount,
	}
	s.publish(ctx, s.publisher, event.OrdersTopic, evt, "order_id", o.ID)
}

func (s *Service) publishStatusChanged(ctx context.Context, o *Order, previous string) {
	evt := event.OrderEvent{
		EventID:        uuid.NewString(),
		EventType:      event.EventOrderStatusChanged,
		OccurredAt:     s.now().UTC(),
		OrderID:        o.ID,
		OrderCode:      o.OrderCode,
		BoothID:        o.BoothID,
		TableID:        o.TableID,
		VisitID:        o.VisitIDValue(),
		Status:         o.Status,
		PreviousStatus: previous,
		TotalAmount:    o.TotalAmount,
	}
	s.publish(ctx, s.publisher, event.OrdersTopic, evt, "order_id", o.ID)
}

func (s *Service) publishVisitEvent(ctx context.Context, v *Visit) {
	eventType := event.EventVisitOpened
	if !v.IsOpen() {
		eventType = event.EventVisitClosed
	}

	evt := event.VisitEvent{
		EventID:    uuid.NewString(),
		EventType:  eventType,
		OccurredAt: s.now().UTC(),
		BoothID:    v.BoothID,
		TableID:    v.TableID,
		VisitID:    v.ID,
		VisitNo:    v.VisitNo,
		Status:     v.Status,
		StartedAt:  v.StartedAt,
		ClosedAt:   v.ClosedAt,
	}
	s.publish(ctx, s.publisher, event.OrdersTopic, evt, "visit_id", v.ID)
}

func (s *Service) publishMenuEvent(ctx context.Context, eventType string, m *MenuItem) {
	evt := event.MenuItemEvent{
		EventID:    uuid.NewString(),
		EventType:  eventType,
		OccurredAt: s.now().UTC(),
		BoothID:    m.BoothID,
		MenuItemID: m.ID,
		Name:       m.Name,
		Available:  m.Available,
	}
	s.publish(ctx, s.menuPublisher, event.MenuItemsTopic, evt, "menu_item_id", m.ID)
}

// publish is best effort: a broker outage must not fail the write that
// already succeeded.
func (s *Service) publish(ctx context.Context, pub events.Publisher, topic string, evt any, idKey string, id int64) {
	if pub == nil {
		return
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		s.logger.Error("cannot marshal event", "topic", topic, "error", err)
		return
	}

	if err := pub.Publish(ctx, topic, payload); err != nil {
		s.logger.Error("cannot publish event", "topic", topic, idKey, id, "error", err)
		return
	}
	s.logger.Debug("published event", "topic", topic, idKey, id)
}

package event

import "time"

const (
	// OrdersTopic carries order and visit lifecycle events emitted by the order service.
	OrdersTopic = "orders.lifecycle"
	// OrdersStream is the JetStream stream bound to OrdersTopic.
	OrdersStream = "ORDER_EVENTS"

	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status.changed"
)

// OrderEvent represents an order lifecycle event published to NATS.
// Operations consumes it to invalidate dashboard boards and wake approval pollers.
type OrderEvent struct {
	EventID        string    `json:"event_id"`
	EventType      string    `json:"event_type"`
	OccurredAt     time.Time `json:"occurred_at"`
	OrderID        int64     `json:"order_id"`
	OrderCode      string    `json:"order_code,omitempty"`
	BoothID        int64     `json:"booth_id"`
	TableID        int64     `json:"table_id"`
	VisitID        int64     `json:"visit_id,omitempty"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	TotalAmount    int64     `json:"total_amount,omitempty"`
}

// Envelope is the minimal shape shared by every event on OrdersTopic.
// Consumers decode it first and switch on EventType.
type Envelope struct {
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	BoothID    int64     `json:"booth_id"`
	TableID    int64     `json:"table_id"`
	OrderID    int64     `json:"order_id,omitempty"`
	Status     string    `json:"status,omitempty"`
}

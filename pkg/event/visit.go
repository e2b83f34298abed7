package event

import "time"

const (
	// EventVisitOpened identifies a visit opened by the first order on a table.
	EventVisitOpened = "visit.opened"
	// EventVisitClosed identifies a visit closed by the manager clear-table action.
	EventVisitClosed = "visit.closed"
)

// VisitEvent captures table visit transitions. It travels on OrdersTopic so a
// single consumer sees orders and visits in publish order.
type VisitEvent struct {
	EventID    string     `json:"event_id"`
	EventType  string     `json:"event_type"`
	OccurredAt time.Time  `json:"occurred_at"`
	BoothID    int64      `json:"booth_id"`
	TableID    int64      `json:"table_id"`
	VisitID    int64      `json:"visit_id"`
	VisitNo    int        `json:"visit_no"`
	Status     string     `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	ClosedAt   *time.Time `json:"closed_at,omitempty"`
}

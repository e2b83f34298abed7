package order

import (
	"time"

	"github.com/appetiteclub/bootheat/pkg/enums/visitstatus"
)

// Visit is one continuous occupancy of a table. At most one visit per table
// is OPEN at any time.
type Visit struct {
	ID        int64      `json:"visitId" bson:"_id"`
	TableID   int64      `json:"tableId" bson:"table_id"`
	BoothID   int64      `json:"boothId" bson:"booth_id"`
	VisitNo   int        `json:"visitNo" bson:"visit_no"`
	Status    string     `json:"status" bson:"status"`
	StartedAt time.Time  `json:"startedAt" bson:"started_at"`
	ClosedAt  *time.Time `json:"closedAt,omitempty" bson:"closed_at,omitempty"`
}

func NewVisit(table *Table, visitNo int) *Visit {
	return &Visit{
		TableID:   table.ID,
		BoothID:   table.BoothID,
		VisitNo:   visitNo,
		Status:    visitstatus.Open,
		StartedAt: time.Now(),
	}
}

func (v *Visit) IsOpen() bool {
	return v.Status == visitstatus.Open
}

func (v *Visit) Close(at time.Time) {
	v.Status = visitstatus.Closed
	v.ClosedAt = &at
}

// Duration returns the closed visit length; open visits report zero.
func (v *Visit) Duration() time.Duration {
	if v.ClosedAt == nil {
		return 0
	}
	return v.ClosedAt.Sub(v.StartedAt)
}

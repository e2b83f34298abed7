package order

import (
	"time"
)

type Table struct {
	ID          int64     `json:"tableId" bson:"_id"`
	BoothID     int64     `json:"boothId" bson:"booth_id"`
	TableNumber int       `json:"tableNumber" bson:"table_number"`
	Active      bool      `json:"active" bson:"active"`
	CreatedAt   time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updated_at"`
}

func (t *Table) ResourceType() string {
	return "table"
}

func NewTable(boothID int64, number int) *Table {
	return &Table{
		BoothID:     boothID,
		TableNumber: number,
		Active:      true,
	}
}

func (t *Table) BeforeCreate() {
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
}

func (t *Table) BeforeUpdate() {
	t.UpdatedAt = time.Now()
}

func (t *Table) Activate() {
	t.Active = true
	t.BeforeUpdate()
}

func (t *Table) Deactivate() {
	t.Active = false
	t.BeforeUpdate()
}

// TableListItem is the row returned by the booth table listing.
type TableListItem struct {
	TableID     int64  `json:"tableId"`
	TableNumber int    `json:"tableNumber"`
	Active      bool   `json:"active"`
	TableVisit  string `json:"tableVisit"`
}

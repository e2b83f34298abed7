package order

import (
	"context"
	"time"
)

// Sequencer hands out monotonically increasing ids per named sequence.
type Sequencer interface {
	Next(ctx context.Context, name string) (int64, error)
}

type TableRepo interface {
	Create(ctx context.Context, table *Table) error
	Get(ctx context.Context, id int64) (*Table, error)
	GetByNumber(ctx context.Context, boothID int64, number int) (*Table, error)
	ListByBooth(ctx context.Context, boothID int64) ([]*Table, error)
	Save(ctx context.Context, table *Table) error
}

type VisitRepo interface {
	Create(ctx context.Context, visit *Visit) error
	Get(ctx context.Context, id int64) (*Visit, error)
	// FindOpen returns the OPEN visit with the latest startedAt, or nil.
	FindOpen(ctx context.Context, tableID int64) (*Visit, error)
	LastVisitNo(ctx context.Context, tableID int64) (int, error)
	ListClosedBetween(ctx context.Context, from, to time.Time) ([]*Visit, error)
	Save(ctx context.Context, visit *Visit) error
}

type OrderRepo interface {
	Create(ctx context.Context, order *Order) error
	Get(ctx context.Context, id int64) (*Order, error)
	// ListByVisit is ordered by createdAt then id, ascending.
	ListByVisit(ctx context.Context, visitID int64) ([]*Order, error)
	// ListByTable is ordered newest first.
	ListByTable(ctx context.Context, tableID int64) ([]*Order, error)
	ListByBoothBetween(ctx context.Context, boothID int64, from, to time.Time) ([]*Order, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]*Order, error)
	ListByMenuItem(ctx context.Context, boothID, menuItemID int64) ([]*Order, error)
	ExistsWithMenuItem(ctx context.Context, menuItemID int64) (bool, error)
	Save(ctx context.Context, order *Order) error
}

type MenuItemRepo interface {
	Create(ctx context.Context, item *MenuItem) error
	Get(ctx context.Context, id int64) (*MenuItem, error)
	GetByName(ctx context.Context, boothID int64, name string) (*MenuItem, error)
	// ListByBooth is ordered by name.
	ListByBooth(ctx context.Context, boothID int64) ([]*MenuItem, error)
	// ListAvailableByBooth is ListByBooth restricted to items on sale.
	ListAvailableByBooth(ctx context.Context, boothID int64) ([]*MenuItem, error)
	Save(ctx context.Context, item *MenuItem) error
	Delete(ctx context.Context, id int64) error
}

// BoothAccountRepo keeps one account per booth.
type BoothAccountRepo interface {
	Get(ctx context.Context, boothID int64) (*BoothAccount, error)
	Upsert(ctx context.Context, account *BoothAccount) error
}

type Repos struct {
	Sequencer        Sequencer
	TableRepo        TableRepo
	VisitRepo        VisitRepo
	OrderRepo        OrderRepo
	MenuItemRepo     MenuItemRepo
	BoothAccountRepo BoothAccountRepo
}

// Sequence names used with Sequencer.
const (
	SeqTables    = "tables"
	SeqVisits    = "visits"
	SeqOrders    = "orders"
	SeqMenuItems = "menu_items"
)

package operations

import (
	"context"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"golang.org/x/sync/errgroup"
)

const (
	defaultTableConcurrency  = 8
	defaultDetailConcurrency = 4
)

// Aggregator builds booth boards from the order service.
type Aggregator struct {
	store       OrderStore
	loc         *time.Location
	tableLimit  int
	detailLimit int
	logger      apt.Logger
	now         func() time.Time
}

func NewAggregator(store OrderStore, loc *time.Location, logger apt.Logger) *Aggregator {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Aggregator{
		store:       store,
		loc:         loc,
		tableLimit:  defaultTableConcurrency,
		detailLimit: defaultDetailConcurrency,
		logger:      logger,
		now:         time.Now,
	}
}

// LoadBoard returns one card per booth table, in table listing order.
func (a *Aggregator) LoadBoard(ctx context.Context, boothID int64) ([]Card, error) {
	board, err := a.Build(ctx, boothID)
	if err != nil {
		return nil, err
	}
	return board.Cards, nil
}

// Build aggregates the board. Tables load concurrently; a table whose
// pipeline fails gets an error card and does not affect the others. Only
// failing to list the tables fails the board.
func (a *Aggregator) Build(ctx context.Context, boothID int64) (*Board, error) {
	tables, err := a.store.ListTables(ctx, boothID)
	if err != nil {
		return nil, fmt.Errorf("cannot list tables of booth %d: %w", boothID, err)
	}

	cards := make([]Card, len(tables))
	groups := make([][]OrderDetail, len(tables))

	var g errgroup.Group
	g.SetLimit(a.tableLimit)
	for i, t := range tables {
		g.Go(func() error {
			card, group, err := a.loadTable(ctx, t)
			if err != nil {
				a.logger.Error("cannot load table card", "booth_id", boothID, "table_id", t.TableID, "error", err)
				cards[i] = errorCard(t, err)
				return nil
			}
			cards[i] = card
			groups[i] = group
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	board := &Board{
		BoothID:  boothID,
		Cards:    cards,
		Groups:   make(map[int64][]OrderDetail),
		LoadedAt: a.now(),
	}
	for i, t := range tables {
		if len(groups[i]) > 0 {
			board.Groups[t.TableID] = groups[i]
		}
	}

	return board, nil
}

func (a *Aggregator) loadTable(ctx context.Context, t Table) (Card, []OrderDetail, error) {
	if !t.Active {
		return closedCard(t), nil, nil
	}

	ids, err := a.store.LatestVisitOrderIDs(ctx, t.TableID)
	if err != nil {
		return Card{}, nil, fmt.Errorf("cannot list visit orders: %w", err)
	}
	if len(ids) == 0 {
		return emptyCard(t), nil, nil
	}

	details := a.fetchDetails(ctx, t.TableID, ids)
	if len(details) == 0 {
		return Card{}, nil, fmt.Errorf("cannot fetch any of %d orders", len(ids))
	}

	group := LatestGroup(GroupByVisit(details))
	summary, err := Summarize(group, a.loc)
	if err != nil {
		return Card{}, nil, err
	}

	return summary.Card(t), group, nil
}

// fetchDetails loads every order concurrently. Failed fetches are logged and
// left out; they are not retried.
func (a *Aggregator) fetchDetails(ctx context.Context, tableID int64, ids []int64) []OrderDetail {
	results := make([]*OrderDetail, len(ids))

	var g errgroup.Group
	g.SetLimit(a.detailLimit)
	for i, id := range ids {
		g.Go(func() error {
			detail, err := a.store.GetOrderDetail(ctx, id)
			if err != nil {
				a.logger.Error("dropping order from board", "table_id", tableID, "order_id", id, "error", err)
				return nil
			}
			results[i] = detail
			return nil
		})
	}
	_ = g.Wait()

	details := make([]OrderDetail, 0, len(ids))
	for _, d := range results {
		if d != nil {
			details = append(details, *d)
		}
	}
	return details
}

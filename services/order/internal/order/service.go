package order

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/bootheat/pkg/enums/orderstatus"
	"github.com/appetiteclub/bootheat/pkg/enums/visitstatus"
)

const recentOrdersLimit = 10

// Service owns the order, table and visit workflows. Handlers stay thin and
// translate its typed errors into HTTP status codes.
type Service struct {
	repos         Repos
	publisher     events.Publisher
	menuPublisher events.Publisher
	logger        apt.Logger
	loc           *time.Location
	now           func() time.Time

	// visitMu serializes find-or-create and close of OPEN visits. The
	// partial unique index on visits backs it up across processes.
	visitMu sync.Mutex
}

// ServiceDeps wires the service. Publisher receives order and visit events;
// MenuPublisher receives menu events and falls back to Publisher when nil.
type ServiceDeps struct {
	Repos         Repos
	Publisher     events.Publisher
	MenuPublisher events.Publisher
	Location      *time.Location
}

func NewService(deps ServiceDeps, logger apt.Logger) *Service {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	loc := deps.Location
	if loc == nil {
		loc = time.Local
	}
	menuPublisher := deps.MenuPublisher
	if menuPublisher == nil {
		menuPublisher = deps.Publisher
	}
	return &Service{
		repos:         deps.Repos,
		publisher:     deps.Publisher,
		menuPublisher: menuPublisher,
		logger:        logger,
		loc:           loc,
		now:           time.Now,
	}
}

// Location is the zone used for order codes and day boundaries.
func (s *Service) Location() *time.Location {
	return s.loc
}

// PlaceOrder records a checkout. The order lands in the table's OPEN visit,
// which is created when there is none.
func (s *Service) PlaceOrder(ctx context.Context, req OrderCreateRequest) (*Order, error) {
	if errs := ValidateCreateOrder(req); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	table, err := s.repos.TableRepo.GetByNumber(ctx, req.BoothID, req.TableNo)
	if err != nil {
		return nil, fmt.Errorf("cannot get table: %w", err)
	}
	if table == nil {
		return nil, &NotFoundError{Resource: "table", ID: req.TableNo}
	}

	items := make([]OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		menuItem, err := s.repos.MenuItemRepo.Get(ctx, it.FoodID)
		if err != nil {
			return nil, fmt.Errorf("cannot get menu item: %w", err)
		}
		if menuItem == nil {
			return nil, &NotFoundError{Resource: "menu item", ID: it.FoodID}
		}

		name := menuItem.Name
		if name == "" {
			name = it.Name
		}
		items = append(items, OrderItem{
			FoodID:   it.FoodID,
			Name:     name,
			Price:    it.Price,
			ImageURL: it.ImageURL,
			Quantity: it.Quantity,
		})
	}

	visit, err := s.openVisit(ctx, table)
	if err != nil {
		return nil, err
	}

	id, err := s.repos.Sequencer.Next(ctx, SeqOrders)
	if err != nil {
		return nil, fmt.Errorf("cannot allocate order id: %w", err)
	}

	now := s.now()
	o := NewOrder(table, visit)
	o.ID = id
	o.Items = items
	o.TotalAmount = req.Payment.Amount
	o.Payment = &Payment{
		PayerName: req.Payment.PayerName,
		Amount:    req.Payment.Amount,
		PaidAt:    now,
	}
	o.CreatedAt = now
	o.BeforeCreate()
	o.AssignCode(s.loc)

	if err := s.repos.OrderRepo.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("cannot create order: %w", err)
	}

	s.publishOrderCreated(ctx, o)
	return o, nil
}

// openVisit returns the table's OPEN visit, creating one and reactivating
// the table when needed.
func (s *Service) openVisit(ctx context.Context, table *Table) (*Visit, error) {
	s.visitMu.Lock()
	defer s.visitMu.Unlock()

	visit, err := s.repos.VisitRepo.FindOpen(ctx, table.ID)
	if err != nil {
		return nil, fmt.Errorf("cannot find open visit: %w", err)
	}
	if visit != nil {
		return visit, nil
	}

	lastNo, err := s.repos.VisitRepo.LastVisitNo(ctx, table.ID)
	if err != nil {
		return nil, fmt.Errorf("cannot get last visit number: %w", err)
	}

	id, err := s.repos.Sequencer.Next(ctx, SeqVisits)
	if err != nil {
		return nil, fmt.Errorf("cannot allocate visit id: %w", err)
	}

	visit = NewVisit(table, lastNo+1)
	visit.ID = id
	visit.StartedAt = s.now()

	if err := s.repos.VisitRepo.Create(ctx, visit); err != nil {
		if !errors.Is(err, ErrDuplicate) {
			return nil, fmt.Errorf("cannot create visit: %w", err)
		}
		// Another instance opened a visit first.
		existing, findErr := s.repos.VisitRepo.FindOpen(ctx, table.ID)
		if findErr != nil || existing == nil {
			return nil, fmt.Errorf("cannot create visit: %w", err)
		}
		return existing, nil
	}

	if !table.Active {
		table.Activate()
		if err := s.repos.TableRepo.Save(ctx, table); err != nil {
			s.logger.Error("cannot reactivate table", "table_id", table.ID, "error", err)
		}
	}

	s.publishVisitEvent(ctx, visit)
	return visit, nil
}

func (s *Service) GetOrder(ctx context.Context, id int64) (*Order, error) {
	o, err := s.repos.OrderRepo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("cannot get order: %w", err)
	}
	if o == nil {
		return nil, &NotFoundError{Resource: "order", ID: id}
	}
	return o, nil
}

// SetStatus overwrites an order status with any allowed value. Repeating
// the same call leaves the same stored status.
func (s *Service) SetStatus(ctx context.Context, id int64, raw string) (*Order, error) {
	status, ok := orderstatus.Parse(raw)
	if !ok {
		return nil, &InvalidStatusError{Status: raw}
	}

	o, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := o.SetStatus(status)
	if err := s.repos.OrderRepo.Save(ctx, o); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, &NotFoundError{Resource: "order", ID: id}
		}
		return nil, fmt.Errorf("cannot save order: %w", err)
	}

	s.publishStatusChanged(ctx, o, previous)
	return o, nil
}

// LatestVisitOrderIDs lists the ids of the OPEN visit's orders, oldest
// first. A table without an OPEN visit yields an empty list.
func (s *Service) LatestVisitOrderIDs(ctx context.Context, tableID int64) ([]int64, error) {
	table, err := s.repos.TableRepo.Get(ctx, tableID)
	if err != nil {
		return nil, fmt.Errorf("cannot get table: %w", err)
	}
	if table == nil {
		return nil, &NotFoundError{Resource: "table", ID: tableID}
	}

	visit, err := s.repos.VisitRepo.FindOpen(ctx, tableID)
	if err != nil {
		return nil, fmt.Errorf("cannot find open visit: %w", err)
	}
	if visit == nil {
		return []int64{}, nil
	}

	orders, err := s.repos.OrderRepo.ListByVisit(ctx, visit.ID)
	if err != nil {
		return nil, fmt.Errorf("cannot list visit orders: %w", err)
	}

	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	return ids, nil
}

// CloseVisit marks the table inactive and closes its OPEN visit. It reports
// whether a visit was closed.
func (s *Service) CloseVisit(ctx context.Context, tableID int64) (bool, error) {
	table, err := s.repos.TableRepo.Get(ctx, tableID)
	if err != nil {
		return false, fmt.Errorf("cannot get table: %w", err)
	}
	if table == nil {
		return false, &NotFoundError{Resource: "table", ID: tableID}
	}

	s.visitMu.Lock()
	defer s.visitMu.Unlock()

	table.Deactivate()
	if err := s.repos.TableRepo.Save(ctx, table); err != nil {
		return false, fmt.Errorf("cannot save table: %w", err)
	}

	visit, err := s.repos.VisitRepo.FindOpen(ctx, tableID)
	if err != nil {
		return false, fmt.Errorf("cannot find open visit: %w", err)
	}
	if visit == nil {
		return false, nil
	}

	visit.Close(s.now())
	if err := s.repos.VisitRepo.Save(ctx, visit); err != nil {
		return false, fmt.Errorf("cannot close visit: %w", err)
	}

	s.publishVisitEvent(ctx, visit)
	return true, nil
}

// CreateTable adds a table to a booth. Without a number the next free one
// is used.
func (s *Service) CreateTable(ctx context.Context, boothID int64, req TableCreateRequest) (*Table, error) {
	if errs := ValidateCreateTable(req); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	var number int
	if req.TableNumber != nil {
		number = *req.TableNumber
		existing, err := s.repos.TableRepo.GetByNumber(ctx, boothID, number)
		if err != nil {
			return nil, fmt.Errorf("cannot get table: %w", err)
		}
		if existing != nil {
			return nil, &ConflictError{Reason: fmt.Sprintf("table %d already exists in booth %d", number, boothID)}
		}
	} else {
		tables, err := s.repos.TableRepo.ListByBooth(ctx, boothID)
		if err != nil {
			return nil, fmt.Errorf("cannot list tables: %w", err)
		}
		number = nextTableNumber(tables)
	}

	id, err := s.repos.Sequencer.Next(ctx, SeqTables)
	if err != nil {
		return nil, fmt.Errorf("cannot allocate table id: %w", err)
	}

	table := NewTable(boothID, number)
	table.ID = id
	if req.Active != nil {
		table.Active = *req.Active
	}
	table.BeforeCreate()

	if err := s.repos.TableRepo.Create(ctx, table); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, &ConflictError{Reason: fmt.Sprintf("table %d already exists in booth %d", number, boothID)}
		}
		return nil, fmt.Errorf("cannot create table: %w", err)
	}
	return table, nil
}

func nextTableNumber(tables []*Table) int {
	highest := 0
	for _, t := range tables {
		if t.TableNumber > highest {
			highest = t.TableNumber
		}
	}
	return highest + 1
}

// ListTables returns the booth tables by number with their visit state.
func (s *Service) ListTables(ctx context.Context, boothID int64) ([]TableListItem, error) {
	tables, err := s.repos.TableRepo.ListByBooth(ctx, boothID)
	if err != nil {
		return nil, fmt.Errorf("cannot list tables: %w", err)
	}

	items := make([]TableListItem, 0, len(tables))
	for _, t := range tables {
		visit, err := s.repos.VisitRepo.FindOpen(ctx, t.ID)
		if err != nil {
			return nil, fmt.Errorf("cannot find open visit: %w", err)
		}

		state := visitstatus.Closed
		if visit != nil {
			state = visitstatus.Open
		}
		items = append(items, TableListItem{
			TableID:     t.ID,
			TableNumber: t.TableNumber,
			Active:      t.Active,
			TableVisit:  state,
		})
	}
	return items, nil
}

// TableOrders is the full order history of a table, newest first.
func (s *Service) TableOrders(ctx context.Context, boothID, tableID int64) ([]OrderRow, error) {
	table, err := s.repos.TableRepo.Get(ctx, tableID)
	if err != nil {
		return nil, fmt.Errorf("cannot get table: %w", err)
	}
	if table == nil {
		return nil, &NotFoundError{Resource: "table", ID: tableID}
	}
	if table.BoothID != boothID {
		return nil, &ConflictError{Reason: "table does not belong to booth"}
	}

	orders, err := s.repos.OrderRepo.ListByTable(ctx, tableID)
	if err != nil {
		return nil, fmt.Errorf("cannot list table orders: %w", err)
	}
	return toOrderRows(orders), nil
}

// TableContext is what a storefront needs when a customer sits down: the
// OPEN visit, if any, and the latest orders of the table.
func (s *Service) TableContext(ctx context.Context, boothID int64, tableNo int) (*TableContext, error) {
	table, err := s.repos.TableRepo.GetByNumber(ctx, boothID, tableNo)
	if err != nil {
		return nil, fmt.Errorf("cannot get table: %w", err)
	}
	if table == nil {
		return nil, &NotFoundError{Resource: "table", ID: tableNo}
	}

	result := &TableContext{
		BoothID:      boothID,
		TableNo:      tableNo,
		RecentOrders: []OrderRow{},
	}

	visit, err := s.repos.VisitRepo.FindOpen(ctx, table.ID)
	if err != nil {
		return nil, fmt.Errorf("cannot find open visit: %w", err)
	}
	if visit != nil {
		result.CurrentVisit = &VisitView{
			VisitID:   visit.ID,
			VisitNo:   visit.VisitNo,
			Status:    visit.Status,
			StartedAt: visit.StartedAt,
			ClosedAt:  visit.ClosedAt,
		}
	}

	orders, err := s.repos.OrderRepo.ListByTable(ctx, table.ID)
	if err != nil {
		return nil, fmt.Errorf("cannot list table orders: %w", err)
	}
	if len(orders) > recentOrdersLimit {
		orders = orders[:recentOrdersLimit]
	}
	result.RecentOrders = toOrderRows(orders)
	return result, nil
}

func toOrderRows(orders []*Order) []OrderRow {
	rows := make([]OrderRow, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, NewOrderRow(o))
	}
	return rows
}

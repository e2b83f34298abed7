package order

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/bootheat/pkg/enums/visitstatus"
)

// MockPublisher is a mock implementation of events.Publisher for testing
type MockPublisher struct {
	mu          sync.Mutex
	messages    []publishedMessage
	PublishFunc func(ctx context.Context, topic string, msg []byte) error
}

type publishedMessage struct {
	topic string
	data  []byte
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, msg []byte) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, topic, msg)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, publishedMessage{topic: topic, data: msg})
	return nil
}

// EventTypes lists the event_type of every message published to topic.
func (m *MockPublisher) EventTypes(topic string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var types []string
	for _, msg := range m.messages {
		if msg.topic != topic {
			continue
		}
		var env struct {
			EventType string `json:"event_type"`
		}
		if err := json.Unmarshal(msg.data, &env); err == nil {
			types = append(types, env.EventType)
		}
	}
	return types
}

var _ events.Publisher = (*MockPublisher)(nil)

// MockSequencer counts per sequence name in memory.
type MockSequencer struct {
	mu       sync.Mutex
	counters map[string]int64
	NextFunc func(ctx context.Context, name string) (int64, error)
}

func NewMockSequencer() *MockSequencer {
	return &MockSequencer{counters: make(map[string]int64)}
}

func (m *MockSequencer) Next(ctx context.Context, name string) (int64, error) {
	if m.NextFunc != nil {
		return m.NextFunc(ctx, name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[name]++
	return m.counters[name], nil
}

// MockTableRepo is a mock implementation of TableRepo for testing
type MockTableRepo struct {
	mu       sync.RWMutex
	tables   map[int64]*Table
	SaveFunc func(ctx context.Context, table *Table) error
}

func NewMockTableRepo() *MockTableRepo {
	return &MockTableRepo{tables: make(map[int64]*Table)}
}

func (m *MockTableRepo) Create(ctx context.Context, table *Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tables {
		if t.BoothID == table.BoothID && t.TableNumber == table.TableNumber {
			return fmt.Errorf("table %d: %w", table.TableNumber, ErrDuplicate)
		}
	}
	m.tables[table.ID] = table
	return nil
}

func (m *MockTableRepo) Get(ctx context.Context, id int64) (*Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tables[id], nil
}

func (m *MockTableRepo) GetByNumber(ctx context.Context, boothID int64, number int) (*Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.tables {
		if t.BoothID == boothID && t.TableNumber == number {
			return t, nil
		}
	}
	return nil, nil
}

func (m *MockTableRepo) ListByBooth(ctx context.Context, boothID int64) ([]*Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*Table
	for _, t := range m.tables {
		if t.BoothID == boothID {
			result = append(result, t)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].TableNumber < result[j].TableNumber })
	return result, nil
}

func (m *MockTableRepo) Save(ctx context.Context, table *Table) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, table)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tables[table.ID]; !ok {
		return fmt.Errorf("table %d: %w", table.ID, ErrNotFound)
	}
	m.tables[table.ID] = table
	return nil
}

// MockVisitRepo is a mock implementation of VisitRepo for testing
type MockVisitRepo struct {
	mu         sync.RWMutex
	visits     map[int64]*Visit
	CreateFunc func(ctx context.Context, visit *Visit) error
}

func NewMockVisitRepo() *MockVisitRepo {
	return &MockVisitRepo{visits: make(map[int64]*Visit)}
}

func (m *MockVisitRepo) Create(ctx context.Context, visit *Visit) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, visit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.visits {
		if v.TableID == visit.TableID && v.IsOpen() && visit.IsOpen() {
			return fmt.Errorf("open visit for table %d: %w", visit.TableID, ErrDuplicate)
		}
	}
	m.visits[visit.ID] = visit
	return nil
}

func (m *MockVisitRepo) Get(ctx context.Context, id int64) (*Visit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.visits[id], nil
}

func (m *MockVisitRepo) FindOpen(ctx context.Context, tableID int64) (*Visit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *Visit
	for _, v := range m.visits {
		if v.TableID != tableID || v.Status != visitstatus.Open {
			continue
		}
		if latest == nil || v.StartedAt.After(latest.StartedAt) {
			latest = v
		}
	}
	return latest, nil
}

func (m *MockVisitRepo) LastVisitNo(ctx context.Context, tableID int64) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	last := 0
	for _, v := range m.visits {
		if v.TableID == tableID && v.VisitNo > last {
			last = v.VisitNo
		}
	}
	return last, nil
}

func (m *MockVisitRepo) ListClosedBetween(ctx context.Context, from, to time.Time) ([]*Visit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*Visit
	for _, v := range m.visits {
		if v.ClosedAt == nil || v.ClosedAt.Before(from) || !v.ClosedAt.Before(to) {
			continue
		}
		result = append(result, v)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ClosedAt.Before(*result[j].ClosedAt) })
	return result, nil
}

func (m *MockVisitRepo) Save(ctx context.Context, visit *Visit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.visits[visit.ID]; !ok {
		return fmt.Errorf("visit %d: %w", visit.ID, ErrNotFound)
	}
	m.visits[visit.ID] = visit
	return nil
}

// MockOrderRepo is a mock implementation of OrderRepo for testing
type MockOrderRepo struct {
	mu         sync.RWMutex
	orders     map[int64]*Order
	CreateFunc func(ctx context.Context, order *Order) error
	GetFunc    func(ctx context.Context, id int64) (*Order, error)
	SaveFunc   func(ctx context.Context, order *Order) error
}

func NewMockOrderRepo() *MockOrderRepo {
	return &MockOrderRepo{orders: make(map[int64]*Order)}
}

func (m *MockOrderRepo) Create(ctx context.Context, order *Order) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, order)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.ID] = order
	return nil
}

func (m *MockOrderRepo) Get(ctx context.Context, id int64) (*Order, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.orders[id], nil
}

func (m *MockOrderRepo) filter(keep func(o *Order) bool) []*Order {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*Order
	for _, o := range m.orders {
		if keep(o) {
			result = append(result, o)
		}
	}
	sortOrdersAsc(result)
	return result
}

func sortOrdersAsc(orders []*Order) {
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.Before(orders[j].CreatedAt)
		}
		return orders[i].ID < orders[j].ID
	})
}

func (m *MockOrderRepo) ListByVisit(ctx context.Context, visitID int64) ([]*Order, error) {
	return m.filter(func(o *Order) bool { return o.VisitIDValue() == visitID }), nil
}

func (m *MockOrderRepo) ListByTable(ctx context.Context, tableID int64) ([]*Order, error) {
	result := m.filter(func(o *Order) bool { return o.TableID == tableID })
	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}
	return result, nil
}

func (m *MockOrderRepo) ListByBoothBetween(ctx context.Context, boothID int64, from, to time.Time) ([]*Order, error) {
	return m.filter(func(o *Order) bool {
		return o.BoothID == boothID && !o.CreatedAt.Before(from) && o.CreatedAt.Before(to)
	}), nil
}

func (m *MockOrderRepo) ListBetween(ctx context.Context, from, to time.Time) ([]*Order, error) {
	return m.filter(func(o *Order) bool {
		return !o.CreatedAt.Before(from) && o.CreatedAt.Before(to)
	}), nil
}

func (m *MockOrderRepo) ListByMenuItem(ctx context.Context, boothID, menuItemID int64) ([]*Order, error) {
	return m.filter(func(o *Order) bool {
		return o.BoothID == boothID && containsMenuItem(o, menuItemID)
	}), nil
}

func (m *MockOrderRepo) ExistsWithMenuItem(ctx context.Context, menuItemID int64) (bool, error) {
	found := m.filter(func(o *Order) bool { return containsMenuItem(o, menuItemID) })
	return len(found) > 0, nil
}

func containsMenuItem(o *Order, menuItemID int64) bool {
	for _, item := range o.Items {
		if item.FoodID == menuItemID {
			return true
		}
	}
	return false
}

func (m *MockOrderRepo) Save(ctx context.Context, order *Order) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, order)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[order.ID]; !ok {
		return fmt.Errorf("order %d: %w", order.ID, ErrNotFound)
	}
	m.orders[order.ID] = order
	return nil
}

// MockMenuItemRepo is a mock implementation of MenuItemRepo for testing
type MockMenuItemRepo struct {
	mu    sync.RWMutex
	items map[int64]*MenuItem
}

func NewMockMenuItemRepo() *MockMenuItemRepo {
	return &MockMenuItemRepo{items: make(map[int64]*MenuItem)}
}

func (m *MockMenuItemRepo) Create(ctx context.Context, item *MenuItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.items {
		if existing.BoothID == item.BoothID && existing.Name == item.Name {
			return fmt.Errorf("menu item %s: %w", item.Name, ErrDuplicate)
		}
	}
	m.items[item.ID] = item
	return nil
}

func (m *MockMenuItemRepo) Get(ctx context.Context, id int64) (*MenuItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.items[id], nil
}

func (m *MockMenuItemRepo) GetByName(ctx context.Context, boothID int64, name string) (*MenuItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, item := range m.items {
		if item.BoothID == boothID && item.Name == name {
			return item, nil
		}
	}
	return nil, nil
}

func (m *MockMenuItemRepo) ListByBooth(ctx context.Context, boothID int64) ([]*MenuItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*MenuItem
	for _, item := range m.items {
		if item.BoothID == boothID {
			result = append(result, item)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *MockMenuItemRepo) ListAvailableByBooth(ctx context.Context, boothID int64) ([]*MenuItem, error) {
	items, _ := m.ListByBooth(ctx, boothID)
	var result []*MenuItem
	for _, item := range items {
		if item.Available {
			result = append(result, item)
		}
	}
	return result, nil
}

func (m *MockMenuItemRepo) Save(ctx context.Context, item *MenuItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[item.ID]; !ok {
		return fmt.Errorf("menu item %d: %w", item.ID, ErrNotFound)
	}
	m.items[item.ID] = item
	return nil
}

func (m *MockMenuItemRepo) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return fmt.Errorf("menu item %d: %w", id, ErrNotFound)
	}
	delete(m.items, id)
	return nil
}

// MockBoothAccountRepo is a mock implementation of BoothAccountRepo for testing
type MockBoothAccountRepo struct {
	mu       sync.RWMutex
	accounts map[int64]*BoothAccount
}

func NewMockBoothAccountRepo() *MockBoothAccountRepo {
	return &MockBoothAccountRepo{accounts: make(map[int64]*BoothAccount)}
}

func (m *MockBoothAccountRepo) Get(ctx context.Context, boothID int64) (*BoothAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.accounts[boothID]
	if !ok {
		return nil, nil
	}
	clone := *a
	return &clone, nil
}

func (m *MockBoothAccountRepo) Upsert(ctx context.Context, account *BoothAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *account
	m.accounts[account.BoothID] = &clone
	return nil
}

// testRepos bundles the mocks so tests can seed and inspect them.
type testRepos struct {
	seq      *MockSequencer
	tables   *MockTableRepo
	visits   *MockVisitRepo
	orders   *MockOrderRepo
	menu     *MockMenuItemRepo
	accounts *MockBoothAccountRepo
}

func newTestRepos() *testRepos {
	return &testRepos{
		seq:      NewMockSequencer(),
		tables:   NewMockTableRepo(),
		visits:   NewMockVisitRepo(),
		orders:   NewMockOrderRepo(),
		menu:     NewMockMenuItemRepo(),
		accounts: NewMockBoothAccountRepo(),
	}
}

func (r *testRepos) Repos() Repos {
	return Repos{
		Sequencer:        r.seq,
		TableRepo:        r.tables,
		VisitRepo:        r.visits,
		OrderRepo:        r.orders,
		MenuItemRepo:     r.menu,
		BoothAccountRepo: r.accounts,
	}
}

func (r *testRepos) addTable(id, boothID int64, number int, active bool) *Table {
	t := NewTable(boothID, number)
	t.ID = id
	t.Active = active
	t.BeforeCreate()
	r.tables.tables[id] = t
	return t
}

func (r *testRepos) addMenuItem(id, boothID int64, name string, price int64) *MenuItem {
	item := &MenuItem{ID: id, BoothID: boothID, Name: name, Price: price, Available: true, Category: "FOOD"}
	item.BeforeCreate()
	r.menu.items[id] = item
	return item
}

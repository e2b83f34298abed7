package operations

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/bootheat/pkg"
)

var testLoc = time.FixedZone("KST", 9*60*60)

// MockOrderStore is an in-memory OrderStore.
type MockOrderStore struct {
	mu          sync.Mutex
	tables      map[int64][]Table
	visitOrders map[int64][]int64
	orders      map[int64]*OrderDetail
	calls       map[string]int
	latestCalls map[int64]int

	ListTablesFunc          func(ctx context.Context, boothID int64) ([]Table, error)
	LatestVisitOrderIDsFunc func(ctx context.Context, tableID int64) ([]int64, error)
	GetOrderDetailFunc      func(ctx context.Context, orderID int64) (*OrderDetail, error)
	SetOrderStatusFunc      func(ctx context.Context, orderID int64, status string) (string, error)
	CloseVisitFunc          func(ctx context.Context, tableID int64) (bool, error)
}

func NewMockOrderStore() *MockOrderStore {
	return &MockOrderStore{
		tables:      make(map[int64][]Table),
		visitOrders: make(map[int64][]int64),
		orders:      make(map[int64]*OrderDetail),
		calls:       make(map[string]int),
		latestCalls: make(map[int64]int),
	}
}

func (m *MockOrderStore) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[name]++
}

// Calls reports how many times the named method ran.
func (m *MockOrderStore) Calls(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func (m *MockOrderStore) LatestCalls(tableID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.latestCalls[tableID]
}

func (m *MockOrderStore) ListTables(ctx context.Context, boothID int64) ([]Table, error) {
	m.record("ListTables")
	if m.ListTablesFunc != nil {
		return m.ListTablesFunc(ctx, boothID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	tables := make([]Table, len(m.tables[boothID]))
	copy(tables, m.tables[boothID])
	return tables, nil
}

func (m *MockOrderStore) LatestVisitOrderIDs(ctx context.Context, tableID int64) ([]int64, error) {
	m.record("LatestVisitOrderIDs")
	m.mu.Lock()
	m.latestCalls[tableID]++
	m.mu.Unlock()

	if m.LatestVisitOrderIDsFunc != nil {
		return m.LatestVisitOrderIDsFunc(ctx, tableID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int64, len(m.visitOrders[tableID]))
	copy(ids, m.visitOrders[tableID])
	return ids, nil
}

func (m *MockOrderStore) GetOrderDetail(ctx context.Context, orderID int64) (*OrderDetail, error) {
	m.record("GetOrderDetail")
	if m.GetOrderDetailFunc != nil {
		return m.GetOrderDetailFunc(ctx, orderID)
	}
	return m.detail(orderID)
}

func (m *MockOrderStore) detail(orderID int64) (*OrderDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return nil, &NotFoundError{Resource: "order", ID: orderID}
	}
	clone := *o
	clone.OrderItems = append([]OrderItem(nil), o.OrderItems...)
	return &clone, nil
}

func (m *MockOrderStore) SetOrderStatus(ctx context.Context, orderID int64, status string) (string, error) {
	m.record("SetOrderStatus")
	if m.SetOrderStatusFunc != nil {
		return m.SetOrderStatusFunc(ctx, orderID, status)
	}
	return m.setStatus(orderID, status)
}

func (m *MockOrderStore) setStatus(orderID int64, status string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return "", &NotFoundError{Resource: "order", ID: orderID}
	}
	o.CustomerOrder.Status = status
	return status, nil
}

func (m *MockOrderStore) CloseVisit(ctx context.Context, tableID int64) (bool, error) {
	m.record("CloseVisit")
	if m.CloseVisitFunc != nil {
		return m.CloseVisitFunc(ctx, tableID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	found := false
	for boothID, tables := range m.tables {
		for i := range tables {
			if tables[i].TableID == tableID {
				m.tables[boothID][i].Active = false
				found = true
			}
		}
	}
	if !found {
		return false, &NotFoundError{Resource: "table", ID: tableID}
	}

	_, open := m.visitOrders[tableID]
	delete(m.visitOrders, tableID)
	return open, nil
}

func (m *MockOrderStore) addTable(boothID, tableID int64, number int, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[boothID] = append(m.tables[boothID], Table{
		TableID:     tableID,
		TableNumber: number,
		Active:      active,
	})
}

// addOrder stores an order and lists it under the table's open visit.
func (m *MockOrderStore) addOrder(tableID int64, visitID *int64, orderID int64, status string, at time.Time, amount int64, items ...OrderItem) *OrderDetail {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := &OrderDetail{
		CustomerOrder: CustomerOrder{
			OrderID:     orderID,
			BoothID:     1,
			TableID:     tableID,
			VisitID:     visitID,
			Status:      status,
			OrderCode:   fmt.Sprintf("BE-%s-%06d", at.Format("20060102"), orderID),
			TotalAmount: amount,
			CreatedAt:   at,
		},
		OrderItems:  items,
		PaymentInfo: &PaymentInfo{PayerName: "Minji", Amount: amount},
	}
	m.orders[orderID] = o
	m.visitOrders[tableID] = append(m.visitOrders[tableID], orderID)
	return o
}

var _ OrderStore = (*MockOrderStore)(nil)

// MockKeyValue is an in-memory KeyValue.
type MockKeyValue struct {
	mu   sync.Mutex
	data map[string][]byte

	PutFunc    func(ctx context.Context, key string, value []byte) error
	DeleteFunc func(ctx context.Context, key string) error
	KeysFunc   func(ctx context.Context) ([]string, error)
}

func NewMockKeyValue() *MockKeyValue {
	return &MockKeyValue{data: make(map[string][]byte)}
}

func (m *MockKeyValue) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, pkg.ErrKeyNotFound
	}
	return v, nil
}

func (m *MockKeyValue) Put(ctx context.Context, key string, value []byte) error {
	if m.PutFunc != nil {
		if err := m.PutFunc(ctx, key, value); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MockKeyValue) Delete(ctx context.Context, key string) error {
	if m.DeleteFunc != nil {
		if err := m.DeleteFunc(ctx, key); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MockKeyValue) Keys(ctx context.Context) ([]string, error) {
	if m.KeysFunc != nil {
		return m.KeysFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MockKeyValue) value(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return string(v), ok
}

var _ KeyValue = (*MockKeyValue)(nil)

// MockSubscriber records the handler so tests can deliver messages.
type MockSubscriber struct {
	mu            sync.Mutex
	topic         string
	handler       events.HandlerFunc
	SubscribeFunc func(ctx context.Context, topic string, handler events.HandlerFunc) error
}

func (m *MockSubscriber) Subscribe(ctx context.Context, topic string, handler events.HandlerFunc) error {
	if m.SubscribeFunc != nil {
		return m.SubscribeFunc(ctx, topic, handler)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.topic = topic
	m.handler = handler
	return nil
}

func (m *MockSubscriber) Deliver(ctx context.Context, msg []byte) error {
	m.mu.Lock()
	handler := m.handler
	m.mu.Unlock()
	if handler == nil {
		return fmt.Errorf("no handler subscribed")
	}
	return handler(ctx, msg)
}

var _ events.Subscriber = (*MockSubscriber)(nil)

func int64Ptr(v int64) *int64 { return &v }

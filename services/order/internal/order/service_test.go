package order

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/appetiteclub/bootheat/pkg/event"
)

var testLoc = time.FixedZone("KST", 9*60*60)

// newTestService builds a service over fresh mocks with a clock that
// advances one second per call.
func newTestService(t *testing.T) (*Service, *testRepos, *MockPublisher) {
	t.Helper()
	repos := newTestRepos()
	pub := NewMockPublisher()
	svc := NewService(ServiceDeps{Repos: repos.Repos(), Publisher: pub, Location: testLoc}, nil)

	clock := time.Date(2025, 10, 19, 12, 30, 0, 0, testLoc)
	svc.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return svc, repos, pub
}

func orderRequest(boothID int64, tableNo int, foodID int64, price int64, qty int, amount int64) OrderCreateRequest {
	return OrderCreateRequest{
		BoothID: boothID,
		TableNo: tableNo,
		Items: []OrderItemCreateRequest{
			{FoodID: foodID, Name: "client name", Price: price, Quantity: qty},
		},
		Payment: &PaymentRequest{PayerName: "Minji", Amount: amount},
	}
}

func TestNewService(t *testing.T) {
	tests := []struct {
		name string
		deps ServiceDeps
	}{
		{
			name: "withNilDependencies",
			deps: ServiceDeps{},
		},
		{
			name: "withPublisherOnly",
			deps: ServiceDeps{Publisher: NewMockPublisher()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.deps, nil)
			if svc.logger == nil {
				t.Error("NewService() should set noop logger when nil")
			}
			if svc.Location() == nil {
				t.Error("NewService() should default the location")
			}
			if svc.menuPublisher != tt.deps.Publisher {
				t.Error("NewService() menu publisher should fall back to publisher")
			}
		})
	}
}

func TestServicePlaceOrder(t *testing.T) {
	svc, repos, pub := newTestService(t)
	repos.addTable(1, 1, 3, true)
	repos.addMenuItem(10, 1, "Cola", 1000)

	o, err := svc.PlaceOrder(context.Background(), orderRequest(1, 3, 10, 1000, 2, 2000))
	if err != nil {
		t.Fatalf("PlaceOrder() error = %v", err)
	}

	if o.Status != "PENDING" {
		t.Errorf("PlaceOrder() status = %q, want PENDING", o.Status)
	}
	if o.TotalAmount != 2000 {
		t.Errorf("PlaceOrder() totalAmount = %d, want 2000", o.TotalAmount)
	}
	if o.OrderCode != "BE-20251019-000001" {
		t.Errorf("PlaceOrder() orderCode = %q, want BE-20251019-000001", o.OrderCode)
	}
	if o.VisitID == nil {
		t.Fatal("PlaceOrder() should attach the order to a visit")
	}
	if len(o.Items) != 1 || o.Items[0].Name != "Cola" || o.Items[0].Quantity != 2 || o.Items[0].Price != 1000 {
		t.Errorf("PlaceOrder() items = %+v", o.Items)
	}
	if o.Payment == nil || o.Payment.PayerName != "Minji" {
		t.Errorf("PlaceOrder() payment = %+v", o.Payment)
	}

	visit, _ := repos.visits.Get(context.Background(), *o.VisitID)
	if visit == nil || visit.VisitNo != 1 || !visit.IsOpen() {
		t.Errorf("PlaceOrder() visit = %+v, want OPEN visit number 1", visit)
	}

	types := pub.EventTypes(event.OrdersTopic)
	want := []string{event.EventVisitOpened, event.EventOrderCreated}
	if fmt.Sprint(types) != fmt.Sprint(want) {
		t.Errorf("PlaceOrder() events = %v, want %v", types, want)
	}
}

func TestServicePlaceOrderReusesOpenVisit(t *testing.T) {
	svc, repos, _ := newTestService(t)
	repos.addTable(1, 1, 7, true)
	repos.addMenuItem(10, 1, "Fried Chicken", 7000)
	repos.addMenuItem(11, 1, "Lemonade", 3000)

	first, err := svc.PlaceOrder(context.Background(), orderRequest(1, 7, 10, 7000, 1, 7000))
	if err != nil {
		t.Fatalf("PlaceOrder() error = %v", err)
	}
	second, err := svc.PlaceOrder(context.Background(), orderRequest(1, 7, 11, 3000, 1, 3000))
	if err != nil {
		t.Fatalf("PlaceOrder() error = %v", err)
	}

	if first.VisitIDValue() != second.VisitIDValue() {
		t.Errorf("PlaceOrder() visit ids = %d and %d, want the same visit", first.VisitIDValue(), second.VisitIDValue())
	}

	ids, err := svc.LatestVisitOrderIDs(context.Background(), 1)
	if err != nil {
		t.Fatalf("LatestVisitOrderIDs() error = %v", err)
	}
	if fmt.Sprint(ids) != fmt.Sprint([]int64{first.ID, second.ID}) {
		t.Errorf("LatestVisitOrderIDs() = %v, want [%d %d]", ids, first.ID, second.ID)
	}
}

func TestServicePlaceOrderAfterCloseOpensNextVisit(t *testing.T) {
	svc, repos, _ := newTestService(t)
	table := repos.addTable(1, 1, 2, true)
	repos.addMenuItem(10, 1, "Cola", 1500)

	first, err := svc.PlaceOrder(context.Background(), orderRequest(1, 2, 10, 1500, 1, 1500))
	if err != nil {
		t.Fatalf("PlaceOrder() error = %v", err)
	}

	closed, err := svc.CloseVisit(context.Background(), 1)
	if err != nil || !closed {
		t.Fatalf("CloseVisit() = %v, %v, want true, nil", closed, err)
	}
	if table.Active {
		t.Error("CloseVisit() should deactivate the table")
	}

	second, err := svc.PlaceOrder(context.Background(), orderRequest(1, 2, 10, 1500, 1, 1500))
	if err != nil {
		t.Fatalf("PlaceOrder() error = %v", err)
	}

	if second.VisitIDValue() == first.VisitIDValue() {
		t.Error("PlaceOrder() should open a new visit after close")
	}
	visit, _ := repos.visits.Get(context.Background(), second.VisitIDValue())
	if visit.VisitNo != 2 {
		t.Errorf("PlaceOrder() visitNo = %d, want 2", visit.VisitNo)
	}
	if !table.Active {
		t.Error("PlaceOrder() should reactivate the table")
	}
}

func TestServicePlaceOrderRecoversFromConcurrentVisit(t *testing.T) {
	svc, repos, _ := newTestService(t)
	table := repos.addTable(1, 1, 4, true)
	repos.addMenuItem(10, 1, "Cola", 1500)

	winner := NewVisit(table, 1)
	winner.ID = 99
	repos.visits.CreateFunc = func(ctx context.Context, visit *Visit) error {
		repos.visits.mu.Lock()
		repos.visits.visits[winner.ID] = winner
		repos.visits.mu.Unlock()
		return fmt.Errorf("open visit: %w", ErrDuplicate)
	}

	o, err := svc.PlaceOrder(context.Background(), orderRequest(1, 4, 10, 1500, 1, 1500))
	if err != nil {
		t.Fatalf("PlaceOrder() error = %v", err)
	}
	if o.VisitIDValue() != winner.ID {
		t.Errorf("PlaceOrder() visit = %d, want %d", o.VisitIDValue(), winner.ID)
	}
}

func TestServicePlaceOrderErrors(t *testing.T) {
	tests := []struct {
		name    string
		req     OrderCreateRequest
		wantErr func(error) bool
	}{
		{
			name: "unknownTable",
			req:  orderRequest(1, 99, 10, 1000, 1, 1000),
			wantErr: func(err error) bool {
				var nf *NotFoundError
				return errors.As(err, &nf) && nf.Resource == "table"
			},
		},
		{
			name: "unknownMenuItem",
			req:  orderRequest(1, 1, 77, 1000, 1, 1000),
			wantErr: func(err error) bool {
				var nf *NotFoundError
				return errors.As(err, &nf) && nf.Resource == "menu item"
			},
		},
		{
			name: "zeroQuantity",
			req:  orderRequest(1, 1, 10, 1000, 0, 0),
			wantErr: func(err error) bool {
				var ve ValidationErrors
				return errors.As(err, &ve)
			},
		},
		{
			name: "missingPayment",
			req:  OrderCreateRequest{BoothID: 1, TableNo: 1, Items: []OrderItemCreateRequest{{FoodID: 10, Quantity: 1}}},
			wantErr: func(err error) bool {
				var ve ValidationErrors
				return errors.As(err, &ve)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repos, _ := newTestService(t)
			repos.addTable(1, 1, 1, true)
			repos.addMenuItem(10, 1, "Cola", 1000)

			_, err := svc.PlaceOrder(context.Background(), tt.req)
			if err == nil || !tt.wantErr(err) {
				t.Errorf("PlaceOrder() error = %v", err)
			}
			if len(repos.orders.orders) != 0 {
				t.Error("PlaceOrder() should not store an order on failure")
			}
		})
	}
}

func TestServiceSetStatus(t *testing.T) {
	tests := []struct {
		name       string
		orderID    int64
		status     string
		wantStatus string
		wantErr    func(error) bool
	}{
		{
			name:       "approve",
			orderID:    1,
			status:     "APPROVED",
			wantStatus: "APPROVED",
		},
		{
			name:       "lowercaseReject",
			orderID:    1,
			status:     " rejected ",
			wantStatus: "REJECTED",
		},
		{
			name:       "legacyPendingSpelling",
			orderID:    1,
			status:     "PENDDING",
			wantStatus: "PENDING",
		},
		{
			name:    "unknownStatus",
			orderID: 1,
			status:  "COOKING",
			wantErr: func(err error) bool {
				var is *InvalidStatusError
				return errors.As(err, &is)
			},
		},
		{
			name:    "unknownOrder",
			orderID: 404,
			status:  "APPROVED",
			wantErr: func(err error) bool {
				return errors.Is(err, ErrNotFound)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repos, pub := newTestService(t)
			repos.addTable(1, 1, 1, true)
			repos.addMenuItem(10, 1, "Cola", 1000)
			if _, err := svc.PlaceOrder(context.Background(), orderRequest(1, 1, 10, 1000, 1, 1000)); err != nil {
				t.Fatalf("PlaceOrder() error = %v", err)
			}

			o, err := svc.SetStatus(context.Background(), tt.orderID, tt.status)
			if tt.wantErr != nil {
				if err == nil || !tt.wantErr(err) {
					t.Errorf("SetStatus() error = %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("SetStatus() error = %v", err)
			}
			if o.Status != tt.wantStatus {
				t.Errorf("SetStatus() status = %q, want %q", o.Status, tt.wantStatus)
			}
			if o.ApprovedAt != nil {
				t.Error("SetStatus() should not stamp approvedAt")
			}

			types := pub.EventTypes(event.OrdersTopic)
			if types[len(types)-1] != event.EventOrderStatusChanged {
				t.Errorf("SetStatus() last event = %q, want %q", types[len(types)-1], event.EventOrderStatusChanged)
			}
		})
	}
}

func TestServiceSetStatusIsIdempotent(t *testing.T) {
	svc, repos, _ := newTestService(t)
	repos.addTable(1, 1, 1, true)
	repos.addMenuItem(10, 1, "Cola", 1000)
	o, _ := svc.PlaceOrder(context.Background(), orderRequest(1, 1, 10, 1000, 1, 1000))

	for i := 0; i < 2; i++ {
		if _, err := svc.SetStatus(context.Background(), o.ID, "FINISHED"); err != nil {
			t.Fatalf("SetStatus() error = %v", err)
		}
	}
	// Any target from any state.
	got, err := svc.SetStatus(context.Background(), o.ID, "PENDING")
	if err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	if got.Status != "PENDING" {
		t.Errorf("SetStatus() status = %q, want PENDING", got.Status)
	}
}

func TestServiceLatestVisitOrderIDs(t *testing.T) {
	svc, repos, _ := newTestService(t)
	repos.addTable(1, 1, 1, true)

	ids, err := svc.LatestVisitOrderIDs(context.Background(), 1)
	if err != nil {
		t.Fatalf("LatestVisitOrderIDs() error = %v", err)
	}
	if ids == nil || len(ids) != 0 {
		t.Errorf("LatestVisitOrderIDs() = %v, want empty list", ids)
	}

	_, err = svc.LatestVisitOrderIDs(context.Background(), 42)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("LatestVisitOrderIDs() error = %v, want not found", err)
	}
}

func TestServiceCloseVisit(t *testing.T) {
	svc, repos, pub := newTestService(t)
	table := repos.addTable(1, 1, 1, true)

	closed, err := svc.CloseVisit(context.Background(), 1)
	if err != nil {
		t.Fatalf("CloseVisit() error = %v", err)
	}
	if closed {
		t.Error("CloseVisit() without an open visit should report false")
	}
	if table.Active {
		t.Error("CloseVisit() should deactivate the table even without a visit")
	}
	if len(pub.EventTypes(event.OrdersTopic)) != 0 {
		t.Error("CloseVisit() without a visit should not publish")
	}

	_, err = svc.CloseVisit(context.Background(), 404)
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("CloseVisit() error = %v, want NotFoundError", err)
	}
}

func TestServiceCreateTable(t *testing.T) {
	number := func(n int) *int { return &n }

	tests := []struct {
		name       string
		req        TableCreateRequest
		wantNumber int
		wantErr    bool
	}{
		{
			name:       "explicitNumber",
			req:        TableCreateRequest{TableNumber: number(9)},
			wantNumber: 9,
		},
		{
			name:       "nextFreeNumber",
			req:        TableCreateRequest{},
			wantNumber: 4,
		},
		{
			name:    "duplicateNumber",
			req:     TableCreateRequest{TableNumber: number(3)},
			wantErr: true,
		},
		{
			name:    "invalidNumber",
			req:     TableCreateRequest{TableNumber: number(0)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repos, _ := newTestService(t)
			repos.addTable(1, 1, 1, true)
			repos.addTable(2, 1, 3, true)
			repos.seq.counters[SeqTables] = 2

			table, err := svc.CreateTable(context.Background(), 1, tt.req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CreateTable() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if table.TableNumber != tt.wantNumber {
				t.Errorf("CreateTable() number = %d, want %d", table.TableNumber, tt.wantNumber)
			}
			if !table.Active {
				t.Error("CreateTable() should default to active")
			}
		})
	}
}

func TestServiceListTables(t *testing.T) {
	svc, repos, _ := newTestService(t)
	repos.addTable(1, 1, 2, true)
	repos.addTable(2, 1, 1, true)
	repos.addTable(3, 2, 1, true)
	repos.addMenuItem(10, 1, "Cola", 1000)

	if _, err := svc.PlaceOrder(context.Background(), orderRequest(1, 2, 10, 1000, 1, 1000)); err != nil {
		t.Fatalf("PlaceOrder() error = %v", err)
	}

	items, err := svc.ListTables(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListTables() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("ListTables() len = %d, want 2", len(items))
	}
	if items[0].TableNumber != 1 || items[0].TableVisit != "CLOSED" {
		t.Errorf("ListTables()[0] = %+v, want table 1 CLOSED", items[0])
	}
	if items[1].TableNumber != 2 || items[1].TableVisit != "OPEN" {
		t.Errorf("ListTables()[1] = %+v, want table 2 OPEN", items[1])
	}
}

func TestServiceTableOrders(t *testing.T) {
	svc, repos, _ := newTestService(t)
	repos.addTable(1, 1, 1, true)
	repos.addMenuItem(10, 1, "Cola", 1000)

	first, _ := svc.PlaceOrder(context.Background(), orderRequest(1, 1, 10, 1000, 1, 1000))
	second, _ := svc.PlaceOrder(context.Background(), orderRequest(1, 1, 10, 1000, 2, 2000))

	rows, err := svc.TableOrders(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("TableOrders() error = %v", err)
	}
	if len(rows) != 2 || rows[0].OrderID != second.ID || rows[1].OrderID != first.ID {
		t.Errorf("TableOrders() = %+v, want newest first", rows)
	}

	_, err = svc.TableOrders(context.Background(), 2, 1)
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Errorf("TableOrders() error = %v, want ConflictError", err)
	}
}

func TestServiceTableContext(t *testing.T) {
	svc, repos, _ := newTestService(t)
	repos.addTable(1, 1, 5, true)
	repos.addMenuItem(10, 1, "Cola", 1000)

	for i := 0; i < recentOrdersLimit+2; i++ {
		if _, err := svc.PlaceOrder(context.Background(), orderRequest(1, 5, 10, 1000, 1, 1000)); err != nil {
			t.Fatalf("PlaceOrder() error = %v", err)
		}
	}

	tc, err := svc.TableContext(context.Background(), 1, 5)
	if err != nil {
		t.Fatalf("TableContext() error = %v", err)
	}
	if tc.CurrentVisit == nil || tc.CurrentVisit.VisitNo != 1 || tc.CurrentVisit.Status != "OPEN" {
		t.Errorf("TableContext() currentVisit = %+v", tc.CurrentVisit)
	}
	if len(tc.RecentOrders) != recentOrdersLimit {
		t.Errorf("TableContext() recent orders = %d, want %d", len(tc.RecentOrders), recentOrdersLimit)
	}
	if tc.RecentOrders[0].OrderID != int64(recentOrdersLimit+2) {
		t.Errorf("TableContext() first row = %d, want newest", tc.RecentOrders[0].OrderID)
	}

	_, err = svc.TableContext(context.Background(), 1, 6)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("TableContext() error = %v, want not found", err)
	}
}

func TestOrderCode(t *testing.T) {
	tests := []struct {
		name      string
		id        int64
		createdAt time.Time
		loc       *time.Location
		want      string
	}{
		{
			name:      "padsId",
			id:        42,
			createdAt: time.Date(2025, 5, 3, 10, 0, 0, 0, testLoc),
			loc:       testLoc,
			want:      "BE-20250503-000042",
		},
		{
			name:      "usesLocationDate",
			id:        7,
			createdAt: time.Date(2025, 5, 3, 16, 0, 0, 0, time.UTC),
			loc:       testLoc,
			want:      "BE-20250504-000007",
		},
		{
			name:      "nilLocationIsUTC",
			id:        1234567,
			createdAt: time.Date(2025, 12, 31, 23, 0, 0, 0, time.UTC),
			loc:       nil,
			want:      "BE-20251231-1234567",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OrderCode(tt.id, tt.createdAt, tt.loc); got != tt.want {
				t.Errorf("OrderCode() = %q, want %q", got, tt.want)
			}
		})
	}
}

package operations

import (
	"context"
	"errors"
	"testing"

	"github.com/appetiteclub/apt"
)

func TestStatusControllerRejectsUnknownStatus(t *testing.T) {
	store := newBusyBooth()
	ctrl := NewStatusController(store, NewBoardCache(0, testLoc), apt.NewNoopLogger())

	for _, target := range []string{"DONE", "", "approve"} {
		_, err := ctrl.SetStatus(context.Background(), 100, target)
		var invalid *InvalidStatusError
		if !errors.As(err, &invalid) {
			t.Errorf("SetStatus(%q) error = %v, want InvalidStatusError", target, err)
		}
	}
	if n := store.Calls("SetOrderStatus"); n != 0 {
		t.Errorf("SetOrderStatus calls = %d, want 0 for invalid targets", n)
	}
}

func TestStatusControllerSetStatus(t *testing.T) {
	tests := []struct {
		name   string
		target string
		want   string
	}{
		{name: "approve", target: "APPROVED", want: "APPROVED"},
		{name: "lowercase", target: " rejected ", want: "REJECTED"},
		{name: "legacyPending", target: "PENDDING", want: "PENDING"},
		{name: "finish", target: "FINISHED", want: "FINISHED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newBusyBooth()
			ctrl := NewStatusController(store, NewBoardCache(0, testLoc), apt.NewNoopLogger())

			got, err := ctrl.SetStatus(context.Background(), 101, tt.target)
			if err != nil {
				t.Fatalf("SetStatus() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("SetStatus() = %q, want %q", got, tt.want)
			}

			stored, _ := store.detail(101)
			if stored.CustomerOrder.Status != tt.want {
				t.Errorf("stored status = %q, want %q", stored.CustomerOrder.Status, tt.want)
			}
		})
	}
}

func TestStatusControllerIdempotent(t *testing.T) {
	store := newBusyBooth()
	ctrl := NewStatusController(store, NewBoardCache(0, testLoc), apt.NewNoopLogger())

	for i := 0; i < 2; i++ {
		got, err := ctrl.Approve(context.Background(), 100)
		if err != nil || got != "APPROVED" {
			t.Fatalf("Approve() #%d = %q, %v", i+1, got, err)
		}
	}
	stored, _ := store.detail(100)
	if stored.CustomerOrder.Status != "APPROVED" {
		t.Errorf("stored status = %q, want APPROVED", stored.CustomerOrder.Status)
	}
}

func TestStatusControllerAliases(t *testing.T) {
	store := newBusyBooth()
	ctrl := NewStatusController(store, NewBoardCache(0, testLoc), apt.NewNoopLogger())

	tests := []struct {
		name   string
		action func(context.Context, int64) (string, error)
		want   string
	}{
		{name: "approve", action: ctrl.Approve, want: "APPROVED"},
		{name: "reject", action: ctrl.Reject, want: "REJECTED"},
		{name: "finish", action: ctrl.Finish, want: "FINISHED"},
		{name: "pending", action: ctrl.Pending, want: "PENDING"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.action(context.Background(), 100)
			if err != nil {
				t.Fatalf("%s() error = %v", tt.name, err)
			}
			if got != tt.want {
				t.Errorf("%s() = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestStatusControllerOptimisticRollback(t *testing.T) {
	tests := []struct {
		name    string
		failure error
		check   func(error) bool
	}{
		{
			name:    "transport",
			failure: &TransportError{Op: "POST /manager/orders/101/status/APPROVED", Err: context.DeadlineExceeded},
			check: func(err error) bool {
				var te *TransportError
				return errors.As(err, &te)
			},
		},
		{
			name:    "notFound",
			failure: &NotFoundError{Resource: "order", ID: 101},
			check: func(err error) bool {
				var nf *NotFoundError
				return errors.As(err, &nf)
			},
		},
		{
			name:    "rejectedStatus",
			failure: &InvalidStatusError{Status: "APPROVED"},
			check: func(err error) bool {
				var is *InvalidStatusError
				return errors.As(err, &is)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMockOrderStore()
			store.addTable(1, 7, 7, true)
			store.addOrder(7, int64Ptr(70), 101, "PENDING", busyAt, 3000)

			cache := loadedCache(t, store)
			ctrl := NewStatusController(store, cache, apt.NewNoopLogger())

			var during string
			store.SetOrderStatusFunc = func(ctx context.Context, orderID int64, status string) (string, error) {
				cards, _ := cache.Get(1)
				during = cards[0].OrderStatus
				return "", tt.failure
			}

			_, err := ctrl.SetStatus(context.Background(), 101, "APPROVED")
			if !tt.check(err) {
				t.Fatalf("SetStatus() error = %v", err)
			}
			if during != "APPROVED" {
				t.Errorf("board during write = %q, want optimistic APPROVED", during)
			}

			cards, ok := cache.Get(1)
			if !ok {
				t.Fatal("board should stay cached after a failed write")
			}
			if cards[0].OrderStatus != "PENDING" {
				t.Errorf("board after failed write = %q, want PENDING", cards[0].OrderStatus)
			}
		})
	}
}

func TestStatusControllerInvalidatesOnSuccess(t *testing.T) {
	store := newBusyBooth()
	cache := loadedCache(t, store)
	ctrl := NewStatusController(store, cache, apt.NewNoopLogger())

	if _, err := ctrl.Approve(context.Background(), 101); err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	if _, ok := cache.Get(1); ok {
		t.Error("board should be invalidated after a successful write")
	}

	dashboard := NewDashboard(newTestAggregator(store), cache, apt.NewNoopLogger())
	cards, err := dashboard.Board(context.Background(), 1, false)
	if err != nil {
		t.Fatalf("Board() error = %v", err)
	}
	if card := cardOf(t, cards, 7); card.OrderStatus != "PENDING" || card.TotalAmount != 10000 {
		t.Errorf("table 7 after approving B = %+v, want PENDING total 10000", card)
	}
}

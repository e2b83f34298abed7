package operations

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/bootheat/pkg/enums/orderstatus"
	"github.com/google/uuid"
)

const DefaultPollInterval = 3 * time.Second

// ApprovalPoller waits for orders to leave PENDING. It re-reads the order on
// a fixed interval and immediately whenever Notify reports a change for it.
type ApprovalPoller struct {
	store    OrderStore
	interval time.Duration
	logger   apt.Logger

	mu       sync.Mutex
	watchers map[int64]map[string]chan struct{}
}

func NewApprovalPoller(store OrderStore, interval time.Duration, logger apt.Logger) *ApprovalPoller {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &ApprovalPoller{
		store:    store,
		interval: interval,
		logger:   logger,
		watchers: make(map[int64]map[string]chan struct{}),
	}
}

// Wait blocks until the order status is no longer PENDING and returns it.
// When ctx ends first it returns the last status seen with ctx's error.
// Transport failures are logged and retried on the next tick; a missing
// order ends the wait.
func (p *ApprovalPoller) Wait(ctx context.Context, orderID int64) (string, error) {
	wake, unwatch := p.watch(orderID)
	defer unwatch()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	pending := orderstatus.Statuses.Pending.Name
	last := pending

	for {
		detail, err := p.store.GetOrderDetail(ctx, orderID)
		switch {
		case err == nil:
			last = orderstatus.Normalize(detail.CustomerOrder.Status)
			if last != pending {
				return last, nil
			}
		case ctx.Err() != nil:
			return last, ctx.Err()
		default:
			var nf *NotFoundError
			if errors.As(err, &nf) {
				return "", err
			}
			p.logger.Error("approval check failed", "order_id", orderID, "error", err)
		}

		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-ticker.C:
		case <-wake:
		}
	}
}

// Notify wakes every Wait watching orderID.
func (p *ApprovalPoller) Notify(orderID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, ch := range p.watchers[orderID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Watching reports how many waits are registered for orderID.
func (p *ApprovalPoller) Watching(orderID int64) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.watchers[orderID])
}

func (p *ApprovalPoller) watch(orderID int64) (<-chan struct{}, func()) {
	id := uuid.NewString()
	ch := make(chan struct{}, 1)

	p.mu.Lock()
	if p.watchers[orderID] == nil {
		p.watchers[orderID] = make(map[string]chan struct{})
	}
	p.watchers[orderID][id] = ch
	p.mu.Unlock()

	return ch, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.watchers[orderID], id)
		if len(p.watchers[orderID]) == 0 {
			delete(p.watchers, orderID)
		}
	}
}

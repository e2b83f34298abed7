package operations

import (
	"context"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/bootheat/pkg/enums/orderstatus"
)

// StatusController drives manager status changes. The cached board shows the
// new status while the write is in flight and gets its previous card back
// when the write fails.
type StatusController struct {
	store  OrderStore
	cache  *BoardCache
	logger apt.Logger
}

func NewStatusController(store OrderStore, cache *BoardCache, logger apt.Logger) *StatusController {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &StatusController{
		store:  store,
		cache:  cache,
		logger: logger,
	}
}

// SetStatus validates target, projects it onto the cached board and writes
// it to the order service. Any target is accepted from any current status.
func (s *StatusController) SetStatus(ctx context.Context, orderID int64, target string) (string, error) {
	status, ok := orderstatus.Parse(target)
	if !ok {
		return "", &InvalidStatusError{Status: target}
	}

	restore := s.cache.ProjectStatus(orderID, status.Name)

	stored, err := s.store.SetOrderStatus(ctx, orderID, status.Name)
	if err != nil {
		restore()
		s.logger.Error("status write failed, board restored", "order_id", orderID, "status", status.Name, "error", err)
		return "", err
	}

	s.cache.InvalidateOrder(orderID)
	if stored == "" {
		stored = status.Name
	}
	return stored, nil
}

func (s *StatusController) Approve(ctx context.Context, orderID int64) (string, error) {
	return s.SetStatus(ctx, orderID, orderstatus.Statuses.Approved.Name)
}

func (s *StatusController) Reject(ctx context.Context, orderID int64) (string, error) {
	return s.SetStatus(ctx, orderID, orderstatus.Statuses.Rejected.Name)
}

func (s *StatusController) Pending(ctx context.Context, orderID int64) (string, error) {
	return s.SetStatus(ctx, orderID, orderstatus.Statuses.Pending.Name)
}

func (s *StatusController) Finish(ctx context.Context, orderID int64) (string, error) {
	return s.SetStatus(ctx, orderID, orderstatus.Statuses.Finished.Name)
}

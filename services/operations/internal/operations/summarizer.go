package operations

import (
	"time"

	"github.com/appetiteclub/bootheat/pkg/enums/orderstatus"
)

const timeTextLayout = "15:04"

// VisitSummary is the card fragment computed from one visit group.
type VisitSummary struct {
	OrderStatus   string
	Items         []CardItem
	CustomerName  string
	AddAmount     int64
	TotalAmount   int64
	TimeText      string
	VisitID       *int64
	LatestOrderID int64
}

// Latest returns the most recently created order: greatest createdAt, then
// greatest order id. On an exact tie the earlier element wins.
func Latest(group []OrderDetail) (OrderDetail, bool) {
	if len(group) == 0 {
		return OrderDetail{}, false
	}
	latest := group[0]
	for _, o := range group[1:] {
		if newer(o, latest) {
			latest = o
		}
	}
	return latest, true
}

func newer(a, b OrderDetail) bool {
	at, bt := a.CustomerOrder.CreatedAt, b.CustomerOrder.CreatedAt
	if !at.Equal(bt) {
		return at.After(bt)
	}
	return a.ID() > b.ID()
}

// Summarize folds a visit group into card fields. Any PENDING order keeps the
// whole visit PENDING; otherwise the latest order's status is shown.
func Summarize(group []OrderDetail, loc *time.Location) (VisitSummary, error) {
	latest, ok := Latest(group)
	if !ok {
		return VisitSummary{}, ErrEmptyGroup
	}
	if loc == nil {
		loc = time.Local
	}

	pending := orderstatus.Statuses.Pending.Name
	summary := VisitSummary{
		OrderStatus:   orderstatus.Normalize(latest.CustomerOrder.Status),
		CustomerName:  latest.PayerName(),
		AddAmount:     latest.Amount(),
		TimeText:      latest.CustomerOrder.CreatedAt.In(loc).Format(timeTextLayout),
		VisitID:       latest.CustomerOrder.VisitID,
		LatestOrderID: latest.ID(),
		Items:         mergeItems(group),
	}

	for _, o := range group {
		summary.TotalAmount += o.Amount()
		if orderstatus.Normalize(o.CustomerOrder.Status) == pending {
			summary.OrderStatus = pending
		}
	}

	return summary, nil
}

// mergeItems sums quantities per item name, keeping first-seen order.
func mergeItems(group []OrderDetail) []CardItem {
	items := make([]CardItem, 0)
	index := make(map[string]int)
	for _, o := range group {
		for _, it := range o.OrderItems {
			if i, ok := index[it.Name]; ok {
				items[i].Qty += it.Quantity
				continue
			}
			index[it.Name] = len(items)
			items = append(items, CardItem{Name: it.Name, Qty: it.Quantity})
		}
	}
	return items
}

// Card assembles the dashboard card for an active table.
func (s VisitSummary) Card(t Table) Card {
	latestID := s.LatestOrderID
	return Card{
		TableID:       t.TableID,
		TableNo:       t.TableNumber,
		Active:        true,
		OrderStatus:   s.OrderStatus,
		Items:         s.Items,
		CustomerName:  s.CustomerName,
		AddAmount:     s.AddAmount,
		TotalAmount:   s.TotalAmount,
		TimeText:      s.TimeText,
		VisitID:       s.VisitID,
		LatestOrderID: &latestID,
	}
}

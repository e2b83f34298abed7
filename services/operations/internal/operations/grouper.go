package operations

// VisitKey identifies the visit an order belongs to.
type VisitKey int64

// NoVisit groups orders that carry no visit id. Visit ids come from a
// sequence starting at 1, so the key never collides with a real visit.
const NoVisit VisitKey = -1

func KeyOf(o OrderDetail) VisitKey {
	if o.CustomerOrder.VisitID == nil {
		return NoVisit
	}
	return VisitKey(*o.CustomerOrder.VisitID)
}

// GroupByVisit buckets orders by visit id. Order inside a bucket follows the
// input.
func GroupByVisit(orders []OrderDetail) map[VisitKey][]OrderDetail {
	groups := make(map[VisitKey][]OrderDetail)
	for _, o := range orders {
		key := KeyOf(o)
		groups[key] = append(groups[key], o)
	}
	return groups
}

// LatestGroup picks the group holding the most recently created order.
// Ties on the newest createdAt go to the group whose newest order has the
// higher id.
func LatestGroup(groups map[VisitKey][]OrderDetail) []OrderDetail {
	var (
		best   []OrderDetail
		bestAt OrderDetail
		found  bool
	)
	for _, group := range groups {
		latest, ok := Latest(group)
		if !ok {
			continue
		}
		if !found || newer(latest, bestAt) {
			best, bestAt, found = group, latest, true
		}
	}
	return best
}

package order

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	dateLayout      = "2006-01-02"
	defaultTopItems = 5

	MetricQty    = "qty"
	MetricAmount = "amount"
)

type StatsSummary struct {
	Date         string `json:"date"`
	TotalSales   int64  `json:"totalSales"`
	OrderNumbers int64  `json:"orderNumbers"`
}

type AllBoothsSummary struct {
	TotalSales   int64 `json:"totalSales"`
	OrderNumbers int64 `json:"orderNumbers"`
}

type MenuTopItem struct {
	MenuItemID int64  `json:"menuItemId"`
	Name       string `json:"name"`
	Qty        int64  `json:"qty"`
	Amount     int64  `json:"amount"`
}

type MenuSalesItem struct {
	MenuItemID int64  `json:"menuItemId"`
	Name       string `json:"name"`
	TotalSales int64  `json:"totalSales"`
}

type MenuRanking struct {
	BoothID int64         `json:"boothId"`
	Date    string        `json:"date"`
	Metric  string        `json:"metric"`
	Items   []MenuTopItem `json:"items"`
}

type TodayStats struct {
	BoothID     int64         `json:"boothId"`
	Date        string        `json:"date"`
	TotalOrders int64         `json:"totalOrders"`
	TotalAmount int64         `json:"totalAmount"`
	PeakHour    *int          `json:"peakHour"`
	TopItems    []MenuTopItem `json:"topItems"`
}

type MenuTotalOrders struct {
	MenuItemID  int64 `json:"menuItemId"`
	TotalOrders int64 `json:"totalOrders"`
}

type OrderWithItems struct {
	OrderID     int64           `json:"orderId"`
	BoothID     int64           `json:"boothId"`
	TotalAmount int64           `json:"totalAmount"`
	CreatedAt   time.Time       `json:"createdAt"`
	OrderItems  []OrderItemLine `json:"orderItems"`
}

type OrderItemLine struct {
	MenuItemID int64  `json:"menuItemId"`
	Name       string `json:"name"`
	UnitPrice  int64  `json:"unitPrice"`
	Quantity   int    `json:"quantity"`
	LineAmount int64  `json:"lineAmount"`
}

// ParseDate reads a yyyy-MM-dd date as midnight in loc.
func ParseDate(raw string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, strings.TrimSpace(raw), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", raw, err)
	}
	return d, nil
}

// DayRange is [midnight, next midnight) of day in loc.
func DayRange(day time.Time, loc *time.Location) (time.Time, time.Time) {
	d := day.In(loc)
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// SalesTotals counts orders and sums their totals. All statuses count.
func SalesTotals(orders []*Order) (count int64, sales int64) {
	for _, o := range orders {
		count++
		sales += o.TotalAmount
	}
	return count, sales
}

// AggregateMenu sums quantity and line amount per menu item.
func AggregateMenu(orders []*Order) []MenuTopItem {
	index := make(map[int64]int)
	var result []MenuTopItem

	for _, o := range orders {
		for _, item := range o.Items {
			pos, ok := index[item.FoodID]
			if !ok {
				pos = len(result)
				index[item.FoodID] = pos
				result = append(result, MenuTopItem{MenuItemID: item.FoodID, Name: item.Name})
			}
			result[pos].Qty += int64(item.Quantity)
			result[pos].Amount += item.LineAmount()
		}
	}

	if result == nil {
		result = []MenuTopItem{}
	}
	return result
}

// RankMenu orders items by metric descending with ties broken by name and
// keeps at most limit entries. Unknown metrics rank by quantity.
func RankMenu(items []MenuTopItem, metric string, limit int) []MenuTopItem {
	ranked := append([]MenuTopItem(nil), items...)
	byAmount := strings.EqualFold(metric, MetricAmount)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if byAmount && a.Amount != b.Amount {
			return a.Amount > b.Amount
		}
		if !byAmount && a.Qty != b.Qty {
			return a.Qty > b.Qty
		}
		return a.Name < b.Name
	})

	return limitItems(ranked, limit)
}

// TopItems orders by quantity, then amount, then name.
func TopItems(items []MenuTopItem, limit int) []MenuTopItem {
	ranked := append([]MenuTopItem(nil), items...)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Qty != b.Qty {
			return a.Qty > b.Qty
		}
		if a.Amount != b.Amount {
			return a.Amount > b.Amount
		}
		return a.Name < b.Name
	})
	return limitItems(ranked, limit)
}

func limitItems(items []MenuTopItem, limit int) []MenuTopItem {
	if items == nil {
		return []MenuTopItem{}
	}
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

// PeakHour is the hour of day in loc with the most orders; the earliest
// hour wins a tie. No orders yields nil.
func PeakHour(orders []*Order, loc *time.Location) *int {
	if len(orders) == 0 {
		return nil
	}

	var counts [24]int
	for _, o := range orders {
		counts[o.CreatedAt.In(loc).Hour()]++
	}

	peak := 0
	for h := 1; h < 24; h++ {
		if counts[h] > counts[peak] {
			peak = h
		}
	}
	return &peak
}

// Today is the current date in the service location.
func (s *Service) Today() time.Time {
	return s.now().In(s.loc)
}

func (s *Service) boothOrdersOn(ctx context.Context, boothID int64, day time.Time) ([]*Order, error) {
	from, to := DayRange(day, s.loc)
	orders, err := s.repos.OrderRepo.ListByBoothBetween(ctx, boothID, from, to)
	if err != nil {
		return nil, fmt.Errorf("cannot list booth orders: %w", err)
	}
	return orders, nil
}

func (s *Service) SummaryByDate(ctx context.Context, boothID int64, day time.Time) (StatsSummary, error) {
	orders, err := s.boothOrdersOn(ctx, boothID, day)
	if err != nil {
		return StatsSummary{}, err
	}
	count, sales := SalesTotals(orders)
	return StatsSummary{
		Date:         day.In(s.loc).Format(dateLayout),
		TotalSales:   sales,
		OrderNumbers: count,
	}, nil
}

// MenuSales lists per-item sales of the day by amount descending.
func (s *Service) MenuSales(ctx context.Context, boothID int64, day time.Time) ([]MenuSalesItem, error) {
	orders, err := s.boothOrdersOn(ctx, boothID, day)
	if err != nil {
		return nil, err
	}

	ranked := RankMenu(AggregateMenu(orders), MetricAmount, 0)
	result := make([]MenuSalesItem, 0, len(ranked))
	for _, item := range ranked {
		result = append(result, MenuSalesItem{
			MenuItemID: item.MenuItemID,
			Name:       item.Name,
			TotalSales: item.Amount,
		})
	}
	return result, nil
}

func (s *Service) MenuRanking(ctx context.Context, boothID int64, metric string, limit int) (MenuRanking, error) {
	if !strings.EqualFold(metric, MetricAmount) {
		metric = MetricQty
	} else {
		metric = MetricAmount
	}

	day := s.Today()
	orders, err := s.boothOrdersOn(ctx, boothID, day)
	if err != nil {
		return MenuRanking{}, err
	}

	return MenuRanking{
		BoothID: boothID,
		Date:    day.Format(dateLayout),
		Metric:  metric,
		Items:   RankMenu(AggregateMenu(orders), metric, limit),
	}, nil
}

func (s *Service) TodayStats(ctx context.Context, boothID int64, top int) (TodayStats, error) {
	if top <= 0 {
		top = defaultTopItems
	}

	day := s.Today()
	orders, err := s.boothOrdersOn(ctx, boothID, day)
	if err != nil {
		return TodayStats{}, err
	}

	count, sales := SalesTotals(orders)
	return TodayStats{
		BoothID:     boothID,
		Date:        day.Format(dateLayout),
		TotalOrders: count,
		TotalAmount: sales,
		PeakHour:    PeakHour(orders, s.loc),
		TopItems:    TopItems(AggregateMenu(orders), top),
	}, nil
}

func (s *Service) AllBoothsSummary(ctx context.Context, day time.Time) (AllBoothsSummary, error) {
	from, to := DayRange(day, s.loc)
	orders, err := s.repos.OrderRepo.ListBetween(ctx, from, to)
	if err != nil {
		return AllBoothsSummary{}, fmt.Errorf("cannot list orders: %w", err)
	}
	count, sales := SalesTotals(orders)
	return AllBoothsSummary{TotalSales: sales, OrderNumbers: count}, nil
}

// AllBoothsOrders groups the day's orders by booth, oldest first.
func (s *Service) AllBoothsOrders(ctx context.Context, day time.Time) (map[int64][]OrderWithItems, error) {
	from, to := DayRange(day, s.loc)
	orders, err := s.repos.OrderRepo.ListBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("cannot list orders: %w", err)
	}

	sort.SliceStable(orders, func(i, j int) bool {
		if orders[i].BoothID != orders[j].BoothID {
			return orders[i].BoothID < orders[j].BoothID
		}
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})

	result := make(map[int64][]OrderWithItems)
	for _, o := range orders {
		lines := make([]OrderItemLine, 0, len(o.Items))
		for _, item := range o.Items {
			lines = append(lines, OrderItemLine{
				MenuItemID: item.FoodID,
				Name:       item.Name,
				UnitPrice:  item.Price,
				Quantity:   item.Quantity,
				LineAmount: item.LineAmount(),
			})
		}
		result[o.BoothID] = append(result[o.BoothID], OrderWithItems{
			OrderID:     o.ID,
			BoothID:     o.BoothID,
			TotalAmount: o.TotalAmount,
			CreatedAt:   o.CreatedAt,
			OrderItems:  lines,
		})
	}
	return result, nil
}

// VisitDurations returns, in whole minutes, the length of each visit closed
// on day.
func (s *Service) VisitDurations(ctx context.Context, day time.Time) ([]int64, error) {
	from, to := DayRange(day, s.loc)
	visits, err := s.repos.VisitRepo.ListClosedBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("cannot list closed visits: %w", err)
	}

	minutes := make([]int64, 0, len(visits))
	for _, v := range visits {
		minutes = append(minutes, int64(v.Duration()/time.Minute))
	}
	return minutes, nil
}

// MenuTotalOrders sums the ordered quantity of one menu item over all time.
func (s *Service) MenuTotalOrders(ctx context.Context, boothID, menuItemID int64) (MenuTotalOrders, error) {
	orders, err := s.repos.OrderRepo.ListByMenuItem(ctx, boothID, menuItemID)
	if err != nil {
		return MenuTotalOrders{}, fmt.Errorf("cannot list menu item orders: %w", err)
	}

	var total int64
	for _, o := range orders {
		for _, item := range o.Items {
			if item.FoodID == menuItemID {
				total += int64(item.Quantity)
			}
		}
	}
	return MenuTotalOrders{MenuItemID: menuItemID, TotalOrders: total}, nil
}

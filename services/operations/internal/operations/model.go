package operations

import (
	"time"

	"github.com/appetiteclub/bootheat/pkg/enums/orderstatus"
)

// Table mirrors a row of the order service booth table listing.
type Table struct {
	TableID     int64  `json:"tableId"`
	TableNumber int    `json:"tableNumber"`
	Active      bool   `json:"active"`
	TableVisit  string `json:"tableVisit"`
}

// OrderDetail mirrors the manager order detail returned by the order service.
type OrderDetail struct {
	CustomerOrder CustomerOrder `json:"customerOrder"`
	OrderItems    []OrderItem   `json:"orderItems"`
	PaymentInfo   *PaymentInfo  `json:"paymentInfo"`
}

type CustomerOrder struct {
	OrderID     int64      `json:"order_id"`
	BoothID     int64      `json:"booth_id"`
	TableID     int64      `json:"table_id"`
	VisitID     *int64     `json:"visit_id"`
	Status      string     `json:"status"`
	OrderCode   string     `json:"order_code"`
	TotalAmount int64      `json:"total_amount"`
	CreatedAt   time.Time  `json:"created_at"`
	ApprovedAt  *time.Time `json:"approved_at"`
}

type OrderItem struct {
	FoodID   int64  `json:"food_id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
}

type PaymentInfo struct {
	PayerName string `json:"payer_name"`
	Amount    int64  `json:"amount"`
}

func (o OrderDetail) ID() int64 {
	return o.CustomerOrder.OrderID
}

// Amount is the paid amount, falling back to the stored order total when no
// payment is attached.
func (o OrderDetail) Amount() int64 {
	if o.PaymentInfo != nil {
		return o.PaymentInfo.Amount
	}
	return o.CustomerOrder.TotalAmount
}

func (o OrderDetail) PayerName() string {
	if o.PaymentInfo == nil {
		return ""
	}
	return o.PaymentInfo.PayerName
}

// Card is the dashboard view of one table. It is derived on every load and
// never persisted.
type Card struct {
	TableID       int64      `json:"tableId"`
	TableNo       int        `json:"tableNo"`
	Active        bool       `json:"active"`
	OrderStatus   string     `json:"orderStatus"`
	Items         []CardItem `json:"items"`
	CustomerName  string     `json:"customerName"`
	AddAmount     int64      `json:"addAmount"`
	TotalAmount   int64      `json:"totalAmount"`
	TimeText      string     `json:"timeText"`
	VisitID       *int64     `json:"visitId"`
	LatestOrderID *int64     `json:"latestOrderId"`
	Error         string     `json:"error,omitempty"`
}

type CardItem struct {
	Name string `json:"name"`
	Qty  int    `json:"qty"`
}

func closedCard(t Table) Card {
	return Card{
		TableID: t.TableID,
		TableNo: t.TableNumber,
		Items:   []CardItem{},
	}
}

func emptyCard(t Table) Card {
	return Card{
		TableID:     t.TableID,
		TableNo:     t.TableNumber,
		Active:      true,
		OrderStatus: orderstatus.Statuses.Pending.Name,
		Items:       []CardItem{},
	}
}

func errorCard(t Table, err error) Card {
	return Card{
		TableID: t.TableID,
		TableNo: t.TableNumber,
		Active:  t.Active,
		Items:   []CardItem{},
		Error:   err.Error(),
	}
}

package order

import (
	"time"
)

// OrderDetail is the manager-facing order representation consumed by the
// dashboard. Field names follow the storefront wire contract.
type OrderDetail struct {
	CustomerOrder CustomerOrderData `json:"customerOrder"`
	OrderItems    []OrderItemRow    `json:"orderItems"`
	PaymentInfo   *PaymentInfoData  `json:"paymentInfo"`
}

type CustomerOrderData struct {
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

type OrderItemRow struct {
	FoodID   int64  `json:"food_id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
}

type PaymentInfoData struct {
	PayerName string `json:"payer_name"`
	Amount    int64  `json:"amount"`
}

func NewOrderDetail(o *Order) OrderDetail {
	detail := OrderDetail{
		CustomerOrder: CustomerOrderData{
			OrderID:     o.ID,
			BoothID:     o.BoothID,
			TableID:     o.TableID,
			VisitID:     o.VisitID,
			Status:      o.Status,
			OrderCode:   o.OrderCode,
			TotalAmount: o.TotalAmount,
			CreatedAt:   o.CreatedAt,
			ApprovedAt:  o.ApprovedAt,
		},
		OrderItems: make([]OrderItemRow, 0, len(o.Items)),
	}

	for _, item := range o.Items {
		detail.OrderItems = append(detail.OrderItems, OrderItemRow{
			FoodID:   item.FoodID,
			Name:     item.Name,
			Price:    item.Price,
			Quantity: item.Quantity,
		})
	}

	if o.Payment != nil {
		detail.PaymentInfo = &PaymentInfoData{
			PayerName: o.Payment.PayerName,
			Amount:    o.Payment.Amount,
		}
	}

	return detail
}

// OrderCreated is the checkout acknowledgement.
type OrderCreated struct {
	OrderID   int64     `json:"orderId"`
	OrderCode string    `json:"orderCode"`
	Status    string    `json:"status"`
	Amount    int64     `json:"amount"`
	CreatedAt time.Time `json:"createdAt"`
}

// OrderRow is the compact history row used by table views.
type OrderRow struct {
	OrderID     int64      `json:"orderId"`
	OrderCode   string     `json:"orderCode"`
	Status      string     `json:"status"`
	TotalAmount int64      `json:"totalAmount"`
	CreatedAt   time.Time  `json:"createdAt"`
	ApprovedAt  *time.Time `json:"approvedAt"`
	VisitID     *int64     `json:"visitId"`
}

func NewOrderRow(o *Order) OrderRow {
	return OrderRow{
		OrderID:     o.ID,
		OrderCode:   o.OrderCode,
		Status:      o.Status,
		TotalAmount: o.TotalAmount,
		CreatedAt:   o.CreatedAt,
		ApprovedAt:  o.ApprovedAt,
		VisitID:     o.VisitID,
	}
}

type TableContext struct {
	BoothID      int64      `json:"boothId"`
	TableNo      int        `json:"tableNo"`
	CurrentVisit *VisitView `json:"currentVisit"`
	RecentOrders []OrderRow `json:"recentOrders"`
}

type VisitView struct {
	VisitID   int64      `json:"visitId"`
	VisitNo   int        `json:"visitNo"`
	Status    string     `json:"status"`
	StartedAt time.Time  `json:"startedAt"`
	ClosedAt  *time.Time `json:"closedAt"`
}

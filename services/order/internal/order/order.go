package order

import (
	"fmt"
	"time"

	"github.com/appetiteclub/bootheat/pkg/enums/orderstatus"
)

const orderCodePrefix = "BE-"

type Order struct {
	ID          int64       `json:"orderId" bson:"_id"`
	BoothID     int64       `json:"boothId" bson:"booth_id"`
	TableID     int64       `json:"tableId" bson:"table_id"`
	VisitID     *int64      `json:"visitId,omitempty" bson:"visit_id,omitempty"`
	Status      string      `json:"status" bson:"status"`
	OrderCode   string      `json:"orderCode" bson:"order_code"`
	TotalAmount int64       `json:"totalAmount" bson:"total_amount"`
	CreatedAt   time.Time   `json:"createdAt" bson:"created_at"`
	ApprovedAt  *time.Time  `json:"approvedAt,omitempty" bson:"approved_at,omitempty"`
	UpdatedAt   time.Time   `json:"updatedAt" bson:"updated_at"`
	Items       []OrderItem `json:"items" bson:"items"`
	Payment     *Payment    `json:"payment,omitempty" bson:"payment,omitempty"`
}

// OrderItem is an immutable line captured at checkout. Price is the unit
// price the client paid, not the current menu price.
type OrderItem struct {
	FoodID   int64  `json:"foodId" bson:"food_id"`
	Name     string `json:"name" bson:"name"`
	Price    int64  `json:"price" bson:"price"`
	ImageURL string `json:"imageUrl,omitempty" bson:"image_url,omitempty"`
	Quantity int    `json:"quantity" bson:"quantity"`
}

func (i OrderItem) LineAmount() int64 {
	return i.Price * int64(i.Quantity)
}

type Payment struct {
	PayerName string    `json:"payerName" bson:"payer_name"`
	Amount    int64     `json:"amount" bson:"amount"`
	PaidAt    time.Time `json:"paidAt" bson:"paid_at"`
}

func (o *Order) ResourceType() string {
	return "order"
}

func NewOrder(table *Table, visit *Visit) *Order {
	o := &Order{
		BoothID: table.BoothID,
		TableID: table.ID,
		Status:  orderstatus.Statuses.Pending.Code(),
		Items:   []OrderItem{},
	}
	if visit != nil {
		id := visit.ID
		o.VisitID = &id
	}
	return o
}

func (o *Order) BeforeCreate() {
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}
	o.UpdatedAt = o.CreatedAt
}

func (o *Order) BeforeUpdate() {
	o.UpdatedAt = time.Now()
}

// AssignCode derives the public order code from the sequential id and the
// creation date in loc.
func (o *Order) AssignCode(loc *time.Location) {
	o.OrderCode = OrderCode(o.ID, o.CreatedAt, loc)
}

// SetStatus overwrites the status only. Transitions are not restricted and
// approvedAt is left untouched.
func (o *Order) SetStatus(s orderstatus.Status) string {
	previous := o.Status
	o.Status = s.Code()
	o.BeforeUpdate()
	return previous
}

// PaidAmount is the payment amount, or the stored total when no payment
// record is attached.
func (o *Order) PaidAmount() int64 {
	if o.Payment != nil {
		return o.Payment.Amount
	}
	return o.TotalAmount
}

func (o *Order) PayerName() string {
	if o.Payment == nil {
		return ""
	}
	return o.Payment.PayerName
}

func (o *Order) VisitIDValue() int64 {
	if o.VisitID == nil {
		return 0
	}
	return *o.VisitID
}

func OrderCode(id int64, createdAt time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return fmt.Sprintf("%s%s-%06d", orderCodePrefix, createdAt.In(loc).Format("20060102"), id)
}

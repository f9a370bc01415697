package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusShipped   OrderStatus = "SHIPPED"
)

type Order struct {
	ID          string          `db:"id"`
	UserID      string          `db:"user_id"`
	Description *string         `db:"description"`
	TotalPrice  decimal.Decimal `db:"total_price"`
	Status      OrderStatus     `db:"status"`
	Items       []OrderItem     `db:"items"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type OrderItem struct {
	ID        string          `db:"id"`
	OrderID   string          `db:"order_id"`
	ProductID string          `db:"product_id"`
	Quantity  int32           `db:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price"`
}

// CalculateTotal recomputes the order total from its items.
func (o *Order) CalculateTotal() {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt32(item.Quantity)))
	}
	o.TotalPrice = total
}

// PriceLine prices one order line against a product snapshot. The unit
// price always comes from the snapshot taken when the product rows were
// locked, never from a later read.
func PriceLine(snap ProductSnapshot, quantity int32) (unitPrice, lineTotal decimal.Decimal) {
	unitPrice = snap.Price
	lineTotal = unitPrice.Mul(decimal.NewFromInt32(quantity))
	return unitPrice, lineTotal
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string          `db:"id"`
	UserID      string          `db:"user_id"`
	Name        string          `db:"name"`
	Description *string         `db:"description"`
	Category    *string         `db:"category"`
	Price       decimal.Decimal `db:"price"`
	Stock       int32           `db:"stock"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

type UpdateProductInput struct {
	Name        *string
	Description *string
	Category    *string
	Price       *decimal.Decimal
	Stock       *int32
}

// ProductSnapshot is the lock-protected view of a product row taken at
// the start of an order placement. Price and stock are frozen for the
// duration of the unit of work.
type ProductSnapshot struct {
	ID    string
	Price decimal.Decimal
	Stock int32
}

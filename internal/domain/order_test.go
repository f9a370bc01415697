package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateTotal(t *testing.T) {
	order := Order{
		Items: []OrderItem{
			{Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")},
			{Quantity: 3, UnitPrice: decimal.RequireFromString("4.50")},
		},
	}

	order.CalculateTotal()

	assert.True(t, order.TotalPrice.Equal(decimal.RequireFromString("33.50")),
		"got total %s", order.TotalPrice)
}

func TestCalculateTotalEmpty(t *testing.T) {
	var order Order
	order.CalculateTotal()

	assert.True(t, order.TotalPrice.IsZero())
}

func TestPriceLine(t *testing.T) {
	snap := ProductSnapshot{
		ID:    uuid.NewString(),
		Price: decimal.RequireFromString("10.00"),
		Stock: 10,
	}

	unitPrice, lineTotal := PriceLine(snap, 2)

	assert.True(t, unitPrice.Equal(decimal.RequireFromString("10.00")))
	assert.True(t, lineTotal.Equal(decimal.RequireFromString("20.00")))
}

func TestPlaceOrderInputValidate(t *testing.T) {
	validID := uuid.NewString()

	t.Run("empty items", func(t *testing.T) {
		input := &PlaceOrderInput{UserID: uuid.NewString()}

		err := input.Validate()

		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
	})

	t.Run("malformed product id", func(t *testing.T) {
		input := &PlaceOrderInput{
			UserID: uuid.NewString(),
			Items:  []PlaceOrderItemInput{{ProductID: "not-a-uuid", Quantity: 1}},
		}

		err := input.Validate()

		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "not-a-uuid", validationErr.ProductID)
	})

	t.Run("non-positive quantity", func(t *testing.T) {
		input := &PlaceOrderInput{
			UserID: uuid.NewString(),
			Items:  []PlaceOrderItemInput{{ProductID: validID, Quantity: 0}},
		}

		err := input.Validate()

		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, validID, validationErr.ProductID)
	})

	t.Run("valid", func(t *testing.T) {
		input := &PlaceOrderInput{
			UserID: uuid.NewString(),
			Items: []PlaceOrderItemInput{
				{ProductID: validID, Quantity: 2},
				{ProductID: uuid.NewString(), Quantity: 1},
			},
		}

		require.NoError(t, input.Validate())
	})
}

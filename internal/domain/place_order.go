package domain

import "github.com/google/uuid"

type PlaceOrderItemInput struct {
	ProductID string
	Quantity  int32
}

type PlaceOrderInput struct {
	UserID      string
	Description *string
	Items       []PlaceOrderItemInput
}

// Validate checks the shape of a placement request before any unit of
// work is opened: the item list must be non-empty, product ids must be
// well-formed and every quantity positive. Caller-supplied item order is
// preserved so the persisted items come back in the same order.
func (in *PlaceOrderInput) Validate() error {
	if len(in.Items) == 0 {
		return &ValidationError{Reason: "order must contain at least one item"}
	}

	for _, item := range in.Items {
		if _, err := uuid.Parse(item.ProductID); err != nil {
			return &ValidationError{Reason: "malformed product id", ProductID: item.ProductID}
		}
		if item.Quantity <= 0 {
			return &ValidationError{Reason: "quantity must be positive", ProductID: item.ProductID}
		}
	}

	return nil
}

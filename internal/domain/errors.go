package domain

import "fmt"

// ValidationError reports malformed or semantically invalid caller
// input. It is raised before any store interaction and is never retried.
type ValidationError struct {
	Reason    string
	ProductID string
}

func (e *ValidationError) Error() string {
	if e.ProductID != "" {
		return fmt.Sprintf("validation failed for product %s: %s", e.ProductID, e.Reason)
	}
	return "validation failed: " + e.Reason
}

// NotFoundError reports a missing resource by kind and id.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// InsufficientStockError reports demand exceeding the available stock of
// one product at commit time. Requested is the aggregated demand across
// all order lines referencing the product.
type InsufficientStockError struct {
	ProductID string
	Requested int32
	Available int32
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// ConflictError reports a transient store write conflict that survived
// the internal retry budget. Callers may retry the whole operation.
type ConflictError struct {
	Attempts int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("write conflict persisted after %d attempts", e.Attempts)
}

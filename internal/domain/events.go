package domain

type OrderPlacedItem struct {
	ProductID string `json:"product_id"`
	Quantity  int32  `json:"quantity"`
}

type OrderPlacedEvent struct {
	OrderID    string            `json:"order_id"`
	UserID     string            `json:"user_id"`
	TotalPrice string            `json:"total_price"`
	Items      []OrderPlacedItem `json:"items"`
}

type UserRegisteredEvent struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

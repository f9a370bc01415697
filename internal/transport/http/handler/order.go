package handler

import (
	"github.com/bethel4/Ecommerce-Backend-Repo/internal/domain"
	"github.com/bethel4/Ecommerce-Backend-Repo/internal/service"
	"github.com/bethel4/Ecommerce-Backend-Repo/pkg/mylogger"
	"github.com/bethel4/Ecommerce-Backend-Repo/pkg/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type OrderHandler struct {
	orders   service.OrderService
	logger   *zap.Logger
	validate *validator.Validate
}

func NewOrderHandler(orders service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orders:   orders,
		logger:   logger,
		validate: validator.New(),
	}
}

type placeOrderItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid4"`
	Quantity  int32  `json:"quantity" validate:"required,gt=0"`
}

type placeOrderRequest struct {
	Description *string                 `json:"description"`
	Items       []placeOrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type orderItemResponse struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Quantity  int32  `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

type orderResponse struct {
	ID          string              `json:"id"`
	UserID      string              `json:"user_id"`
	Description *string             `json:"description"`
	TotalPrice  string              `json:"total_price"`
	Status      string              `json:"status"`
	Items       []orderItemResponse `json:"items"`
	CreatedAt   string              `json:"created_at"`
}

func toOrderResponse(order *domain.Order) orderResponse {
	items := make([]orderItemResponse, len(order.Items))
	for i, item := range order.Items {
		items[i] = orderItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.StringFixed(2),
		}
	}

	return orderResponse{
		ID:          order.ID,
		UserID:      order.UserID,
		Description: order.Description,
		TotalPrice:  order.TotalPrice.StringFixed(2),
		Status:      string(order.Status),
		Items:       items,
		CreatedAt:   order.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (h *OrderHandler) PlaceOrder(c *fiber.Ctx) error {
	var req placeOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "error parsing body"})
	}

	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": utils.FormatValidationError(err)})
	}

	userID, ok := callerID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing user"})
	}

	input := &domain.PlaceOrderInput{
		UserID:      userID,
		Description: req.Description,
		Items:       make([]domain.PlaceOrderItemInput, len(req.Items)),
	}
	for i, item := range req.Items {
		input.Items[i] = domain.PlaceOrderItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}
	}

	order, err := h.orders.PlaceOrder(c.UserContext(), input)
	if err != nil {
		mylogger.Warn(c.UserContext(), h.logger, "Place order failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)

		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(toOrderResponse(order))
}

func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	userID, ok := callerID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing user"})
	}

	orders, err := h.orders.ListOrdersForUser(c.UserContext(), userID)
	if err != nil {
		mylogger.Warn(c.UserContext(), h.logger, "List orders failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)

		return respondError(c, err)
	}

	out := make([]orderResponse, len(orders))
	for i := range orders {
		out[i] = toOrderResponse(&orders[i])
	}

	return c.JSON(fiber.Map{"orders": out})
}

func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	order, err := h.orders.GetOrder(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	userID, _ := callerID(c)
	if order.UserID != userID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
	}

	return c.JSON(toOrderResponse(order))
}

package handler

import (
	"github.com/bethel4/Ecommerce-Backend-Repo/internal/domain"
	"github.com/bethel4/Ecommerce-Backend-Repo/internal/service"
	"github.com/bethel4/Ecommerce-Backend-Repo/pkg/mylogger"
	"github.com/bethel4/Ecommerce-Backend-Repo/pkg/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ProductHandler struct {
	products service.ProductService
	logger   *zap.Logger
	validate *validator.Validate
}

func NewProductHandler(products service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		products: products,
		logger:   logger,
		validate: validator.New(),
	}
}

type createProductRequest struct {
	Name        string  `json:"name" validate:"required,min=1"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Price       string  `json:"price" validate:"required"`
	Stock       int32   `json:"stock" validate:"gte=0"`
}

type updateProductRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Price       *string `json:"price"`
	Stock       *int32  `json:"stock"`
}

type productResponse struct {
	ID          string  `json:"id"`
	UserID      string  `json:"user_id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Price       string  `json:"price"`
	Stock       int32   `json:"stock"`
	CreatedAt   string  `json:"created_at"`
}

func toProductResponse(p *domain.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		UserID:      p.UserID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Price:       p.Price.StringFixed(2),
		Stock:       p.Stock,
		CreatedAt:   p.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var req createProductRequest
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

	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "price must be a decimal number"})
	}

	product := &domain.Product{
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       price,
		Stock:       req.Stock,
	}

	id, err := h.products.Create(c.UserContext(), product)
	if err != nil {
		mylogger.Warn(c.UserContext(), h.logger, "Create product failed", zap.Error(err))
		return respondError(c, err)
	}

	mylogger.Info(c.UserContext(), h.logger, "Product created", zap.String("id", id))

	return c.Status(fiber.StatusCreated).JSON(toProductResponse(product))
}

func (h *ProductHandler) FindByID(c *fiber.Ctx) error {
	product, err := h.products.FindByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(toProductResponse(product))
}

func (h *ProductHandler) List(c *fiber.Ctx) error {
	limit := int64(c.QueryInt("limit", 20))
	offset := int64(c.QueryInt("offset", 0))
	search := c.Query("search")

	products, total, err := h.products.List(c.UserContext(), limit, offset, search)
	if err != nil {
		mylogger.Warn(c.UserContext(), h.logger, "List products failed", zap.Error(err))
		return respondError(c, err)
	}

	out := make([]productResponse, len(products))
	for i := range products {
		out[i] = toProductResponse(&products[i])
	}

	return c.JSON(fiber.Map{
		"products": out,
		"total":    total,
	})
}

func (h *ProductHandler) Update(c *fiber.Ctx) error {
	var req updateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "error parsing body"})
	}

	input := &domain.UpdateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Stock:       req.Stock,
	}

	if req.Price != nil {
		price, err := decimal.NewFromString(*req.Price)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "price must be a decimal number"})
		}
		input.Price = &price
	}

	if err := h.products.Update(c.UserContext(), c.Params("id"), input); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"status": "updated"})
}

func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	if err := h.products.Delete(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"status": "deleted"})
}

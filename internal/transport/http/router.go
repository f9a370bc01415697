package http

import (
	"github.com/bethel4/Ecommerce-Backend-Repo/internal/auth"
	"github.com/bethel4/Ecommerce-Backend-Repo/internal/transport/http/handler"
	"github.com/bethel4/Ecommerce-Backend-Repo/internal/transport/http/middleware"
	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Auth    *handler.AuthHandler
	Product *handler.ProductHandler
	Order   *handler.OrderHandler
}

func RegisterRoutes(app *fiber.App, h *Handlers, tokens *auth.TokenManager) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	authGroup := app.Group("/auth")
	authGroup.Post("/register", h.Auth.Register)
	authGroup.Post("/login", h.Auth.Login)

	api := app.Group("/api", middleware.NewAuthMiddleware(tokens))
	api.Get("/me", h.Auth.GetMe)

	product := api.Group("/products")
	product.Post("", h.Product.Create)
	product.Get("", h.Product.List)
	product.Get("/:id", h.Product.FindByID)
	product.Patch("/:id", h.Product.Update)
	product.Delete("/:id", h.Product.Delete)

	order := api.Group("/orders")
	order.Post("", h.Order.PlaceOrder)
	order.Get("", h.Order.ListOrders)
	order.Get("/:id", h.Order.GetOrder)
}

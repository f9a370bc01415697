package service

import (
	"context"
	"errors"

	"github.com/bethel4/Ecommerce-Backend-Repo/internal/domain"
	"github.com/bethel4/Ecommerce-Backend-Repo/internal/repository"
	"github.com/bethel4/Ecommerce-Backend-Repo/pkg/mylogger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ProductService interface {
	Create(ctx context.Context, product *domain.Product) (string, error)
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context, limit, offset int64, search string) ([]domain.Product, int64, error)
	Update(ctx context.Context, id string, input *domain.UpdateProductInput) error
	Delete(ctx context.Context, id string) error
}

type productService struct {
	repo   repository.ProductRepository
	logger *zap.Logger
	tracer trace.Tracer
}

func NewProductService(repo repository.ProductRepository, logger *zap.Logger) ProductService {
	return &productService{
		repo:   repo,
		logger: logger,
		tracer: otel.Tracer("product_service"),
	}
}

func (s *productService) Create(ctx context.Context, product *domain.Product) (string, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.Create")
	defer span.End()

	if product.Name == "" {
		return "", &domain.ValidationError{Reason: "product name is required"}
	}
	if !product.Price.IsPositive() {
		return "", &domain.ValidationError{Reason: "price must be positive"}
	}
	if product.Stock < 0 {
		return "", &domain.ValidationError{Reason: "stock cannot be negative"}
	}

	id, err := s.repo.Create(ctx, product)
	if err != nil {
		mylogger.Error(ctx, s.logger, "Failed to create product", zap.Error(err))
		return "", err
	}

	mylogger.Info(ctx, s.logger, "Product created", zap.String("id", id))

	return id, nil
}

func (s *productService) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.FindByID")
	defer span.End()

	span.SetAttributes(attribute.String("id", id))

	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, &domain.NotFoundError{Resource: "product", ID: id}
		}

		return nil, err
	}

	return product, nil
}

func (s *productService) List(ctx context.Context, limit, offset int64, search string) ([]domain.Product, int64, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.List")
	defer span.End()

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	return s.repo.List(ctx, limit, offset, search)
}

func (s *productService) Update(ctx context.Context, id string, input *domain.UpdateProductInput) error {
	ctx, span := s.tracer.Start(ctx, "ProductService.Update")
	defer span.End()

	span.SetAttributes(attribute.String("id", id))

	if input.Price != nil && !input.Price.IsPositive() {
		return &domain.ValidationError{Reason: "price must be positive", ProductID: id}
	}
	if input.Stock != nil && *input.Stock < 0 {
		return &domain.ValidationError{Reason: "stock cannot be negative", ProductID: id}
	}

	if err := s.repo.Update(ctx, id, input); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return &domain.NotFoundError{Resource: "product", ID: id}
		}

		return err
	}

	return nil
}

func (s *productService) Delete(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "ProductService.Delete")
	defer span.End()

	span.SetAttributes(attribute.String("id", id))

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return &domain.NotFoundError{Resource: "product", ID: id}
		}

		return err
	}

	mylogger.Info(ctx, s.logger, "Product deleted", zap.String("id", id))

	return nil
}

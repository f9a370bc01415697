package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bethel4/Ecommerce-Backend-Repo/internal/domain"
	"github.com/bethel4/Ecommerce-Backend-Repo/pkg/mylogger"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) (string, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context, limit, offset int64, search string) ([]domain.Product, int64, error)
	Update(ctx context.Context, id string, input *domain.UpdateProductInput) error
	DeleteByID(ctx context.Context, id string) error

	// LockForOrder and DecrementStock are the inventory ledger: the only
	// path by which stock is read-for-update and mutated. Both run inside
	// the caller's transaction.
	LockForOrder(ctx context.Context, tx pgx.Tx, ids []string) (map[string]domain.ProductSnapshot, error)
	DecrementStock(ctx context.Context, tx pgx.Tx, id string, quantity int32) error
}

type productRepo struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
	logger *zap.Logger
}

func NewProductRepository(pool *pgxpool.Pool, logger *zap.Logger) ProductRepository {
	return &productRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("contract/product_repo"),
	}
}

func (r *productRepo) Create(ctx context.Context, product *domain.Product) (string, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Create")
	defer span.End()

	product.ID = uuid.NewString()

	query := `
		INSERT INTO products (id, user_id, name, description, category, price, stock)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(
		ctx,
		query,
		product.ID,
		product.UserID,
		product.Name,
		product.Description,
		product.Category,
		product.Price,
		product.Stock,
	).Scan(&product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		span.RecordError(err)
		mylogger.Error(ctx, r.logger, "Failed to insert product", zap.Error(err))

		return "", fmt.Errorf("error creating product: %w", err)
	}

	return product.ID, nil
}

func (r *productRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.GetByID")
	defer span.End()

	span.SetAttributes(attribute.String("id", id))

	query := `
		SELECT id, user_id, name, description, category, price, stock, created_at, updated_at
		FROM products
		WHERE id = $1 AND deleted_at IS NULL
	`

	var p domain.Product
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.UserID,
		&p.Name,
		&p.Description,
		&p.Category,
		&p.Price,
		&p.Stock,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}

		span.RecordError(err)
		mylogger.Error(ctx, r.logger, "Failed to query product", zap.String("id", id), zap.Error(err))

		return nil, fmt.Errorf("error querying product: %w", err)
	}

	return &p, nil
}

func (r *productRepo) List(ctx context.Context, limit, offset int64, search string) ([]domain.Product, int64, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.List")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("limit", limit),
		attribute.Int64("offset", offset),
	)

	query := `
		SELECT id, user_id, name, description, category, price, stock, created_at, updated_at
		FROM products
		WHERE deleted_at IS NULL
			AND ($1 = '' OR name ILIKE '%' || $1 || '%' OR category ILIKE '%' || $1 || '%')
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, search, limit, offset)
	if err != nil {
		span.RecordError(err)
		return nil, 0, fmt.Errorf("error listing products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ID,
			&p.UserID,
			&p.Name,
			&p.Description,
			&p.Category,
			&p.Price,
			&p.Stock,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			span.RecordError(err)
			return nil, 0, fmt.Errorf("error scanning product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating products: %w", err)
	}

	countQuery := `
		SELECT COUNT(*)
		FROM products
		WHERE deleted_at IS NULL
			AND ($1 = '' OR name ILIKE '%' || $1 || '%' OR category ILIKE '%' || $1 || '%')
	`

	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, search).Scan(&total); err != nil {
		span.RecordError(err)
		return nil, 0, fmt.Errorf("error counting products: %w", err)
	}

	return products, total, nil
}

func (r *productRepo) Update(ctx context.Context, id string, input *domain.UpdateProductInput) error {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Update")
	defer span.End()

	span.SetAttributes(attribute.String("id", id))

	var updates []string
	var args []interface{}
	argId := 1

	if input.Name != nil {
		updates = append(updates, fmt.Sprintf("name = $%d", argId))
		args = append(args, *input.Name)
		argId++
	}

	if input.Description != nil {
		updates = append(updates, fmt.Sprintf("description = $%d", argId))
		args = append(args, *input.Description)
		argId++
	}

	if input.Category != nil {
		updates = append(updates, fmt.Sprintf("category = $%d", argId))
		args = append(args, *input.Category)
		argId++
	}

	if input.Price != nil {
		updates = append(updates, fmt.Sprintf("price = $%d", argId))
		args = append(args, *input.Price)
		argId++
	}

	if input.Stock != nil {
		updates = append(updates, fmt.Sprintf("stock = $%d", argId))
		args = append(args, *input.Stock)
		argId++
	}

	if len(updates) == 0 {
		return nil
	}

	updates = append(updates, "updated_at = NOW()")

	query := "UPDATE products SET " + strings.Join(updates, ", ") +
		fmt.Sprintf(" WHERE id = $%d AND deleted_at IS NULL", argId)
	args = append(args, id)

	commandTag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		mylogger.Error(ctx, r.logger, "Failed to update product", zap.String("id", id), zap.Error(err))

		return fmt.Errorf("error updating product: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return ErrProductNotFound
	}

	return nil
}

func (r *productRepo) DeleteByID(ctx context.Context, id string) error {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.DeleteByID")
	defer span.End()

	span.SetAttributes(attribute.String("id", id))

	// Soft delete keeps historical order items pointing at a valid row.
	query := `
		UPDATE products
		SET deleted_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	commandTag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		span.RecordError(err)
		mylogger.Error(ctx, r.logger, "Error deleting product", zap.String("id", id), zap.Error(err))

		return fmt.Errorf("error deleting product: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return ErrProductNotFound
	}

	return nil
}

func (r *productRepo) LockForOrder(ctx context.Context, tx pgx.Tx, ids []string) (map[string]domain.ProductSnapshot, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.LockForOrder")
	defer span.End()

	span.SetAttributes(attribute.Int("product_count", len(ids)))

	// Row locks are taken in a deterministic order so two placements
	// touching the same products cannot deadlock each other.
	query := `
		SELECT id, price, stock
		FROM products
		WHERE id = ANY($1) AND deleted_at IS NULL
		ORDER BY id
		FOR UPDATE
	`

	rows, err := tx.Query(ctx, query, ids)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("error locking products: %w", err)
	}
	defer rows.Close()

	snapshots := make(map[string]domain.ProductSnapshot, len(ids))
	for rows.Next() {
		var s domain.ProductSnapshot
		if err := rows.Scan(&s.ID, &s.Price, &s.Stock); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("error scanning product snapshot: %w", err)
		}
		snapshots[s.ID] = s
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product snapshots: %w", err)
	}

	return snapshots, nil
}

func (r *productRepo) DecrementStock(ctx context.Context, tx pgx.Tx, id string, quantity int32) error {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.DecrementStock")
	defer span.End()

	span.SetAttributes(
		attribute.String("id", id),
		attribute.Int("quantity", int(quantity)),
	)

	// The stock condition is a backstop; the service has already checked
	// aggregated demand against the locked snapshot.
	query := `
		UPDATE products
		SET stock = stock - $2, updated_at = NOW()
		WHERE id = $1
			AND stock >= $2
			AND deleted_at IS NULL
	`

	commandTag, err := tx.Exec(ctx, query, id, quantity)
	if err != nil {
		span.RecordError(err)
		mylogger.Error(ctx, r.logger, "Error decrementing stock",
			zap.String("id", id),
			zap.Int32("quantity", quantity),
			zap.Error(err),
		)

		return fmt.Errorf("error decrementing stock for product %s: %w", id, err)
	}

	if commandTag.RowsAffected() == 0 {
		return ErrInsufficientStock
	}

	return nil
}

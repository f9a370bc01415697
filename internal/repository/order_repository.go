package repository

import (
	"context"
	"errors"
	"fmt"

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

type OrderRepository interface {
	// CreateOrderWithItems inserts the order row and all of its item rows
	// inside the caller's transaction, filling in generated ids and
	// timestamps on the aggregate.
	CreateOrderWithItems(ctx context.Context, tx pgx.Tx, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByUserID(ctx context.Context, userID string) ([]domain.Order, error)
}

type orderRepo struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
	logger *zap.Logger
}

func NewOrderRepository(pool *pgxpool.Pool, logger *zap.Logger) OrderRepository {
	return &orderRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("contract/order_repo"),
	}
}

func (r *orderRepo) CreateOrderWithItems(ctx context.Context, tx pgx.Tx, order *domain.Order) error {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.CreateOrderWithItems")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", order.UserID),
		attribute.Int("item_count", len(order.Items)),
	)

	order.ID = uuid.NewString()

	orderQuery := `
		INSERT INTO orders (id, user_id, description, total_price, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`

	err := tx.QueryRow(
		ctx,
		orderQuery,
		order.ID,
		order.UserID,
		order.Description,
		order.TotalPrice,
		order.Status,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		span.RecordError(err)
		mylogger.Error(ctx, r.logger, "Failed to insert order",
			zap.String("user_id", order.UserID),
			zap.Error(err),
		)

		return fmt.Errorf("error inserting order: %w", err)
	}

	// position keeps the caller-supplied item order stable on reads.
	itemQuery := `
		INSERT INTO order_items (id, order_id, product_id, quantity, unit_price, position)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	for i := range order.Items {
		item := &order.Items[i]
		item.ID = uuid.NewString()
		item.OrderID = order.ID

		if _, err := tx.Exec(
			ctx,
			itemQuery,
			item.ID,
			item.OrderID,
			item.ProductID,
			item.Quantity,
			item.UnitPrice,
			i,
		); err != nil {
			span.RecordError(err)
			mylogger.Error(ctx, r.logger, "Failed to insert order item",
				zap.String("order_id", order.ID),
				zap.String("product_id", item.ProductID),
				zap.Error(err),
			)

			return fmt.Errorf("error inserting order item: %w", err)
		}
	}

	return nil
}

func (r *orderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.GetByID")
	defer span.End()

	span.SetAttributes(attribute.String("id", id))

	query := `
		SELECT id, user_id, description, total_price, status, created_at, updated_at
		FROM orders
		WHERE id = $1
	`

	var o domain.Order
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&o.ID,
		&o.UserID,
		&o.Description,
		&o.TotalPrice,
		&o.Status,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}

		span.RecordError(err)
		return nil, fmt.Errorf("error querying order: %w", err)
	}

	items, err := r.itemsForOrders(ctx, []string{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]

	return &o, nil
}

func (r *orderRepo) ListByUserID(ctx context.Context, userID string) ([]domain.Order, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.ListByUserID")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	query := `
		SELECT id, user_id, description, total_price, status, created_at, updated_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("error listing orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	var ids []string
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(
			&o.ID,
			&o.UserID,
			&o.Description,
			&o.TotalPrice,
			&o.Status,
			&o.CreatedAt,
			&o.UpdatedAt,
		); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("error scanning order: %w", err)
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	if len(orders) == 0 {
		return orders, nil
	}

	items, err := r.itemsForOrders(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}

	return orders, nil
}

func (r *orderRepo) itemsForOrders(ctx context.Context, orderIDs []string) (map[string][]domain.OrderItem, error) {
	query := `
		SELECT id, order_id, product_id, quantity, unit_price
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY position
	`

	rows, err := r.pool.Query(ctx, query, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("error querying order items: %w", err)
	}
	defer rows.Close()

	items := make(map[string][]domain.OrderItem, len(orderIDs))
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Quantity,
			&item.UnitPrice,
		); err != nil {
			return nil, fmt.Errorf("error scanning order item: %w", err)
		}
		items[item.OrderID] = append(items[item.OrderID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return items, nil
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bethel4/Ecommerce-Backend-Repo/internal/domain"
	"github.com/bethel4/Ecommerce-Backend-Repo/internal/outbox"
	"github.com/bethel4/Ecommerce-Backend-Repo/internal/repository"
	"github.com/bethel4/Ecommerce-Backend-Repo/pkg/mylogger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// maxPlaceAttempts bounds internal retries of the placement unit of work
// when the store reports a transient write conflict.
const maxPlaceAttempts = 3

const orderEventsTopic = "order_events"

type OrderService interface {
	PlaceOrder(ctx context.Context, input *domain.PlaceOrderInput) (*domain.Order, error)
	ListOrdersForUser(ctx context.Context, userID string) ([]domain.Order, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
}

// TxBeginner is the slice of pgxpool.Pool the service needs to open its
// unit of work.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type orderService struct {
	pool        TxBeginner
	logger      *zap.Logger
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	outboxRepo  outbox.Repository
	tracer      trace.Tracer
}

func NewOrderService(
	pool TxBeginner,
	logger *zap.Logger,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	outboxRepo outbox.Repository,
) OrderService {
	return &orderService{
		pool:        pool,
		logger:      logger,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		outboxRepo:  outboxRepo,
		tracer:      otel.Tracer("order_service"),
	}
}

// PlaceOrder validates the request shape, then runs the placement as a
// single atomic unit of work: lock product rows, check aggregated demand
// against stock, snapshot prices, insert the order with its items,
// decrement stock and commit. Any failure rolls the whole unit back.
// Transient store conflicts retry the unit up to maxPlaceAttempts before
// surfacing a ConflictError.
func (s *orderService) PlaceOrder(ctx context.Context, input *domain.PlaceOrderInput) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.PlaceOrder")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", input.UserID),
		attribute.Int("item_count", len(input.Items)),
	)

	// Shape validation happens before any store interaction.
	if err := input.Validate(); err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		order, err := s.placeOnce(ctx, input)
		if err == nil {
			mylogger.Info(ctx, s.logger, "Order placed",
				zap.String("order_id", order.ID),
				zap.String("user_id", order.UserID),
				zap.String("total_price", order.TotalPrice.String()),
			)

			return order, nil
		}

		if !isWriteConflict(err) {
			return nil, err
		}

		span.RecordError(err)
		mylogger.Warn(ctx, s.logger, "Placement hit a write conflict",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)

		if attempt >= maxPlaceAttempts {
			return nil, &domain.ConflictError{Attempts: attempt}
		}
	}
}

func (s *orderService) placeOnce(ctx context.Context, input *domain.PlaceOrderInput) (*domain.Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		rollbackCtx := context.WithoutCancel(ctx)

		if err := tx.Rollback(rollbackCtx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			mylogger.Warn(rollbackCtx, s.logger, "Error rolling back transaction", zap.Error(err))
		}
	}()

	// Distinct ids in first-seen order; demand per product is the sum of
	// every line referencing it, so repeated ids are checked against one
	// aggregated figure instead of independently.
	productIDs := make([]string, 0, len(input.Items))
	demand := make(map[string]int32, len(input.Items))
	for _, item := range input.Items {
		if _, seen := demand[item.ProductID]; !seen {
			productIDs = append(productIDs, item.ProductID)
		}
		demand[item.ProductID] += item.Quantity
	}

	snapshots, err := s.productRepo.LockForOrder(ctx, tx, productIDs)
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		UserID:      input.UserID,
		Description: input.Description,
		Status:      domain.OrderStatusPending,
		Items:       make([]domain.OrderItem, 0, len(input.Items)),
	}

	checked := make(map[string]bool, len(productIDs))
	for _, item := range input.Items {
		snap, ok := snapshots[item.ProductID]
		if !ok {
			return nil, &domain.NotFoundError{Resource: "product", ID: item.ProductID}
		}

		if !checked[item.ProductID] {
			checked[item.ProductID] = true
			if snap.Stock < demand[item.ProductID] {
				return nil, &domain.InsufficientStockError{
					ProductID: item.ProductID,
					Requested: demand[item.ProductID],
					Available: snap.Stock,
				}
			}
		}

		unitPrice, _ := domain.PriceLine(snap, item.Quantity)
		order.Items = append(order.Items, domain.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: unitPrice,
		})
	}

	order.CalculateTotal()

	if err := s.orderRepo.CreateOrderWithItems(ctx, tx, order); err != nil {
		return nil, err
	}

	for _, id := range productIDs {
		if err := s.productRepo.DecrementStock(ctx, tx, id, demand[id]); err != nil {
			if errors.Is(err, repository.ErrInsufficientStock) {
				// The FOR UPDATE lock should make this unreachable; keep
				// the typed failure anyway.
				return nil, &domain.InsufficientStockError{
					ProductID: id,
					Requested: demand[id],
					Available: snapshots[id].Stock,
				}
			}

			return nil, err
		}
	}

	if err := s.emitOrderPlaced(ctx, tx, order); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return order, nil
}

func (s *orderService) emitOrderPlaced(ctx context.Context, tx pgx.Tx, order *domain.Order) error {
	eventItems := make([]domain.OrderPlacedItem, len(order.Items))
	for i, item := range order.Items {
		eventItems[i] = domain.OrderPlacedItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}
	}

	payload, err := json.Marshal(map[string]any{
		"event": "OrderPlaced",
		"payload": domain.OrderPlacedEvent{
			OrderID:    order.ID,
			UserID:     order.UserID,
			TotalPrice: order.TotalPrice.String(),
			Items:      eventItems,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	event := &outbox.Event{
		AggregateType: "Order",
		AggregateID:   order.ID,
		EventType:     "OrderPlaced",
		Payload:       payload,
		Topic:         orderEventsTopic,
	}

	if err := s.outboxRepo.Save(ctx, tx, event); err != nil {
		return fmt.Errorf("failed to save outbox event: %w", err)
	}

	return nil
}

func (s *orderService) ListOrdersForUser(ctx context.Context, userID string) ([]domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ListOrdersForUser")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	return s.orderRepo.ListByUserID(ctx, userID)
}

func (s *orderService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.GetOrder")
	defer span.End()

	span.SetAttributes(attribute.String("id", id))

	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, &domain.NotFoundError{Resource: "order", ID: id}
		}

		return nil, err
	}

	return order, nil
}

// isWriteConflict reports whether err is a Postgres serialization
// failure or deadlock, both of which are safe to retry from scratch.
func isWriteConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}

	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}

package service

import (
	"context"
	"testing"

	"github.com/bethel4/Ecommerce-Backend-Repo/internal/domain"
	"github.com/bethel4/Ecommerce-Backend-Repo/internal/outbox"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeTx satisfies pgx.Tx without touching a database. Only Commit and
// Rollback carry behavior; everything else is unused by the service.
type fakeTx struct {
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }

func (t *fakeTx) Commit(ctx context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if t.committed {
		return pgx.ErrTxClosed
	}
	t.rolledBack = true
	return nil
}

func (t *fakeTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}

func (t *fakeTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }

func (t *fakeTx) LargeObjects() pgx.LargeObjects { return pgx.LargeObjects{} }

func (t *fakeTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}

func (t *fakeTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (t *fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (t *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }

func (t *fakeTx) Conn() *pgx.Conn { return nil }

type fakeTxBeginner struct {
	beginCalls int
	lastTx     *fakeTx
}

func (b *fakeTxBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	b.beginCalls++
	b.lastTx = &fakeTx{}
	return b.lastTx, nil
}

type fakeProductRepo struct {
	snapshots  map[string]domain.ProductSnapshot
	lockErrs   []error
	lockCalls  int
	decrements map[string]int32

	created    *domain.Product
	getErr     error
	updateErr  error
	deleteErr  error
	listLimit  int64
	listOffset int64
}

func (r *fakeProductRepo) LockForOrder(ctx context.Context, tx pgx.Tx, ids []string) (map[string]domain.ProductSnapshot, error) {
	r.lockCalls++
	if len(r.lockErrs) > 0 {
		err := r.lockErrs[0]
		r.lockErrs = r.lockErrs[1:]
		if err != nil {
			return nil, err
		}
	}

	found := make(map[string]domain.ProductSnapshot, len(ids))
	for _, id := range ids {
		if snap, ok := r.snapshots[id]; ok {
			found[id] = snap
		}
	}
	return found, nil
}

func (r *fakeProductRepo) DecrementStock(ctx context.Context, tx pgx.Tx, id string, quantity int32) error {
	if r.decrements == nil {
		r.decrements = make(map[string]int32)
	}
	r.decrements[id] += quantity
	return nil
}

func (r *fakeProductRepo) Create(ctx context.Context, product *domain.Product) (string, error) {
	r.created = product
	return uuid.NewString(), nil
}

func (r *fakeProductRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	return &domain.Product{ID: id}, nil
}

func (r *fakeProductRepo) List(ctx context.Context, limit, offset int64, search string) ([]domain.Product, int64, error) {
	r.listLimit = limit
	r.listOffset = offset
	return nil, 0, nil
}

func (r *fakeProductRepo) Update(ctx context.Context, id string, input *domain.UpdateProductInput) error {
	return r.updateErr
}

func (r *fakeProductRepo) DeleteByID(ctx context.Context, id string) error { return r.deleteErr }

type fakeOrderRepo struct {
	created *domain.Order
}

func (r *fakeOrderRepo) CreateOrderWithItems(ctx context.Context, tx pgx.Tx, order *domain.Order) error {
	order.ID = uuid.NewString()
	for i := range order.Items {
		order.Items[i].ID = uuid.NewString()
		order.Items[i].OrderID = order.ID
	}
	r.created = order
	return nil
}

func (r *fakeOrderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return nil, nil
}

func (r *fakeOrderRepo) ListByUserID(ctx context.Context, userID string) ([]domain.Order, error) {
	return nil, nil
}

type fakeOutboxRepo struct {
	saved []*outbox.Event
}

func (r *fakeOutboxRepo) Save(ctx context.Context, tx pgx.Tx, event *outbox.Event) error {
	r.saved = append(r.saved, event)
	return nil
}

func (r *fakeOutboxRepo) GetUnpublished(ctx context.Context, tx pgx.Tx, batchSize int) ([]*outbox.Event, error) {
	return nil, nil
}

func (r *fakeOutboxRepo) MarkPublished(ctx context.Context, tx pgx.Tx, eventID int64) error {
	return nil
}

func (r *fakeOutboxRepo) MarkFailed(ctx context.Context, tx pgx.Tx, eventID int64, errMsg string) error {
	return nil
}

type orderServiceFixture struct {
	svc      OrderService
	beginner *fakeTxBeginner
	products *fakeProductRepo
	orders   *fakeOrderRepo
	outbox   *fakeOutboxRepo
}

func newOrderServiceFixture(snapshots map[string]domain.ProductSnapshot) *orderServiceFixture {
	f := &orderServiceFixture{
		beginner: &fakeTxBeginner{},
		products: &fakeProductRepo{snapshots: snapshots},
		orders:   &fakeOrderRepo{},
		outbox:   &fakeOutboxRepo{},
	}
	f.svc = NewOrderService(f.beginner, zap.NewNop(), f.orders, f.products, f.outbox)
	return f
}

func snapshot(price string, stock int32) domain.ProductSnapshot {
	return domain.ProductSnapshot{
		ID:    uuid.NewString(),
		Price: decimal.RequireFromString(price),
		Stock: stock,
	}
}

func TestPlaceOrderRejectsBeforeAnyStoreCall(t *testing.T) {
	f := newOrderServiceFixture(nil)

	cases := []struct {
		name  string
		input *domain.PlaceOrderInput
	}{
		{"empty items", &domain.PlaceOrderInput{UserID: uuid.NewString()}},
		{"malformed id", &domain.PlaceOrderInput{
			UserID: uuid.NewString(),
			Items:  []domain.PlaceOrderItemInput{{ProductID: "garbage", Quantity: 1}},
		}},
		{"zero quantity", &domain.PlaceOrderInput{
			UserID: uuid.NewString(),
			Items:  []domain.PlaceOrderItemInput{{ProductID: uuid.NewString(), Quantity: 0}},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.PlaceOrder(context.Background(), tc.input)

			var validationErr *domain.ValidationError
			require.ErrorAs(t, err, &validationErr)
		})
	}

	assert.Zero(t, f.beginner.beginCalls, "validation failures must not open a transaction")
	assert.Zero(t, f.products.lockCalls)
}

func TestPlaceOrderUnknownProduct(t *testing.T) {
	known := snapshot("10.00", 10)
	missing := uuid.NewString()
	f := newOrderServiceFixture(map[string]domain.ProductSnapshot{known.ID: known})

	_, err := f.svc.PlaceOrder(context.Background(), &domain.PlaceOrderInput{
		UserID: uuid.NewString(),
		Items: []domain.PlaceOrderItemInput{
			{ProductID: known.ID, Quantity: 1},
			{ProductID: missing, Quantity: 1},
		},
	})

	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "product", notFound.Resource)
	assert.Equal(t, missing, notFound.ID)

	assert.False(t, f.beginner.lastTx.committed)
	assert.True(t, f.beginner.lastTx.rolledBack)
	assert.Nil(t, f.orders.created)
	assert.Empty(t, f.products.decrements)
}

func TestPlaceOrderInsufficientStock(t *testing.T) {
	p := snapshot("10.00", 3)
	f := newOrderServiceFixture(map[string]domain.ProductSnapshot{p.ID: p})

	_, err := f.svc.PlaceOrder(context.Background(), &domain.PlaceOrderInput{
		UserID: uuid.NewString(),
		Items:  []domain.PlaceOrderItemInput{{ProductID: p.ID, Quantity: 5}},
	})

	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, p.ID, stockErr.ProductID)
	assert.EqualValues(t, 5, stockErr.Requested)
	assert.EqualValues(t, 3, stockErr.Available)

	assert.False(t, f.beginner.lastTx.committed)
	assert.Empty(t, f.products.decrements)
	assert.Empty(t, f.outbox.saved)
}

func TestPlaceOrderAggregatesRepeatedLines(t *testing.T) {
	p := snapshot("10.00", 5)
	f := newOrderServiceFixture(map[string]domain.ProductSnapshot{p.ID: p})

	// Each line fits on its own; the summed demand of 6 does not.
	_, err := f.svc.PlaceOrder(context.Background(), &domain.PlaceOrderInput{
		UserID: uuid.NewString(),
		Items: []domain.PlaceOrderItemInput{
			{ProductID: p.ID, Quantity: 3},
			{ProductID: p.ID, Quantity: 3},
		},
	})

	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.EqualValues(t, 6, stockErr.Requested)
	assert.EqualValues(t, 5, stockErr.Available)
}

func TestPlaceOrderSuccess(t *testing.T) {
	p1 := snapshot("10.00", 10)
	p2 := snapshot("4.50", 8)
	f := newOrderServiceFixture(map[string]domain.ProductSnapshot{
		p1.ID: p1,
		p2.ID: p2,
	})

	userID := uuid.NewString()
	order, err := f.svc.PlaceOrder(context.Background(), &domain.PlaceOrderInput{
		UserID: userID,
		Items: []domain.PlaceOrderItemInput{
			{ProductID: p1.ID, Quantity: 2},
			{ProductID: p2.ID, Quantity: 1},
			{ProductID: p1.ID, Quantity: 1},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, order)

	assert.Equal(t, userID, order.UserID)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.True(t, order.TotalPrice.Equal(decimal.RequireFromString("34.50")),
		"got total %s", order.TotalPrice)

	// Items come back in the caller's line order with snapshot prices.
	require.Len(t, order.Items, 3)
	assert.Equal(t, p1.ID, order.Items[0].ProductID)
	assert.Equal(t, p2.ID, order.Items[1].ProductID)
	assert.Equal(t, p1.ID, order.Items[2].ProductID)
	assert.True(t, order.Items[0].UnitPrice.Equal(p1.Price))
	assert.True(t, order.Items[1].UnitPrice.Equal(p2.Price))

	// Stock comes off once per product with the summed demand.
	assert.EqualValues(t, 3, f.products.decrements[p1.ID])
	assert.EqualValues(t, 1, f.products.decrements[p2.ID])

	require.Len(t, f.outbox.saved, 1)
	event := f.outbox.saved[0]
	assert.Equal(t, "OrderPlaced", event.EventType)
	assert.Equal(t, order.ID, event.AggregateID)
	assert.Equal(t, "order_events", event.Topic)

	assert.Equal(t, 1, f.beginner.beginCalls)
	assert.True(t, f.beginner.lastTx.committed)
}

func TestPlaceOrderRetriesWriteConflict(t *testing.T) {
	p := snapshot("10.00", 10)
	f := newOrderServiceFixture(map[string]domain.ProductSnapshot{p.ID: p})
	f.products.lockErrs = []error{
		&pgconn.PgError{Code: "40001"},
		&pgconn.PgError{Code: "40P01"},
		nil,
	}

	order, err := f.svc.PlaceOrder(context.Background(), &domain.PlaceOrderInput{
		UserID: uuid.NewString(),
		Items:  []domain.PlaceOrderItemInput{{ProductID: p.ID, Quantity: 2}},
	})
	require.NoError(t, err)
	require.NotNil(t, order)

	assert.Equal(t, 3, f.beginner.beginCalls)
	assert.True(t, f.beginner.lastTx.committed)
}

func TestPlaceOrderConflictExhausted(t *testing.T) {
	p := snapshot("10.00", 10)
	f := newOrderServiceFixture(map[string]domain.ProductSnapshot{p.ID: p})
	f.products.lockErrs = []error{
		&pgconn.PgError{Code: "40001"},
		&pgconn.PgError{Code: "40001"},
		&pgconn.PgError{Code: "40001"},
	}

	_, err := f.svc.PlaceOrder(context.Background(), &domain.PlaceOrderInput{
		UserID: uuid.NewString(),
		Items:  []domain.PlaceOrderItemInput{{ProductID: p.ID, Quantity: 2}},
	})

	var conflictErr *domain.ConflictError
	require.ErrorAs(t, err, &conflictErr)
	assert.Equal(t, maxPlaceAttempts, conflictErr.Attempts)
	assert.Equal(t, maxPlaceAttempts, f.beginner.beginCalls)
}

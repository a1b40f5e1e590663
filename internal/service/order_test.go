package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/nueats/api/internal/database"
	"github.com/nueats/api/internal/service"
)

// --- Mock OrderStore ---

type mockOrderStore struct {
	getOrderFn            func(ctx context.Context, id uuid.UUID) (database.Order, error)
	updateOrderStatusFn   func(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	cancelOrderFn         func(ctx context.Context, id uuid.UUID) (database.Order, error)
	createCancellationFn  func(ctx context.Context, arg database.CreateCancellationParams) (database.Cancellation, error)
	updatePaymentStatusFn func(ctx context.Context, arg database.UpdatePaymentStatusParams) (database.Payment, error)
	getRatingByOrderFn    func(ctx context.Context, orderID uuid.UUID) (database.Rating, error)
	createRatingFn        func(ctx context.Context, arg database.CreateRatingParams) (database.Rating, error)
}

func (m *mockOrderStore) GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error) {
	if m.getOrderFn != nil {
		return m.getOrderFn(ctx, id)
	}
	return database.Order{}, pgx.ErrNoRows
}

func (m *mockOrderStore) UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error) {
	if m.updateOrderStatusFn != nil {
		return m.updateOrderStatusFn(ctx, arg)
	}
	return database.Order{}, pgx.ErrNoRows
}

func (m *mockOrderStore) CancelOrder(ctx context.Context, id uuid.UUID) (database.Order, error) {
	if m.cancelOrderFn != nil {
		return m.cancelOrderFn(ctx, id)
	}
	return database.Order{}, pgx.ErrNoRows
}

func (m *mockOrderStore) CreateCancellation(ctx context.Context, arg database.CreateCancellationParams) (database.Cancellation, error) {
	if m.createCancellationFn != nil {
		return m.createCancellationFn(ctx, arg)
	}
	return database.Cancellation{}, pgx.ErrNoRows
}

func (m *mockOrderStore) UpdatePaymentStatus(ctx context.Context, arg database.UpdatePaymentStatusParams) (database.Payment, error) {
	if m.updatePaymentStatusFn != nil {
		return m.updatePaymentStatusFn(ctx, arg)
	}
	return database.Payment{}, pgx.ErrNoRows
}

func (m *mockOrderStore) GetRatingByOrder(ctx context.Context, orderID uuid.UUID) (database.Rating, error) {
	if m.getRatingByOrderFn != nil {
		return m.getRatingByOrderFn(ctx, orderID)
	}
	return database.Rating{}, pgx.ErrNoRows
}

func (m *mockOrderStore) CreateRating(ctx context.Context, arg database.CreateRatingParams) (database.Rating, error) {
	if m.createRatingFn != nil {
		return m.createRatingFn(ctx, arg)
	}
	return database.Rating{}, pgx.ErrNoRows
}

// --- Mock TxBeginner ---

type mockTx struct{}

func (m *mockTx) Commit(ctx context.Context) error   { return nil }
func (m *mockTx) Rollback(ctx context.Context) error { return nil }
func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (m *mockTx) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return nil, nil
}
func (m *mockTx) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row { return nil }
func (m *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (m *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (m *mockTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (m *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (m *mockTx) Conn() *pgx.Conn { return nil }

type mockPool struct {
	beginFn func(ctx context.Context) (pgx.Tx, error)
}

func (m *mockPool) Begin(ctx context.Context) (pgx.Tx, error) {
	if m.beginFn != nil {
		return m.beginFn(ctx)
	}
	return &mockTx{}, nil
}

func newService(store *mockOrderStore) *service.OrderService {
	return service.NewOrderService(&mockPool{}, store, func(db database.DBTX) service.OrderStore {
		return store
	})
}

func testNumeric(s string) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(s)
	return n
}

func testOrder(status database.OrderStatus) database.Order {
	now := time.Now()
	return database.Order{
		ID:          uuid.New(),
		CustomerID:  uuid.New(),
		Status:      status,
		TotalAmount: testNumeric("165.00"),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// --- Transition graph ---

func TestValidateTransition_Graph(t *testing.T) {
	all := []database.OrderStatus{
		database.OrderStatusPending,
		database.OrderStatusPreparing,
		database.OrderStatusReady,
		database.OrderStatusCompleted,
		database.OrderStatusCancelled,
	}
	legal := map[database.OrderStatus]map[database.OrderStatus]bool{
		database.OrderStatusPending:   {database.OrderStatusPreparing: true, database.OrderStatusCancelled: true},
		database.OrderStatusPreparing: {database.OrderStatusReady: true, database.OrderStatusCancelled: true},
		database.OrderStatusReady:     {database.OrderStatusCompleted: true, database.OrderStatusCancelled: true},
	}

	for _, from := range all {
		for _, to := range all {
			err := service.ValidateTransition(from, to)
			if legal[from][to] {
				if err != nil {
					t.Errorf("%s -> %s: expected legal, got %v", from, to, err)
				}
			} else {
				if !errors.Is(err, service.ErrInvalidTransition) {
					t.Errorf("%s -> %s: expected ErrInvalidTransition, got %v", from, to, err)
				}
			}
		}
	}
}

func TestParseStatus_CaseInsensitive(t *testing.T) {
	for _, in := range []string{"pending", "PENDING", "Pending", "pEnDiNg"} {
		got, err := service.ParseStatus(in)
		if err != nil {
			t.Fatalf("ParseStatus(%q): %v", in, err)
		}
		if got != database.OrderStatusPending {
			t.Errorf("ParseStatus(%q): got %v, want Pending", in, got)
		}
	}

	if _, err := service.ParseStatus("shipped"); !errors.Is(err, service.ErrInvalidStatus) {
		t.Errorf("ParseStatus(shipped): expected ErrInvalidStatus, got %v", err)
	}
}

// --- RequestTransition ---

func TestRequestTransition_HappyPath(t *testing.T) {
	order := testOrder(database.OrderStatusPending)
	var gotArg database.UpdateOrderStatusParams

	store := &mockOrderStore{
		updateOrderStatusFn: func(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error) {
			gotArg = arg
			updated := order
			updated.Status = arg.Status
			updated.UpdatedAt = time.Now()
			return updated, nil
		},
	}

	svc := newService(store)
	updated, err := svc.RequestTransition(context.Background(), order.ID, database.OrderStatusPending, database.OrderStatusPreparing)
	if err != nil {
		t.Fatalf("RequestTransition: %v", err)
	}
	if updated.Status != database.OrderStatusPreparing {
		t.Errorf("status: got %v, want Preparing", updated.Status)
	}
	if gotArg.FromStatus != database.OrderStatusPending {
		t.Errorf("conditional write should require current status Pending, got %v", gotArg.FromStatus)
	}
}

func TestRequestTransition_TerminalOrderRejected(t *testing.T) {
	store := &mockOrderStore{
		updateOrderStatusFn: func(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error) {
			t.Fatal("no write should be issued for a terminal order")
			return database.Order{}, nil
		},
	}

	svc := newService(store)
	_, err := svc.RequestTransition(context.Background(), uuid.New(), database.OrderStatusCompleted, database.OrderStatusPreparing)
	if !errors.Is(err, service.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestRequestTransition_SkippingStatesRejected(t *testing.T) {
	svc := newService(&mockOrderStore{})
	_, err := svc.RequestTransition(context.Background(), uuid.New(), database.OrderStatusPending, database.OrderStatusCompleted)
	if !errors.Is(err, service.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestRequestTransition_ConcurrentChange(t *testing.T) {
	order := testOrder(database.OrderStatusPreparing)

	store := &mockOrderStore{
		updateOrderStatusFn: func(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error) {
			return database.Order{}, pgx.ErrNoRows
		},
		getOrderFn: func(ctx context.Context, id uuid.UUID) (database.Order, error) {
			return order, nil
		},
	}

	svc := newService(store)
	_, err := svc.RequestTransition(context.Background(), order.ID, database.OrderStatusPending, database.OrderStatusPreparing)
	if !errors.Is(err, service.ErrStatusChanged) {
		t.Fatalf("expected ErrStatusChanged, got %v", err)
	}
}

func TestRequestTransition_RaceToTerminal(t *testing.T) {
	order := testOrder(database.OrderStatusCancelled)

	store := &mockOrderStore{
		updateOrderStatusFn: func(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error) {
			return database.Order{}, pgx.ErrNoRows
		},
		getOrderFn: func(ctx context.Context, id uuid.UUID) (database.Order, error) {
			return order, nil
		},
	}

	svc := newService(store)
	_, err := svc.RequestTransition(context.Background(), order.ID, database.OrderStatusPending, database.OrderStatusPreparing)
	if !errors.Is(err, service.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition when order raced to terminal, got %v", err)
	}
}

func TestRequestTransition_OrderNotFound(t *testing.T) {
	store := &mockOrderStore{
		updateOrderStatusFn: func(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error) {
			return database.Order{}, pgx.ErrNoRows
		},
	}

	svc := newService(store)
	_, err := svc.RequestTransition(context.Background(), uuid.New(), database.OrderStatusPending, database.OrderStatusPreparing)
	if !errors.Is(err, service.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestRequestTransition_PersistenceFailure(t *testing.T) {
	driverErr := errors.New("connection reset")
	store := &mockOrderStore{
		updateOrderStatusFn: func(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error) {
			return database.Order{}, driverErr
		},
	}

	svc := newService(store)
	_, err := svc.RequestTransition(context.Background(), uuid.New(), database.OrderStatusPending, database.OrderStatusPreparing)
	if !errors.Is(err, service.ErrPersistenceFailure) {
		t.Fatalf("expected ErrPersistenceFailure, got %v", err)
	}
	if !errors.Is(err, driverErr) {
		t.Errorf("driver error should still be unwrappable, got %v", err)
	}
}

func TestRequestTransition_CompleteSettlesPayment(t *testing.T) {
	order := testOrder(database.OrderStatusReady)
	var paymentArg *database.UpdatePaymentStatusParams

	store := &mockOrderStore{
		updateOrderStatusFn: func(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error) {
			updated := order
			updated.Status = arg.Status
			return updated, nil
		},
		updatePaymentStatusFn: func(ctx context.Context, arg database.UpdatePaymentStatusParams) (database.Payment, error) {
			paymentArg = &arg
			return database.Payment{OrderID: arg.OrderID, Status: arg.Status}, nil
		},
	}

	svc := newService(store)
	updated, err := svc.RequestTransition(context.Background(), order.ID, database.OrderStatusReady, database.OrderStatusCompleted)
	if err != nil {
		t.Fatalf("RequestTransition: %v", err)
	}
	if updated.Status != database.OrderStatusCompleted {
		t.Errorf("status: got %v, want Completed", updated.Status)
	}
	if paymentArg == nil {
		t.Fatal("payment should be settled on completion")
	}
	if paymentArg.Status != database.PaymentStatusPaid {
		t.Errorf("payment status: got %v, want paid", paymentArg.Status)
	}
}

func TestRequestTransition_CompleteWithoutPaymentRow(t *testing.T) {
	order := testOrder(database.OrderStatusReady)

	store := &mockOrderStore{
		updateOrderStatusFn: func(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error) {
			updated := order
			updated.Status = arg.Status
			return updated, nil
		},
		// default UpdatePaymentStatus returns pgx.ErrNoRows
	}

	svc := newService(store)
	if _, err := svc.RequestTransition(context.Background(), order.ID, database.OrderStatusReady, database.OrderStatusCompleted); err != nil {
		t.Fatalf("missing payment row must not fail completion: %v", err)
	}
}

// --- Cancel ---

func TestCancel_CreatesCancellationRecord(t *testing.T) {
	order := testOrder(database.OrderStatusPreparing)
	var cancelArg *database.CreateCancellationParams
	var paymentArg *database.UpdatePaymentStatusParams

	store := &mockOrderStore{
		cancelOrderFn: func(ctx context.Context, id uuid.UUID) (database.Order, error) {
			cancelled := order
			cancelled.Status = database.OrderStatusCancelled
			return cancelled, nil
		},
		createCancellationFn: func(ctx context.Context, arg database.CreateCancellationParams) (database.Cancellation, error) {
			cancelArg = &arg
			return database.Cancellation{OrderID: arg.OrderID, Reason: arg.Reason}, nil
		},
		updatePaymentStatusFn: func(ctx context.Context, arg database.UpdatePaymentStatusParams) (database.Payment, error) {
			paymentArg = &arg
			return database.Payment{}, nil
		},
	}

	svc := newService(store)
	cancelled, err := svc.Cancel(context.Background(), order.ID, "OUT_OF_STOCK", "no more chop suey")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != database.OrderStatusCancelled {
		t.Errorf("status: got %v, want Cancelled", cancelled.Status)
	}
	if cancelArg == nil {
		t.Fatal("cancellation record should be created")
	}
	if cancelArg.Reason != "OUT_OF_STOCK" {
		t.Errorf("reason: got %v, want OUT_OF_STOCK", cancelArg.Reason)
	}
	if !cancelArg.Note.Valid || cancelArg.Note.String != "no more chop suey" {
		t.Errorf("note: got %+v, want 'no more chop suey'", cancelArg.Note)
	}
	if paymentArg == nil || paymentArg.Status != database.PaymentStatusCancelled {
		t.Errorf("payment should be voided on cancellation, got %+v", paymentArg)
	}
}

func TestCancel_EmptyReasonDefaults(t *testing.T) {
	order := testOrder(database.OrderStatusPending)
	var cancelArg *database.CreateCancellationParams

	store := &mockOrderStore{
		cancelOrderFn: func(ctx context.Context, id uuid.UUID) (database.Order, error) {
			cancelled := order
			cancelled.Status = database.OrderStatusCancelled
			return cancelled, nil
		},
		createCancellationFn: func(ctx context.Context, arg database.CreateCancellationParams) (database.Cancellation, error) {
			cancelArg = &arg
			return database.Cancellation{}, nil
		},
		updatePaymentStatusFn: func(ctx context.Context, arg database.UpdatePaymentStatusParams) (database.Payment, error) {
			return database.Payment{}, nil
		},
	}

	svc := newService(store)
	if _, err := svc.Cancel(context.Background(), order.ID, "", ""); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelArg.Reason != "OTHER" {
		t.Errorf("reason: got %v, want OTHER default", cancelArg.Reason)
	}
	if cancelArg.Note.Valid {
		t.Errorf("empty note should be stored as NULL, got %+v", cancelArg.Note)
	}
}

func TestCancel_TerminalOrderRejected(t *testing.T) {
	order := testOrder(database.OrderStatusCompleted)

	store := &mockOrderStore{
		cancelOrderFn: func(ctx context.Context, id uuid.UUID) (database.Order, error) {
			return database.Order{}, pgx.ErrNoRows
		},
		getOrderFn: func(ctx context.Context, id uuid.UUID) (database.Order, error) {
			return order, nil
		},
	}

	svc := newService(store)
	_, err := svc.Cancel(context.Background(), order.ID, "OTHER", "")
	if !errors.Is(err, service.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for completed order, got %v", err)
	}
}

// --- Ratings ---

func TestAddRating_HappyPath(t *testing.T) {
	order := testOrder(database.OrderStatusCompleted)

	store := &mockOrderStore{
		getOrderFn: func(ctx context.Context, id uuid.UUID) (database.Order, error) {
			return order, nil
		},
		createRatingFn: func(ctx context.Context, arg database.CreateRatingParams) (database.Rating, error) {
			return database.Rating{ID: uuid.New(), OrderID: arg.OrderID, Stars: arg.Stars, Feedback: arg.Feedback}, nil
		},
	}

	svc := newService(store)
	rating, err := svc.AddRating(context.Background(), order.ID, 5, "masarap")
	if err != nil {
		t.Fatalf("AddRating: %v", err)
	}
	if rating.Stars != 5 {
		t.Errorf("stars: got %d, want 5", rating.Stars)
	}
}

func TestAddRating_RejectsNonCompleted(t *testing.T) {
	for _, status := range []database.OrderStatus{
		database.OrderStatusPending,
		database.OrderStatusPreparing,
		database.OrderStatusReady,
		database.OrderStatusCancelled,
	} {
		order := testOrder(status)
		store := &mockOrderStore{
			getOrderFn: func(ctx context.Context, id uuid.UUID) (database.Order, error) {
				return order, nil
			},
		}
		svc := newService(store)
		_, err := svc.AddRating(context.Background(), order.ID, 4, "")
		if !errors.Is(err, service.ErrOrderNotCompleted) {
			t.Errorf("status %s: expected ErrOrderNotCompleted, got %v", status, err)
		}
	}
}

func TestAddRating_RejectsSecondRating(t *testing.T) {
	order := testOrder(database.OrderStatusCompleted)

	store := &mockOrderStore{
		getOrderFn: func(ctx context.Context, id uuid.UUID) (database.Order, error) {
			return order, nil
		},
		getRatingByOrderFn: func(ctx context.Context, orderID uuid.UUID) (database.Rating, error) {
			return database.Rating{ID: uuid.New(), OrderID: orderID, Stars: 3}, nil
		},
	}

	svc := newService(store)
	_, err := svc.AddRating(context.Background(), order.ID, 5, "")
	if !errors.Is(err, service.ErrAlreadyRated) {
		t.Fatalf("expected ErrAlreadyRated, got %v", err)
	}
}

func TestAddRating_StarsOutOfRange(t *testing.T) {
	svc := newService(&mockOrderStore{})
	for _, stars := range []int32{0, 6, -1} {
		if _, err := svc.AddRating(context.Background(), uuid.New(), stars, ""); !errors.Is(err, service.ErrInvalidStars) {
			t.Errorf("stars=%d: expected ErrInvalidStars, got %v", stars, err)
		}
	}
}

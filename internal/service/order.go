package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/nueats/api/internal/database"
	"github.com/nueats/api/internal/enum"
)

// Errors returned by the order service.
var (
	ErrInvalidStatus      = errors.New("invalid status")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrOrderNotFound      = errors.New("order not found")
	ErrStatusChanged      = errors.New("order status changed, please retry")
	ErrPersistenceFailure = errors.New("persistence failure")
	ErrOrderNotCompleted  = errors.New("order is not completed")
	ErrAlreadyRated       = errors.New("order already has a rating")
	ErrInvalidStars       = errors.New("stars must be between 1 and 5")
)

// PersistenceError wraps a driver failure so callers can match
// ErrPersistenceFailure with errors.Is while still unwrapping the
// underlying error.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistenceFailure }

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods the controller needs.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	CancelOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	CreateCancellation(ctx context.Context, arg database.CreateCancellationParams) (database.Cancellation, error)
	UpdatePaymentStatus(ctx context.Context, arg database.UpdatePaymentStatusParams) (database.Payment, error)
	GetRatingByOrder(ctx context.Context, orderID uuid.UUID) (database.Rating, error)
	CreateRating(ctx context.Context, arg database.CreateRatingParams) (database.Rating, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
type NewOrderStore func(db database.DBTX) OrderStore

// allowedTransitions is the legal status graph. The happy path is
// forward-only; Cancelled is a side exit from any non-terminal state.
// Completed and Cancelled have no outgoing edges.
var allowedTransitions = map[database.OrderStatus][]database.OrderStatus{
	database.OrderStatusPending:   {database.OrderStatusPreparing, database.OrderStatusCancelled},
	database.OrderStatusPreparing: {database.OrderStatusReady, database.OrderStatusCancelled},
	database.OrderStatusReady:     {database.OrderStatusCompleted, database.OrderStatusCancelled},
}

// ParseStatus maps case-insensitive input to the canonical title-case
// status stored in the database.
func ParseStatus(s string) (database.OrderStatus, error) {
	switch strings.ToLower(s) {
	case "pending":
		return database.OrderStatusPending, nil
	case "preparing":
		return database.OrderStatusPreparing, nil
	case "ready":
		return database.OrderStatusReady, nil
	case "completed":
		return database.OrderStatusCompleted, nil
	case "cancelled":
		return database.OrderStatusCancelled, nil
	}
	return "", ErrInvalidStatus
}

// IsTerminal reports whether no further transition is permitted.
func IsTerminal(s database.OrderStatus) bool {
	return s == database.OrderStatusCompleted || s == database.OrderStatusCancelled
}

// ValidateTransition checks the edge current→next against the graph.
func ValidateTransition(current, next database.OrderStatus) error {
	allowed, ok := allowedTransitions[current]
	if !ok {
		return fmt.Errorf("%w: %s is terminal", ErrInvalidTransition, current)
	}
	for _, s := range allowed {
		if s == next {
			return nil
		}
	}
	return fmt.Errorf("%w: cannot go from %s to %s", ErrInvalidTransition, current, next)
}

// OrderService enforces the status graph server-side, independent of
// which UI action issued the call.
type OrderService struct {
	pool     TxBeginner
	store    OrderStore
	newStore NewOrderStore
	now      func() time.Time
}

// NewOrderService creates a new OrderService.
func NewOrderService(pool TxBeginner, store OrderStore, newStore NewOrderStore) *OrderService {
	return &OrderService{pool: pool, store: store, newStore: newStore, now: time.Now}
}

// RequestTransition validates and applies current→target for one order.
// currentStatus is the status as last known to the caller; the write is
// conditional on the row still holding it, so a concurrent change
// surfaces as ErrStatusChanged instead of a silent last-write-wins.
// On success updated_at is refreshed and no other order is touched.
// On a driver failure the caller is expected to re-fetch authoritative
// state; nothing is retried here.
func (s *OrderService) RequestTransition(ctx context.Context, orderID uuid.UUID, currentStatus, target database.OrderStatus) (database.Order, error) {
	if err := ValidateTransition(currentStatus, target); err != nil {
		return database.Order{}, err
	}

	if target == database.OrderStatusCancelled {
		return s.Cancel(ctx, orderID, enum.CancelReasonOther, "")
	}

	if target == database.OrderStatusCompleted {
		return s.completeTx(ctx, orderID, currentStatus)
	}

	order, err := s.store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
		ID:         orderID,
		Status:     target,
		FromStatus: currentStatus,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, s.classifyConflict(ctx, orderID)
		}
		return database.Order{}, &PersistenceError{Op: "update order status", Err: err}
	}
	return order, nil
}

// completeTx marks the order Completed and settles its payment in one
// transaction: a Completed order implies a paid payment.
func (s *OrderService) completeTx(ctx context.Context, orderID uuid.UUID, currentStatus database.OrderStatus) (database.Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Order{}, &PersistenceError{Op: "begin tx", Err: err}
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
		ID:         orderID,
		Status:     database.OrderStatusCompleted,
		FromStatus: currentStatus,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, s.classifyConflict(ctx, orderID)
		}
		return database.Order{}, &PersistenceError{Op: "complete order", Err: err}
	}

	_, err = store.UpdatePaymentStatus(ctx, database.UpdatePaymentStatusParams{
		OrderID: orderID,
		Status:  database.PaymentStatusPaid,
	})
	// Cash orders may have no payment row yet; that is not an error.
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return database.Order{}, &PersistenceError{Op: "settle payment", Err: err}
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Order{}, &PersistenceError{Op: "commit tx", Err: err}
	}
	return order, nil
}

// Cancel moves any non-terminal order to Cancelled, records the
// cancellation (reason required, note optional) and marks its payment
// cancelled, all in one transaction. The cancellation record exists
// only for this transition and is never created any other way.
func (s *OrderService) Cancel(ctx context.Context, orderID uuid.UUID, reason, note string) (database.Order, error) {
	if reason == "" {
		reason = enum.CancelReasonOther
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Order{}, &PersistenceError{Op: "begin tx", Err: err}
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.CancelOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, s.classifyConflict(ctx, orderID)
		}
		return database.Order{}, &PersistenceError{Op: "cancel order", Err: err}
	}

	noteText := pgtype.Text{}
	if note != "" {
		noteText = pgtype.Text{String: note, Valid: true}
	}
	if _, err := store.CreateCancellation(ctx, database.CreateCancellationParams{
		OrderID:     orderID,
		Reason:      reason,
		Note:        noteText,
		CancelledAt: s.now(),
	}); err != nil {
		return database.Order{}, &PersistenceError{Op: "record cancellation", Err: err}
	}

	_, err = store.UpdatePaymentStatus(ctx, database.UpdatePaymentStatusParams{
		OrderID: orderID,
		Status:  database.PaymentStatusCancelled,
	})
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return database.Order{}, &PersistenceError{Op: "void payment", Err: err}
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Order{}, &PersistenceError{Op: "commit tx", Err: err}
	}
	return order, nil
}

// AddRating records a 1–5 star rating for a Completed order. Ratings
// are immutable and limited to one per order.
func (s *OrderService) AddRating(ctx context.Context, orderID uuid.UUID, stars int32, feedback string) (database.Rating, error) {
	if stars < 1 || stars > 5 {
		return database.Rating{}, ErrInvalidStars
	}

	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Rating{}, ErrOrderNotFound
		}
		return database.Rating{}, &PersistenceError{Op: "get order", Err: err}
	}
	if order.Status != database.OrderStatusCompleted {
		return database.Rating{}, ErrOrderNotCompleted
	}

	if _, err := s.store.GetRatingByOrder(ctx, orderID); err == nil {
		return database.Rating{}, ErrAlreadyRated
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return database.Rating{}, &PersistenceError{Op: "get rating", Err: err}
	}

	feedbackText := pgtype.Text{}
	if feedback != "" {
		feedbackText = pgtype.Text{String: feedback, Valid: true}
	}
	rating, err := s.store.CreateRating(ctx, database.CreateRatingParams{
		OrderID:   orderID,
		Stars:     stars,
		Feedback:  feedbackText,
		CreatedAt: s.now(),
	})
	if err != nil {
		if isUniqueViolation(err) {
			return database.Rating{}, ErrAlreadyRated
		}
		return database.Rating{}, &PersistenceError{Op: "create rating", Err: err}
	}
	return rating, nil
}

// classifyConflict distinguishes "order gone" from "status moved under
// us" after a conditional update matched zero rows.
func (s *OrderService) classifyConflict(ctx context.Context, orderID uuid.UUID) error {
	current, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrOrderNotFound
		}
		return &PersistenceError{Op: "get order", Err: err}
	}
	if IsTerminal(current.Status) {
		return fmt.Errorf("%w: order is %s", ErrInvalidTransition, current.Status)
	}
	return ErrStatusChanged
}

// isUniqueViolation checks for a unique constraint error (code 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const getPaymentByOrder = `
SELECT id, order_id, method, status, amount, intent_id, reference, failure_reason, created_at, updated_at
FROM payments
WHERE order_id = $1
`

func (q *Queries) GetPaymentByOrder(ctx context.Context, orderID uuid.UUID) (Payment, error) {
	row := q.db.QueryRow(ctx, getPaymentByOrder, orderID)
	var p Payment
	err := row.Scan(&p.ID, &p.OrderID, &p.Method, &p.Status, &p.Amount,
		&p.IntentID, &p.Reference, &p.FailureReason, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

const createPayment = `
INSERT INTO payments (order_id, method, status, amount, intent_id, reference, failure_reason, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
RETURNING id, order_id, method, status, amount, intent_id, reference, failure_reason, created_at, updated_at
`

type CreatePaymentParams struct {
	OrderID       uuid.UUID
	Method        string
	Status        PaymentStatus
	Amount        pgtype.Numeric
	IntentID      pgtype.Text
	Reference     pgtype.Text
	FailureReason pgtype.Text
	CreatedAt     time.Time
}

func (q *Queries) CreatePayment(ctx context.Context, arg CreatePaymentParams) (Payment, error) {
	row := q.db.QueryRow(ctx, createPayment, arg.OrderID, arg.Method, arg.Status, arg.Amount,
		arg.IntentID, arg.Reference, arg.FailureReason, arg.CreatedAt)
	var p Payment
	err := row.Scan(&p.ID, &p.OrderID, &p.Method, &p.Status, &p.Amount,
		&p.IntentID, &p.Reference, &p.FailureReason, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

const updatePaymentStatus = `
UPDATE payments
SET status = $2, failure_reason = $3, updated_at = now()
WHERE order_id = $1
RETURNING id, order_id, method, status, amount, intent_id, reference, failure_reason, created_at, updated_at
`

type UpdatePaymentStatusParams struct {
	OrderID       uuid.UUID
	Status        PaymentStatus
	FailureReason pgtype.Text
}

func (q *Queries) UpdatePaymentStatus(ctx context.Context, arg UpdatePaymentStatusParams) (Payment, error) {
	row := q.db.QueryRow(ctx, updatePaymentStatus, arg.OrderID, arg.Status, arg.FailureReason)
	var p Payment
	err := row.Scan(&p.ID, &p.OrderID, &p.Method, &p.Status, &p.Amount,
		&p.IntentID, &p.Reference, &p.FailureReason, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

const getCancellationByOrder = `
SELECT id, order_id, reason, note, cancelled_at
FROM cancellations
WHERE order_id = $1
`

func (q *Queries) GetCancellationByOrder(ctx context.Context, orderID uuid.UUID) (Cancellation, error) {
	row := q.db.QueryRow(ctx, getCancellationByOrder, orderID)
	var c Cancellation
	err := row.Scan(&c.ID, &c.OrderID, &c.Reason, &c.Note, &c.CancelledAt)
	return c, err
}

const createCancellation = `
INSERT INTO cancellations (order_id, reason, note, cancelled_at)
VALUES ($1, $2, $3, $4)
RETURNING id, order_id, reason, note, cancelled_at
`

type CreateCancellationParams struct {
	OrderID     uuid.UUID
	Reason      string
	Note        pgtype.Text
	CancelledAt time.Time
}

func (q *Queries) CreateCancellation(ctx context.Context, arg CreateCancellationParams) (Cancellation, error) {
	row := q.db.QueryRow(ctx, createCancellation, arg.OrderID, arg.Reason, arg.Note, arg.CancelledAt)
	var c Cancellation
	err := row.Scan(&c.ID, &c.OrderID, &c.Reason, &c.Note, &c.CancelledAt)
	return c, err
}

const getRatingByOrder = `
SELECT id, order_id, stars, feedback, created_at
FROM ratings
WHERE order_id = $1
`

func (q *Queries) GetRatingByOrder(ctx context.Context, orderID uuid.UUID) (Rating, error) {
	row := q.db.QueryRow(ctx, getRatingByOrder, orderID)
	var rt Rating
	err := row.Scan(&rt.ID, &rt.OrderID, &rt.Stars, &rt.Feedback, &rt.CreatedAt)
	return rt, err
}

const createRating = `
INSERT INTO ratings (order_id, stars, feedback, created_at)
VALUES ($1, $2, $3, $4)
RETURNING id, order_id, stars, feedback, created_at
`

type CreateRatingParams struct {
	OrderID   uuid.UUID
	Stars     int32
	Feedback  pgtype.Text
	CreatedAt time.Time
}

func (q *Queries) CreateRating(ctx context.Context, arg CreateRatingParams) (Rating, error) {
	row := q.db.QueryRow(ctx, createRating, arg.OrderID, arg.Stars, arg.Feedback, arg.CreatedAt)
	var rt Rating
	err := row.Scan(&rt.ID, &rt.OrderID, &rt.Stars, &rt.Feedback, &rt.CreatedAt)
	return rt, err
}

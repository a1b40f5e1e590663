package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const getOrder = `
SELECT id, customer_id, status, total_amount, created_at, updated_at
FROM orders
WHERE id = $1
`

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, getOrder, id)
	var o Order
	err := row.Scan(&o.ID, &o.CustomerID, &o.Status, &o.TotalAmount, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

const listOrders = `
SELECT id, customer_id, status, total_amount, created_at, updated_at
FROM orders
WHERE ($1::text IS NULL OR status = $1)
  AND ($2::timestamptz IS NULL OR created_at >= $2)
  AND ($3::timestamptz IS NULL OR created_at < $3)
  AND ($4::uuid IS NULL OR customer_id = $4)
ORDER BY created_at DESC
LIMIT $5 OFFSET $6
`

type ListOrdersParams struct {
	Status     NullOrderStatus
	StartDate  pgtype.Timestamptz
	EndDate    pgtype.Timestamptz
	CustomerID pgtype.UUID
	Limit      int32
	Offset     int32
}

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	var status *string
	if arg.Status.Valid {
		s := string(arg.Status.OrderStatus)
		status = &s
	}
	rows, err := q.db.Query(ctx, listOrders,
		status, arg.StartDate, arg.EndDate, arg.CustomerID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

const listOrdersCreatedBetween = `
SELECT id, customer_id, status, total_amount, created_at, updated_at
FROM orders
WHERE created_at >= $1 AND created_at < $2
ORDER BY created_at
`

// ListOrdersCreatedBetween returns every order in [start, end)
// regardless of status. Used by the metrics aggregator.
func (q *Queries) ListOrdersCreatedBetween(ctx context.Context, start, end time.Time) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrdersCreatedBetween, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

const updateOrderStatus = `
UPDATE orders
SET status = $2, updated_at = now()
WHERE id = $1 AND status = $3
RETURNING id, customer_id, status, total_amount, created_at, updated_at
`

type UpdateOrderStatusParams struct {
	ID         uuid.UUID
	Status     OrderStatus
	FromStatus OrderStatus
}

// UpdateOrderStatus applies the transition only while the row still
// holds FromStatus. Zero rows (pgx.ErrNoRows) means a concurrent
// change got there first.
func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrderStatus, arg.ID, arg.Status, arg.FromStatus)
	var o Order
	err := row.Scan(&o.ID, &o.CustomerID, &o.Status, &o.TotalAmount, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

const cancelOrder = `
UPDATE orders
SET status = 'Cancelled', updated_at = now()
WHERE id = $1 AND status NOT IN ('Completed', 'Cancelled')
RETURNING id, customer_id, status, total_amount, created_at, updated_at
`

// CancelOrder enforces the terminal-status precondition atomically:
// zero rows when the order is already Completed or Cancelled.
func (q *Queries) CancelOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, cancelOrder, id)
	var o Order
	err := row.Scan(&o.ID, &o.CustomerID, &o.Status, &o.TotalAmount, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

const createOrder = `
INSERT INTO orders (customer_id, status, total_amount, created_at, updated_at)
VALUES ($1, $2, $3, $4, $4)
RETURNING id, customer_id, status, total_amount, created_at, updated_at
`

type CreateOrderParams struct {
	CustomerID  uuid.UUID
	Status      OrderStatus
	TotalAmount pgtype.Numeric
	CreatedAt   time.Time
}

// CreateOrder is used by the seeder; live orders arrive through the
// customer-facing app, not this admin API.
func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder, arg.CustomerID, arg.Status, arg.TotalAmount, arg.CreatedAt)
	var o Order
	err := row.Scan(&o.ID, &o.CustomerID, &o.Status, &o.TotalAmount, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

const listOrderItemsByOrder = `
SELECT id, order_id, menu_item_id, quantity, unit_price
FROM order_items
WHERE order_id = $1
ORDER BY id
`

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItemsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.MenuItemID, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

const createOrderItem = `
INSERT INTO order_items (order_id, menu_item_id, quantity, unit_price)
VALUES ($1, $2, $3, $4)
RETURNING id, order_id, menu_item_id, quantity, unit_price
`

type CreateOrderItemParams struct {
	OrderID    uuid.UUID
	MenuItemID uuid.UUID
	Quantity   int32
	UnitPrice  pgtype.Numeric
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, createOrderItem, arg.OrderID, arg.MenuItemID, arg.Quantity, arg.UnitPrice)
	var it OrderItem
	err := row.Scan(&it.ID, &it.OrderID, &it.MenuItemID, &it.Quantity, &it.UnitPrice)
	return it, err
}

const listCompletedOrderItemsBetween = `
SELECT oi.menu_item_id, mi.name, oi.quantity, oi.unit_price
FROM order_items oi
JOIN orders o ON o.id = oi.order_id
JOIN menu_items mi ON mi.id = oi.menu_item_id
WHERE o.status = 'Completed'
  AND o.created_at >= $1 AND o.created_at < $2
`

type CompletedOrderItemRow struct {
	MenuItemID uuid.UUID
	Name       string
	Quantity   int32
	UnitPrice  pgtype.Numeric
}

// ListCompletedOrderItemsBetween feeds the top-selling-items
// aggregation: only items whose parent order is Completed.
func (q *Queries) ListCompletedOrderItemsBetween(ctx context.Context, start, end time.Time) ([]CompletedOrderItemRow, error) {
	rows, err := q.db.Query(ctx, listCompletedOrderItemsBetween, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CompletedOrderItemRow
	for rows.Next() {
		var r CompletedOrderItemRow
		if err := rows.Scan(&r.MenuItemID, &r.Name, &r.Quantity, &r.UnitPrice); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const getLatestOrderTimeByCustomer = `
SELECT max(created_at) FROM orders WHERE customer_id = $1
`

func (q *Queries) GetLatestOrderTimeByCustomer(ctx context.Context, customerID uuid.UUID) (pgtype.Timestamptz, error) {
	row := q.db.QueryRow(ctx, getLatestOrderTimeByCustomer, customerID)
	var t pgtype.Timestamptz
	err := row.Scan(&t)
	return t, err
}

func scanOrders(rows pgx.Rows) ([]Order, error) {
	var orders []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.Status, &o.TotalAmount, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

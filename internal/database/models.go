package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// OrderStatus is the order lifecycle state. Stored in canonical title
// case; transitions are enforced in the service layer.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusPreparing OrderStatus = "Preparing"
	OrderStatusReady     OrderStatus = "Ready"
	OrderStatusCompleted OrderStatus = "Completed"
	OrderStatusCancelled OrderStatus = "Cancelled"
)

// NullOrderStatus is an optional OrderStatus for query filters.
type NullOrderStatus struct {
	OrderStatus OrderStatus
	Valid       bool
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

type ComplaintStatus string

const (
	ComplaintStatusPending  ComplaintStatus = "Pending"
	ComplaintStatusOpen     ComplaintStatus = "Open"
	ComplaintStatusResolved ComplaintStatus = "Resolved"
)

// NullComplaintStatus is an optional ComplaintStatus for query filters.
type NullComplaintStatus struct {
	ComplaintStatus ComplaintStatus
	Valid           bool
}

// Order is a single customer purchase. total_amount is the sum of its
// line items at creation time and never recomputed afterwards.
type Order struct {
	ID          uuid.UUID
	CustomerID  uuid.UUID
	Status      OrderStatus
	TotalAmount pgtype.Numeric
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OrderItem carries the menu price snapshotted at order time, so later
// menu price changes never alter historical totals.
type OrderItem struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	MenuItemID uuid.UUID
	Quantity   int32
	UnitPrice  pgtype.Numeric
}

type Payment struct {
	ID             uuid.UUID
	OrderID        uuid.UUID
	Method         string
	Status         PaymentStatus
	Amount         pgtype.Numeric
	IntentID       pgtype.Text
	Reference      pgtype.Text
	FailureReason  pgtype.Text
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Cancellation exists only for orders that reached Cancelled and is
// never deleted independent of its order.
type Cancellation struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	Reason      string
	Note        pgtype.Text
	CancelledAt time.Time
}

// Rating is immutable once created; at most one per order.
type Rating struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	Stars     int32
	Feedback  pgtype.Text
	CreatedAt time.Time
}

// Profile is a customer or admin account record. HashedPassword is set
// only for admin accounts that log into the dashboard.
type Profile struct {
	ID             uuid.UUID
	FullName       string
	Email          pgtype.Text
	Phone          pgtype.Text
	Role           string
	HashedPassword pgtype.Text
	IsSuspended    bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type MenuItem struct {
	ID          uuid.UUID
	Name        string
	Category    string
	Description pgtype.Text
	Price       pgtype.Numeric
	IsAvailable bool
	PrepMinutes int32
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Complaint struct {
	ID          uuid.UUID
	CustomerID  uuid.UUID
	Subject     string
	Description string
	Status      ComplaintStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ResolvedAt  pgtype.Timestamptz
}

type ComplaintResponse struct {
	ID          uuid.UUID
	ComplaintID uuid.UUID
	AdminID     uuid.UUID
	Message     string
	CreatedAt   time.Time
}

// StoreSetting is a single key/value row of canteen configuration.
type StoreSetting struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// Package enum holds the string labels used across the API. Order,
// payment, and complaint statuses are typed in internal/database; the
// values here are plain strings, constrained at the schema level by
// CHECK clauses that must stay in step with these sets.
package enum

const (
	RoleAdmin    = "admin"
	RoleStaff    = "staff"
	RoleCustomer = "customer"
)

// Derived customer activity status. Never stored; recomputed from the
// suspension flag and last activity on every read.
const (
	CustomerStatusActive    = "active"
	CustomerStatusInactive  = "inactive"
	CustomerStatusSuspended = "suspended"
)

const (
	PaymentMethodCash  = "CASH"
	PaymentMethodGCash = "GCASH"
	PaymentMethodCard  = "CARD"
)

const (
	CancelReasonOutOfStock      = "OUT_OF_STOCK"
	CancelReasonCustomerRequest = "CUSTOMER_REQUEST"
	CancelReasonKitchenClosed   = "KITCHEN_CLOSED"
	CancelReasonOther           = "OTHER"
)

const (
	MenuCategoryMeals     = "MEALS"
	MenuCategorySnacks    = "SNACKS"
	MenuCategoryBeverages = "BEVERAGES"
	MenuCategoryDesserts  = "DESSERTS"
)

// IsValidMenuCategory reports whether s is a known menu category.
func IsValidMenuCategory(s string) bool {
	switch s {
	case MenuCategoryMeals, MenuCategorySnacks, MenuCategoryBeverages, MenuCategoryDesserts:
		return true
	}
	return false
}

// IsValidCancelReason reports whether s is a known cancellation reason.
func IsValidCancelReason(s string) bool {
	switch s {
	case CancelReasonOutOfStock, CancelReasonCustomerRequest, CancelReasonKitchenClosed, CancelReasonOther:
		return true
	}
	return false
}

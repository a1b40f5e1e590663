package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sirupsen/logrus"

	"github.com/nueats/api/internal/database"
	"github.com/nueats/api/internal/service"
)

// CustomerStore defines the database methods needed by customer
// handlers. Satisfied by *database.Queries.
type CustomerStore interface {
	GetProfile(ctx context.Context, id uuid.UUID) (database.Profile, error)
	ListCustomerProfiles(ctx context.Context, arg database.ListCustomerProfilesParams) ([]database.Profile, error)
	SetProfileSuspended(ctx context.Context, arg database.SetProfileSuspendedParams) (database.Profile, error)
	GetLatestOrderTimeByCustomer(ctx context.Context, customerID uuid.UUID) (pgtype.Timestamptz, error)
	GetCustomerStats(ctx context.Context, customerID uuid.UUID) (database.GetCustomerStatsRow, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
}

// CustomerHandler handles customer management endpoints.
type CustomerHandler struct {
	store CustomerStore
	now   func() time.Time
}

// NewCustomerHandler creates a new CustomerHandler.
func NewCustomerHandler(store CustomerStore) *CustomerHandler {
	return &CustomerHandler{store: store, now: time.Now}
}

// RegisterRoutes registers customer endpoints on the given Chi router.
func (h *CustomerHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Get("/{id}/orders", h.Orders)
	r.Post("/{id}/suspend", h.Suspend)
	r.Post("/{id}/unsuspend", h.Unsuspend)
}

// --- Response types ---

type customerResponse struct {
	ID          uuid.UUID `json:"id"`
	FullName    string    `json:"full_name"`
	Email       *string   `json:"email"`
	Phone       *string   `json:"phone"`
	Status      string    `json:"status"`
	IsSuspended bool      `json:"is_suspended"`
	CreatedAt   time.Time `json:"created_at"`
}

type customerDetailResponse struct {
	customerResponse
	TotalOrders int64      `json:"total_orders"`
	TotalSpend  string     `json:"total_spend"`
	LastOrderAt *time.Time `json:"last_order_at"`
}

// --- Handlers ---

// List returns customer accounts with their derived activity status.
// Query params: search, limit, offset.
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	var params database.ListCustomerProfilesParams
	params.Limit, params.Offset = parsePagination(r)
	if s := r.URL.Query().Get("search"); s != "" {
		params.Search = pgtype.Text{String: s, Valid: true}
	}

	profiles, err := h.store.ListCustomerProfiles(r.Context(), params)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]customerResponse, len(profiles))
	for i, p := range profiles {
		lastOrderAt, err := h.lastOrderTime(r.Context(), p.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		resp[i] = h.toCustomerResponse(p, lastOrderAt)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"customers": resp})
}

// Get returns one customer with order totals.
func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	customerID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid customer id")
		return
	}

	profile, err := h.store.GetProfile(r.Context(), customerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "customer not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	lastOrderAt, err := h.lastOrderTime(r.Context(), customerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	stats, err := h.store.GetCustomerStats(r.Context(), customerID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, customerDetailResponse{
		customerResponse: h.toCustomerResponse(profile, lastOrderAt),
		TotalOrders:      stats.TotalOrders,
		TotalSpend:       numericToString(stats.TotalSpend),
		LastOrderAt:      lastOrderAt,
	})
}

// Orders returns the customer's order history, newest first.
func (h *CustomerHandler) Orders(w http.ResponseWriter, r *http.Request) {
	customerID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid customer id")
		return
	}

	var params database.ListOrdersParams
	params.Limit, params.Offset = parsePagination(r)
	params.CustomerID = pgtype.UUID{Bytes: customerID, Valid: true}

	orders, err := h.store.ListOrders(r.Context(), params)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"orders": resp})
}

// Suspend flags the account; the flag overrides any recency-derived
// status.
func (h *CustomerHandler) Suspend(w http.ResponseWriter, r *http.Request) {
	h.setSuspended(w, r, true)
}

// Unsuspend clears the flag; status falls back to order recency.
func (h *CustomerHandler) Unsuspend(w http.ResponseWriter, r *http.Request) {
	h.setSuspended(w, r, false)
}

// --- Helpers ---

func (h *CustomerHandler) setSuspended(w http.ResponseWriter, r *http.Request, suspended bool) {
	customerID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid customer id")
		return
	}

	profile, err := h.store.SetProfileSuspended(r.Context(), database.SetProfileSuspendedParams{
		ID:          customerID,
		IsSuspended: suspended,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "customer not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	logrus.WithFields(logrus.Fields{
		"customer_id": customerID,
		"suspended":   suspended,
	}).Info("customer suspension changed")

	lastOrderAt, err := h.lastOrderTime(r.Context(), customerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, h.toCustomerResponse(profile, lastOrderAt))
}

func (h *CustomerHandler) lastOrderTime(ctx context.Context, customerID uuid.UUID) (*time.Time, error) {
	ts, err := h.store.GetLatestOrderTimeByCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return timeOrNil(ts), nil
}

func (h *CustomerHandler) toCustomerResponse(p database.Profile, lastOrderAt *time.Time) customerResponse {
	return customerResponse{
		ID:          p.ID,
		FullName:    p.FullName,
		Email:       textOrNil(p.Email),
		Phone:       textOrNil(p.Phone),
		Status:      service.ComputeCustomerStatus(p.IsSuspended, p.CreatedAt, lastOrderAt, h.now()),
		IsSuspended: p.IsSuspended,
		CreatedAt:   p.CreatedAt,
	}
}

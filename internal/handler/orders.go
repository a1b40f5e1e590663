package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/nueats/api/internal/database"
	"github.com/nueats/api/internal/enum"
	"github.com/nueats/api/internal/service"
	"github.com/nueats/api/internal/ws"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	RequestTransition(ctx context.Context, orderID uuid.UUID, currentStatus, target database.OrderStatus) (database.Order, error)
	Cancel(ctx context.Context, orderID uuid.UUID, reason, note string) (database.Order, error)
	AddRating(ctx context.Context, orderID uuid.UUID, stars int32, feedback string) (database.Rating, error)
}

// OrderStore defines the database methods needed by order read handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type OrderStore interface {
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	GetPaymentByOrder(ctx context.Context, orderID uuid.UUID) (database.Payment, error)
	GetCancellationByOrder(ctx context.Context, orderID uuid.UUID) (database.Cancellation, error)
	GetRatingByOrder(ctx context.Context, orderID uuid.UUID) (database.Rating, error)
	GetProfile(ctx context.Context, id uuid.UUID) (database.Profile, error)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc   OrderServicer
	store OrderStore
	hub   *ws.Hub
}

// NewOrderHandler creates a new OrderHandler. A nil hub disables
// dashboard push notifications.
func NewOrderHandler(svc OrderServicer, store OrderStore, hub *ws.Hub) *OrderHandler {
	return &OrderHandler{svc: svc, store: store, hub: hub}
}

// RegisterRoutes registers order endpoints on the given Chi router.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}/status", h.UpdateStatus)
	r.Delete("/{id}", h.Cancel)
	r.Post("/{id}/rating", h.AddRating)
}

// --- Request / Response types ---

type updateStatusRequest struct {
	Status         string `json:"status"`
	ExpectedStatus string `json:"expected_status"`
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
	Note   string `json:"note"`
}

type addRatingRequest struct {
	Stars    int32  `json:"stars"`
	Feedback string `json:"feedback"`
}

type orderResponse struct {
	ID           uuid.UUID `json:"id"`
	CustomerID   uuid.UUID `json:"customer_id"`
	CustomerName string    `json:"customer_name,omitempty"`
	Status       string    `json:"status"`
	TotalAmount  string    `json:"total_amount"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type orderItemResponse struct {
	ID         uuid.UUID `json:"id"`
	MenuItemID uuid.UUID `json:"menu_item_id"`
	Quantity   int32     `json:"quantity"`
	UnitPrice  string    `json:"unit_price"`
	LineTotal  string    `json:"line_total"`
}

type paymentResponse struct {
	Method        string  `json:"method"`
	Status        string  `json:"status"`
	Amount        string  `json:"amount"`
	Reference     *string `json:"reference"`
	FailureReason *string `json:"failure_reason"`
}

type cancellationResponse struct {
	Reason      string    `json:"reason"`
	Note        *string   `json:"note"`
	CancelledAt time.Time `json:"cancelled_at"`
}

type ratingResponse struct {
	Stars     int32     `json:"stars"`
	Feedback  *string   `json:"feedback"`
	CreatedAt time.Time `json:"created_at"`
}

type orderDetailResponse struct {
	orderResponse
	Items        []orderItemResponse   `json:"items"`
	Payment      *paymentResponse      `json:"payment"`
	Cancellation *cancellationResponse `json:"cancellation"`
	Rating       *ratingResponse       `json:"rating"`
}

// --- Handlers ---

// List returns orders filtered by status, date range, and customer.
// Query params: status, start_date, end_date, customer_id, limit, offset.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	var params database.ListOrdersParams
	params.Limit, params.Offset = parsePagination(r)

	if s := r.URL.Query().Get("status"); s != "" {
		status, err := service.ParseStatus(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid status filter")
			return
		}
		params.Status = database.NullOrderStatus{OrderStatus: status, Valid: true}
	}

	if r.URL.Query().Get("start_date") != "" || r.URL.Query().Get("end_date") != "" {
		start, end, err := parseDateRange(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		params.StartDate = pgtype.Timestamptz{Time: start, Valid: true}
		params.EndDate = pgtype.Timestamptz{Time: end, Valid: true}
	}

	if s := r.URL.Query().Get("customer_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid customer_id")
			return
		}
		params.CustomerID = pgtype.UUID{Bytes: id, Valid: true}
	}

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

// Get returns one order with its items, payment, cancellation, and
// rating.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	order, err := h.store.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	items, err := h.store.ListOrderItemsByOrder(r.Context(), orderID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	detail := orderDetailResponse{
		orderResponse: toOrderResponse(order),
		Items:         make([]orderItemResponse, len(items)),
	}
	for i, item := range items {
		detail.Items[i] = toOrderItemResponse(item)
	}

	if profile, err := h.store.GetProfile(r.Context(), order.CustomerID); err == nil {
		detail.CustomerName = profile.FullName
	}

	// Payment, cancellation, and rating are optional attachments; a
	// missing row is not an error.
	if payment, err := h.store.GetPaymentByOrder(r.Context(), orderID); err == nil {
		detail.Payment = &paymentResponse{
			Method:        payment.Method,
			Status:        string(payment.Status),
			Amount:        numericToString(payment.Amount),
			Reference:     textOrNil(payment.Reference),
			FailureReason: textOrNil(payment.FailureReason),
		}
	}
	if cancellation, err := h.store.GetCancellationByOrder(r.Context(), orderID); err == nil {
		detail.Cancellation = &cancellationResponse{
			Reason:      cancellation.Reason,
			Note:        textOrNil(cancellation.Note),
			CancelledAt: cancellation.CancelledAt,
		}
	}
	if rating, err := h.store.GetRatingByOrder(r.Context(), orderID); err == nil {
		detail.Rating = &ratingResponse{
			Stars:     rating.Stars,
			Feedback:  textOrNil(rating.Feedback),
			CreatedAt: rating.CreatedAt,
		}
	}

	writeJSON(w, http.StatusOK, detail)
}

// UpdateStatus advances an order along its lifecycle. The request must
// carry the status the caller last saw so concurrent changes are
// detected rather than silently overwritten.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	target, err := service.ParseStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}
	expected, err := service.ParseStatus(req.ExpectedStatus)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid expected_status")
		return
	}

	order, err := h.svc.RequestTransition(r.Context(), orderID, expected, target)
	if err != nil {
		h.writeTransitionError(w, err)
		return
	}

	h.notify(ws.EventOrderStatusChanged, map[string]string{
		"order_id": order.ID.String(),
		"status":   string(order.Status),
	})
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

// Cancel voids an order from any non-terminal state.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	// The body is optional; an empty cancel falls back to the default
	// reason.
	var req cancelOrderRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if req.Reason != "" && !enum.IsValidCancelReason(req.Reason) {
		writeError(w, http.StatusBadRequest, "invalid cancellation reason")
		return
	}

	order, err := h.svc.Cancel(r.Context(), orderID, req.Reason, req.Note)
	if err != nil {
		h.writeTransitionError(w, err)
		return
	}

	h.notify(ws.EventOrderCancelled, map[string]string{
		"order_id": order.ID.String(),
		"reason":   req.Reason,
	})
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

// AddRating records a star rating for a completed order.
func (h *OrderHandler) AddRating(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req addRatingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rating, err := h.svc.AddRating(r.Context(), orderID, req.Stars, req.Feedback)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidStars):
			writeError(w, http.StatusBadRequest, "stars must be between 1 and 5")
		case errors.Is(err, service.ErrOrderNotFound):
			writeError(w, http.StatusNotFound, "order not found")
		case errors.Is(err, service.ErrOrderNotCompleted):
			writeError(w, http.StatusConflict, "only completed orders can be rated")
		case errors.Is(err, service.ErrAlreadyRated):
			writeError(w, http.StatusConflict, "order has already been rated")
		default:
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	h.notify(ws.EventOrderRated, map[string]string{
		"order_id": orderID.String(),
	})
	writeJSON(w, http.StatusCreated, ratingResponse{
		Stars:     rating.Stars,
		Feedback:  textOrNil(rating.Feedback),
		CreatedAt: rating.CreatedAt,
	})
}

// --- Helpers ---

func (h *OrderHandler) writeTransitionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "invalid status")
	case errors.Is(err, service.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, service.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "transition not allowed")
	case errors.Is(err, service.ErrStatusChanged):
		writeError(w, http.StatusConflict, "order status changed, refresh and retry")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (h *OrderHandler) notify(eventType string, payload any) {
	if h.hub == nil {
		return
	}
	event, err := ws.NewEvent(eventType, payload)
	if err != nil {
		logrus.WithError(err).Warn("failed to build dashboard event")
		return
	}
	h.hub.Broadcast(event)
}

func toOrderResponse(o database.Order) orderResponse {
	return orderResponse{
		ID:          o.ID,
		CustomerID:  o.CustomerID,
		Status:      string(o.Status),
		TotalAmount: numericToString(o.TotalAmount),
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

func toOrderItemResponse(item database.OrderItem) orderItemResponse {
	unit := numericToDecimalValue(item.UnitPrice)
	line := unit.Mul(decimal.NewFromInt32(item.Quantity))
	return orderItemResponse{
		ID:         item.ID,
		MenuItemID: item.MenuItemID,
		Quantity:   item.Quantity,
		UnitPrice:  unit.StringFixed(2),
		LineTotal:  line.StringFixed(2),
	}
}

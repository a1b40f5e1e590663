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

	"github.com/nueats/api/internal/database"
	"github.com/nueats/api/internal/middleware"
	"github.com/nueats/api/internal/ws"
)

// ComplaintStore defines the database methods needed by complaint
// handlers. Satisfied by *database.Queries.
type ComplaintStore interface {
	GetComplaint(ctx context.Context, id uuid.UUID) (database.Complaint, error)
	ListComplaints(ctx context.Context, arg database.ListComplaintsParams) ([]database.Complaint, error)
	OpenComplaint(ctx context.Context, id uuid.UUID) (database.Complaint, error)
	ResolveComplaint(ctx context.Context, id uuid.UUID) (database.Complaint, error)
	ReopenComplaint(ctx context.Context, id uuid.UUID) (database.Complaint, error)
	CreateComplaintResponse(ctx context.Context, arg database.CreateComplaintResponseParams) (database.ComplaintResponse, error)
	ListComplaintResponses(ctx context.Context, complaintID uuid.UUID) ([]database.ComplaintResponse, error)
}

// ComplaintHandler handles customer complaint endpoints. There is no
// direct mark-resolved route: a complaint is resolved by sending a
// response with resolve set, so every resolution carries a reply.
type ComplaintHandler struct {
	store ComplaintStore
	hub   *ws.Hub
}

// NewComplaintHandler creates a new ComplaintHandler.
func NewComplaintHandler(store ComplaintStore, hub *ws.Hub) *ComplaintHandler {
	return &ComplaintHandler{store: store, hub: hub}
}

// RegisterRoutes registers complaint endpoints on the given Chi router.
func (h *ComplaintHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/open", h.Open)
	r.Post("/{id}/respond", h.Respond)
	r.Post("/{id}/reopen", h.Reopen)
}

// --- Request / Response types ---

type respondRequest struct {
	Message string `json:"message"`
	Resolve bool   `json:"resolve"`
}

type complaintResponseItem struct {
	ID        uuid.UUID `json:"id"`
	AdminID   uuid.UUID `json:"admin_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type complaintResponse struct {
	ID          uuid.UUID  `json:"id"`
	CustomerID  uuid.UUID  `json:"customer_id"`
	Subject     string     `json:"subject"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ResolvedAt  *time.Time `json:"resolved_at"`
}

type complaintDetailResponse struct {
	complaintResponse
	Responses []complaintResponseItem `json:"responses"`
}

// --- Handlers ---

// List returns complaints, optionally filtered by status.
// Query params: status, limit, offset.
func (h *ComplaintHandler) List(w http.ResponseWriter, r *http.Request) {
	var params database.ListComplaintsParams
	params.Limit, params.Offset = parsePagination(r)

	if s := r.URL.Query().Get("status"); s != "" {
		status, ok := parseComplaintStatus(s)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid status filter")
			return
		}
		params.Status = database.NullComplaintStatus{ComplaintStatus: status, Valid: true}
	}

	complaints, err := h.store.ListComplaints(r.Context(), params)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]complaintResponse, len(complaints))
	for i, c := range complaints {
		resp[i] = toComplaintResponse(c)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"complaints": resp})
}

// Get returns one complaint with its response thread.
func (h *ComplaintHandler) Get(w http.ResponseWriter, r *http.Request) {
	complaintID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid complaint id")
		return
	}

	complaint, err := h.store.GetComplaint(r.Context(), complaintID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "complaint not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	responses, err := h.store.ListComplaintResponses(r.Context(), complaintID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	detail := complaintDetailResponse{
		complaintResponse: toComplaintResponse(complaint),
		Responses:         make([]complaintResponseItem, len(responses)),
	}
	for i, resp := range responses {
		detail.Responses[i] = complaintResponseItem{
			ID:        resp.ID,
			AdminID:   resp.AdminID,
			Message:   resp.Message,
			CreatedAt: resp.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, detail)
}

// Open acknowledges a pending complaint and starts work on it.
func (h *ComplaintHandler) Open(w http.ResponseWriter, r *http.Request) {
	complaintID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid complaint id")
		return
	}

	complaint, err := h.store.OpenComplaint(r.Context(), complaintID)
	if err != nil {
		h.writeStateError(w, r, complaintID, err, "only pending complaints can be opened")
		return
	}

	h.notifyUpdated(complaint)
	writeJSON(w, http.StatusOK, toComplaintResponse(complaint))
}

// Respond appends an admin reply to an open complaint, optionally
// resolving it in the same call.
func (h *ComplaintHandler) Respond(w http.ResponseWriter, r *http.Request) {
	complaintID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid complaint id")
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req respondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	complaint, err := h.store.GetComplaint(r.Context(), complaintID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "complaint not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if complaint.Status != database.ComplaintStatusOpen {
		writeError(w, http.StatusConflict, "only open complaints can receive responses")
		return
	}

	_, err = h.store.CreateComplaintResponse(r.Context(), database.CreateComplaintResponseParams{
		ComplaintID: complaintID,
		AdminID:     claims.UserID,
		Message:     req.Message,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if req.Resolve {
		complaint, err = h.store.ResolveComplaint(r.Context(), complaintID)
		if err != nil {
			h.writeStateError(w, r, complaintID, err, "complaint is no longer open")
			return
		}
	}

	h.notifyUpdated(complaint)
	writeJSON(w, http.StatusOK, toComplaintResponse(complaint))
}

// Reopen puts a resolved complaint back into the open queue.
func (h *ComplaintHandler) Reopen(w http.ResponseWriter, r *http.Request) {
	complaintID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid complaint id")
		return
	}

	complaint, err := h.store.ReopenComplaint(r.Context(), complaintID)
	if err != nil {
		h.writeStateError(w, r, complaintID, err, "only resolved complaints can be reopened")
		return
	}

	h.notifyUpdated(complaint)
	writeJSON(w, http.StatusOK, toComplaintResponse(complaint))
}

// --- Helpers ---

// writeStateError distinguishes a missing complaint from one in the
// wrong state: the conditional updates return no rows for both.
func (h *ComplaintHandler) writeStateError(w http.ResponseWriter, r *http.Request, complaintID uuid.UUID, err error, conflictMsg string) {
	if !errors.Is(err, pgx.ErrNoRows) {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if _, getErr := h.store.GetComplaint(r.Context(), complaintID); errors.Is(getErr, pgx.ErrNoRows) {
		writeError(w, http.StatusNotFound, "complaint not found")
		return
	}
	writeError(w, http.StatusConflict, conflictMsg)
}

func (h *ComplaintHandler) notifyUpdated(c database.Complaint) {
	if h.hub == nil {
		return
	}
	event, err := ws.NewEvent(ws.EventComplaintUpdated, map[string]string{
		"complaint_id": c.ID.String(),
		"status":       string(c.Status),
	})
	if err != nil {
		return
	}
	h.hub.Broadcast(event)
}

func parseComplaintStatus(s string) (database.ComplaintStatus, bool) {
	switch s {
	case string(database.ComplaintStatusPending):
		return database.ComplaintStatusPending, true
	case string(database.ComplaintStatusOpen):
		return database.ComplaintStatusOpen, true
	case string(database.ComplaintStatusResolved):
		return database.ComplaintStatusResolved, true
	default:
		return "", false
	}
}

func toComplaintResponse(c database.Complaint) complaintResponse {
	return complaintResponse{
		ID:          c.ID,
		CustomerID:  c.CustomerID,
		Subject:     c.Subject,
		Description: c.Description,
		Status:      string(c.Status),
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
		ResolvedAt:  timeOrNil(c.ResolvedAt),
	}
}

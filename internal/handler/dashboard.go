package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nueats/api/internal/service"
)

// MetricsServicer defines the service methods needed by dashboard
// handlers. Satisfied by *service.MetricsService.
type MetricsServicer interface {
	DailySummary(ctx context.Context, day time.Time) (service.DailySummary, error)
	WeeklySummary(ctx context.Context, endDay time.Time) ([]service.DailySummary, error)
	TopSellingItems(ctx context.Context, start, end time.Time, limit int) ([]service.TopItem, error)
	HourlyPerformance(ctx context.Context, day time.Time, startHour, endHour int) ([]service.HourlyBucket, error)
}

// DashboardHandler serves the analytics endpoints behind the admin
// dashboard.
type DashboardHandler struct {
	svc MetricsServicer
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(svc MetricsServicer) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

// RegisterRoutes registers dashboard endpoints on the given Chi router.
func (h *DashboardHandler) RegisterRoutes(r chi.Router) {
	r.Get("/summary", h.Summary)
	r.Get("/weekly", h.Weekly)
	r.Get("/top-items", h.TopItems)
	r.Get("/hourly", h.Hourly)
}

// --- Response types ---

type dailySummaryResponse struct {
	Date           string  `json:"date"`
	Revenue        string  `json:"revenue"`
	Orders         int     `json:"orders"`
	CompletionRate int     `json:"completion_rate"`
	RevenueGrowth  float64 `json:"revenue_growth"`
	OrdersGrowth   float64 `json:"orders_growth"`
}

type topItemResponse struct {
	MenuItemID uuid.UUID `json:"menu_item_id"`
	Name       string    `json:"name"`
	UnitsSold  int64     `json:"units_sold"`
	Revenue    string    `json:"revenue"`
}

type hourlyBucketResponse struct {
	Hour    int    `json:"hour"`
	Orders  int    `json:"orders"`
	Revenue string `json:"revenue"`
}

// --- Handlers ---

// Summary returns the headline figures for one day (default today).
// Query params: date (YYYY-MM-DD).
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	day, err := parseDay(r, "date")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.svc.DailySummary(r.Context(), day)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toDailySummaryResponse(summary))
}

// Weekly returns seven daily summaries ending at end_date (default
// today), oldest first.
func (h *DashboardHandler) Weekly(w http.ResponseWriter, r *http.Request) {
	end, err := parseDay(r, "end_date")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	summaries, err := h.svc.WeeklySummary(r.Context(), end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]dailySummaryResponse, len(summaries))
	for i, s := range summaries {
		resp[i] = toDailySummaryResponse(s)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"days": resp})
}

// TopItems returns the best sellers for a date range.
// Query params: start_date, end_date, limit (default 5).
func (h *DashboardHandler) TopItems(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseDateRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit := 5
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		if n > 50 {
			n = 50
		}
		limit = n
	}

	items, err := h.svc.TopSellingItems(r.Context(), start, end, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]topItemResponse, len(items))
	for i, item := range items {
		resp[i] = topItemResponse{
			MenuItemID: item.MenuItemID,
			Name:       item.Name,
			UnitsSold:  item.UnitsSold,
			Revenue:    item.Revenue.StringFixed(2),
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": resp})
}

// Hourly buckets one day's orders by hour of day.
// Query params: date, start_hour (default 8), end_hour (default 17).
func (h *DashboardHandler) Hourly(w http.ResponseWriter, r *http.Request) {
	day, err := parseDay(r, "date")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	startHour, endHour := 8, 17
	if s := r.URL.Query().Get("start_hour"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 || n > 23 {
			writeError(w, http.StatusBadRequest, "invalid start_hour")
			return
		}
		startHour = n
	}
	if s := r.URL.Query().Get("end_hour"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 || n > 23 {
			writeError(w, http.StatusBadRequest, "invalid end_hour")
			return
		}
		endHour = n
	}
	if startHour > endHour {
		writeError(w, http.StatusBadRequest, "start_hour must not be after end_hour")
		return
	}

	buckets, err := h.svc.HourlyPerformance(r.Context(), day, startHour, endHour)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]hourlyBucketResponse, len(buckets))
	for i, b := range buckets {
		resp[i] = hourlyBucketResponse{
			Hour:    b.Hour,
			Orders:  b.Orders,
			Revenue: b.Revenue.StringFixed(2),
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"hours": resp})
}

func toDailySummaryResponse(s service.DailySummary) dailySummaryResponse {
	return dailySummaryResponse{
		Date:           s.Date.Format("2006-01-02"),
		Revenue:        s.Revenue.StringFixed(2),
		Orders:         s.Orders,
		CompletionRate: s.CompletionRate,
		RevenueGrowth:  s.RevenueGrowth,
		OrdersGrowth:   s.OrdersGrowth,
	}
}

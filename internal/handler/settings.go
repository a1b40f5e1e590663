package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"github.com/nueats/api/internal/database"
)

// SettingsStore defines the database methods needed by settings
// handlers. Satisfied by *database.Queries.
type SettingsStore interface {
	GetStoreSetting(ctx context.Context, key string) (database.StoreSetting, error)
	ListStoreSettings(ctx context.Context) ([]database.StoreSetting, error)
	UpsertStoreSetting(ctx context.Context, arg database.UpsertStoreSettingParams) (database.StoreSetting, error)
}

// SettingsHandler handles store configuration key-value pairs
// (opening hours, contact details, announcement banner).
type SettingsHandler struct {
	store SettingsStore
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(store SettingsStore) *SettingsHandler {
	return &SettingsHandler{store: store}
}

// RegisterRoutes registers settings endpoints on the given Chi router.
func (h *SettingsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{key}", h.Get)
	r.Put("/{key}", h.Put)
}

type settingResponse struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

type putSettingRequest struct {
	Value string `json:"value"`
}

// List returns every store setting.
func (h *SettingsHandler) List(w http.ResponseWriter, r *http.Request) {
	settings, err := h.store.ListStoreSettings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]settingResponse, len(settings))
	for i, s := range settings {
		resp[i] = settingResponse{Key: s.Key, Value: s.Value, UpdatedAt: s.UpdatedAt}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"settings": resp})
}

// Get returns one setting by key.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	setting, err := h.store.GetStoreSetting(r.Context(), key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "setting not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, settingResponse{Key: setting.Key, Value: setting.Value, UpdatedAt: setting.UpdatedAt})
}

// Put creates or replaces a setting.
func (h *SettingsHandler) Put(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var req putSettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	setting, err := h.store.UpsertStoreSetting(r.Context(), database.UpsertStoreSettingParams{
		Key:   key,
		Value: req.Value,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, settingResponse{Key: setting.Key, Value: setting.Value, UpdatedAt: setting.UpdatedAt})
}

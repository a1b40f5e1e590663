package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/nueats/api/internal/config"
	"github.com/nueats/api/internal/database"
	"github.com/nueats/api/internal/enum"
	"github.com/nueats/api/internal/handler"
	mw "github.com/nueats/api/internal/middleware"
	"github.com/nueats/api/internal/rolecache"
	"github.com/nueats/api/internal/service"
	"github.com/nueats/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
// Staff accounts can work the order queue; everything else on the
// dashboard is admin-only.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173", // SvelteKit dev server
			"https://admin.nueats.ph",
			"https://stg-admin.nueats.ph",
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	roles := rolecache.New(rolecache.DefaultTTL, nil)

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(queries, roles, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	sessionTimeout, err := time.ParseDuration(cfg.SessionTimeout)
	if err != nil {
		logrus.WithField("value", cfg.SessionTimeout).Warn("invalid SESSION_TIMEOUT, using default")
		sessionTimeout = 0
	}
	r.Get("/ws/dashboard", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, sessionTimeout, w, r)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		authHandler.RegisterProtectedRoutes(r)

		// Order queue and dashboard: staff and admin
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.RoleAdmin, enum.RoleStaff))

			newOrderStore := func(db database.DBTX) service.OrderStore {
				return database.New(db)
			}
			orderService := service.NewOrderService(pool, queries, newOrderStore)
			orderHandler := handler.NewOrderHandler(orderService, queries, hub)
			r.Route("/orders", orderHandler.RegisterRoutes)

			loc, err := time.LoadLocation("Asia/Manila")
			if err != nil {
				loc = time.FixedZone("PHT", 8*3600)
			}
			metricsService := service.NewMetricsService(queries, loc)
			dashboardHandler := handler.NewDashboardHandler(metricsService)
			r.Route("/dashboard", dashboardHandler.RegisterRoutes)

			menuHandler := handler.NewMenuHandler(queries)
			r.Route("/menu", menuHandler.RegisterRoutes)
		})

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.RoleAdmin))

			customerHandler := handler.NewCustomerHandler(queries)
			r.Route("/customers", customerHandler.RegisterRoutes)

			complaintHandler := handler.NewComplaintHandler(queries, hub)
			r.Route("/complaints", complaintHandler.RegisterRoutes)

			settingsHandler := handler.NewSettingsHandler(queries)
			r.Route("/settings", settingsHandler.RegisterRoutes)
		})
	})

	logrus.Info("router initialized with all handlers")
	return r
}

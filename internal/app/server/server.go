package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"hradmin/internal/domain/attendance"
	"hradmin/internal/domain/auth"
	"hradmin/internal/domain/bonus"
	"hradmin/internal/domain/directory"
	"hradmin/internal/domain/leave"
	"hradmin/internal/domain/payroll"
	"hradmin/internal/domain/tax"
	"hradmin/internal/platform/config"
	"hradmin/internal/platform/db"
	"hradmin/internal/platform/metrics"
	"hradmin/internal/transport/http/api"
	attendancehandler "hradmin/internal/transport/http/handlers/attendance"
	authhandler "hradmin/internal/transport/http/handlers/auth"
	bonushandler "hradmin/internal/transport/http/handlers/bonus"
	directoryhandler "hradmin/internal/transport/http/handlers/directory"
	leavehandler "hradmin/internal/transport/http/handlers/leave"
	payrollhandler "hradmin/internal/transport/http/handlers/payroll"
	taxhandler "hradmin/internal/transport/http/handlers/tax"
	"hradmin/internal/transport/http/middleware"
)

type App struct {
	Config  config.Config
	DB      *pgxpool.Pool
	Router  chi.Router
	Metrics *metrics.Collector
}

// New connects the pool, applies migrations and seed data, and assembles the
// full router.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			pool.Close()
			return nil, err
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, err
		}
	}

	app := &App{Config: cfg, DB: pool, Metrics: metrics.New()}
	app.Router = app.buildRouter()
	return app, nil
}

func (a *App) buildRouter() chi.Router {
	cfg := a.Config

	authStore := auth.NewStore(a.DB)
	directoryStore := directory.NewStore(a.DB)
	attendanceStore := attendance.NewStore(a.DB)
	leaveStore := leave.NewStore(a.DB)
	payrollStore := payroll.NewStore(a.DB)
	taxStore := tax.NewStore(a.DB)
	bonusStore := bonus.NewStore(a.DB)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(a.Metrics))
	router.Use(chimw.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret, authStore))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.DB.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			authhandler.NewHandler(authStore, directoryStore, cfg.JWTSecret, cfg.TokenTTL).RegisterRoutes(r)
		})

		directoryhandler.NewHandler(directoryStore).RegisterRoutes(r)

		r.Route("/attendance", func(r chi.Router) {
			attendancehandler.NewHandler(attendanceStore, directoryStore).RegisterRoutes(r)
		})
		r.Route("/leave", func(r chi.Router) {
			leavehandler.NewHandler(leaveStore, directoryStore).RegisterRoutes(r)
		})
		r.Route("/payroll", func(r chi.Router) {
			payrollhandler.NewHandler(payrollStore, directoryStore).RegisterRoutes(r)
		})
		r.Route("/tax", func(r chi.Router) {
			taxhandler.NewHandler(taxStore, directoryStore).RegisterRoutes(r)
		})
		r.Route("/bonus", func(r chi.Router) {
			bonushandler.NewHandler(bonusStore, directoryStore).RegisterRoutes(r)
		})

		if cfg.MetricsEnabled {
			r.With(middleware.RequireRole(auth.RoleAdmin)).Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
				api.Success(w, a.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
			})
		}
	})

	return router
}

func (a *App) Run() error {
	slog.Info("server listening", "addr", a.Config.Addr, "env", a.Config.Environment)
	return http.ListenAndServe(a.Config.Addr, a.Router)
}

func (a *App) Close() {
	a.DB.Close()
}

package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hrlite/internal/domain/attendance"
	"hrlite/internal/domain/audit"
	"hrlite/internal/domain/auth"
	"hrlite/internal/domain/core"
	"hrlite/internal/domain/leave"
	"hrlite/internal/domain/payroll"
	"hrlite/internal/platform/config"
	"hrlite/internal/platform/crypto"
	"hrlite/internal/platform/db"
	attendancehandler "hrlite/internal/transport/http/handlers/attendance"
	audithandler "hrlite/internal/transport/http/handlers/audit"
	authhandler "hrlite/internal/transport/http/handlers/auth"
	corehandler "hrlite/internal/transport/http/handlers/core"
	leavehandler "hrlite/internal/transport/http/handlers/leave"
	payrollhandler "hrlite/internal/transport/http/handlers/payroll"
	rbachandler "hrlite/internal/transport/http/handlers/rbac"
	"hrlite/internal/transport/http/middleware"
)

type App struct {
	Config config.Config
	Pool   *pgxpool.Pool
	Router http.Handler
}

// New wires stores, domain services and routes. It does not listen; Run does.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

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

	cryptoSvc, err := crypto.New(cfg.DataEncryptionKey)
	if err != nil {
		pool.Close()
		return nil, err
	}

	recorder := audit.New(pool)
	authStore := auth.NewStore(pool, recorder)
	resolver := auth.NewResolver(pool)
	coreStore := core.NewStore(pool, recorder)
	payrollStore := payroll.NewStore(pool, recorder)
	engine := payroll.NewEngine(payrollStore)
	leaveStore := leave.NewStore(pool, recorder)
	attendanceStore := attendance.NewStore(pool)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret, authStore))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	router.Route("/api/v1", func(r chi.Router) {
		authHandler := authhandler.NewHandler(authStore, cfg.JWTSecret, cryptoSvc, cfg.SessionTTL)
		loginLimit := middleware.RateLimit(cfg.LoginRateLimit, cfg.LoginRateWindow,
			middleware.WithKeyFunc(middleware.UsernameOrIPKey("username")))
		r.With(loginLimit).Post("/auth/login", authHandler.HandleLogin)
		r.Post("/auth/logout", authHandler.HandleLogout)
		r.With(middleware.RequireAuth).Get("/me", authHandler.HandleMe)
		r.With(middleware.RequireAuth).Post("/auth/mfa/setup", authHandler.HandleMFASetup)
		r.With(middleware.RequireAuth).Post("/auth/mfa/enable", authHandler.HandleMFAEnable)
		r.With(middleware.RequireAuth).Post("/auth/mfa/disable", authHandler.HandleMFADisable)

		payrollH := payrollhandler.NewHandler(payrollStore, engine, resolver)
		attendanceH := attendancehandler.NewHandler(attendanceStore, resolver)
		corehandler.NewHandler(coreStore, resolver).RegisterRoutes(r,
			payrollH.RegisterEmployeeRoutes, attendanceH.RegisterEmployeeRoutes)
		payrollH.RegisterRoutes(r)
		leavehandler.NewHandler(leaveStore, resolver).RegisterRoutes(r)
		rbachandler.NewHandler(pool, authStore, resolver, recorder).RegisterRoutes(r)
		audithandler.NewHandler(recorder, resolver).RegisterRoutes(r)
	})

	return &App{Config: cfg, Pool: pool, Router: router}, nil
}

func (a *App) Close() {
	a.Pool.Close()
}

func Run() {
	cfg := config.Load()

	ctx := context.Background()
	app, err := New(ctx, cfg)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer app.Close()

	log.Printf("hrlite server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, app.Router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"workspace-platform/internal/audit"
	"workspace-platform/internal/auth"
	"workspace-platform/internal/config"
	"workspace-platform/internal/httpapi"
	"workspace-platform/internal/quota"
	"workspace-platform/internal/store/postgres"
	"workspace-platform/internal/workspace"
	"workspace-platform/pkg/logger"
	"workspace-platform/pkg/metrics"
	"workspace-platform/pkg/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(rootCtx, stop, cfg, log); err != nil {
		log.Error("api exited", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stop context.CancelFunc, cfg config.Config, log *slog.Logger) error {
	m := metrics.New()

	db, err := utils.OpenPostgres(ctx, cfg.PostgresDSN(), utils.PostgresPoolConfig{MaxOpenConns: cfg.DB.MaxOpenConns})
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(ctx, db, log); err != nil {
			return err
		}
	}

	rdb, err := utils.OpenRedis(ctx, utils.RedisConfig{Addr: cfg.RedisAddr(), Password: cfg.Redis.Password})
	if err != nil {
		return err
	}
	defer rdb.Close()

	tokens, err := auth.NewManager(cfg.Auth)
	if err != nil {
		return err
	}

	st := postgres.New(db)
	revoked := auth.NewRedisRevocations(rdb)
	resolver := auth.NewResolver(tokens, st, revoked, log)
	recorder := audit.NewRecorder(postgres.NewAuditRepo(db),
		audit.WithLogger(log),
		audit.WithMetrics(m),
		audit.WithTimeout(cfg.Audit.WriteTimeout),
		audit.WithQueue(cfg.Audit.QueueSize),
	)

	svc, err := workspace.New(workspace.Deps{
		Store:       st,
		Tokens:      tokens,
		Resolver:    resolver,
		Revocations: revoked,
		Hasher:      auth.NewHasher(),
		Quota:       quota.NewEnforcer(log, m),
		Audit:       recorder,
		Metrics:     m,
		Logger:      log,
		Plans:       cfg.Plans,
	})
	if err != nil {
		return err
	}

	loginLimiter := httpapi.NewIPLimiter(cfg.Auth.LoginRatePerMinute)
	go loginLimiter.Run(ctx, 5*time.Minute)

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log, logger.Quiet("/healthz", "/readyz", "/metrics")))
	r.Use(m.Middleware())

	registerRoutes(r, routeDeps{
		handlers:     httpapi.Handlers{Service: svc},
		authMW:       auth.RequireAccessToken(resolver),
		loginLimiter: loginLimiter,
		metrics:      m,
		ready: func(ctx context.Context) error {
			if err := utils.HealthCheck(ctx, db, 2*time.Second); err != nil {
				return err
			}
			return rdb.Ping(ctx).Err()
		},
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
	if err := recorder.Close(shutdownCtx); err != nil {
		log.Error("audit flush failed", "err", err)
	}
	return nil
}

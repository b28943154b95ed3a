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

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/imovia-saas/imovia/internal/agreements"
	"github.com/imovia-saas/imovia/internal/app"
	"github.com/imovia-saas/imovia/internal/auth"
	"github.com/imovia-saas/imovia/internal/authz"
	"github.com/imovia-saas/imovia/internal/observability"
	"github.com/imovia-saas/imovia/internal/platform/cache"
	"github.com/imovia-saas/imovia/internal/platform/db"
	"github.com/imovia-saas/imovia/internal/shared"
	"github.com/imovia-saas/imovia/internal/users"
	"github.com/imovia-saas/imovia/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "imovia_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	var authzOpts []authz.Option
	if cfg.StrictApproval {
		authzOpts = append(authzOpts, authz.WithStrictApproval())
	}
	authorizer := authz.NewAuthorizer(authzOpts...)

	metrics := observability.NewMetrics()
	authzMW := authz.Middleware{Authorizer: authorizer, Logger: logger, Decisions: metrics}

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, authorizer, sessionManager, csrfManager)

	approvalRecorder := shared.NewApprovalRecorder(pool, logger)

	tasksClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init task client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := tasksClient.Close(); err != nil {
			logger.Warn("task client close", slog.Any("error", err))
		}
	}()

	agreementsRepo := agreements.NewRepository(pool)
	agreementsService := agreements.NewService(agreementsRepo, authorizer, approvalRecorder, tasksClient, logger)
	agreementsHandler := agreements.NewHandler(logger, agreementsService, authzMW)

	auditLogger := shared.NewAuditLogger(pool)

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo).WithAuditor(auditLogger).WithLogger(logger)
	usersHandler := users.NewHandler(logger, usersService, authzMW)

	permissionsHandler := authz.NewPermissionsHandler(logger, authorizer, authzMW)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger, authzMW)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		CSRFManager:        csrfManager,
		AuthHandler:        authHandler,
		AgreementsHandler:  agreementsHandler,
		UsersHandler:       usersHandler,
		PermissionsHandler: permissionsHandler,
		JobHandler:         jobHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server", slog.Any("error", err))
		os.Exit(1)
	}
}

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mural-blog/mural/internal/api"
	"github.com/mural-blog/mural/internal/app"
	"github.com/mural-blog/mural/internal/auth"
	"github.com/mural-blog/mural/internal/observability"
	"github.com/mural-blog/mural/internal/permissions"
	"github.com/mural-blog/mural/internal/platform/cache"
	"github.com/mural-blog/mural/internal/posts"
	"github.com/mural-blog/mural/internal/rbac"
	"github.com/mural-blog/mural/internal/shared"
	"github.com/mural-blog/mural/internal/users"
	"github.com/mural-blog/mural/internal/view"
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

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "mural_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()

	apiClient := api.New(cfg.APIBaseURL, cfg.APITimeout)
	apiClient.OnError(metrics.RecordUpstreamError)
	rbacMiddleware := rbac.Middleware{Logger: logger}

	authService := auth.NewService(apiClient)
	authHandler := auth.NewHandler(logger, authService, templates, sessionManager, csrfManager)

	postsService := posts.NewService(apiClient)
	postsHandler := posts.NewHandler(logger, postsService, templates, csrfManager, rbacMiddleware, cfg.PostsPerPage)

	usersService := users.NewService(apiClient)
	usersHandler := users.NewHandler(logger, usersService, templates, csrfManager, rbacMiddleware, cfg.UsersPerPage)

	permissionsService := permissions.NewService(apiClient)
	permissionsHandler := permissions.NewHandler(logger, permissionsService, apiClient, templates, csrfManager, rbacMiddleware)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		CSRFManager:        csrfManager,
		AuthHandler:        authHandler,
		PostsHandler:       postsHandler,
		UsersHandler:       usersHandler,
		PermissionsHandler: permissionsHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

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

	"github.com/odyssey-erp/storefront-admin/internal/app"
	"github.com/odyssey-erp/storefront-admin/internal/catalog"
	"github.com/odyssey-erp/storefront-admin/internal/editor/store"
	"github.com/odyssey-erp/storefront-admin/internal/observability"
	"github.com/odyssey-erp/storefront-admin/internal/platform/cache"
	productshttp "github.com/odyssey-erp/storefront-admin/internal/products/http"
	"github.com/odyssey-erp/storefront-admin/internal/shared"
	"github.com/odyssey-erp/storefront-admin/internal/view"
)

const sessionCookie = "storefront_session"

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

	redisClient, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, sessionCookie, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()
	catalogClient := catalog.NewClient(cfg.CatalogAPIURL, cfg.CatalogAPITimeout, catalog.WithLogger(logger))

	productsHandler := productshttp.NewHandler(productshttp.Config{
		Logger:    logger,
		Templates: templates,
		CSRF:      csrfManager,
		Catalog:   catalogClient,
		Images:    catalogClient,
		States:    store.NewStateStore(redisClient, cfg.EditorStateTTL),
		Previews:  store.NewPreviewStore(redisClient, cfg.PreviewTTL),
		Locks:     store.NewSubmitLocks(redisClient, cfg.SubmitLockTTL),
		Recorder:  metrics,
	})

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		SessionManager:  sessionManager,
		CSRFManager:     csrfManager,
		ProductsHandler: productsHandler,
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server",
			slog.String("addr", cfg.AppAddr),
			slog.String("catalog_api", cfg.CatalogAPIURL),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

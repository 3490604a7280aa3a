package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"ctox-dashboard/internal/auth"
	"ctox-dashboard/internal/dashboard"
	"ctox-dashboard/internal/dataset"
	"ctox-dashboard/internal/download"
	"ctox-dashboard/internal/middleware"
	"ctox-dashboard/pkg/models"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	defer func() { _ = logger.Sync() }()

	e := echo.New()
	e.HideBanner = true
	authService := initialize(e)
	defer authService.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting CTOX dashboard server", zap.String("addr", addr))
		errCh <- e.Start(addr)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func initialize(e *echo.Echo) *auth.Service {
	// Remote access runs as the caller's signed-in user when the request
	// carries their session_id, and app-only otherwise
	var cache *dataset.Cache
	authService := auth.NewService(
		auth.NewMicrosoftProvider(cfg.OAuthConfig()),
		auth.WithLogger(logger),
		auth.OnChange(func() { cache.Invalidate() }),
	)

	loader := dataset.NewLoader(func(ctx context.Context) (dataset.RemoteSource, error) {
		conn, err := newConnector(ctx, models.DelegatedFrom(ctx))
		if err != nil {
			return nil, err
		}
		return conn, nil
	}, cfg.DataDir, logger)
	cache = dataset.NewCache(loader, nil, logger)

	authHandler := auth.NewHandler(authService, cfg.FrontendURL)
	authHandler.RegisterRoutes(e)

	dashboardService := dashboard.NewService(cache)
	dashboardHandler := dashboard.NewHandler(dashboardService, logger)
	dashboardHandler.RegisterRoutes(e)

	downloadService := download.NewService(dashboardService, func(ctx context.Context) (download.RemoteWriter, error) {
		conn, err := newConnector(ctx, models.DelegatedFrom(ctx))
		if err != nil {
			return nil, err
		}
		return conn, nil
	}, nil, logger)
	downloadHandler := download.NewHandler(downloadService, logger)
	downloadHandler.RegisterRoutes(e)

	// Middleware
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(logger))
	e.Use(echoMiddleware.Recover())
	e.Use(middleware.SecurityHeaders(cfg.Domain))
	e.Use(middleware.CORSConfig(cfg.Domain))
	e.Use(middleware.RateLimiter(cfg.RateLimit))
	e.Use(authHandler.Identify)

	return authService
}

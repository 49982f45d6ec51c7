package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/suteetoe/restaurantpro/internal/backend"
	"github.com/suteetoe/restaurantpro/internal/dashboard"
	"github.com/suteetoe/restaurantpro/internal/gormstore"
	"github.com/suteetoe/restaurantpro/internal/handler"
	"github.com/suteetoe/restaurantpro/internal/middleware"
	"github.com/suteetoe/restaurantpro/internal/signup"
	"github.com/suteetoe/restaurantpro/internal/supabase"
	"github.com/suteetoe/restaurantpro/pkg/config"
	"github.com/suteetoe/restaurantpro/pkg/database"
	"github.com/suteetoe/restaurantpro/pkg/jwtutil"
	"github.com/suteetoe/restaurantpro/pkg/logger"
	"github.com/suteetoe/restaurantpro/pkg/metrics"
	"github.com/suteetoe/restaurantpro/prometheus"
	"go.uber.org/zap"
)

const serviceName = "restaurantpro"

var version = "dev"

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load(serviceName)
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	if err := logger.InitLogger(&logger.LogConfig{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
		ServiceName: cfg.ServiceName,
	}); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	defer log.Sync()
	log.Info("Starting RestaurantePro admin service...", cfg.LogConfig()...)

	platform, err := newPlatform(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize backend", zap.Error(err))
	}
	if !cfg.Backend.Configured() {
		log.Warn("Backend is not configured, login and signup are disabled")
	}
	prometheus.SetInfo(version, cfg.Backend.Kind)

	renderer, err := handler.NewRenderer()
	if err != nil {
		log.Fatal("Failed to parse templates", zap.Error(err))
	}

	h := handler.New(
		platform.Auth,
		signup.NewService(platform.Auth, platform.Tenants, log),
		dashboard.NewService(platform.Tenants, platform.Orders, log),
		handler.Options{
			ServiceName:         cfg.ServiceName,
			CookieName:          cfg.Session.CookieName,
			SecureCookie:        cfg.Session.Secure,
			SignupRedirectDelay: cfg.Session.SignupRedirectDelay,
			Configured:          cfg.Backend.Configured(),
		},
	)

	// Initialize Echo framework
	e := echo.New()
	e.HideBanner = true
	e.Renderer = renderer

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestID())
	e.Use(logger.Middleware(log))
	e.Use(metrics.NewHTTPMetrics(cfg.Metrics.ServiceLabel, promclient.DefaultRegisterer).Middleware())

	h.Register(e)

	go func() {
		log.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
}

// newPlatform connects the configured backend
func newPlatform(cfg *config.Config, log *zap.Logger) (backend.Platform, error) {
	if cfg.Backend.Kind == config.BackendPostgres {
		db, err := database.InitDB(&cfg.DB)
		if err != nil {
			return backend.Platform{}, err
		}
		log.Info("Database connection established")

		store := gormstore.New(db, jwtutil.NewJWTUtil(&jwtutil.JWTConfig{
			SigningKey:      cfg.JWT.SigningKey,
			ExpirationHours: cfg.JWT.ExpirationHours,
		}), log)
		if err := store.Migrate(); err != nil {
			return backend.Platform{}, err
		}
		return store.Platform(), nil
	}

	client := supabase.New(supabase.Config{
		URL:     cfg.Backend.URL,
		APIKey:  cfg.Backend.AnonKey,
		Timeout: cfg.Backend.Timeout,
	}, log)
	return client.Platform(), nil
}

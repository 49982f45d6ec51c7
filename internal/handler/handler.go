// Package handler serves the marketing, signup, login and admin pages and
// the JSON API on top of the backend platform.
package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/restaurantpro/internal/backend"
	"github.com/suteetoe/restaurantpro/internal/dashboard"
	"github.com/suteetoe/restaurantpro/internal/lifecycle"
	"github.com/suteetoe/restaurantpro/internal/middleware"
	"github.com/suteetoe/restaurantpro/internal/signup"
	"github.com/suteetoe/restaurantpro/internal/supabase"
	"github.com/suteetoe/restaurantpro/prometheus"
)

const (
	msgInvalidCredentials = "Incorrect email or password"
	msgUnavailable        = "Connection error. Check that the backend is configured correctly."
	msgNotConfigured      = "The backend is not configured. Set SUPABASE_URL and SUPABASE_ANON_KEY (or BACKEND=postgres) and restart the service."
)

// Options carries the settings the pages depend on
type Options struct {
	ServiceName         string
	CookieName          string
	SecureCookie        bool
	SignupRedirectDelay time.Duration
	// Configured is false when the backend has no usable URL or key. Login
	// and signup are disabled in that case.
	Configured bool
}

// Handler holds the dependencies of every route
type Handler struct {
	auth      backend.AuthService
	signup    *signup.Service
	dashboard *dashboard.Service
	opts      Options
}

// New wires the handlers
func New(auth backend.AuthService, signupSvc *signup.Service, dashboardSvc *dashboard.Service, opts Options) *Handler {
	if opts.CookieName == "" {
		opts.CookieName = "rp_session"
	}
	return &Handler{auth: auth, signup: signupSvc, dashboard: dashboardSvc, opts: opts}
}

// Register mounts every route on e
func (h *Handler) Register(e *echo.Echo) {
	e.GET("/health", h.HealthCheck)
	e.GET("/metrics", MetricsHandler)

	e.GET("/", h.Landing)
	e.GET("/signup", h.SignupForm)
	e.POST("/signup", h.Signup)
	e.GET("/login", h.LoginForm)
	e.POST("/login", h.Login)
	e.POST("/logout", h.Logout)

	admin := e.Group("/admin")
	admin.Use(middleware.SessionGate(h.auth, h.opts.CookieName, "/login"))
	admin.GET("", h.Admin)
	admin.POST("/orders/:id/status", h.AdvanceOrder)

	api := e.Group("/api")
	api.Use(middleware.APISessionGate(h.auth, h.opts.CookieName))
	api.GET("/dashboard", h.DashboardAPI)
	api.PATCH("/orders/:id/status", h.AdvanceOrderAPI)
}

// HealthCheck handles the health check endpoint
func (h *Handler) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":             "healthy",
		"service":            h.opts.ServiceName,
		"backend_configured": h.opts.Configured,
	})
}

// MetricsHandler exposes the Prometheus registry
func MetricsHandler(c echo.Context) error {
	prometheus.GetPrometheusHandler().ServeHTTP(c.Response(), c.Request())
	return nil
}

// userMessage turns an auth or provisioning failure into the text shown on
// the form. Unrecognized errors are shown as the platform phrased them.
func userMessage(err error) string {
	var apiErr *supabase.APIError
	var verr *signup.ValidationError
	switch {
	case errors.Is(err, backend.ErrInvalidCredentials):
		return msgInvalidCredentials
	case errors.Is(err, backend.ErrUnavailable):
		return msgUnavailable
	case errors.Is(err, signup.ErrPasswordMismatch):
		return "Passwords do not match"
	case errors.Is(err, signup.ErrPasswordTooShort):
		return fmt.Sprintf("Password must be at least %d characters", signup.MinPasswordLength)
	case errors.Is(err, backend.ErrAlreadyRegistered):
		return "This email is already registered"
	case errors.As(err, &verr):
		return verr.Error()
	case errors.As(err, &apiErr):
		return apiErr.Message
	}
	return err.Error()
}

// apiStatus maps a dashboard error onto the JSON API's status code
func apiStatus(err error) int {
	switch {
	case errors.Is(err, lifecycle.ErrUnknownStatus):
		return http.StatusBadRequest
	case errors.Is(err, lifecycle.ErrIllegalTransition), errors.Is(err, backend.ErrStatusConflict):
		return http.StatusConflict
	case errors.Is(err, backend.ErrNotFound), errors.Is(err, dashboard.ErrNoRestaurant):
		return http.StatusNotFound
	case errors.Is(err, backend.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, backend.ErrUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/restaurantpro/internal/dashboard"
	"github.com/suteetoe/restaurantpro/internal/middleware"
	"github.com/suteetoe/restaurantpro/internal/model"
	"github.com/suteetoe/restaurantpro/internal/signup"
	"github.com/suteetoe/restaurantpro/pkg/logger"
	"github.com/suteetoe/restaurantpro/prometheus"
	"go.uber.org/zap"
)

type landingPage struct {
	Plans []model.PlanOffer
}

type signupPage struct {
	Plan           model.PlanOffer
	RestaurantName string
	Email          string
	Error          string
	Configured     bool
	NotConfigured  string
}

type signupSuccessPage struct {
	Plan              model.PlanOffer
	RestaurantName    string
	Target            string
	DelaySeconds      string
	NeedsConfirmation bool
}

type loginPage struct {
	Email         string
	Error         string
	Configured    bool
	NotConfigured string
}

type adminPage struct {
	View *dashboard.View
	Tab  string
}

// SignupForm is the posted signup form
type SignupForm struct {
	Plan            string `form:"plan"`
	RestaurantName  string `form:"restaurant_name"`
	Email           string `form:"email"`
	Password        string `form:"password"`
	ConfirmPassword string `form:"confirm_password"`
}

// LoginForm is the posted login form
type LoginForm struct {
	Email    string `form:"email"`
	Password string `form:"password"`
}

// Landing lists the plans
func (h *Handler) Landing(c echo.Context) error {
	return c.Render(http.StatusOK, "landing", landingPage{Plans: model.PlanCatalog})
}

// SignupForm shows the signup form for the plan in the query string
func (h *Handler) SignupForm(c echo.Context) error {
	return c.Render(http.StatusOK, "signup", signupPage{
		Plan:          model.ParsePlan(c.QueryParam("plan")).Offer(),
		Configured:    h.opts.Configured,
		NotConfigured: msgNotConfigured,
	})
}

// Signup provisions the account and sends the owner on to the dashboard
func (h *Handler) Signup(c echo.Context) error {
	log := logger.FromEcho(c)

	var form SignupForm
	if err := c.Bind(&form); err != nil {
		log.Warn("Failed to parse signup form", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}

	plan := model.ParsePlan(form.Plan)
	page := signupPage{
		Plan:           plan.Offer(),
		RestaurantName: form.RestaurantName,
		Email:          form.Email,
		Configured:     h.opts.Configured,
		NotConfigured:  msgNotConfigured,
	}
	if !h.opts.Configured {
		return c.Render(http.StatusServiceUnavailable, "signup", page)
	}

	res, err := h.signup.Provision(c.Request().Context(), signup.Request{
		Plan:            plan,
		RestaurantName:  form.RestaurantName,
		Email:           form.Email,
		Password:        form.Password,
		ConfirmPassword: form.ConfirmPassword,
	})
	if err != nil {
		page.Error = userMessage(err)
		return c.Render(http.StatusUnprocessableEntity, "signup", page)
	}

	target := "/admin"
	if res.Session != nil {
		h.setSession(c, res.Session)
	} else {
		target = "/login"
	}

	return c.Render(http.StatusOK, "signup_success", signupSuccessPage{
		Plan:              plan.Offer(),
		RestaurantName:    res.Restaurant.Name,
		Target:            target,
		DelaySeconds:      strconv.FormatFloat(h.opts.SignupRedirectDelay.Seconds(), 'f', -1, 64),
		NeedsConfirmation: res.Session == nil,
	})
}

// LoginForm shows the login form
func (h *Handler) LoginForm(c echo.Context) error {
	return c.Render(http.StatusOK, "login", loginPage{
		Configured:    h.opts.Configured,
		NotConfigured: msgNotConfigured,
	})
}

// Login signs the owner in and stores the session cookie
func (h *Handler) Login(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.LoginCounter.Inc()

	var form LoginForm
	if err := c.Bind(&form); err != nil {
		log.Warn("Failed to parse login form", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}

	page := loginPage{
		Email:         form.Email,
		Configured:    h.opts.Configured,
		NotConfigured: msgNotConfigured,
	}
	if !h.opts.Configured {
		return c.Render(http.StatusServiceUnavailable, "login", page)
	}
	if strings.TrimSpace(form.Email) == "" || form.Password == "" {
		page.Error = "Enter your email and password"
		return c.Render(http.StatusUnprocessableEntity, "login", page)
	}

	session, err := h.auth.SignIn(c.Request().Context(), strings.TrimSpace(form.Email), form.Password)
	if err != nil {
		log.Warn("Login failed", zap.String("email", form.Email), zap.Error(err))
		prometheus.RecordAuthError("login_failed")
		page.Error = userMessage(err)
		return c.Render(http.StatusUnauthorized, "login", page)
	}

	h.setSession(c, session)
	log.Info("User logged in", zap.String("user_id", session.User.ID))
	return c.Redirect(http.StatusSeeOther, "/admin")
}

// Logout ends the session and returns to the login page
func (h *Handler) Logout(c echo.Context) error {
	if token := h.sessionToken(c); token != "" {
		if err := h.auth.SignOut(c.Request().Context(), token); err != nil {
			logger.FromEcho(c).Warn("Sign out failed", zap.Error(err))
		}
	}
	h.clearSession(c)
	return c.Redirect(http.StatusSeeOther, "/login")
}

func tab(c echo.Context) string {
	switch t := c.QueryParam("tab"); t {
	case "history", "guests":
		return t
	}
	return "active"
}

// Admin renders the dashboard. Load failures are logged and the page falls
// back to its loading state.
func (h *Handler) Admin(c echo.Context) error {
	id, _ := middleware.Identity(c)
	view, err := h.dashboard.Load(c.Request().Context(), id)
	if err != nil {
		logger.FromEcho(c).Error("Dashboard load failed", zap.Error(err))
		view = nil
	}
	return c.Render(http.StatusOK, "admin", adminPage{View: view, Tab: tab(c)})
}

// AdvanceOrder applies the action button of an order and goes back to the
// dashboard. Failures are only logged.
func (h *Handler) AdvanceOrder(c echo.Context) error {
	id, _ := middleware.Identity(c)
	orderID := c.Param("id")
	to := model.OrderStatus(c.FormValue("status"))

	if _, err := h.dashboard.Advance(c.Request().Context(), id, orderID, to); err != nil {
		logger.FromEcho(c).Error("Order status change failed",
			zap.String("order_id", orderID),
			zap.String("to", string(to)),
			zap.Error(err))
	}
	return c.Redirect(http.StatusSeeOther, "/admin")
}

// Package signup provisions a new restaurant account: identity first, then
// the tenant record carrying the chosen plan and its expiry.
package signup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/suteetoe/restaurantpro/internal/backend"
	"github.com/suteetoe/restaurantpro/internal/model"
	"github.com/suteetoe/restaurantpro/prometheus"
	"go.uber.org/zap"
)

// MinPasswordLength is the shortest password accepted locally
const MinPasswordLength = 6

var (
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
)

// ValidationError lists the form fields that failed validation
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, field := range []string{"RestaurantName", "Email"} {
		if msg, ok := e.Fields[field]; ok {
			parts = append(parts, msg)
		}
	}
	return strings.Join(parts, "; ")
}

// Request is the submitted signup form
type Request struct {
	Plan            model.Plan
	RestaurantName  string `validate:"required,max=200"`
	Email           string `validate:"required,email,max=255"`
	Password        string
	ConfirmPassword string
}

// Result is a provisioned account. Session is nil when the platform requires
// email confirmation before the first login.
type Result struct {
	Identity   backend.Identity
	Session    *backend.Session
	Restaurant model.Restaurant
}

// Service provisions accounts
type Service struct {
	auth     backend.AuthService
	tenants  backend.TenantStore
	validate *validator.Validate
	log      *zap.Logger
	now      func() time.Time
}

// NewService wires the provisioning flow
func NewService(auth backend.AuthService, tenants backend.TenantStore, log *zap.Logger) *Service {
	return &Service{
		auth:     auth,
		tenants:  tenants,
		validate: validator.New(),
		log:      log,
		now:      time.Now,
	}
}

// Validate runs every local check. It never touches the network.
func (s *Service) Validate(req Request) error {
	if req.Password != req.ConfirmPassword {
		return ErrPasswordMismatch
	}
	if len([]rune(req.Password)) < MinPasswordLength {
		return ErrPasswordTooShort
	}

	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return &ValidationError{Fields: fields}
}

func fieldMessage(fe validator.FieldError) string {
	name := "Restaurant name"
	if fe.Field() == "Email" {
		name = "Email"
	}
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "email":
		return "Email is not a valid address"
	case "max":
		return name + " is too long"
	}
	return name + " is invalid"
}

// Provision creates the identity and its restaurant. If the restaurant insert
// fails the identity is left behind without a tenant.
func (s *Service) Provision(ctx context.Context, req Request) (*Result, error) {
	prometheus.SignupCounter.Inc()

	req.RestaurantName = strings.TrimSpace(req.RestaurantName)
	req.Email = strings.TrimSpace(req.Email)
	if !req.Plan.Valid() {
		req.Plan = model.PlanMonthly
	}

	if err := s.Validate(req); err != nil {
		prometheus.RecordAuthError("signup_validation")
		return nil, err
	}

	identity, session, err := s.auth.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		s.log.Error("Failed to create identity", zap.String("email", req.Email), zap.Error(err))
		prometheus.RecordAuthError("signup_identity")
		return nil, err
	}

	token := ""
	if session != nil {
		token = session.AccessToken
	}

	start := s.now()
	restaurant, err := s.tenants.CreateRestaurant(ctx, token, backend.NewRestaurant{
		Name:          req.RestaurantName,
		Email:         req.Email,
		Plan:          req.Plan,
		PlanExpiresAt: req.Plan.ExpiresAt(start),
		UserID:        identity.ID,
	})
	if err != nil {
		s.log.Warn("Identity created without restaurant",
			zap.String("user_id", identity.ID),
			zap.String("email", req.Email),
			zap.Error(err))
		prometheus.RecordAuthError("signup_tenant")
		return nil, err
	}

	prometheus.RecordProvisioned(string(req.Plan))
	s.log.Info("Restaurant provisioned",
		zap.String("user_id", identity.ID),
		zap.String("restaurant_id", restaurant.ID),
		zap.String("plan", string(req.Plan)),
		zap.Time("plan_expires_at", restaurant.PlanExpiresAt))

	return &Result{Identity: identity, Session: session, Restaurant: restaurant}, nil
}

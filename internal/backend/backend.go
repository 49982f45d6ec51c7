// Package backend defines what the web layer needs from the platform that
// owns identities, tenants and orders.
package backend

import (
	"context"
	"errors"
	"time"

	"github.com/suteetoe/restaurantpro/internal/lifecycle"
	"github.com/suteetoe/restaurantpro/internal/model"
)

var (
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrUnavailable        = errors.New("backend unavailable")
	ErrUnauthenticated    = errors.New("not authenticated")
	ErrNotFound           = errors.New("not found")
	ErrStatusConflict     = errors.New("order status changed concurrently")
	ErrAlreadyRegistered  = errors.New("user already registered")
)

// Identity is an authenticated restaurant owner
type Identity struct {
	ID    string
	Email string
	// Token is the access token the identity was resolved from. Store calls
	// forward it so the platform applies its own row-level rules.
	Token string
}

// Session is the result of a successful sign-in
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	User         Identity
}

// AuthService issues and resolves identities
type AuthService interface {
	// SignUp creates an identity. The session is nil when the platform requires
	// email confirmation before the first login.
	SignUp(ctx context.Context, email, password string) (Identity, *Session, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context, token string) error
	GetUser(ctx context.Context, token string) (Identity, error)
}

// NewRestaurant is the tenant record created at signup
type NewRestaurant struct {
	Name          string
	Email         string
	Plan          model.Plan
	PlanExpiresAt time.Time
	UserID        string
}

// TenantStore persists restaurants
type TenantStore interface {
	CreateRestaurant(ctx context.Context, token string, r NewRestaurant) (model.Restaurant, error)
	RestaurantByUser(ctx context.Context, token, userID string) (model.Restaurant, error)
}

// OrderStore is the system of record for orders
type OrderStore interface {
	// ListOrders returns the restaurant's orders, newest first, with table numbers joined.
	ListOrders(ctx context.Context, token, restaurantID string) ([]model.Order, error)
	GetOrder(ctx context.Context, token, orderID string) (model.Order, error)
	// UpdateOrderStatus writes change.To (and PaidAt when set) only if the stored
	// status still equals change.From, otherwise ErrStatusConflict.
	UpdateOrderStatus(ctx context.Context, token, orderID string, change lifecycle.Change) error
}

// Platform bundles the three collaborators
type Platform struct {
	Auth    AuthService
	Tenants TenantStore
	Orders  OrderStore
}

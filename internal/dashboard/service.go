// Package dashboard builds the owner's view of their orders and moves orders
// through their lifecycle.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/suteetoe/restaurantpro/internal/backend"
	"github.com/suteetoe/restaurantpro/internal/lifecycle"
	"github.com/suteetoe/restaurantpro/internal/model"
	"github.com/suteetoe/restaurantpro/prometheus"
	"go.uber.org/zap"
)

// ErrNoRestaurant means the identity has no tenant record, typically an
// account whose provisioning stopped after the identity was created.
var ErrNoRestaurant = errors.New("no restaurant for this account")

// View is everything the dashboard renders
type View struct {
	Restaurant model.Restaurant `json:"restaurant"`
	Orders     []model.Order    `json:"orders"`
	Summary    Summary          `json:"summary"`
}

// Service loads dashboards and advances orders
type Service struct {
	tenants backend.TenantStore
	orders  backend.OrderStore
	log     *zap.Logger
	now     func() time.Time
}

// NewService wires the dashboard
func NewService(tenants backend.TenantStore, orders backend.OrderStore, log *zap.Logger) *Service {
	return &Service{tenants: tenants, orders: orders, log: log, now: time.Now}
}

func (s *Service) restaurant(ctx context.Context, id backend.Identity) (model.Restaurant, error) {
	r, err := s.tenants.RestaurantByUser(ctx, id.Token, id.ID)
	if errors.Is(err, backend.ErrNotFound) {
		return model.Restaurant{}, ErrNoRestaurant
	}
	return r, err
}

// Load fetches the identity's restaurant and its orders
func (s *Service) Load(ctx context.Context, id backend.Identity) (*View, error) {
	r, err := s.restaurant(ctx, id)
	if err != nil {
		s.log.Error("Failed to load restaurant", zap.String("user_id", id.ID), zap.Error(err))
		return nil, err
	}
	return s.load(ctx, id, r)
}

func (s *Service) load(ctx context.Context, id backend.Identity, r model.Restaurant) (*View, error) {
	orders, err := s.orders.ListOrders(ctx, id.Token, r.ID)
	if err != nil {
		s.log.Error("Failed to load orders", zap.String("restaurant_id", r.ID), zap.Error(err))
		return nil, err
	}

	summary := Summarize(r.ID, orders)
	own := make([]model.Order, 0, len(orders))
	for _, o := range orders {
		if o.RestaurantID == r.ID {
			own = append(own, o)
		}
	}
	if dropped := len(orders) - len(own); dropped > 0 {
		s.log.Warn("Ignoring orders of other restaurants",
			zap.String("restaurant_id", r.ID),
			zap.Int("count", dropped))
	}

	return &View{Restaurant: r, Orders: own, Summary: summary}, nil
}

// Advance moves one order to status to and returns the refreshed view. The
// order must belong to the identity's restaurant and to must be the single
// next step of its current status.
func (s *Service) Advance(ctx context.Context, id backend.Identity, orderID string, to model.OrderStatus) (*View, error) {
	r, err := s.restaurant(ctx, id)
	if err != nil {
		return nil, err
	}

	order, err := s.orders.GetOrder(ctx, id.Token, orderID)
	if err != nil {
		return nil, err
	}
	if order.RestaurantID != r.ID {
		s.log.Warn("Status change on foreign order refused",
			zap.String("order_id", orderID),
			zap.String("restaurant_id", r.ID))
		return nil, fmt.Errorf("order %s: %w", orderID, backend.ErrNotFound)
	}

	change, err := lifecycle.Plan(order.Status, to, s.now())
	if err != nil {
		prometheus.RecordTransition(string(to), "rejected")
		return nil, err
	}

	if err := s.orders.UpdateOrderStatus(ctx, id.Token, orderID, change); err != nil {
		outcome := "failed"
		if errors.Is(err, backend.ErrStatusConflict) {
			outcome = "conflict"
		}
		prometheus.RecordTransition(string(to), outcome)
		s.log.Error("Failed to update order status",
			zap.String("order_id", orderID),
			zap.String("to", string(to)),
			zap.Error(err))
		return nil, err
	}
	prometheus.RecordTransition(string(to), "applied")

	return s.load(ctx, id, r)
}

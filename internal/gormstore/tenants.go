package gormstore

import (
	"context"
	"fmt"

	"github.com/suteetoe/restaurantpro/internal/backend"
	"github.com/suteetoe/restaurantpro/internal/model"
	"github.com/suteetoe/restaurantpro/prometheus"
)

// CreateRestaurant inserts the tenant record. The caller may only create a
// restaurant for themselves.
func (s *Store) CreateRestaurant(ctx context.Context, token string, r backend.NewRestaurant) (model.Restaurant, error) {
	defer prometheus.TrackBackendOperation("create_restaurant")()

	uid, err := s.userID(token)
	if err != nil {
		return model.Restaurant{}, err
	}
	if uid != r.UserID {
		return model.Restaurant{}, fmt.Errorf("restaurant owner %s does not match caller: %w", r.UserID, backend.ErrUnauthenticated)
	}

	restaurant := model.Restaurant{
		Name:          r.Name,
		Email:         r.Email,
		Plan:          r.Plan,
		PlanExpiresAt: r.PlanExpiresAt.UTC(),
		UserID:        r.UserID,
	}
	if err := s.db.WithContext(ctx).Create(&restaurant).Error; err != nil {
		return model.Restaurant{}, fmt.Errorf("create restaurant: %w", err)
	}
	return restaurant, nil
}

// RestaurantByUser returns the restaurant owned by userID
func (s *Store) RestaurantByUser(ctx context.Context, token, userID string) (model.Restaurant, error) {
	defer prometheus.TrackBackendOperation("restaurant_by_user")()

	uid, err := s.userID(token)
	if err != nil {
		return model.Restaurant{}, err
	}
	if uid != userID {
		return model.Restaurant{}, fmt.Errorf("restaurant of user %s: %w", userID, backend.ErrNotFound)
	}

	var restaurant model.Restaurant
	err = s.db.WithContext(ctx).Where("user_id = ?", userID).First(&restaurant).Error
	if isNotFound(err) {
		return model.Restaurant{}, fmt.Errorf("restaurant of user %s: %w", userID, backend.ErrNotFound)
	}
	if err != nil {
		return model.Restaurant{}, unavailable("restaurant_by_user", err)
	}
	return restaurant, nil
}

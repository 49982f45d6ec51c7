package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/suteetoe/restaurantpro/internal/backend"
	"github.com/suteetoe/restaurantpro/internal/lifecycle"
	"github.com/suteetoe/restaurantpro/internal/model"
	"github.com/suteetoe/restaurantpro/prometheus"
	"go.uber.org/zap"
)

const orderColumns = "*,tables(table_number)"

type restaurantInsert struct {
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Plan          model.Plan `json:"plan"`
	PlanExpiresAt time.Time  `json:"plan_expires_at"`
	UserID        string     `json:"user_id"`
}

// CreateRestaurant inserts the tenant record for a new identity
func (c *Client) CreateRestaurant(ctx context.Context, token string, r backend.NewRestaurant) (model.Restaurant, error) {
	defer prometheus.TrackBackendOperation("create_restaurant")()

	var rows []model.Restaurant
	resp, err := c.request(ctx, token).
		SetHeader("Prefer", "return=representation").
		SetBody(restaurantInsert{
			Name:          r.Name,
			Email:         r.Email,
			Plan:          r.Plan,
			PlanExpiresAt: r.PlanExpiresAt.UTC(),
			UserID:        r.UserID,
		}).
		SetResult(&rows).
		Post("/rest/v1/restaurants")
	if err := c.check("create_restaurant", resp, err); err != nil {
		return model.Restaurant{}, err
	}
	if len(rows) == 0 {
		return model.Restaurant{}, fmt.Errorf("supabase: restaurant insert returned no row")
	}
	return rows[0], nil
}

// RestaurantByUser returns the restaurant owned by userID
func (c *Client) RestaurantByUser(ctx context.Context, token, userID string) (model.Restaurant, error) {
	defer prometheus.TrackBackendOperation("restaurant_by_user")()

	var rows []model.Restaurant
	resp, err := c.request(ctx, token).
		SetQueryParams(map[string]string{
			"select":  "*",
			"user_id": "eq." + userID,
			"limit":   "1",
		}).
		SetResult(&rows).
		Get("/rest/v1/restaurants")
	if err := c.check("restaurant_by_user", resp, err); err != nil {
		return model.Restaurant{}, err
	}
	if len(rows) == 0 {
		return model.Restaurant{}, fmt.Errorf("restaurant of user %s: %w", userID, backend.ErrNotFound)
	}
	return rows[0], nil
}

// ListOrders returns the restaurant's orders newest first
func (c *Client) ListOrders(ctx context.Context, token, restaurantID string) ([]model.Order, error) {
	defer prometheus.TrackBackendOperation("list_orders")()

	var rows []orderRow
	resp, err := c.request(ctx, token).
		SetQueryParams(map[string]string{
			"select":        orderColumns,
			"restaurant_id": "eq." + restaurantID,
			"order":         "created_at.desc",
		}).
		SetResult(&rows).
		Get("/rest/v1/orders")
	if err := c.check("list_orders", resp, err); err != nil {
		return nil, err
	}

	orders := make([]model.Order, 0, len(rows))
	for _, row := range rows {
		orders = append(orders, row.toModel(c.log))
	}
	return orders, nil
}

// GetOrder returns one order by id
func (c *Client) GetOrder(ctx context.Context, token, orderID string) (model.Order, error) {
	defer prometheus.TrackBackendOperation("get_order")()

	var rows []orderRow
	resp, err := c.request(ctx, token).
		SetQueryParams(map[string]string{
			"select": orderColumns,
			"id":     "eq." + orderID,
			"limit":  "1",
		}).
		SetResult(&rows).
		Get("/rest/v1/orders")
	if err := c.check("get_order", resp, err); err != nil {
		return model.Order{}, err
	}
	if len(rows) == 0 {
		return model.Order{}, fmt.Errorf("order %s: %w", orderID, backend.ErrNotFound)
	}
	return rows[0].toModel(c.log), nil
}

type statusPatch struct {
	Status model.OrderStatus `json:"status"`
	PaidAt *time.Time        `json:"paid_at,omitempty"`
}

// UpdateOrderStatus writes the planned change, filtered on the expected
// current status so a concurrent change is detected instead of overwritten.
func (c *Client) UpdateOrderStatus(ctx context.Context, token, orderID string, change lifecycle.Change) error {
	defer prometheus.TrackBackendOperation("update_order_status")()

	var rows []json.RawMessage
	resp, err := c.request(ctx, token).
		SetHeader("Prefer", "return=representation").
		SetQueryParams(map[string]string{
			"id":     "eq." + orderID,
			"status": "eq." + string(change.From),
			"select": "id",
		}).
		SetBody(statusPatch{Status: change.To, PaidAt: change.PaidAt}).
		SetResult(&rows).
		Patch("/rest/v1/orders")
	if err := c.check("update_order_status", resp, err); err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("order %s no longer %s: %w", orderID, change.From, backend.ErrStatusConflict)
	}

	c.log.Info("Order status updated",
		zap.String("order_id", orderID),
		zap.String("from", string(change.From)),
		zap.String("to", string(change.To)))
	return nil
}

// number accepts PostgREST numerics sent either as JSON numbers or strings
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*n = number(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*n = number(f)
	return nil
}

type tableRef struct {
	TableNumber string `json:"table_number"`
}

type orderRow struct {
	ID           string            `json:"id"`
	CreatedAt    time.Time         `json:"created_at"`
	RestaurantID string            `json:"restaurant_id"`
	TableID      *string           `json:"table_id"`
	GuestID      string            `json:"guest_id"`
	GuestName    string            `json:"guest_name"`
	Items        json.RawMessage   `json:"items"`
	Total        number            `json:"total"`
	Status       model.OrderStatus `json:"status"`
	PaidAt       *time.Time        `json:"paid_at"`
	Tables       *tableRef         `json:"tables"`
}

// toModel validates the items payload; an unusable payload leaves the order
// without lines rather than hiding the order and its total.
func (r orderRow) toModel(log *zap.Logger) model.Order {
	items, rejected, err := lifecycle.DecodeItems(r.Items)
	if err != nil {
		log.Warn("Discarding order items payload", zap.String("order_id", r.ID), zap.Error(err))
		items = []model.OrderItem{}
	}
	for _, bad := range rejected {
		log.Warn("Dropping malformed order item",
			zap.String("order_id", r.ID),
			zap.Int("index", bad.Index),
			zap.Error(bad.Err))
	}

	o := model.Order{
		ID:           r.ID,
		CreatedAt:    r.CreatedAt,
		RestaurantID: r.RestaurantID,
		TableID:      r.TableID,
		GuestID:      r.GuestID,
		GuestName:    r.GuestName,
		Items:        items,
		Total:        float64(r.Total),
		Status:       r.Status,
		PaidAt:       r.PaidAt,
	}
	if r.Tables != nil {
		tn := r.Tables.TableNumber
		o.TableNumber = &tn
	}
	return o
}

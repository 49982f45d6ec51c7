package gormstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/suteetoe/restaurantpro/internal/backend"
	"github.com/suteetoe/restaurantpro/internal/lifecycle"
	"github.com/suteetoe/restaurantpro/internal/model"
	"github.com/suteetoe/restaurantpro/prometheus"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// orderRow is the orders table. Items stay raw JSON in the database and are
// validated on the way out.
type orderRow struct {
	ID           string            `gorm:"type:uuid;primaryKey"`
	CreatedAt    time.Time         `gorm:"index"`
	RestaurantID string            `gorm:"type:uuid;index;not null"`
	TableID      *string           `gorm:"type:uuid"`
	Table        *model.Table      `gorm:"foreignKey:TableID;references:ID"`
	GuestID      string            `gorm:"type:varchar(100);index;not null"`
	GuestName    string            `gorm:"type:varchar(200)"`
	Items        datatypes.JSON    `gorm:"not null"`
	Total        float64           `gorm:"type:numeric(10,2);not null;default:0"`
	Status       model.OrderStatus `gorm:"type:varchar(30);index;not null;default:em_andamento"`
	PaidAt       *time.Time
}

func (orderRow) TableName() string {
	return "orders"
}

func (o *orderRow) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.Status == "" {
		o.Status = lifecycle.Initial()
	}
	return nil
}

func (s *Store) toModel(r orderRow) model.Order {
	items, rejected, err := lifecycle.DecodeItems(r.Items)
	if err != nil {
		s.log.Warn("Discarding order items payload", zap.String("order_id", r.ID), zap.Error(err))
		items = []model.OrderItem{}
	}
	for _, bad := range rejected {
		s.log.Warn("Dropping malformed order item",
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
		Total:        r.Total,
		Status:       r.Status,
		PaidAt:       r.PaidAt,
	}
	if r.Table != nil {
		tn := r.Table.TableNumber
		o.TableNumber = &tn
	}
	return o
}

// owned limits a query on orders to restaurants of the caller
func (s *Store) owned(ctx context.Context, token string) (*gorm.DB, error) {
	uid, err := s.userID(token)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	restaurants := db.Model(&model.Restaurant{}).Select("id").Where("user_id = ?", uid)
	return db.Model(&orderRow{}).Where("restaurant_id IN (?)", restaurants), nil
}

// ListOrders returns the restaurant's orders newest first
func (s *Store) ListOrders(ctx context.Context, token, restaurantID string) ([]model.Order, error) {
	defer prometheus.TrackBackendOperation("list_orders")()

	q, err := s.owned(ctx, token)
	if err != nil {
		return nil, err
	}

	var rows []orderRow
	err = q.Preload("Table").
		Where("restaurant_id = ?", restaurantID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, unavailable("list_orders", err)
	}

	orders := make([]model.Order, 0, len(rows))
	for _, row := range rows {
		orders = append(orders, s.toModel(row))
	}
	return orders, nil
}

// GetOrder returns one order of the caller's restaurants
func (s *Store) GetOrder(ctx context.Context, token, orderID string) (model.Order, error) {
	defer prometheus.TrackBackendOperation("get_order")()

	q, err := s.owned(ctx, token)
	if err != nil {
		return model.Order{}, err
	}

	var row orderRow
	err = q.Preload("Table").Where("id = ?", orderID).First(&row).Error
	if isNotFound(err) {
		return model.Order{}, fmt.Errorf("order %s: %w", orderID, backend.ErrNotFound)
	}
	if err != nil {
		return model.Order{}, unavailable("get_order", err)
	}
	return s.toModel(row), nil
}

// UpdateOrderStatus writes the planned change when the stored status still
// equals change.From
func (s *Store) UpdateOrderStatus(ctx context.Context, token, orderID string, change lifecycle.Change) error {
	defer prometheus.TrackBackendOperation("update_order_status")()

	q, err := s.owned(ctx, token)
	if err != nil {
		return err
	}

	updates := map[string]interface{}{"status": change.To}
	if change.PaidAt != nil {
		updates["paid_at"] = change.PaidAt.UTC()
	}

	result := q.Where("id = ? AND status = ?", orderID, change.From).Updates(updates)
	if result.Error != nil {
		return unavailable("update_order_status", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("order %s no longer %s: %w", orderID, change.From, backend.ErrStatusConflict)
	}

	s.log.Info("Order status updated",
		zap.String("order_id", orderID),
		zap.String("from", string(change.From)),
		zap.String("to", string(change.To)))
	return nil
}

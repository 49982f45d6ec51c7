package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Restaurant is the tenant: one restaurant account owned by one identity
type Restaurant struct {
	ID            string    `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt     time.Time `json:"created_at"`
	Name          string    `json:"name" gorm:"type:varchar(200);not null"`
	Email         string    `json:"email" gorm:"type:varchar(255);not null"`
	Plan          Plan      `json:"plan" gorm:"type:varchar(20);not null"`
	PlanExpiresAt time.Time `json:"plan_expires_at" gorm:"not null"`
	UserID        string    `json:"user_id" gorm:"type:uuid;uniqueIndex;not null"`
}

// BeforeCreate assigns a UUID when none was provided
func (r *Restaurant) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// Table is a physical table of a restaurant, referenced by dine-in orders
type Table struct {
	ID           string    `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt    time.Time `json:"created_at"`
	RestaurantID string    `json:"restaurant_id" gorm:"type:uuid;index;not null"`
	TableNumber  string    `json:"table_number" gorm:"type:varchar(50);not null"`
	QRCodeURL    *string   `json:"qr_code_url"`
}

func (t *Table) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// User is a locally stored identity, used only by the direct database backend
type User struct {
	ID           string    `json:"id" gorm:"type:uuid;primaryKey"`
	Email        string    `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"type:varchar(255);not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

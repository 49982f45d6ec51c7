// Package gormstore is the direct database backend: local identities with
// bcrypt passwords and JWT sessions, and the restaurants and orders tables
// behind gorm.
package gormstore

import (
	"errors"
	"fmt"

	"github.com/suteetoe/restaurantpro/internal/backend"
	"github.com/suteetoe/restaurantpro/internal/model"
	"github.com/suteetoe/restaurantpro/pkg/database"
	"github.com/suteetoe/restaurantpro/pkg/jwtutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Store implements backend.AuthService, backend.TenantStore and backend.OrderStore
type Store struct {
	db  *gorm.DB
	jwt *jwtutil.JWTUtil
	log *zap.Logger
}

// New wraps an open database
func New(db *gorm.DB, jwt *jwtutil.JWTUtil, log *zap.Logger) *Store {
	return &Store{db: db, jwt: jwt, log: log}
}

// Platform exposes the store through the backend contracts
func (s *Store) Platform() backend.Platform {
	return backend.Platform{Auth: s, Tenants: s, Orders: s}
}

// Migrate creates or updates the schema
func (s *Store) Migrate() error {
	return database.MigrateModels(s.db,
		&model.User{},
		&model.Restaurant{},
		&model.Table{},
		&orderRow{},
	)
}

// unavailable marks an unexpected database failure
func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", backend.ErrUnavailable, op, err)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

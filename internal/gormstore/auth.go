package gormstore

import (
	"context"
	"strings"

	"github.com/suteetoe/restaurantpro/internal/backend"
	"github.com/suteetoe/restaurantpro/internal/model"
	"github.com/suteetoe/restaurantpro/prometheus"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func (s *Store) issue(user model.User) (*backend.Session, error) {
	token, expiresAt, err := s.jwt.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &backend.Session{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		User:        backend.Identity{ID: user.ID, Email: user.Email, Token: token},
	}, nil
}

// SignUp stores a new identity and signs it in right away
func (s *Store) SignUp(ctx context.Context, email, password string) (backend.Identity, *backend.Session, error) {
	defer prometheus.TrackBackendOperation("sign_up")()

	email = strings.ToLower(strings.TrimSpace(email))
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&model.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return backend.Identity{}, nil, unavailable("sign_up", err)
	}
	if count > 0 {
		return backend.Identity{}, nil, backend.ErrAlreadyRegistered
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return backend.Identity{}, nil, err
	}

	user := model.User{Email: email, PasswordHash: string(hashed)}
	if err := db.Create(&user).Error; err != nil {
		return backend.Identity{}, nil, unavailable("sign_up", err)
	}

	session, err := s.issue(user)
	if err != nil {
		return backend.Identity{}, nil, err
	}
	s.log.Info("User registered", zap.String("user_id", user.ID))
	return session.User, session, nil
}

// SignIn checks the password and issues a session token
func (s *Store) SignIn(ctx context.Context, email, password string) (*backend.Session, error) {
	defer prometheus.TrackBackendOperation("sign_in")()

	var user model.User
	err := s.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if isNotFound(err) {
		return nil, backend.ErrInvalidCredentials
	}
	if err != nil {
		return nil, unavailable("sign_in", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, backend.ErrInvalidCredentials
	}

	s.log.Info("User signed in", zap.String("user_id", user.ID))
	return s.issue(user)
}

// SignOut has nothing to revoke: sessions are stateless tokens that the
// caller drops together with the cookie.
func (s *Store) SignOut(ctx context.Context, token string) error {
	return nil
}

// GetUser validates the token and checks that its identity still exists
func (s *Store) GetUser(ctx context.Context, token string) (backend.Identity, error) {
	if token == "" {
		return backend.Identity{}, backend.ErrUnauthenticated
	}
	defer prometheus.TrackBackendOperation("get_user")()

	claims, err := s.jwt.ValidateToken(token)
	if err != nil {
		return backend.Identity{}, backend.ErrUnauthenticated
	}

	var user model.User
	err = s.db.WithContext(ctx).Select("id", "email").Where("id = ?", claims.UserID).First(&user).Error
	if isNotFound(err) {
		return backend.Identity{}, backend.ErrUnauthenticated
	}
	if err != nil {
		return backend.Identity{}, unavailable("get_user", err)
	}
	return backend.Identity{ID: user.ID, Email: user.Email, Token: token}, nil
}

// userID resolves the caller behind token for tenant scoping
func (s *Store) userID(token string) (string, error) {
	claims, err := s.jwt.ValidateToken(token)
	if err != nil {
		return "", backend.ErrUnauthenticated
	}
	return claims.UserID, nil
}

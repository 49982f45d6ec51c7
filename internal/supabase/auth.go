package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/suteetoe/restaurantpro/internal/backend"
	"github.com/suteetoe/restaurantpro/prometheus"
	"go.uber.org/zap"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userBody struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type sessionBody struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int       `json:"expires_in"`
	ExpiresAt    int64     `json:"expires_at"`
	User         *userBody `json:"user"`
}

// signupBody is either a session (auto-confirmed projects) or a bare user
type signupBody struct {
	sessionBody
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (s sessionBody) toSession() *backend.Session {
	expiresAt := time.Now().Add(time.Duration(s.ExpiresIn) * time.Second)
	if s.ExpiresAt > 0 {
		expiresAt = time.Unix(s.ExpiresAt, 0)
	}
	session := &backend.Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresAt:    expiresAt,
	}
	if s.User != nil {
		session.User = backend.Identity{ID: s.User.ID, Email: s.User.Email, Token: s.AccessToken}
	}
	return session
}

// SignUp creates an identity with email and password
func (c *Client) SignUp(ctx context.Context, email, password string) (backend.Identity, *backend.Session, error) {
	defer prometheus.TrackBackendOperation("sign_up")()

	var body signupBody
	resp, err := c.request(ctx, "").
		SetBody(credentials{Email: email, Password: password}).
		SetResult(&body).
		Post("/auth/v1/signup")
	if err := c.check("sign_up", resp, err); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Code == "user_already_exists" {
			return backend.Identity{}, nil, fmt.Errorf("%w: %s", backend.ErrAlreadyRegistered, apiErr.Message)
		}
		return backend.Identity{}, nil, err
	}

	if body.AccessToken != "" && body.User != nil {
		session := body.sessionBody.toSession()
		return session.User, session, nil
	}
	if body.ID == "" {
		return backend.Identity{}, nil, errors.New("supabase: sign up returned no user")
	}
	return backend.Identity{ID: body.ID, Email: body.Email}, nil, nil
}

// SignIn exchanges email and password for a session
func (c *Client) SignIn(ctx context.Context, email, password string) (*backend.Session, error) {
	defer prometheus.TrackBackendOperation("sign_in")()

	var body sessionBody
	resp, err := c.request(ctx, "").
		SetQueryParam("grant_type", "password").
		SetBody(credentials{Email: email, Password: password}).
		SetResult(&body).
		Post("/auth/v1/token")
	if err := c.check("sign_in", resp, err); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && isInvalidCredentials(apiErr) {
			return nil, fmt.Errorf("%w: %s", backend.ErrInvalidCredentials, apiErr.Message)
		}
		return nil, err
	}
	if body.AccessToken == "" || body.User == nil {
		return nil, errors.New("supabase: sign in returned no session")
	}

	c.log.Info("User signed in", zap.String("user_id", body.User.ID))
	return body.toSession(), nil
}

func isInvalidCredentials(e *APIError) bool {
	return e.Code == "invalid_credentials" ||
		(e.Code == "invalid_grant" && strings.Contains(e.Message, "Invalid login credentials")) ||
		strings.Contains(e.Message, "Invalid login credentials")
}

// SignOut revokes the session behind token
func (c *Client) SignOut(ctx context.Context, token string) error {
	defer prometheus.TrackBackendOperation("sign_out")()

	resp, err := c.request(ctx, token).Post("/auth/v1/logout")
	if err := c.check("sign_out", resp, err); err != nil {
		var apiErr *APIError
		// an already expired session is signed out either way
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden) {
			return nil
		}
		return err
	}
	return nil
}

// GetUser resolves the identity behind an access token
func (c *Client) GetUser(ctx context.Context, token string) (backend.Identity, error) {
	if token == "" {
		return backend.Identity{}, backend.ErrUnauthenticated
	}
	defer prometheus.TrackBackendOperation("get_user")()

	var body userBody
	resp, err := c.request(ctx, token).
		SetResult(&body).
		Get("/auth/v1/user")
	if err := c.check("get_user", resp, err); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden) {
			return backend.Identity{}, fmt.Errorf("%w: %s", backend.ErrUnauthenticated, apiErr.Message)
		}
		return backend.Identity{}, err
	}
	if body.ID == "" {
		return backend.Identity{}, backend.ErrUnauthenticated
	}
	return backend.Identity{ID: body.ID, Email: body.Email, Token: token}, nil
}

// Package supabase talks to a hosted Supabase project: GoTrue for identities
// and PostgREST for the restaurants and orders tables.
package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/suteetoe/restaurantpro/internal/backend"
	"go.uber.org/zap"
)

// Config is the typed connection configuration of a project
type Config struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// Client is safe for concurrent use
type Client struct {
	http   *resty.Client
	apiKey string
	log    *zap.Logger
}

// New builds a client for the project at cfg.URL
func New(cfg Config, log *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.URL, "/")).
		SetTimeout(timeout).
		SetHeader("apikey", cfg.APIKey).
		SetHeader("Accept", "application/json")

	return &Client{
		http:   httpClient,
		apiKey: cfg.APIKey,
		log:    log,
	}
}

// Platform exposes the client through the backend contracts
func (c *Client) Platform() backend.Platform {
	return backend.Platform{Auth: c, Tenants: c, Orders: c}
}

// request starts a call authorized as the caller, or as the anonymous role
// when token is empty.
func (c *Client) request(ctx context.Context, token string) *resty.Request {
	bearer := token
	if bearer == "" {
		bearer = c.apiKey
	}
	return c.http.R().
		SetContext(ctx).
		SetAuthToken(bearer).
		SetError(&errorBody{})
}

// APIError is a non-2xx answer from the platform
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("supabase: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("supabase: %d: %s", e.Status, e.Message)
}

// errorBody covers the GoTrue and PostgREST error shapes
type errorBody struct {
	Code             any    `json:"code"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (b *errorBody) toAPIError(status int) *APIError {
	apiErr := &APIError{Status: status}

	switch {
	case b.ErrorCode != "":
		apiErr.Code = b.ErrorCode
	case b.Error != "":
		apiErr.Code = b.Error
	default:
		if code, ok := b.Code.(string); ok {
			apiErr.Code = code
		}
	}

	for _, m := range []string{b.Msg, b.Message, b.ErrorDescription, b.Error} {
		if m != "" {
			apiErr.Message = m
			break
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

// check converts transport failures and error statuses into errors
func (c *Client) check(op string, resp *resty.Response, err error) error {
	if err != nil {
		c.log.Error("Backend request failed", zap.String("operation", op), zap.Error(err))
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %s: %v", backend.ErrUnavailable, op, err)
	}
	if !resp.IsError() {
		return nil
	}

	body, _ := resp.Error().(*errorBody)
	if body == nil {
		body = &errorBody{}
	}
	apiErr := body.toAPIError(resp.StatusCode())
	c.log.Warn("Backend returned error status",
		zap.String("operation", op),
		zap.Int("status", apiErr.Status),
		zap.String("code", apiErr.Code),
		zap.String("message", apiErr.Message))
	return apiErr
}

package supabase

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suteetoe/restaurantpro/internal/backend"
	"github.com/suteetoe/restaurantpro/internal/lifecycle"
	"github.com/suteetoe/restaurantpro/internal/model"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{URL: srv.URL + "/", APIKey: "anon-key", Timeout: 2 * time.Second}, zap.NewNop())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestSignInSendsCredentialsAndParsesSession(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer anon-key", r.Header.Get("Authorization"))

		var body credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, credentials{Email: "owner@example.com", Password: "secret1"}, body)

		writeJSON(w, http.StatusOK, map[string]any{
			"access_token":  "at",
			"refresh_token": "rt",
			"expires_in":    3600,
			"expires_at":    1893456000,
			"user":          map[string]any{"id": "u1", "email": "owner@example.com"},
		})
	})

	session, err := c.SignIn(context.Background(), "owner@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "at", session.AccessToken)
	assert.Equal(t, "rt", session.RefreshToken)
	assert.Equal(t, time.Unix(1893456000, 0), session.ExpiresAt)
	assert.Equal(t, backend.Identity{ID: "u1", Email: "owner@example.com", Token: "at"}, session.User)
}

func TestSignInMapsInvalidCredentials(t *testing.T) {
	for name, body := range map[string]map[string]any{
		"legacy": {"error": "invalid_grant", "error_description": "Invalid login credentials"},
		"coded":  {"code": 400, "error_code": "invalid_credentials", "msg": "Invalid login credentials"},
	} {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusBadRequest, body)
			})
			_, err := c.SignIn(context.Background(), "a@b.c", "wrong")
			assert.ErrorIs(t, err, backend.ErrInvalidCredentials)
		})
	}
}

func TestSignInSurfacesOtherErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error_code": "email_not_confirmed", "msg": "Email not confirmed"})
	})
	_, err := c.SignIn(context.Background(), "a@b.c", "secret1")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "email_not_confirmed", apiErr.Code)
	assert.Equal(t, "Email not confirmed", apiErr.Message)
	assert.NotErrorIs(t, err, backend.ErrInvalidCredentials)
}

func TestUnreachableBackendIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(Config{URL: url, APIKey: "k", Timeout: time.Second}, zap.NewNop())
	_, err := c.SignIn(context.Background(), "a@b.c", "secret1")
	assert.ErrorIs(t, err, backend.ErrUnavailable)
}

func TestSignUpWithAndWithoutSession(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/signup", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{"id": "u2", "email": "new@example.com"})
	})
	identity, session, err := c.SignUp(context.Background(), "new@example.com", "secret1")
	require.NoError(t, err)
	assert.Nil(t, session)
	assert.Equal(t, "u2", identity.ID)

	c = newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token": "at", "expires_in": 60,
			"user": map[string]any{"id": "u3", "email": "new@example.com"},
		})
	})
	identity, session, err = c.SignUp(context.Background(), "new@example.com", "secret1")
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, "u3", identity.ID)
	assert.Equal(t, "at", identity.Token)
}

func TestSignUpAlreadyRegistered(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"code": 422, "error_code": "user_already_exists", "msg": "User already registered"})
	})
	_, _, err := c.SignUp(context.Background(), "dup@example.com", "secret1")
	assert.ErrorIs(t, err, backend.ErrAlreadyRegistered)
	assert.Contains(t, err.Error(), "User already registered")
}

func TestGetUser(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/user", r.URL.Path)
		if r.Header.Get("Authorization") != "Bearer good" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"msg": "invalid JWT"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": "u1", "email": "owner@example.com"})
	})

	identity, err := c.GetUser(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, backend.Identity{ID: "u1", Email: "owner@example.com", Token: "good"}, identity)

	_, err = c.GetUser(context.Background(), "bad")
	assert.ErrorIs(t, err, backend.ErrUnauthenticated)

	_, err = c.GetUser(context.Background(), "")
	assert.ErrorIs(t, err, backend.ErrUnauthenticated)
}

func TestSignOutIgnoresExpiredSession(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/logout", r.URL.Path)
		writeJSON(w, http.StatusUnauthorized, map[string]any{"msg": "expired"})
	})
	assert.NoError(t, c.SignOut(context.Background(), "old"))
}

func TestCreateRestaurant(t *testing.T) {
	expires := time.Date(2026, time.November, 15, 12, 0, 0, 0, time.UTC)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/v1/restaurants", r.URL.Path)
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))
		assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))

		raw, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"name":"Cantina","email":"o@x.com","plan":"monthly","plan_expires_at":"2026-11-15T12:00:00Z","user_id":"u1"}`, string(raw))

		writeJSON(w, http.StatusCreated, []map[string]any{{
			"id": "r1", "created_at": "2026-10-15T12:00:00.123456+00:00", "name": "Cantina", "email": "o@x.com",
			"plan": "monthly", "plan_expires_at": "2026-11-15T12:00:00+00:00", "user_id": "u1",
		}})
	})

	r, err := c.CreateRestaurant(context.Background(), "user-token", backend.NewRestaurant{
		Name: "Cantina", Email: "o@x.com", Plan: model.PlanMonthly, PlanExpiresAt: expires, UserID: "u1",
	})
	require.NoError(t, err)
	assert.Equal(t, "r1", r.ID)
	assert.True(t, r.PlanExpiresAt.Equal(expires))
}

func TestCreateRestaurantSurfacesMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]any{"code": "42501", "message": "new row violates row-level security policy"})
	})
	_, err := c.CreateRestaurant(context.Background(), "", backend.NewRestaurant{Name: "x"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "42501", apiErr.Code)
	assert.Equal(t, "new row violates row-level security policy", apiErr.Message)
}

func TestRestaurantByUserNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "eq.u9", r.URL.Query().Get("user_id"))
		writeJSON(w, http.StatusOK, []any{})
	})
	_, err := c.RestaurantByUser(context.Background(), "t", "u9")
	assert.ErrorIs(t, err, backend.ErrNotFound)
}

func TestListOrdersDecodesRows(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/rest/v1/orders", r.URL.Path)
		assert.Equal(t, "*,tables(table_number)", q.Get("select"))
		assert.Equal(t, "eq.r1", q.Get("restaurant_id"))
		assert.Equal(t, "created_at.desc", q.Get("order"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"o2","created_at":"2026-10-15T12:00:00+00:00","restaurant_id":"r1","table_id":"t1","guest_id":"g1","guest_name":"Ana",
			 "items":[{"product_id":"p1","product_name":"Pizza","quantity":2,"price":25,"total":50},{"product_id":"p2"}],
			 "total":"50.00","status":"em_andamento","paid_at":null,"tables":{"table_number":"7"}},
			{"id":"o1","created_at":"2026-10-15T11:00:00+00:00","restaurant_id":"r1","table_id":null,"guest_id":"g2","guest_name":"Bruno",
			 "items":{"broken":true},"total":30,"status":"pago","paid_at":"2026-10-15T11:30:00+00:00","tables":null}
		]`))
	})

	orders, err := c.ListOrders(context.Background(), "t", "r1")
	require.NoError(t, err)
	require.Len(t, orders, 2)

	assert.Equal(t, "o2", orders[0].ID)
	assert.Equal(t, 50.0, orders[0].Total)
	assert.Len(t, orders[0].Items, 1, "malformed line dropped")
	require.NotNil(t, orders[0].TableNumber)
	assert.Equal(t, "Table 7", orders[0].TableLabel())

	assert.Equal(t, model.StatusPaid, orders[1].Status)
	assert.NotNil(t, orders[1].PaidAt)
	assert.Empty(t, orders[1].Items)
	assert.Equal(t, "Take-away", orders[1].TableLabel())
}

func TestUpdateOrderStatusIsConditional(t *testing.T) {
	paidAt := time.Date(2026, time.October, 15, 13, 0, 0, 0, time.UTC)
	var matched bool
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		q := r.URL.Query()
		assert.Equal(t, "eq.o1", q.Get("id"))
		assert.Equal(t, "eq.aguardando_pagamento", q.Get("status"))

		raw, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"status":"pago","paid_at":"2026-10-15T13:00:00Z"}`, string(raw))

		if matched {
			writeJSON(w, http.StatusOK, []map[string]any{{"id": "o1"}})
			return
		}
		writeJSON(w, http.StatusOK, []any{})
	})

	change := lifecycle.Change{From: model.StatusAwaitingPayment, To: model.StatusPaid, PaidAt: &paidAt}

	err := c.UpdateOrderStatus(context.Background(), "t", "o1", change)
	assert.ErrorIs(t, err, backend.ErrStatusConflict)

	matched = true
	assert.NoError(t, c.UpdateOrderStatus(context.Background(), "t", "o1", change))
}

func TestUpdateOrderStatusOmitsPaidAtWhenUnset(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"status":"aguardando_pagamento"}`, string(raw))
		writeJSON(w, http.StatusOK, []map[string]any{{"id": "o1"}})
	})
	err := c.UpdateOrderStatus(context.Background(), "t", "o1",
		lifecycle.Change{From: model.StatusInProgress, To: model.StatusAwaitingPayment})
	assert.NoError(t, err)
}

func TestGetOrderNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []any{})
	})
	_, err := c.GetOrder(context.Background(), "t", "missing")
	assert.ErrorIs(t, err, backend.ErrNotFound)
}

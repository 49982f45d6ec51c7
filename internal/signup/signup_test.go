package signup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suteetoe/restaurantpro/internal/backend"
	"github.com/suteetoe/restaurantpro/internal/backend/backendtest"
	"github.com/suteetoe/restaurantpro/internal/model"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newService(f *backendtest.Fake, now time.Time) *Service {
	s := NewService(f, f, zap.NewNop())
	s.now = func() time.Time { return now }
	return s
}

func validRequest() Request {
	return Request{
		Plan:            model.PlanAnnual,
		RestaurantName:  "Cantina da Ana",
		Email:           "ana@example.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	}
}

func TestProvisionAnnual(t *testing.T) {
	f := backendtest.New()
	start := time.Date(2026, time.October, 15, 9, 30, 0, 0, time.UTC)

	res, err := newService(f, start).Provision(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, "Cantina da Ana", res.Restaurant.Name)
	assert.Equal(t, model.PlanAnnual, res.Restaurant.Plan)
	assert.Equal(t, time.Date(2027, time.October, 15, 9, 30, 0, 0, time.UTC), res.Restaurant.PlanExpiresAt)
	assert.Equal(t, res.Identity.ID, res.Restaurant.UserID)
	require.NotNil(t, res.Session)
	assert.Equal(t, []string{"SignUp", "CreateRestaurant"}, f.Calls)
}

func TestProvisionDefaultsToMonthly(t *testing.T) {
	f := backendtest.New()
	start := time.Date(2027, time.January, 31, 0, 0, 0, 0, time.UTC)
	req := validRequest()
	req.Plan = "weekly"

	res, err := newService(f, start).Provision(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, model.PlanMonthly, res.Restaurant.Plan)
	assert.Equal(t, time.Date(2027, time.March, 3, 0, 0, 0, 0, time.UTC), res.Restaurant.PlanExpiresAt)
}

func TestLocalValidationMakesNoCalls(t *testing.T) {
	cases := map[string]struct {
		mutate func(*Request)
		want   error
	}{
		"mismatch": {func(r *Request) { r.ConfirmPassword = "secret2" }, ErrPasswordMismatch},
		"short": {func(r *Request) {
			r.Password = "abc"
			r.ConfirmPassword = "abc"
		}, ErrPasswordTooShort},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			f := backendtest.New()
			req := validRequest()
			tc.mutate(&req)

			_, err := newService(f, time.Now()).Provision(context.Background(), req)
			assert.ErrorIs(t, err, tc.want)
			assert.Empty(t, f.Calls)
		})
	}
}

func TestFieldValidation(t *testing.T) {
	f := backendtest.New()
	req := validRequest()
	req.RestaurantName = "   "
	req.Email = "not-an-email"

	_, err := newService(f, time.Now()).Provision(context.Background(), req)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Restaurant name is required", verr.Fields["RestaurantName"])
	assert.Equal(t, "Email is not a valid address", verr.Fields["Email"])
	assert.Equal(t, "Restaurant name is required; Email is not a valid address", verr.Error())
	assert.Empty(t, f.Calls)
}

func TestIdentityFailureAborts(t *testing.T) {
	f := backendtest.New()
	f.Err["SignUp"] = errors.New("signups disabled")

	_, err := newService(f, time.Now()).Provision(context.Background(), validRequest())
	assert.EqualError(t, err, "signups disabled")
	assert.Zero(t, f.CallCount("CreateRestaurant"))
}

func TestTenantFailureLeavesIdentity(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	f := backendtest.New()
	f.Err["CreateRestaurant"] = errors.New("permission denied for table restaurants")

	s := NewService(f, f, zap.New(core))
	_, err := s.Provision(context.Background(), validRequest())
	assert.EqualError(t, err, "permission denied for table restaurants")

	_, err = f.SignIn(context.Background(), "ana@example.com", "secret1")
	assert.NoError(t, err, "identity stays registered")
	assert.Equal(t, 1, logs.FilterMessage("Identity created without restaurant").Len())
}

func TestProvisionWithoutSession(t *testing.T) {
	f := backendtest.New()
	f.NoSession = true

	res, err := newService(f, time.Now()).Provision(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Nil(t, res.Session)
	assert.Len(t, f.Restaurants(), 1)
}

func TestAlreadyRegistered(t *testing.T) {
	f := backendtest.New()
	f.AddUser("ana@example.com", "whatever")

	_, err := newService(f, time.Now()).Provision(context.Background(), validRequest())
	assert.ErrorIs(t, err, backend.ErrAlreadyRegistered)
}

package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suteetoe/restaurantpro/internal/backend"
	"github.com/suteetoe/restaurantpro/internal/backend/backendtest"
	"github.com/suteetoe/restaurantpro/internal/lifecycle"
	"github.com/suteetoe/restaurantpro/internal/model"
	"go.uber.org/zap"
)

var base = time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC)

func paidAt(t time.Time) *time.Time { return &t }

// threeOrders is guest A in progress (50), guest B paid (30), guest A paid (20), newest first
func threeOrders(restaurantID string) []model.Order {
	return []model.Order{
		{ID: "o3", RestaurantID: restaurantID, GuestID: "A", GuestName: "Ana", Total: 50, Status: model.StatusInProgress, CreatedAt: base.Add(2 * time.Minute)},
		{ID: "o2", RestaurantID: restaurantID, GuestID: "B", GuestName: "Bruno", Total: 30, Status: model.StatusPaid, PaidAt: paidAt(base), CreatedAt: base.Add(time.Minute)},
		{ID: "o1", RestaurantID: restaurantID, GuestID: "A", GuestName: "Ana P.", Total: 20, Status: model.StatusPaid, PaidAt: paidAt(base), CreatedAt: base},
	}
}

func TestSummarizeScenario(t *testing.T) {
	sum := Summarize("r1", threeOrders("r1"))

	require.Len(t, sum.Active, 1)
	assert.Equal(t, "o3", sum.Active[0].ID)
	require.Len(t, sum.Paid, 2)
	assert.Equal(t, []string{"o2", "o1"}, []string{sum.Paid[0].ID, sum.Paid[1].ID})
	assert.InDelta(t, 50.00, sum.Revenue, 0.001)
	assert.Equal(t, 2, sum.UniqueGuests)

	require.Len(t, sum.Guests, 2)
	a := sum.Guests[0]
	assert.Equal(t, "A", a.GuestID)
	assert.Equal(t, "Ana", a.Name, "name from first order in list order")
	assert.Equal(t, 2, a.Orders)
	assert.InDelta(t, 20.00, a.Spent, 0.001)
	assert.True(t, a.HasPaid)
	assert.Equal(t, 1, a.PaidOrders)
	assert.Equal(t, 1, a.OpenOrders)

	assert.Equal(t, "B", sum.Guests[1].GuestID)
}

func TestSummarizeIgnoresForeignOrders(t *testing.T) {
	orders := append(threeOrders("r1"), model.Order{ID: "x", RestaurantID: "r2", GuestID: "C", Total: 1000, Status: model.StatusPaid})
	sum := Summarize("r1", orders)
	assert.InDelta(t, 50.00, sum.Revenue, 0.001)
	assert.Equal(t, 2, sum.UniqueGuests)
}

func TestSummarizeEmpty(t *testing.T) {
	sum := Summarize("r1", nil)
	assert.NotNil(t, sum.Active)
	assert.NotNil(t, sum.Paid)
	assert.NotNil(t, sum.Guests)
	assert.Zero(t, sum.Revenue)
}

// seeded returns a fake holding one owner, their restaurant and the three orders
func seeded(t *testing.T) (*backendtest.Fake, backend.Identity) {
	t.Helper()
	f := backendtest.New()
	uid := f.AddUser("owner@example.com", "secret1")
	f.AddRestaurant(model.Restaurant{ID: "r1", Name: "Cantina", UserID: uid})
	for _, o := range threeOrders("r1") {
		f.AddOrder(o)
	}
	return f, backend.Identity{ID: uid, Email: "owner@example.com", Token: backendtest.Token(uid)}
}

func TestLoad(t *testing.T) {
	f, id := seeded(t)
	f.LeakForeign = true
	f.AddOrder(model.Order{ID: "x", RestaurantID: "r2", GuestID: "C", Total: 1000, Status: model.StatusPaid})

	view, err := NewService(f, f, zap.NewNop()).Load(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "r1", view.Restaurant.ID)
	assert.Len(t, view.Orders, 3)
	assert.Equal(t, "o3", view.Orders[0].ID)
	assert.InDelta(t, 50.00, view.Summary.Revenue, 0.001)
}

func TestLoadWithoutRestaurant(t *testing.T) {
	f := backendtest.New()
	uid := f.AddUser("orphan@example.com", "secret1")

	_, err := NewService(f, f, zap.NewNop()).Load(context.Background(), backend.Identity{ID: uid, Token: backendtest.Token(uid)})
	assert.ErrorIs(t, err, ErrNoRestaurant)
}

func TestLoadSurfacesStoreError(t *testing.T) {
	f, id := seeded(t)
	f.Err["ListOrders"] = backend.ErrUnavailable

	_, err := NewService(f, f, zap.NewNop()).Load(context.Background(), id)
	assert.ErrorIs(t, err, backend.ErrUnavailable)
}

func TestAdvanceToAwaitingPayment(t *testing.T) {
	f, id := seeded(t)
	s := NewService(f, f, zap.NewNop())

	view, err := s.Advance(context.Background(), id, "o3", model.StatusAwaitingPayment)
	require.NoError(t, err)

	stored := f.Order("o3")
	assert.Equal(t, model.StatusAwaitingPayment, stored.Status)
	assert.Nil(t, stored.PaidAt)

	require.Len(t, view.Summary.Active, 1, "active set unchanged in size")
	assert.Equal(t, model.StatusAwaitingPayment, view.Summary.Active[0].Status)
	next, ok := lifecycle.Next(view.Summary.Active[0].Status)
	assert.True(t, ok)
	assert.Equal(t, model.StatusPaid, next)

	assert.Equal(t, 1, f.CallCount("ListOrders"), "view fetched after the write")
}

func TestAdvanceToPaidStampsTime(t *testing.T) {
	f, id := seeded(t)
	f.AddOrder(model.Order{ID: "o4", RestaurantID: "r1", GuestID: "B", Total: 15, Status: model.StatusAwaitingPayment, CreatedAt: base.Add(3 * time.Minute)})

	s := NewService(f, f, zap.NewNop())
	now := base.Add(time.Hour)
	s.now = func() time.Time { return now }

	view, err := s.Advance(context.Background(), id, "o4", model.StatusPaid)
	require.NoError(t, err)

	stored := f.Order("o4")
	require.NotNil(t, stored.PaidAt)
	assert.True(t, stored.PaidAt.Equal(now))
	assert.InDelta(t, 65.00, view.Summary.Revenue, 0.001)
}

func TestAdvanceRejectsIllegalTransitions(t *testing.T) {
	f, id := seeded(t)
	s := NewService(f, f, zap.NewNop())

	_, err := s.Advance(context.Background(), id, "o2", model.StatusInProgress)
	assert.ErrorIs(t, err, lifecycle.ErrIllegalTransition)
	assert.ErrorIs(t, err, lifecycle.ErrTerminalStatus)

	_, err = s.Advance(context.Background(), id, "o3", model.StatusPaid)
	assert.ErrorIs(t, err, lifecycle.ErrIllegalTransition)

	assert.Zero(t, f.CallCount("UpdateOrderStatus"))
	assert.Equal(t, model.StatusInProgress, f.Order("o3").Status)
}

func TestAdvanceRefusesForeignOrder(t *testing.T) {
	f, id := seeded(t)
	f.AddOrder(model.Order{ID: "x", RestaurantID: "r2", GuestID: "C", Status: model.StatusInProgress})

	_, err := NewService(f, f, zap.NewNop()).Advance(context.Background(), id, "x", model.StatusAwaitingPayment)
	assert.ErrorIs(t, err, backend.ErrNotFound)
	assert.Equal(t, model.StatusInProgress, f.Order("x").Status)
}

func TestAdvanceSurfacesConflict(t *testing.T) {
	f, id := seeded(t)
	f.Err["UpdateOrderStatus"] = backend.ErrStatusConflict

	_, err := NewService(f, f, zap.NewNop()).Advance(context.Background(), id, "o3", model.StatusAwaitingPayment)
	assert.True(t, errors.Is(err, backend.ErrStatusConflict))
}

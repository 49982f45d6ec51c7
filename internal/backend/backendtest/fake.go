// Package backendtest provides an in-memory backend.Platform for tests.
package backendtest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/suteetoe/restaurantpro/internal/backend"
	"github.com/suteetoe/restaurantpro/internal/lifecycle"
	"github.com/suteetoe/restaurantpro/internal/model"
)

// Fake implements every backend interface over maps. Tokens are the user ids
// prefixed with "token-". The zero value is not usable; call New.
type Fake struct {
	mu sync.Mutex

	users       map[string]fakeUser // by email
	restaurants map[string]model.Restaurant
	orders      map[string]model.Order

	// Calls records the method names in call order
	Calls []string

	// Err, when set for a method name, is returned instead of doing the work
	Err map[string]error
	// NoSession makes SignUp behave like a project requiring email confirmation
	NoSession bool
	// LeakForeign makes ListOrders return other restaurants' orders too, like a
	// misconfigured row-level policy would
	LeakForeign bool
}

type fakeUser struct {
	id       string
	password string
}

// New returns an empty fake
func New() *Fake {
	return &Fake{
		users:       map[string]fakeUser{},
		restaurants: map[string]model.Restaurant{},
		orders:      map[string]model.Order{},
		Err:         map[string]error{},
	}
}

// Platform exposes the fake through the backend contracts
func (f *Fake) Platform() backend.Platform {
	return backend.Platform{Auth: f, Tenants: f, Orders: f}
}

// Token returns the access token the fake issues for userID
func Token(userID string) string {
	return "token-" + userID
}

func (f *Fake) record(name string) error {
	f.Calls = append(f.Calls, name)
	return f.Err[name]
}

// CallCount returns how many times name was called
func (f *Fake) CallCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if c == name {
			n++
		}
	}
	return n
}

// AddUser registers an identity and returns its id
func (f *Fake) AddUser(email, password string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.NewString()
	f.users[email] = fakeUser{id: id, password: password}
	return id
}

// AddRestaurant stores r as is
func (f *Fake) AddRestaurant(r model.Restaurant) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.restaurants[r.ID] = r
}

// AddOrder stores o as is
func (f *Fake) AddOrder(o model.Order) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders[o.ID] = o
}

// Order returns the stored order
func (f *Fake) Order(id string) model.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orders[id]
}

// Restaurants returns every stored restaurant
func (f *Fake) Restaurants() []model.Restaurant {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Restaurant, 0, len(f.restaurants))
	for _, r := range f.restaurants {
		out = append(out, r)
	}
	return out
}

func (f *Fake) SignUp(ctx context.Context, email, password string) (backend.Identity, *backend.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("SignUp"); err != nil {
		return backend.Identity{}, nil, err
	}
	if _, ok := f.users[email]; ok {
		return backend.Identity{}, nil, backend.ErrAlreadyRegistered
	}
	id := uuid.NewString()
	f.users[email] = fakeUser{id: id, password: password}

	identity := backend.Identity{ID: id, Email: email}
	if f.NoSession {
		return identity, nil, nil
	}
	identity.Token = Token(id)
	return identity, &backend.Session{
		AccessToken: identity.Token,
		ExpiresAt:   time.Now().Add(time.Hour),
		User:        identity,
	}, nil
}

func (f *Fake) SignIn(ctx context.Context, email, password string) (*backend.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("SignIn"); err != nil {
		return nil, err
	}
	u, ok := f.users[email]
	if !ok || u.password != password {
		return nil, backend.ErrInvalidCredentials
	}
	identity := backend.Identity{ID: u.id, Email: email, Token: Token(u.id)}
	return &backend.Session{AccessToken: identity.Token, ExpiresAt: time.Now().Add(time.Hour), User: identity}, nil
}

func (f *Fake) SignOut(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.record("SignOut")
}

func (f *Fake) GetUser(ctx context.Context, token string) (backend.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("GetUser"); err != nil {
		return backend.Identity{}, err
	}
	for email, u := range f.users {
		if token != "" && Token(u.id) == token {
			return backend.Identity{ID: u.id, Email: email, Token: token}, nil
		}
	}
	return backend.Identity{}, backend.ErrUnauthenticated
}

func (f *Fake) CreateRestaurant(ctx context.Context, token string, r backend.NewRestaurant) (model.Restaurant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateRestaurant"); err != nil {
		return model.Restaurant{}, err
	}
	created := model.Restaurant{
		ID:            uuid.NewString(),
		CreatedAt:     time.Now().UTC(),
		Name:          r.Name,
		Email:         r.Email,
		Plan:          r.Plan,
		PlanExpiresAt: r.PlanExpiresAt,
		UserID:        r.UserID,
	}
	f.restaurants[created.ID] = created
	return created, nil
}

func (f *Fake) RestaurantByUser(ctx context.Context, token, userID string) (model.Restaurant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("RestaurantByUser"); err != nil {
		return model.Restaurant{}, err
	}
	for _, r := range f.restaurants {
		if r.UserID == userID {
			return r, nil
		}
	}
	return model.Restaurant{}, backend.ErrNotFound
}

// ListOrders returns the restaurant's stored orders newest first
func (f *Fake) ListOrders(ctx context.Context, token, restaurantID string) ([]model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ListOrders"); err != nil {
		return nil, err
	}
	out := []model.Order{}
	for _, o := range f.orders {
		if o.RestaurantID == restaurantID || f.LeakForeign {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *Fake) GetOrder(ctx context.Context, token, orderID string) (model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("GetOrder"); err != nil {
		return model.Order{}, err
	}
	o, ok := f.orders[orderID]
	if !ok {
		return model.Order{}, fmt.Errorf("order %s: %w", orderID, backend.ErrNotFound)
	}
	return o, nil
}

func (f *Fake) UpdateOrderStatus(ctx context.Context, token, orderID string, change lifecycle.Change) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("UpdateOrderStatus"); err != nil {
		return err
	}
	o, ok := f.orders[orderID]
	if !ok || o.Status != change.From {
		return backend.ErrStatusConflict
	}
	f.orders[orderID] = lifecycle.Apply(o, change)
	return nil
}

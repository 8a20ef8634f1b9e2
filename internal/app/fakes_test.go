package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sabawaheed27/motofix-europe/internal/domain"
)

// ---- fakes ----

type memRepo struct {
	mu     sync.Mutex
	shops  []domain.Shop
	users  map[string]domain.User
	nextID int
	calls  int
	err    error

	lastQuery domain.ShopQuery
	updated   []domain.ShopInput
	created   []domain.NewShop
	upserted  []domain.NewShop
}

func newMemRepo(shops ...domain.Shop) *memRepo {
	return &memRepo{shops: shops, users: map[string]domain.User{}, nextID: 100}
}

func (r *memRepo) ListShops(ctx context.Context, q domain.ShopQuery) ([]domain.Shop, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.lastQuery = q
	if r.err != nil {
		return nil, r.err
	}
	var out []domain.Shop
	for _, s := range r.shops {
		if !strings.Contains(strings.ToLower(s.Country), strings.ToLower(q.Country)) ||
			!strings.Contains(strings.ToLower(s.City), strings.ToLower(q.City)) {
			continue
		}
		if q.CreatedBy != "" && (s.CreatedBy == nil || *s.CreatedBy != q.CreatedBy) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *memRepo) GetShop(ctx context.Context, id string) (domain.Shop, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	for _, s := range r.shops {
		if s.ID == id {
			return s, nil
		}
	}
	return domain.Shop{}, domain.ErrNotFound
}

func (r *memRepo) ListCountries(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	var out []string
	for _, s := range r.shops {
		out = append(out, s.Country)
	}
	return out, nil
}

func (r *memRepo) ListCities(ctx context.Context, country string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	var out []string
	for _, s := range r.shops {
		if s.Country == country {
			out = append(out, s.City)
		}
	}
	return out, nil
}

func (r *memRepo) CreateShop(ctx context.Context, ns domain.NewShop) (domain.Shop, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return domain.Shop{}, r.err
	}
	r.created = append(r.created, ns)
	r.nextID++
	s := domain.Shop{ID: strconv.Itoa(r.nextID), UUID: ns.UUID, CreatedBy: ns.CreatedBy}
	applyInput(&s, ns.ShopInput)
	r.shops = append(r.shops, s)
	return s, nil
}

func (r *memRepo) UpdateShop(ctx context.Context, id string, in domain.ShopInput) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return r.err
	}
	for i := range r.shops {
		if r.shops[i].ID == id {
			r.updated = append(r.updated, in)
			applyInput(&r.shops[i], in)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *memRepo) DeleteShop(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	for i := range r.shops {
		if r.shops[i].ID == id {
			r.shops = append(r.shops[:i], r.shops[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *memRepo) UpsertShopByPlaceID(ctx context.Context, ns domain.NewShop) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return r.err
	}
	r.upserted = append(r.upserted, ns)
	return nil
}

func (r *memRepo) GetUser(ctx context.Context, id string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (r *memRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memRepo) SetAdmin(ctx context.Context, id string, admin bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.IsAdmin = &admin
	r.users[id] = u
	return nil
}

func (r *memRepo) backendCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func applyInput(s *domain.Shop, in domain.ShopInput) {
	s.Name, s.Country, s.City = in.Name, in.Country, in.City
	s.Address, s.Latitude, s.Longitude = in.Address, in.Latitude, in.Longitude
	s.Phone, s.Website, s.BusinessType = in.Phone, in.Website, in.BusinessType
	s.Hours, s.PlaceID, s.Rating, s.ReviewsCount = in.Hours, in.PlaceID, in.Rating, in.ReviewsCount
}

type fakeCache struct {
	store   map[string][]byte
	deleted []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttl time.Duration) error {
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.store, k)
		c.deleted = append(c.deleted, k)
	}
	return nil
}

type fakeAuth struct {
	tokens   map[string]domain.Identity
	password string
	signOuts int
}

func (a *fakeAuth) SignIn(ctx context.Context, email, password string) (domain.Session, error) {
	if password != a.password {
		return domain.Session{}, domain.ErrUnauthenticated
	}
	for tok, id := range a.tokens {
		if id.Email == email {
			return domain.Session{AccessToken: tok, Identity: id}, nil
		}
	}
	return domain.Session{}, domain.ErrUnauthenticated
}

func (a *fakeAuth) Identify(ctx context.Context, token string) (domain.Identity, error) {
	if token == "boom" {
		return domain.Identity{}, errors.New("backend down")
	}
	id, ok := a.tokens[token]
	if !ok {
		return domain.Identity{}, domain.ErrUnauthenticated
	}
	return id, nil
}

func (a *fakeAuth) SignOut(ctx context.Context, token string) error {
	a.signOuts++
	delete(a.tokens, token)
	return nil
}

type fakePlaces struct {
	payload map[string]any
	err     error
}

func (p *fakePlaces) GetPlaceDetails(ctx context.Context, placeID string) (map[string]any, error) {
	return p.payload, p.err
}

func ptr[T any](v T) *T { return &v }

func shop(id, name, country, city string) domain.Shop {
	return domain.Shop{ID: id, UUID: "uuid-" + id, Name: name, Country: country, City: city}
}

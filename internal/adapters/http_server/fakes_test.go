package httpserver_test

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/sabawaheed27/motofix-europe/internal/domain"
)

type store struct {
	mu      sync.Mutex
	shops   []domain.Shop
	users   map[string]domain.User
	created []domain.NewShop
	next    int
}

func newStore(shops ...domain.Shop) *store {
	return &store{shops: shops, users: map[string]domain.User{}, next: 100}
}

func (s *store) ListShops(_ context.Context, q domain.ShopQuery) ([]domain.Shop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Shop
	for _, sh := range s.shops {
		if !strings.Contains(strings.ToLower(sh.Country), strings.ToLower(q.Country)) ||
			!strings.Contains(strings.ToLower(sh.City), strings.ToLower(q.City)) {
			continue
		}
		out = append(out, sh)
	}
	return out, nil
}

func (s *store) GetShop(_ context.Context, id string) (domain.Shop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sh := range s.shops {
		if sh.ID == id {
			return sh, nil
		}
	}
	return domain.Shop{}, domain.ErrNotFound
}

func (s *store) ListCountries(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vals := make([]string, 0, len(s.shops))
	for _, sh := range s.shops {
		vals = append(vals, sh.Country)
	}
	return domain.DistinctSorted(vals), nil
}

func (s *store) ListCities(_ context.Context, country string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var vals []string
	for _, sh := range s.shops {
		if sh.Country == country {
			vals = append(vals, sh.City)
		}
	}
	return domain.DistinctSorted(vals), nil
}

func (s *store) CreateShop(_ context.Context, n domain.NewShop) (domain.Shop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.created = append(s.created, n)
	sh := domain.Shop{ID: strconv.Itoa(s.next), UUID: n.UUID, Name: n.Name, Country: n.Country, City: n.City, CreatedBy: n.CreatedBy}
	s.shops = append(s.shops, sh)
	return sh, nil
}

func (s *store) UpdateShop(_ context.Context, id string, in domain.ShopInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.shops {
		if s.shops[i].ID == id {
			s.shops[i].Name, s.shops[i].Country, s.shops[i].City = in.Name, in.Country, in.City
			return nil
		}
	}
	return domain.ErrNotFound
}

func (s *store) DeleteShop(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.shops {
		if s.shops[i].ID == id {
			s.shops = append(s.shops[:i], s.shops[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (s *store) UpsertShopByPlaceID(context.Context, domain.NewShop) error { return nil }

func (s *store) GetUser(_ context.Context, id string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (s *store) ListUsers(_ context.Context) ([]domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, nil
}

func (s *store) SetAdmin(_ context.Context, id string, admin bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.IsAdmin = &admin
	s.users[id] = u
	return nil
}

func (s *store) has(id string) bool {
	_, err := s.GetShop(context.Background(), id)
	return err == nil
}

// fakeAuth accepts "secret" for every known email; tokens are "tok-<id>".
type fakeAuth struct {
	byEmail map[string]string
}

func (a fakeAuth) SignIn(_ context.Context, email, password string) (domain.Session, error) {
	id, ok := a.byEmail[email]
	if !ok || password != "secret" {
		return domain.Session{}, domain.ErrUnauthenticated
	}
	return domain.Session{AccessToken: "tok-" + id, Identity: domain.Identity{ID: id, Email: email}}, nil
}

func (a fakeAuth) Identify(_ context.Context, token string) (domain.Identity, error) {
	for email, id := range a.byEmail {
		if token == "tok-"+id {
			return domain.Identity{ID: id, Email: email}, nil
		}
	}
	return domain.Identity{}, domain.ErrUnauthenticated
}

func (a fakeAuth) SignOut(context.Context, string) error { return nil }

func ptr[T any](v T) *T { return &v }

package supabase

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/sabawaheed27/motofix-europe/internal/domain"
)

const (
	shopsPath = "/rest/v1/motorcycle_shops"
	usersPath = "/rest/v1/users"
)

// Repo implements the shop and user ports on top of the query surface.
type Repo struct{ c *Client }

func NewRepo(c *Client) *Repo { return &Repo{c: c} }

func (r *Repo) ListShops(ctx context.Context, q domain.ShopQuery) ([]domain.Shop, error) {
	v := url.Values{"select": {"*"}}
	if s := strings.TrimSpace(q.Country); s != "" {
		v.Set("country", ilike(s))
	}
	if s := strings.TrimSpace(q.City); s != "" {
		v.Set("city", ilike(s))
	}
	if q.CreatedBy != "" {
		v.Set("created_by", eq(q.CreatedBy))
	}
	if q.OrderBy == domain.OrderNewestFirst {
		v.Set("order", "created_at.desc")
	}
	var rows []shopRow
	if err := r.c.do(ctx, request{method: http.MethodGet, path: shopsPath, endpoint: "shops.select", query: v}, &rows); err != nil {
		return nil, err
	}
	out := make([]domain.Shop, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *Repo) GetShop(ctx context.Context, id string) (domain.Shop, error) {
	v := url.Values{"select": {"*"}, "id": {eq(id)}, "limit": {"1"}}
	var rows []shopRow
	if err := r.c.do(ctx, request{method: http.MethodGet, path: shopsPath, endpoint: "shops.get", query: v}, &rows); err != nil {
		return domain.Shop{}, err
	}
	if len(rows) == 0 {
		return domain.Shop{}, domain.ErrNotFound
	}
	return rows[0].toDomain(), nil
}

func (r *Repo) ListCountries(ctx context.Context) ([]string, error) {
	v := url.Values{"select": {"country"}, "order": {"country.asc"}}
	var rows []struct {
		Country *string `json:"country"`
	}
	if err := r.c.do(ctx, request{method: http.MethodGet, path: shopsPath, endpoint: "shops.countries", query: v}, &rows); err != nil {
		return nil, err
	}
	vals := make([]string, 0, len(rows))
	for _, row := range rows {
		vals = append(vals, deref(row.Country))
	}
	return domain.DistinctSorted(vals), nil
}

func (r *Repo) ListCities(ctx context.Context, country string) ([]string, error) {
	v := url.Values{"select": {"city"}, "country": {eq(country)}, "order": {"city.asc"}}
	var rows []struct {
		City *string `json:"city"`
	}
	if err := r.c.do(ctx, request{method: http.MethodGet, path: shopsPath, endpoint: "shops.cities", query: v}, &rows); err != nil {
		return nil, err
	}
	vals := make([]string, 0, len(rows))
	for _, row := range rows {
		vals = append(vals, deref(row.City))
	}
	return domain.DistinctSorted(vals), nil
}

func (r *Repo) CreateShop(ctx context.Context, s domain.NewShop) (domain.Shop, error) {
	var rows []shopRow
	err := r.c.do(ctx, request{
		method: http.MethodPost, path: shopsPath, endpoint: "shops.insert",
		body: s, prefer: "return=representation",
	}, &rows)
	if err != nil {
		return domain.Shop{}, err
	}
	if len(rows) == 0 {
		// RLS may hide the inserted row from the caller
		return domain.Shop{UUID: s.UUID, Name: s.Name, Country: s.Country, City: s.City, CreatedBy: s.CreatedBy}, nil
	}
	return rows[0].toDomain(), nil
}

func (r *Repo) UpdateShop(ctx context.Context, id string, in domain.ShopInput) error {
	var rows []shopRow
	err := r.c.do(ctx, request{
		method: http.MethodPatch, path: shopsPath, endpoint: "shops.update",
		query: url.Values{"id": {eq(id)}}, body: in, prefer: "return=representation",
	}, &rows)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repo) DeleteShop(ctx context.Context, id string) error {
	var rows []shopRow
	err := r.c.do(ctx, request{
		method: http.MethodDelete, path: shopsPath, endpoint: "shops.delete",
		query: url.Values{"id": {eq(id)}}, prefer: "return=representation",
	}, &rows)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpsertShopByPlaceID refreshes the shop already stored for the place, or
// inserts it. A refresh never touches uuid or created_by.
func (r *Repo) UpsertShopByPlaceID(ctx context.Context, s domain.NewShop) error {
	if s.PlaceID == nil || *s.PlaceID == "" {
		return domain.ErrInvalid
	}
	var found []struct {
		ID flexID `json:"id"`
	}
	v := url.Values{"select": {"id"}, "place_id": {eq(*s.PlaceID)}, "limit": {"1"}}
	if err := r.c.do(ctx, request{method: http.MethodGet, path: shopsPath, endpoint: "shops.by_place", query: v}, &found); err != nil {
		return err
	}
	if len(found) == 0 {
		return r.c.do(ctx, request{
			method: http.MethodPost, path: shopsPath, endpoint: "shops.insert",
			body: s, prefer: "return=minimal",
		}, nil)
	}
	return r.c.do(ctx, request{
		method: http.MethodPatch, path: shopsPath, endpoint: "shops.refresh",
		query:  url.Values{"id": {eq(string(found[0].ID))}},
		body:   placeRefresh{ShopInput: s.ShopInput, ScrapedAt: s.ScrapedAt},
		prefer: "return=minimal",
	}, nil)
}

func (r *Repo) GetUser(ctx context.Context, id string) (domain.User, error) {
	v := url.Values{"select": {"*"}, "id": {eq(id)}, "limit": {"1"}}
	var rows []userRow
	if err := r.c.do(ctx, request{method: http.MethodGet, path: usersPath, endpoint: "users.get", query: v}, &rows); err != nil {
		return domain.User{}, err
	}
	if len(rows) == 0 {
		return domain.User{}, domain.ErrNotFound
	}
	return rows[0].toDomain(), nil
}

func (r *Repo) ListUsers(ctx context.Context) ([]domain.User, error) {
	v := url.Values{"select": {"*"}, "order": {"created_at.desc"}}
	var rows []userRow
	if err := r.c.do(ctx, request{method: http.MethodGet, path: usersPath, endpoint: "users.select", query: v}, &rows); err != nil {
		return nil, err
	}
	out := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *Repo) SetAdmin(ctx context.Context, id string, admin bool) error {
	var rows []userRow
	err := r.c.do(ctx, request{
		method: http.MethodPatch, path: usersPath, endpoint: "users.update",
		query: url.Values{"id": {eq(id)}}, body: map[string]bool{"is_admin": admin},
		prefer: "return=representation",
	}, &rows)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return domain.ErrNotFound
	}
	return nil
}

package supabase_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sabawaheed27/motofix-europe/internal/adapters/supabase"
	"github.com/sabawaheed27/motofix-europe/internal/domain"
)

func newRepo(t *testing.T, h http.HandlerFunc, opts ...func(*supabase.Options)) *supabase.Repo {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	o := supabase.Options{URL: ts.URL, Key: "anon-key", RPS: 1000}
	for _, f := range opts {
		f(&o)
	}
	c, err := supabase.New(o)
	require.NoError(t, err)
	return supabase.NewRepo(c)
}

func TestListShops_FiltersAndHeaders(t *testing.T) {
	repo := newRepo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/motorcycle_shops", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "*", q.Get("select"))
		assert.Equal(t, "ilike.*Germany*", q.Get("country"))
		assert.Empty(t, q.Get("city"), "blank city must not filter")
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))

		_, _ = io.WriteString(w, `[
			{"id": 7, "uuid": "a-1", "name": "Moto Berlin", "country": "Germany", "city": "Berlin",
			 "latitude": 52.52, "longitude": 13.4, "rating": 4.55, "reviews_count": 12,
			 "business_type": "Repair Shop", "created_by": "u-1", "created_at": "2024-05-01T10:00:00.123456+00:00"},
			{"id": "b5d", "uuid": "a-2", "name": "Moto Hamburg", "country": "germany", "city": "Hamburg",
			 "created_at": "2024-05-01T10:00:00.123456"}
		]`)
	})

	ctx := supabase.WithAccessToken(context.Background(), "user-token")
	shops, err := repo.ListShops(ctx, domain.ShopQuery{Country: " Germany "})
	require.NoError(t, err)
	require.Len(t, shops, 2)

	assert.Equal(t, "7", shops[0].ID)
	assert.Equal(t, "b5d", shops[1].ID)
	require.NotNil(t, shops[0].BusinessType)
	assert.Equal(t, domain.RepairShop, *shops[0].BusinessType)
	require.NotNil(t, shops[0].CreatedAt)
	require.NotNil(t, shops[1].CreatedAt, "timestamp without zone must parse")
	assert.Nil(t, shops[1].Latitude)
}

func TestListCountries_DistinctSorted(t *testing.T) {
	repo := newRepo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "country", r.URL.Query().Get("select"))
		assert.Equal(t, "country.asc", r.URL.Query().Get("order"))
		_, _ = io.WriteString(w, `[{"country":"Austria"},{"country":null},{"country":"Germany"},{"country":"Austria"}]`)
	})
	got, err := repo.ListCountries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Austria", "Germany"}, got)
}

func TestListCities_ScopedToCountry(t *testing.T) {
	repo := newRepo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "eq.Germany", r.URL.Query().Get("country"))
		_, _ = io.WriteString(w, `[{"city":"Berlin"},{"city":"Berlin"},{"city":"Munich"}]`)
	})
	got, err := repo.ListCities(context.Background(), "Germany")
	require.NoError(t, err)
	assert.Equal(t, []string{"Berlin", "Munich"}, got)
}

func TestUpdateShop_PayloadAndNotFound(t *testing.T) {
	var calls int32
	repo := newRepo(t, func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "eq.42", r.URL.Query().Get("id"))
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		for _, k := range []string{"id", "uuid", "created_by", "created_at", "updated_at", "scraped_at"} {
			_, present := body[k]
			assert.False(t, present, "update payload must not carry %s", k)
		}
		v, present := body["address"]
		assert.True(t, present)
		assert.Nil(t, v, "blank address must be sent as null")

		if n == 1 {
			_, _ = io.WriteString(w, `[{"id":42}]`)
			return
		}
		_, _ = io.WriteString(w, `[]`)
	})

	in := domain.ShopInput{Name: "A", Country: "Italy", City: "Rome"}
	require.NoError(t, repo.UpdateShop(context.Background(), "42", in))
	err := repo.UpdateShop(context.Background(), "42", in)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteShop_ExactlyOne(t *testing.T) {
	repo := newRepo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		if r.URL.Query().Get("id") == "eq.1" {
			_, _ = io.WriteString(w, `[{"id":1}]`)
			return
		}
		_, _ = io.WriteString(w, `[]`)
	})
	require.NoError(t, repo.DeleteShop(context.Background(), "1"))
	assert.ErrorIs(t, repo.DeleteShop(context.Background(), "2"), domain.ErrNotFound)
}

func TestErrors_MapToDomain(t *testing.T) {
	repo := newRepo(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"message":"new row violates row-level security policy","code":"42501"}`)
	})
	_, err := repo.CreateShop(context.Background(), domain.NewShop{ShopInput: domain.ShopInput{Name: "x", Country: "y", City: "z"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	var apiErr *supabase.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "42501", apiErr.Code)
	assert.Contains(t, apiErr.Message, "row-level security")
}

func TestReads_NotRetriedByDefault(t *testing.T) {
	var hits int32
	repo := newRepo(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	_, err := repo.ListShops(context.Background(), domain.ShopQuery{})
	require.Error(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestReads_RetriedWhenConfigured(t *testing.T) {
	var hits int32
	repo := newRepo(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `[]`)
	}, func(o *supabase.Options) { o.ReadRetries = 2 })

	shops, err := repo.ListShops(context.Background(), domain.ShopQuery{})
	require.NoError(t, err)
	assert.Empty(t, shops)
	assert.EqualValues(t, 2, atomic.LoadInt32(&hits))
}

func TestWrites_NeverRetried(t *testing.T) {
	var hits int32
	repo := newRepo(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}, func(o *supabase.Options) { o.ReadRetries = 3 })

	err := repo.DeleteShop(context.Background(), "1")
	require.Error(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestElevatedClient_IgnoresUserToken(t *testing.T) {
	repo := newRepo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer service-key", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `[{"id":"u1","is_admin":null}]`)
	}, func(o *supabase.Options) { o.Key = "service-key"; o.Elevated = true })

	ctx := supabase.WithAccessToken(context.Background(), "user-token")
	users, err := repo.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.False(t, users[0].Admin())
}

func TestUpsertByPlaceID_KnownPlaceKeepsIdentityAndCreator(t *testing.T) {
	var patched map[string]any
	repo := newRepo(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			assert.Equal(t, "eq.pl-1", r.URL.Query().Get("place_id"))
			_, _ = io.WriteString(w, `[{"id":9}]`)
		case http.MethodPatch:
			assert.Equal(t, "eq.9", r.URL.Query().Get("id"))
			assert.NotContains(t, r.Header.Get("Prefer"), "merge-duplicates")
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&patched))
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected %s", r.Method)
		}
	})

	scraped := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	ns := domain.NewShop{
		ShopInput: domain.ShopInput{Name: "Moto Lyon", Country: "France", City: "Lyon", PlaceID: ptr("pl-1")},
		UUID:      "fresh-uuid",
		ScrapedAt: &scraped,
	}
	require.NoError(t, repo.UpsertShopByPlaceID(context.Background(), ns))

	require.NotNil(t, patched)
	for _, k := range []string{"id", "uuid", "created_by", "created_at"} {
		_, present := patched[k]
		assert.False(t, present, "refresh must not carry %s", k)
	}
	assert.Equal(t, "Moto Lyon", patched["name"])
	assert.Equal(t, "2025-03-01T12:00:00Z", patched["scraped_at"])
}

func TestUpsertByPlaceID_NewPlaceIsInserted(t *testing.T) {
	var inserted map[string]any
	repo := newRepo(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_, _ = io.WriteString(w, `[]`)
		case http.MethodPost:
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&inserted))
			w.WriteHeader(http.StatusCreated)
		default:
			t.Errorf("unexpected %s", r.Method)
		}
	})

	ns := domain.NewShop{
		ShopInput: domain.ShopInput{Name: "Moto Lyon", Country: "France", City: "Lyon", PlaceID: ptr("pl-2")},
		UUID:      "fresh-uuid",
	}
	require.NoError(t, repo.UpsertShopByPlaceID(context.Background(), ns))
	assert.Equal(t, "fresh-uuid", inserted["uuid"])
	assert.Equal(t, "pl-2", inserted["place_id"])
}

func TestListShops_FilterTextIsLiteral(t *testing.T) {
	repo := newRepo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, `ilike.*100\%_\_x*`, r.URL.Query().Get("city"))
		_, _ = io.WriteString(w, `[]`)
	})
	_, err := repo.ListShops(context.Background(), domain.ShopQuery{City: "100%*_x"})
	require.NoError(t, err)
}

func ptr[T any](v T) *T { return &v }

package app

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sabawaheed27/motofix-europe/internal/domain"
)

const (
	keyCountries    = "lookup:countries"
	keyCitiesPrefix = "lookup:cities:"
)

type SearchQuery struct {
	Country string
	City    string
}

// SearchService answers the public search form: the shop list plus the two
// selector lookups. Lookups are cached when a cache is configured.
type SearchService struct {
	repo     domain.ShopRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewSearchService(r domain.ShopRepository, c domain.Cache, ttl time.Duration) *SearchService {
	return &SearchService{repo: r, cache: c, cacheTTL: ttl}
}

// Search returns every shop whose country and city contain the given
// substrings, ignoring case. Blank filters match everything.
func (s *SearchService) Search(ctx context.Context, q SearchQuery) ([]domain.Shop, error) {
	return s.repo.ListShops(ctx, domain.ShopQuery{
		Country: strings.TrimSpace(q.Country),
		City:    strings.TrimSpace(q.City),
	})
}

// Countries lists distinct countries in ascending order. Backend errors are
// logged and yield an empty list.
func (s *SearchService) Countries(ctx context.Context) []string {
	var out []string
	if s.cached(ctx, keyCountries, &out) {
		return out
	}
	cs, err := s.repo.ListCountries(ctx)
	if err != nil {
		log.Error().Err(err).Msg("load countries")
		return []string{}
	}
	out = domain.DistinctSorted(cs)
	s.store(ctx, keyCountries, out)
	return out
}

// Cities lists distinct cities of shops located exactly in country. A blank
// country yields an empty list without touching the backend.
func (s *SearchService) Cities(ctx context.Context, country string) []string {
	if strings.TrimSpace(country) == "" {
		return []string{}
	}
	key := keyCitiesPrefix + country
	var out []string
	if s.cached(ctx, key, &out) {
		return out
	}
	cs, err := s.repo.ListCities(ctx, country)
	if err != nil {
		log.Error().Err(err).Str("country", country).Msg("load cities")
		return []string{}
	}
	out = domain.DistinctSorted(cs)
	s.store(ctx, key, out)
	return out
}

func (s *SearchService) cached(ctx context.Context, key string, dst *[]string) bool {
	if s.cache == nil {
		return false
	}
	ok, err := s.cache.Get(ctx, key, dst)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache get")
		return false
	}
	return ok
}

func (s *SearchService) store(ctx context.Context, key string, v []string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, v, s.cacheTTL); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache set")
	}
}

func invalidateLookups(ctx context.Context, c domain.Cache, countries ...string) {
	if c == nil {
		return
	}
	keys := []string{keyCountries}
	for _, country := range countries {
		if country != "" {
			keys = append(keys, keyCitiesPrefix+country)
		}
	}
	if err := c.Del(ctx, keys...); err != nil {
		log.Warn().Err(err).Strs("keys", keys).Msg("cache invalidate")
	}
}

// CitiesFor derives the city options for a selected country from an already
// loaded shop collection. Countries compare case-insensitively, like search.
func CitiesFor(country string, shops []domain.Shop) []string {
	country = strings.TrimSpace(country)
	if country == "" {
		return []string{}
	}
	var cs []string
	for _, s := range shops {
		if strings.EqualFold(s.Country, country) {
			cs = append(cs, s.City)
		}
	}
	return domain.DistinctSorted(cs)
}

// SearchForm is the state of the country and city selectors.
type SearchForm struct {
	Country   string
	City      string
	Countries []string
	Cities    []string
}

// NewSearchForm loads the country options and, when a country is already
// chosen, its cities.
func (s *SearchService) NewSearchForm(ctx context.Context, country, city string) SearchForm {
	f := SearchForm{Countries: s.Countries(ctx)}
	f.SelectCountry(ctx, s, country)
	f.SelectCity(city)
	return f
}

// SelectCountry switches the country, always resetting the chosen city. The
// city list is reloaded for the new country, or cleared for none.
func (f *SearchForm) SelectCountry(ctx context.Context, s *SearchService, country string) {
	f.Country = strings.TrimSpace(country)
	f.City = ""
	if f.Country == "" {
		f.Cities = []string{}
		return
	}
	f.Cities = s.Cities(ctx, f.Country)
}

func (f *SearchForm) SelectCity(city string) { f.City = strings.TrimSpace(city) }

func (f SearchForm) Query() SearchQuery { return SearchQuery{Country: f.Country, City: f.City} }

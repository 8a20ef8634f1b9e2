package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sabawaheed27/motofix-europe/internal/adapters/observability"
	"github.com/sabawaheed27/motofix-europe/internal/domain"
)

// ErrIncompletePlace marks a place that lacks a name, country or city.
var ErrIncompletePlace = errors.New("place lacks name, country or city")

type IngestionService struct {
	places domain.PlacesClient
	repo   domain.ShopRepository
	cache  domain.Cache
	now    func() time.Time
}

func NewIngestionService(p domain.PlacesClient, r domain.ShopRepository, cache domain.Cache) *IngestionService {
	return &IngestionService{places: p, repo: r, cache: cache, now: time.Now}
}

// IngestPlace fetches one place and upserts it as a shop keyed by place_id.
// A place the API does not know is a logged miss, not a failure.
func (s *IngestionService) IngestPlace(ctx context.Context, placeID string) error {
	p, err := s.places.GetPlaceDetails(ctx, placeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Warn().Str("place_id", placeID).Msg("place not found, skipped")
			return nil
		}
		return fmt.Errorf("place details %s: %w", placeID, err)
	}

	ns, ok := mapPlace(p, s.now())
	if !ok {
		return fmt.Errorf("%s: %w", placeID, ErrIncompletePlace)
	}
	if ns.PlaceID == nil {
		ns.PlaceID = &placeID
	}
	ns.UUID = uuid.NewString()

	err = s.repo.UpsertShopByPlaceID(ctx, ns)
	observability.ObserveMutation("upsert", err)
	if err != nil {
		return fmt.Errorf("upsert place %s: %w", placeID, err)
	}
	invalidateLookups(ctx, s.cache, ns.Country)
	return nil
}

// Seed inserts shops from already typed input, skipping ones that miss a
// required field. It returns how many were inserted.
func (s *IngestionService) Seed(ctx context.Context, creator *string, shops []domain.ShopInput) (int, error) {
	n := 0
	countries := make([]string, 0, len(shops))
	for i, in := range shops {
		if in.Name == "" || in.Country == "" || in.City == "" {
			log.Warn().Int("index", i).Msg("seed entry lacks name, country or city, skipped")
			continue
		}
		_, err := s.repo.CreateShop(ctx, domain.NewShop{ShopInput: in, UUID: uuid.NewString(), CreatedBy: creator})
		observability.ObserveMutation("create", err)
		if err != nil {
			return n, fmt.Errorf("seed %q: %w", in.Name, err)
		}
		countries = append(countries, in.Country)
		n++
	}
	if n > 0 {
		invalidateLookups(ctx, s.cache, countries...)
	}
	return n, nil
}

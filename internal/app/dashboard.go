package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/sabawaheed27/motofix-europe/internal/domain"
)

type DashboardService struct {
	repo      domain.ShopRepository
	cache     domain.Cache
	ownerOnly bool
}

func NewDashboardService(r domain.ShopRepository, c domain.Cache, ownerOnly bool) *DashboardService {
	return &DashboardService{repo: r, cache: c, ownerOnly: ownerOnly}
}

// Load returns the shops shown on the dashboard: every shop, or with
// ownerOnly set, the ones created by who. Backend errors are logged and
// yield an empty list.
func (s *DashboardService) Load(ctx context.Context, who *domain.Identity) ([]domain.Shop, error) {
	if who == nil {
		return nil, domain.ErrUnauthenticated
	}
	q := domain.ShopQuery{}
	if s.ownerOnly {
		q.CreatedBy = who.ID
	}
	shops, err := s.repo.ListShops(ctx, q)
	if err != nil {
		log.Error().Err(err).Str("user", who.ID).Msg("load dashboard shops")
		return []domain.Shop{}, nil
	}
	return shops, nil
}

// Shop returns a shop for the edit form.
func (s *DashboardService) Shop(ctx context.Context, who *domain.Identity, id string) (domain.Shop, error) {
	if who == nil {
		return domain.Shop{}, domain.ErrUnauthenticated
	}
	shop, err := s.repo.GetShop(ctx, id)
	if err != nil {
		return domain.Shop{}, err
	}
	if s.ownerOnly && (shop.CreatedBy == nil || *shop.CreatedBy != who.ID) {
		return domain.Shop{}, domain.ErrForbidden
	}
	return shop, nil
}

// Editor opens the edit form for shop, or for a new shop when shop is nil.
func (s *DashboardService) Editor(shop *domain.Shop, onSaved func(domain.Shop)) *ShopEditor {
	return NewShopEditor(s.repo, s.cache, shop, onSaved)
}

package app

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/sabawaheed27/motofix-europe/internal/adapters/observability"
	"github.com/sabawaheed27/motofix-europe/internal/domain"
)

var ErrConfirmationRequired = errors.New("destructive action requires confirmation")

type AdminTab string

const (
	TabOverview AdminTab = "overview"
	TabShops    AdminTab = "shops"
	TabUsers    AdminTab = "users"
)

// ParseTab falls back to the overview for anything unknown.
func ParseTab(s string) AdminTab {
	switch AdminTab(s) {
	case TabShops, TabUsers:
		return AdminTab(s)
	default:
		return TabOverview
	}
}

type CountryCount struct {
	Country string
	Count   int
}

type Stats struct {
	TotalShops     int
	TotalUsers     int
	ShopsByCountry []CountryCount
}

// AdminData is everything the admin page shows.
type AdminData struct {
	Shops []domain.Shop
	Users []domain.User
	Stats Stats
}

type AdminService struct {
	shops domain.ShopRepository
	users domain.UserRepository
	cache domain.Cache
}

func NewAdminService(s domain.ShopRepository, u domain.UserRepository, c domain.Cache) *AdminService {
	return &AdminService{shops: s, users: u, cache: c}
}

// Authorize fails with ErrUnauthenticated without an identity and with
// ErrForbidden unless the users row says is_admin = true. A missing row or a
// read error counts as not admin.
func (s *AdminService) Authorize(ctx context.Context, who *domain.Identity) error {
	if who == nil {
		return domain.ErrUnauthenticated
	}
	if !IsAdmin(ctx, s.users, who.ID) {
		return domain.ErrForbidden
	}
	return nil
}

// IsAdmin reads the effective admin flag of a user.
func IsAdmin(ctx context.Context, users domain.UserRepository, id string) bool {
	u, err := users.GetUser(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			log.Warn().Err(err).Str("user", id).Msg("admin check")
		}
		return false
	}
	return u.Admin()
}

// Load fetches shops and users concurrently, both newest first, and computes
// the statistics. A failed half is logged and shown empty.
func (s *AdminService) Load(ctx context.Context) AdminData {
	var d AdminData
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		shops, err := s.shops.ListShops(gctx, domain.ShopQuery{OrderBy: domain.OrderNewestFirst})
		if err != nil {
			log.Error().Err(err).Msg("admin: load shops")
			return nil
		}
		d.Shops = shops
		return nil
	})
	g.Go(func() error {
		users, err := s.users.ListUsers(gctx)
		if err != nil {
			log.Error().Err(err).Msg("admin: load users")
			return nil
		}
		d.Users = users
		return nil
	})
	_ = g.Wait()
	d.Stats = ComputeStats(d.Shops, d.Users)
	return d
}

// ComputeStats counts shops per country in order of first appearance, then
// sorts by count descending keeping that order among ties.
func ComputeStats(shops []domain.Shop, users []domain.User) Stats {
	var byCountry []CountryCount
	for _, sh := range shops {
		found := false
		for i := range byCountry {
			if byCountry[i].Country == sh.Country {
				byCountry[i].Count++
				found = true
				break
			}
		}
		if !found {
			byCountry = append(byCountry, CountryCount{Country: sh.Country, Count: 1})
		}
	}
	sort.SliceStable(byCountry, func(i, j int) bool { return byCountry[i].Count > byCountry[j].Count })
	return Stats{TotalShops: len(shops), TotalUsers: len(users), ShopsByCountry: byCountry}
}

// DeleteShop removes exactly one shop. Without confirmation nothing happens.
func (s *AdminService) DeleteShop(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}
	shop, gerr := s.shops.GetShop(ctx, id)
	err := s.shops.DeleteShop(ctx, id)
	observability.ObserveMutation("delete", err)
	if err != nil {
		return fmt.Errorf("delete shop %s: %w", id, err)
	}
	if gerr == nil {
		invalidateLookups(ctx, s.cache, shop.Country)
	} else {
		invalidateLookups(ctx, s.cache)
	}
	log.Info().Str("shop", id).Msg("shop deleted")
	return nil
}

// Shop returns the shop named on the delete confirmation page.
func (s *AdminService) Shop(ctx context.Context, id string) (domain.Shop, error) {
	return s.shops.GetShop(ctx, id)
}

// ToggleAdmin flips the admin flag of a user and returns the new value.
func (s *AdminService) ToggleAdmin(ctx context.Context, userID string) (bool, error) {
	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("read user %s: %w", userID, err)
	}
	next := !u.Admin()
	err = s.users.SetAdmin(ctx, userID, next)
	observability.ObserveMutation("toggle_admin", err)
	if err != nil {
		return false, fmt.Errorf("set admin %s: %w", userID, err)
	}
	log.Info().Str("user", userID).Bool("is_admin", next).Msg("admin flag toggled")
	return next, nil
}

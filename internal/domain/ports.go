package domain

import (
	"context"
	"time"
)

type ShopRepository interface {
	// Read paths
	ListShops(ctx context.Context, q ShopQuery) ([]Shop, error)
	GetShop(ctx context.Context, id string) (Shop, error)
	ListCountries(ctx context.Context) ([]string, error)
	ListCities(ctx context.Context, country string) ([]string, error)

	// Write paths
	CreateShop(ctx context.Context, s NewShop) (Shop, error)
	UpdateShop(ctx context.Context, id string, in ShopInput) error
	DeleteShop(ctx context.Context, id string) error
	UpsertShopByPlaceID(ctx context.Context, s NewShop) error
}

type UserRepository interface {
	GetUser(ctx context.Context, id string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	SetAdmin(ctx context.Context, id string, admin bool) error
}

// Credentials is implemented by backends that keep password hashes locally.
type Credentials interface {
	PasswordHash(ctx context.Context, email string) (userID string, hash []byte, err error)
	CreateUser(ctx context.Context, u User, hash []byte) (User, error)
}

type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (Session, error)
	Identify(ctx context.Context, token string) (Identity, error)
	SignOut(ctx context.Context, token string) error
}

type PlacesClient interface {
	GetPlaceDetails(ctx context.Context, placeID string) (map[string]any, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

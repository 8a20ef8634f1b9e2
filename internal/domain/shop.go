package domain

import (
	"sort"
	"strings"
	"time"
)

type BusinessType string

const (
	RepairShop    BusinessType = "Repair Shop"
	Dealership    BusinessType = "Dealership"
	PartsSupplier BusinessType = "Parts Supplier"
	CustomShop    BusinessType = "Custom Shop"
)

// BusinessTypes lists the accepted categories in display order.
var BusinessTypes = []BusinessType{RepairShop, Dealership, PartsSupplier, CustomShop}

// ParseBusinessType maps free text onto the enumeration. Matching ignores case
// and surrounding space; anything else reports false.
func ParseBusinessType(s string) (BusinessType, bool) {
	s = strings.TrimSpace(s)
	for _, bt := range BusinessTypes {
		if strings.EqualFold(s, string(bt)) {
			return bt, true
		}
	}
	return "", false
}

type Shop struct {
	ID   string `json:"id"`
	UUID string `json:"uuid"`

	Name         string        `json:"name"`
	Country      string        `json:"country"`
	City         string        `json:"city"`
	Address      *string       `json:"address"`
	Latitude     *float64      `json:"latitude"`
	Longitude    *float64      `json:"longitude"`
	Phone        *string       `json:"phone"`
	Website      *string       `json:"website"`
	BusinessType *BusinessType `json:"business_type"`
	Hours        *string       `json:"hours"`
	PlaceID      *string       `json:"place_id"`
	Rating       *float64      `json:"rating"`
	ReviewsCount *int          `json:"reviews_count"`

	// backend managed
	CreatedBy *string    `json:"created_by"`
	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
	ScrapedAt *time.Time `json:"scraped_at"`
}

// Coords returns the shop position when both coordinates are present.
func (s Shop) Coords() (Coords, bool) {
	if s.Latitude == nil || s.Longitude == nil {
		return Coords{}, false
	}
	return Coords{Lat: *s.Latitude, Lon: *s.Longitude}, true
}

// ShopInput is the payload of an update. Identity, creator and timestamps are
// never part of it.
type ShopInput struct {
	Name         string        `json:"name"`
	Country      string        `json:"country"`
	City         string        `json:"city"`
	Address      *string       `json:"address"`
	Latitude     *float64      `json:"latitude"`
	Longitude    *float64      `json:"longitude"`
	Phone        *string       `json:"phone"`
	Website      *string       `json:"website"`
	BusinessType *BusinessType `json:"business_type"`
	Hours        *string       `json:"hours"`
	PlaceID      *string       `json:"place_id"`
	Rating       *float64      `json:"rating"`
	ReviewsCount *int          `json:"reviews_count"`
}

// NewShop is an insert payload: the writable fields plus the creator.
type NewShop struct {
	ShopInput
	UUID      string     `json:"uuid,omitempty"`
	CreatedBy *string    `json:"created_by"`
	ScrapedAt *time.Time `json:"scraped_at,omitempty"`
}

type Coords struct{ Lat, Lon float64 }

type ShopQuery struct {
	Country   string // case-insensitive substring, blank matches all
	City      string // case-insensitive substring, blank matches all
	CreatedBy string // exact, blank matches all
	OrderBy   ShopOrder
}

type ShopOrder int

const (
	OrderNone ShopOrder = iota
	OrderNewestFirst
)

// DistinctSorted drops blanks and duplicates and sorts ascending.
func DistinctSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

package supabase

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/sabawaheed27/motofix-europe/internal/domain"
)

// flexID accepts bigint or uuid primary keys.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

// pgTime accepts timestamptz and timestamp-without-zone renderings.
type pgTime struct{ t *time.Time }

var pgLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999-07",
	"2006-01-02 15:04:05.999999",
}

func (p *pgTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil || strings.TrimSpace(s) == "" {
		p.t = nil
		return nil
	}
	for _, l := range pgLayouts {
		if t, err := time.Parse(l, s); err == nil {
			t = t.UTC()
			p.t = &t
			return nil
		}
	}
	p.t = nil
	return nil
}

type shopRow struct {
	ID           flexID   `json:"id"`
	UUID         flexID   `json:"uuid"`
	Name         *string  `json:"name"`
	Country      *string  `json:"country"`
	City         *string  `json:"city"`
	Address      *string  `json:"address"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	Phone        *string  `json:"phone"`
	Website      *string  `json:"website"`
	BusinessType *string  `json:"business_type"`
	Hours        *string  `json:"hours"`
	PlaceID      *string  `json:"place_id"`
	Rating       *float64 `json:"rating"`
	ReviewsCount *int     `json:"reviews_count"`
	CreatedBy    *flexID  `json:"created_by"`
	CreatedAt    pgTime   `json:"created_at"`
	UpdatedAt    pgTime   `json:"updated_at"`
	ScrapedAt    pgTime   `json:"scraped_at"`
}

func (r shopRow) toDomain() domain.Shop {
	s := domain.Shop{
		ID:           string(r.ID),
		UUID:         string(r.UUID),
		Name:         deref(r.Name),
		Country:      deref(r.Country),
		City:         deref(r.City),
		Address:      r.Address,
		Latitude:     r.Latitude,
		Longitude:    r.Longitude,
		Phone:        r.Phone,
		Website:      r.Website,
		Hours:        r.Hours,
		PlaceID:      r.PlaceID,
		Rating:       r.Rating,
		ReviewsCount: r.ReviewsCount,
		CreatedAt:    r.CreatedAt.t,
		UpdatedAt:    r.UpdatedAt.t,
		ScrapedAt:    r.ScrapedAt.t,
	}
	if r.BusinessType != nil && *r.BusinessType != "" {
		bt := domain.BusinessType(*r.BusinessType)
		s.BusinessType = &bt
	}
	if r.CreatedBy != nil && *r.CreatedBy != "" {
		cb := string(*r.CreatedBy)
		s.CreatedBy = &cb
	}
	return s
}

// placeRefresh is the update sent when a known place is ingested again.
type placeRefresh struct {
	domain.ShopInput
	ScrapedAt *time.Time `json:"scraped_at,omitempty"`
}

type userRow struct {
	ID        flexID  `json:"id"`
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	IsAdmin   *bool   `json:"is_admin"`
	CreatedAt pgTime  `json:"created_at"`
}

func (r userRow) toDomain() domain.User {
	return domain.User{
		ID:        string(r.ID),
		Username:  r.Username,
		Email:     r.Email,
		IsAdmin:   r.IsAdmin,
		CreatedAt: r.CreatedAt.t,
	}
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// eq and ilike render PostgREST filter operands.
func eq(v string) string { return "eq." + v }

// The backend turns every * into %, so a literal * can only be matched as a
// single-character wildcard.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`, `*`, `_`)

func ilike(substr string) string { return "ilike.*" + likeEscaper.Replace(substr) + "*" }


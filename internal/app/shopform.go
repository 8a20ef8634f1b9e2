package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sabawaheed27/motofix-europe/internal/adapters/observability"
	"github.com/sabawaheed27/motofix-europe/internal/domain"
)

// ShopForm mirrors the edit form inputs; every value is raw text.
type ShopForm struct {
	Name         string
	Country      string
	City         string
	Address      string
	Phone        string
	Website      string
	BusinessType string
	Hours        string
	Rating       string
	ReviewsCount string
	Latitude     string
	Longitude    string
	PlaceID      string
}

// FormFromShop pre-fills the form for editing. Absent values become empty
// strings.
func FormFromShop(s domain.Shop) ShopForm {
	f := ShopForm{
		Name:    s.Name,
		Country: s.Country,
		City:    s.City,
		Address: deref(s.Address),
		Phone:   deref(s.Phone),
		Website: deref(s.Website),
		Hours:   deref(s.Hours),
		PlaceID: deref(s.PlaceID),
	}
	if s.BusinessType != nil {
		f.BusinessType = string(*s.BusinessType)
	}
	if s.Rating != nil {
		f.Rating = strconv.FormatFloat(*s.Rating, 'f', -1, 64)
	}
	if s.ReviewsCount != nil {
		f.ReviewsCount = strconv.Itoa(*s.ReviewsCount)
	}
	if s.Latitude != nil {
		f.Latitude = strconv.FormatFloat(*s.Latitude, 'f', -1, 64)
	}
	if s.Longitude != nil {
		f.Longitude = strconv.FormatFloat(*s.Longitude, 'f', -1, 64)
	}
	return f
}

// FieldErrors maps form field names to messages.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return "invalid form: " + strings.Join(parts, ", ")
}

func (e FieldErrors) Unwrap() error { return domain.ErrInvalid }

// Validate checks the required fields.
func (f ShopForm) Validate() error {
	fe := FieldErrors{}
	if strings.TrimSpace(f.Name) == "" {
		fe["name"] = "Shop name is required"
	}
	if strings.TrimSpace(f.Country) == "" {
		fe["country"] = "Country is required"
	}
	if strings.TrimSpace(f.City) == "" {
		fe["city"] = "City is required"
	}
	if len(fe) > 0 {
		return fe
	}
	return nil
}

// Input coerces the text fields into a typed payload. Blank optional text
// becomes null; so does numeric text that does not parse, and an unknown
// business type.
func (f ShopForm) Input() domain.ShopInput {
	in := domain.ShopInput{
		Name:         strings.TrimSpace(f.Name),
		Country:      strings.TrimSpace(f.Country),
		City:         strings.TrimSpace(f.City),
		Address:      optString(f.Address),
		Phone:        optString(f.Phone),
		Website:      optString(f.Website),
		Hours:        optString(f.Hours),
		PlaceID:      optString(f.PlaceID),
		Rating:       optFloat(f.Rating),
		ReviewsCount: optInt(f.ReviewsCount),
		Latitude:     optFloat(f.Latitude),
		Longitude:    optFloat(f.Longitude),
	}
	if bt, ok := domain.ParseBusinessType(f.BusinessType); ok {
		in.BusinessType = &bt
	}
	return in
}

func optString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func optFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// optInt accepts the integral prefix of a decimal, so "12.7" is 12.
func optInt(s string) *int {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	if s == "" || s == "-" || s == "+" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

type EditorState int

const (
	EditorIdle EditorState = iota
	EditorSubmitting
	EditorSaved
	EditorFailed
)

func (s EditorState) String() string {
	switch s {
	case EditorSubmitting:
		return "submitting"
	case EditorSaved:
		return "saved"
	case EditorFailed:
		return "failed"
	default:
		return "idle"
	}
}

var ErrBusy = errors.New("a save is already in progress")

// ShopEditor saves one shop, either a new one or the existing shop it was
// opened for.
type ShopEditor struct {
	repo    domain.ShopRepository
	cache   domain.Cache
	editing *domain.Shop
	onSaved func(domain.Shop)

	mu    sync.Mutex
	state EditorState
	msg   string
}

// NewShopEditor opens the editor. A nil shop means a new listing.
func NewShopEditor(r domain.ShopRepository, c domain.Cache, shop *domain.Shop, onSaved func(domain.Shop)) *ShopEditor {
	return &ShopEditor{repo: r, cache: c, editing: shop, onSaved: onSaved}
}

func (e *ShopEditor) Editing() bool { return e.editing != nil }

// State returns the current state and, after a failure, its message.
func (e *ShopEditor) State() (EditorState, string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state, e.msg
}

// Submit validates, authorizes, coerces and persists the form. Validation
// and authorization failures never reach the backend.
func (e *ShopEditor) Submit(ctx context.Context, who *domain.Identity, f ShopForm) (domain.Shop, error) {
	e.mu.Lock()
	if e.state == EditorSubmitting {
		e.mu.Unlock()
		return domain.Shop{}, ErrBusy
	}
	e.state, e.msg = EditorSubmitting, ""
	e.mu.Unlock()

	saved, err := e.save(ctx, who, f)

	e.mu.Lock()
	if err != nil {
		e.state, e.msg = EditorFailed, failureMessage(err)
	} else {
		e.state = EditorSaved
	}
	e.mu.Unlock()

	if err != nil {
		return domain.Shop{}, err
	}
	if e.onSaved != nil {
		e.onSaved(saved)
	}
	return saved, nil
}

func (e *ShopEditor) save(ctx context.Context, who *domain.Identity, f ShopForm) (domain.Shop, error) {
	if err := f.Validate(); err != nil {
		return domain.Shop{}, err
	}
	if who == nil || who.ID == "" {
		return domain.Shop{}, domain.ErrUnauthenticated
	}
	in := f.Input()

	if e.editing != nil {
		err := e.repo.UpdateShop(ctx, e.editing.ID, in)
		observability.ObserveMutation("update", err)
		if err != nil {
			return domain.Shop{}, fmt.Errorf("update shop %s: %w", e.editing.ID, err)
		}
		invalidateLookups(ctx, e.cache, e.editing.Country, in.Country)
		out := *e.editing
		applyInput(&out, in)
		log.Info().Str("shop", out.ID).Str("user", who.ID).Msg("shop updated")
		return out, nil
	}

	creator := who.ID
	out, err := e.repo.CreateShop(ctx, domain.NewShop{
		ShopInput: in,
		UUID:      uuid.NewString(),
		CreatedBy: &creator,
	})
	observability.ObserveMutation("create", err)
	if err != nil {
		return domain.Shop{}, fmt.Errorf("create shop: %w", err)
	}
	invalidateLookups(ctx, e.cache, in.Country)
	log.Info().Str("shop", out.ID).Str("user", who.ID).Msg("shop created")
	return out, nil
}

func applyInput(s *domain.Shop, in domain.ShopInput) {
	s.Name, s.Country, s.City = in.Name, in.Country, in.City
	s.Address, s.Latitude, s.Longitude = in.Address, in.Latitude, in.Longitude
	s.Phone, s.Website, s.BusinessType = in.Phone, in.Website, in.BusinessType
	s.Hours, s.PlaceID = in.Hours, in.PlaceID
	s.Rating, s.ReviewsCount = in.Rating, in.ReviewsCount
}

func failureMessage(err error) string {
	var fe FieldErrors
	switch {
	case errors.As(err, &fe):
		return "Please fill in the required fields"
	case errors.Is(err, domain.ErrUnauthenticated):
		return "Not authenticated"
	case errors.Is(err, domain.ErrForbidden):
		return "You are not allowed to change this shop"
	default:
		return err.Error()
	}
}

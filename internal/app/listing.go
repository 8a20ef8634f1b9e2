package app

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/sabawaheed27/motofix-europe/internal/domain"
)

type ListingState int

const (
	ListingLoading ListingState = iota
	ListingEmpty
	ListingResults
)

const (
	skeletonBlocks = 3
	emptyTitle     = "No repair shops found"
	emptyHint      = "Try adjusting your search filters"
)

// ListingView is the render model of the shop list.
type ListingView struct {
	State     ListingState
	Skeletons int
	Title     string
	Hint      string
	Header    string
	Cards     []ShopCard
}

// ShopCard holds the display strings of one shop. Empty strings mean the
// element is omitted.
type ShopCard struct {
	UUID         string
	Name         string
	Location     string
	Address      string
	Rating       string
	Reviews      string
	Phone        string
	CallHref     string
	Website      string
	Hours        string
	BusinessType string
	SelectHref   string
	Selected     bool
}

// BuildListing renders shops into a ListingView. While loading it shows
// skeletons only. selected marks the card of that uuid.
func BuildListing(shops []domain.Shop, loading bool, selected string) ListingView {
	if loading {
		return ListingView{State: ListingLoading, Skeletons: skeletonBlocks}
	}
	if len(shops) == 0 {
		return ListingView{State: ListingEmpty, Title: emptyTitle, Hint: emptyHint}
	}
	v := ListingView{
		State:  ListingResults,
		Header: FoundHeader(len(shops)),
		Cards:  make([]ShopCard, 0, len(shops)),
	}
	for _, s := range shops {
		c := CardFor(s)
		c.Selected = selected != "" && s.UUID == selected
		v.Cards = append(v.Cards, c)
	}
	return v
}

// FoundHeader pluralizes the result count.
func FoundHeader(n int) string {
	if n == 1 {
		return "Found 1 shop"
	}
	return fmt.Sprintf("Found %d shops", n)
}

func CardFor(s domain.Shop) ShopCard {
	c := ShopCard{
		UUID:       s.UUID,
		Name:       s.Name,
		Location:   s.City + ", " + s.Country,
		Address:    deref(s.Address),
		Hours:      deref(s.Hours),
		Website:    deref(s.Website),
		SelectHref: "?selected=" + url.QueryEscape(s.UUID),
	}
	if s.Rating != nil {
		c.Rating = FormatRating(*s.Rating)
		if s.ReviewsCount != nil && *s.ReviewsCount > 0 {
			c.Reviews = "(" + strconv.Itoa(*s.ReviewsCount) + " reviews)"
		}
	}
	if p := deref(s.Phone); p != "" {
		c.Phone = p
		c.CallHref = "tel:" + p
	}
	if s.BusinessType != nil {
		c.BusinessType = string(*s.BusinessType)
	}
	return c
}

// FormatRating renders a rating with exactly one decimal.
func FormatRating(r float64) string { return strconv.FormatFloat(r, 'f', 1, 64) }

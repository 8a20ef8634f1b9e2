package app

import (
	"strconv"
	"strings"
	"time"

	"github.com/sabawaheed27/motofix-europe/internal/domain"
)

/********** alias registries **********/

var placeAliases = map[string][]string{
	"name":     {"name", "displayName.text"},
	"address":  {"formatted_address", "formattedAddress", "vicinity"},
	"phone":    {"international_phone_number", "internationalPhoneNumber", "formatted_phone_number", "nationalPhoneNumber"},
	"website":  {"website", "websiteUri"},
	"place_id": {"place_id", "id"},
}

// city component types in order of preference
var cityComponentTypes = []string{"locality", "postal_town", "administrative_area_level_3", "administrative_area_level_2"}

// Places type -> business type. First match over the payload's types wins.
var businessTypeByPlaceType = map[string]domain.BusinessType{
	"motorcycle_repair": domain.RepairShop,
	"car_repair":        domain.RepairShop,
	"motorcycle_dealer": domain.Dealership,
	"car_dealer":        domain.Dealership,
	"auto_parts_store":  domain.PartsSupplier,
	"hardware_store":    domain.PartsSupplier,
	"custom_shop":       domain.CustomShop,
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

func lookupStr(m map[string]any, path string) string {
	if v := lookupAny(m, path); v != nil {
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// firstNonEmptyAlias: first non-empty string for a named alias set.
func firstNonEmptyAlias(m map[string]any, key string) *string {
	for _, p := range placeAliases[key] {
		if s := lookupStr(m, p); s != "" {
			return &s
		}
	}
	return nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// getFloatFlexible: number from several paths (float64/int/string like "8,0").
func getFloatFlexible(m map[string]any, paths ...string) *float64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			f := v
			return &f
		case int:
			f := float64(v)
			return &f
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

// firstIntFlexible: int from several paths (float64/int/string).
func firstIntFlexible(m map[string]any, paths ...string) *int {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			x := int(v)
			return &x
		case int:
			x := v
			return &x
		case string:
			if n := optInt(v); n != nil {
				return n
			}
		}
	}
	return nil
}

func stringsAt(m map[string]any, path string) []string {
	raw, ok := lookupAny(m, path).([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, it := range raw {
		if s, ok := it.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

// addressComponent returns the long name of the first component carrying typ.
func addressComponent(m map[string]any, typ string) string {
	comps, _ := lookupAny(m, "address_components").([]any)
	for _, c := range comps {
		cm, ok := c.(map[string]any)
		if !ok {
			continue
		}
		for _, t := range stringsAt(cm, "types") {
			if t == typ {
				if s := lookupStr(cm, "long_name"); s != "" {
					return s
				}
				return lookupStr(cm, "longText")
			}
		}
	}
	return ""
}

/********** place mapper **********/

// mapPlace turns a Places details payload into an insert payload. It reports
// false when name, country or city cannot be derived.
func mapPlace(p map[string]any, scrapedAt time.Time) (domain.NewShop, bool) {
	in := domain.ShopInput{
		Name:         deref(firstNonEmptyAlias(p, "name")),
		Country:      addressComponent(p, "country"),
		Address:      firstNonEmptyAlias(p, "address"),
		Phone:        firstNonEmptyAlias(p, "phone"),
		Website:      firstNonEmptyAlias(p, "website"),
		PlaceID:      firstNonEmptyAlias(p, "place_id"),
		Latitude:     getFloatFlexible(p, "geometry.location.lat", "location.latitude"),
		Longitude:    getFloatFlexible(p, "geometry.location.lng", "location.longitude"),
		Rating:       getFloatFlexible(p, "rating"),
		ReviewsCount: firstIntFlexible(p, "user_ratings_total", "userRatingCount"),
	}
	for _, t := range cityComponentTypes {
		if in.City = addressComponent(p, t); in.City != "" {
			break
		}
	}
	if hours := stringsAt(p, "opening_hours.weekday_text"); len(hours) > 0 {
		h := strings.Join(hours, "; ")
		in.Hours = &h
	}
	for _, t := range stringsAt(p, "types") {
		if bt, ok := businessTypeByPlaceType[t]; ok {
			in.BusinessType = &bt
			break
		}
	}
	if in.Name == "" || in.Country == "" || in.City == "" {
		return domain.NewShop{}, false
	}
	at := scrapedAt.UTC()
	return domain.NewShop{ShopInput: in, ScrapedAt: &at}, true
}

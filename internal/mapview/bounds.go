package mapview

import "github.com/sabawaheed27/motofix-europe/internal/domain"

// Bounds is a lat/lon box. The zero value is empty.
type Bounds struct {
	SouthWest domain.Coords `json:"sw"`
	NorthEast domain.Coords `json:"ne"`
	set       bool
}

// Extend grows the box to include c.
func (b *Bounds) Extend(c domain.Coords) {
	if !b.set {
		b.SouthWest, b.NorthEast, b.set = c, c, true
		return
	}
	b.SouthWest.Lat = min(b.SouthWest.Lat, c.Lat)
	b.SouthWest.Lon = min(b.SouthWest.Lon, c.Lon)
	b.NorthEast.Lat = max(b.NorthEast.Lat, c.Lat)
	b.NorthEast.Lon = max(b.NorthEast.Lon, c.Lon)
}

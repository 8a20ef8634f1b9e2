package mapview

import (
	"github.com/sabawaheed27/motofix-europe/internal/domain"
)

type placed struct {
	id   MarkerID
	shop domain.Shop
	at   domain.Coords
}

// Controller keeps a Map in sync with a shop collection and the selected
// shop. A nil Map turns every operation into a no-op. Pointer events are not
// handled here: the plan carries the popups and the leave delay, and the page
// script applies them.
type Controller struct {
	m       Map
	markers []placed
}

// NewController centers m on the continental default.
func NewController(m Map) *Controller {
	if m != nil {
		m.SetCenter(DefaultCenter)
		m.SetZoom(DefaultZoom)
	}
	return &Controller{m: m}
}

// SetShops replaces all markers with one per shop that has both coordinates
// and fits the viewport around them. A single marker is shown close up.
func (c *Controller) SetShops(shops []domain.Shop) {
	if c.m == nil {
		return
	}
	c.m.ClearMarkers()
	c.markers = c.markers[:0]

	var b Bounds
	for _, s := range shops {
		pos, ok := s.Coords()
		if !ok {
			continue
		}
		id := c.m.AddMarker(Marker{Position: pos, Title: s.Name, ShopUUID: s.UUID})
		c.markers = append(c.markers, placed{id: id, shop: s, at: pos})
		b.Extend(pos)
	}
	if len(c.markers) == 0 {
		return
	}
	c.m.FitBounds(b)
	if len(c.markers) == 1 {
		c.m.SetZoom(CloseUpZoom)
	}
}

// Select recenters on shop and opens the popup of the marker at exactly its
// coordinates. Shops without coordinates are ignored.
func (c *Controller) Select(s domain.Shop) {
	if c.m == nil {
		return
	}
	pos, ok := s.Coords()
	if !ok {
		return
	}
	c.m.SetCenter(pos)
	c.m.SetZoom(CloseUpZoom)
	for _, p := range c.markers {
		if p.at == pos {
			c.m.OpenInfo(p.id, Popup(s))
			return
		}
	}
}

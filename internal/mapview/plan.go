package mapview

import (
	"sync"

	"github.com/sabawaheed27/motofix-europe/internal/domain"
)

// Plan is a Map that records what the browser map should show. The page's
// map script replays Ops in order, then adds Markers and opens OpenMarker.
type Plan struct {
	mu      sync.Mutex
	ops     []PlanOp
	markers []PlanMarker
	open    *MarkerID
	popup   string
	next    MarkerID
}

type PlanOp struct {
	Op     string         `json:"op"` // center | zoom | fit
	Center *domain.Coords `json:"center,omitempty"`
	Zoom   int            `json:"zoom,omitempty"`
	Bounds *Bounds        `json:"bounds,omitempty"`
}

type PlanMarker struct {
	ID    MarkerID `json:"id"`
	Lat   float64  `json:"lat"`
	Lng   float64  `json:"lng"`
	Title string   `json:"title"`
	UUID  string   `json:"uuid"`
	Popup string   `json:"popup"`
}

// PlanDoc is the JSON document handed to the page. Besides the view it
// carries the hover policy: every marker's popup, the selected shop whose
// popup never closes on leave, and the leave delay for the others.
type PlanDoc struct {
	Ops          []PlanOp     `json:"ops"`
	Markers      []PlanMarker `json:"markers"`
	OpenMarker   *MarkerID    `json:"open_marker"`
	Popup        string       `json:"popup,omitempty"`
	Selected     string       `json:"selected,omitempty"`
	LeaveDelayMs int          `json:"leave_delay_ms"`
}

func NewPlan() *Plan { return &Plan{} }

func (p *Plan) SetCenter(c domain.Coords) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ops = append(p.ops, PlanOp{Op: "center", Center: &c})
}

func (p *Plan) SetZoom(z int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ops = append(p.ops, PlanOp{Op: "zoom", Zoom: z})
}

func (p *Plan) FitBounds(b Bounds) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ops = append(p.ops, PlanOp{Op: "fit", Bounds: &b})
}

func (p *Plan) AddMarker(m Marker) MarkerID {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.next++
	p.markers = append(p.markers, PlanMarker{
		ID: p.next, Lat: m.Position.Lat, Lng: m.Position.Lon, Title: m.Title, UUID: m.ShopUUID,
	})
	return p.next
}

func (p *Plan) ClearMarkers() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.markers = nil
	p.open, p.popup = nil, ""
}

func (p *Plan) OpenInfo(id MarkerID, html string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.open, p.popup = &id, html
}

// Doc snapshots the recorded state. Every marker carries its popup so the
// browser can show it on hover without a round trip.
func (p *Plan) Doc(shops []domain.Shop) PlanDoc {
	p.mu.Lock()
	defer p.mu.Unlock()
	byUUID := make(map[string]domain.Shop, len(shops))
	for _, s := range shops {
		byUUID[s.UUID] = s
	}
	d := PlanDoc{
		Ops:          append([]PlanOp(nil), p.ops...),
		Markers:      make([]PlanMarker, 0, len(p.markers)),
		Popup:        p.popup,
		LeaveDelayMs: LeaveDelayMs,
	}
	for _, m := range p.markers {
		if s, ok := byUUID[m.UUID]; ok {
			m.Popup = Popup(s)
		}
		if p.open != nil && m.ID == *p.open {
			d.Selected = m.UUID
		}
		d.Markers = append(d.Markers, m)
	}
	if p.open != nil {
		id := *p.open
		d.OpenMarker = &id
	}
	if d.Ops == nil {
		d.Ops = []PlanOp{}
	}
	return d
}

// Render plans the map for shops with selected (a shop uuid, may be blank)
// and returns the document.
func Render(shops []domain.Shop, selected string) PlanDoc {
	p := NewPlan()
	c := NewController(p)
	c.SetShops(shops)
	if selected != "" {
		for _, s := range shops {
			if s.UUID == selected {
				c.Select(s)
				break
			}
		}
	}
	return p.Doc(shops)
}

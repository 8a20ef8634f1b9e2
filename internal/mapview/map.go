package mapview

import "github.com/sabawaheed27/motofix-europe/internal/domain"

const (
	DefaultZoom = 4
	CloseUpZoom = 15
	// LeaveDelayMs is how long a hover popup survives the pointer leaving its
	// marker, unless the marker belongs to the selected shop.
	LeaveDelayMs = 500
)

// DefaultCenter is the continental default view.
var DefaultCenter = domain.Coords{Lat: 50, Lon: 10}

type MarkerID int

type Marker struct {
	Position domain.Coords
	Title    string
	ShopUUID string
}

// Map is the subset of the map SDK the controller drives.
type Map interface {
	SetCenter(c domain.Coords)
	SetZoom(z int)
	FitBounds(b Bounds)
	AddMarker(m Marker) MarkerID
	ClearMarkers()
	OpenInfo(id MarkerID, html string)
}

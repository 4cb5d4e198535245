package model

type MarkerKind string

const (
	MarkerDevice     MarkerKind = "device"
	MarkerRouteStart MarkerKind = "route_start"
	MarkerRouteEnd   MarkerKind = "route_end"
)

type MarkerColor string

const (
	MarkerGreen MarkerColor = "green"
	MarkerRed   MarkerColor = "red"
	MarkerGray  MarkerColor = "gray"
	MarkerBlue  MarkerColor = "blue"
)

type Marker struct {
	ID       string      `json:"id"`
	Kind     MarkerKind  `json:"kind"`
	Position LatLng      `json:"position"`
	Color    MarkerColor `json:"color"`
	Label    string      `json:"label,omitempty"`
	Selected bool        `json:"selected,omitempty"`
}

type Polyline struct {
	ID     string   `json:"id"`
	Points []LatLng `json:"points"`
}

// RenderInstruction is the only input the map surface consumes. A change in
// Epoch tells the surface to fully remount instead of diffing layers, so no
// vector layer from a previous selection can survive.
type RenderInstruction struct {
	State          ViewState  `json:"state"`
	Epoch          int64      `json:"epoch"`
	RemountDelayMS int64      `json:"remount_delay_ms"`
	Center         *LatLng    `json:"center,omitempty"`
	Markers        []Marker   `json:"markers"`
	Polylines      []Polyline `json:"polylines"`
	// NoLocationData: screens exist but none carries a valid coordinate.
	// Distinct from an empty Markers list caused by an empty fleet.
	NoLocationData bool `json:"no_location_data"`
}

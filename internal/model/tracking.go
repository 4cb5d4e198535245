package model

import "time"

// DateLayout is the calendar-day key format used by the upstream tracking API.
const DateLayout = "2006-01-02"

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type LocationPoint struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Timestamp time.Time `json:"timestamp"`
	Speed     float64   `json:"speed"`
	Heading   float64   `json:"heading"`
	Accuracy  float64   `json:"accuracy"`
}

func (p LocationPoint) Position() LatLng {
	return LatLng{Lat: p.Lat, Lng: p.Lng}
}

// ScreenStatus is one tracked display unit as reported by the compliance
// endpoint. CurrentLocation is nil when the device has no trusted GPS fix;
// an invalid fix is stripped during decoding and treated the same way.
type ScreenStatus struct {
	DeviceID           string         `json:"device_id"`
	MaterialID         string         `json:"material_id"`
	IsOnline           bool           `json:"is_online"`
	CurrentLocation    *LocationPoint `json:"current_location,omitempty"`
	CurrentHours       float64        `json:"current_hours"`
	HoursRemaining     float64        `json:"hours_remaining"`
	IsCompliant        bool           `json:"is_compliant"`
	TotalDistanceToday float64        `json:"total_distance_today"`
	Alerts             []string       `json:"alerts,omitempty"`
}

type FleetSummary struct {
	TotalScreens     int `json:"total_screens"`
	OnlineScreens    int `json:"online_screens"`
	CompliantScreens int `json:"compliant_screens"`
	AlertCount       int `json:"alert_count"`
}

// FleetSnapshot is the full live state for one poll tick. Snapshots are
// immutable: each successful poll replaces the previous one wholesale.
type FleetSnapshot struct {
	Screens         []ScreenStatus `json:"screens"`
	MaterialScreens []ScreenStatus `json:"material_screens"`
	Summary         FleetSummary   `json:"summary"`
	ReceivedAt      time.Time      `json:"received_at"`
}

// PathData is the live-mode path for the selected device. LocationHistory
// holds validated points only.
type PathData struct {
	DeviceID        string          `json:"device_id"`
	LocationHistory []LocationPoint `json:"location_history"`
	TotalPoints     int             `json:"total_points"`
	TotalDistance   float64         `json:"total_distance"`
}

type RouteMetrics struct {
	TotalDistance    float64 `json:"total_distance"`
	TotalDuration    float64 `json:"total_duration"`
	PointCount       int     `json:"point_count"`
	TotalAdPlays     int     `json:"total_ad_plays"`
	TotalHoursOnline float64 `json:"total_hours_online"`
}

// HistoricalRouteData is the historical-mode result for one (device, day)
// pair. It is superseded, never merged, when either part of the key changes.
type HistoricalRouteData struct {
	DeviceID string          `json:"device_id"`
	Date     string          `json:"date"`
	Route    []LocationPoint `json:"route"`
	Metrics  RouteMetrics    `json:"metrics"`
}

func (h *HistoricalRouteData) Key() RouteKey {
	return RouteKey{DeviceID: h.DeviceID, Date: h.Date}
}

// RouteKey identifies one historical fetch. Responses whose key no longer
// matches the current selection are discarded on arrival.
type RouteKey struct {
	DeviceID string `json:"device_id"`
	Date     string `json:"date"`
}

type Material struct {
	MaterialID   string `json:"material_id"`
	MaterialType string `json:"material_type"`
	Title        string `json:"title"`
}

// MaterialAll is the filter value that selects every tracked screen.
const MaterialAll = "all"

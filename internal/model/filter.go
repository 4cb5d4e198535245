package model

import "time"

type Tab string

const (
	TabLive       Tab = "live"
	TabHistorical Tab = "historical"
)

type ConnectionState string

const (
	ConnectionConnected    ConnectionState = "connected"
	ConnectionConnecting   ConnectionState = "connecting"
	ConnectionDisconnected ConnectionState = "disconnected"
)

// ViewState enumerates the view-mode reconciler states. Exactly one is
// active at a time; loading, ready and error are never co-asserted.
type ViewState string

const (
	ViewLive              ViewState = "LIVE"
	ViewHistoricalLoading ViewState = "HISTORICAL_LOADING"
	ViewHistoricalReady   ViewState = "HISTORICAL_READY"
	ViewHistoricalEmpty   ViewState = "HISTORICAL_EMPTY"
	ViewHistoricalError   ViewState = "HISTORICAL_ERROR"
)

// Selection is the user-controlled part of the dashboard state.
type Selection struct {
	MaterialID string `json:"material_id"`
	DeviceID   string `json:"device_id,omitempty"`
	Tab        Tab    `json:"tab"`
	Date       string `json:"date"`
}

func (s Selection) RouteKey() RouteKey {
	return RouteKey{DeviceID: s.DeviceID, Date: s.Date}
}

// ClampDate normalizes a requested tracking date: empty or unparseable
// input falls back to today, and future dates are pulled back to today
// since no tracking data can exist for them yet.
func ClampDate(date string, now time.Time) string {
	today := now.Format(DateLayout)
	parsed, err := time.Parse(DateLayout, date)
	if err != nil {
		return today
	}
	if parsed.After(now) {
		return today
	}
	return parsed.Format(DateLayout)
}

// IsPastDate reports whether date is strictly before today. Past days are
// immutable upstream, which makes their routes safe to cache.
func IsPastDate(date string, now time.Time) bool {
	parsed, err := time.Parse(DateLayout, date)
	if err != nil {
		return false
	}
	today, _ := time.Parse(DateLayout, now.Format(DateLayout))
	return parsed.Before(today)
}

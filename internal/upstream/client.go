package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"tracking-service/internal/geo"
	"tracking-service/internal/model"
)

var (
	// ErrUnavailable covers transport failures: connection refused,
	// timeouts, non-2xx responses. The previous state must be kept.
	ErrUnavailable = errors.New("upstream unavailable")
	// ErrRejected covers application-level failures: the request reached
	// the server but it reported success=false.
	ErrRejected = errors.New("upstream rejected request")
)

// Client talks to the read-only tracking endpoints of the platform API.
// All decoded locations pass coordinate validation before they leave this
// package; invalid points are dropped per point, never per response.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		log:     log.With().Str("component", "upstream").Logger(),
	}
}

type locationPayload struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Timestamp time.Time `json:"timestamp"`
	Speed     float64   `json:"speed"`
	Heading   float64   `json:"heading"`
	Accuracy  float64   `json:"accuracy"`
}

type screenPayload struct {
	DeviceID           string           `json:"deviceId"`
	MaterialID         string           `json:"materialId"`
	IsOnline           bool             `json:"isOnline"`
	CurrentLocation    *locationPayload `json:"currentLocation"`
	CurrentHours       float64          `json:"currentHours"`
	HoursRemaining     float64          `json:"hoursRemaining"`
	IsCompliant        bool             `json:"isCompliant"`
	TotalDistanceToday float64          `json:"totalDistanceToday"`
	Alerts             []string         `json:"alerts"`
}

type complianceResponse struct {
	Data struct {
		Screens          []screenPayload `json:"screens"`
		MaterialScreens  []screenPayload `json:"materialScreens"`
		TotalScreens     int             `json:"totalScreens"`
		OnlineScreens    int             `json:"onlineScreens"`
		CompliantScreens int             `json:"compliantScreens"`
	} `json:"data"`
}

type routeResponse struct {
	Success bool `json:"success"`
	Data    struct {
		DeviceID string            `json:"deviceId"`
		Route    []locationPayload `json:"route"`
		Metrics  struct {
			TotalDistance    float64 `json:"totalDistance"`
			TotalDuration    float64 `json:"totalDuration"`
			PointCount       int     `json:"pointCount"`
			TotalAdPlays     int     `json:"totalAdPlays"`
			TotalHoursOnline float64 `json:"totalHoursOnline"`
		} `json:"metrics"`
	} `json:"data"`
}

type pathResponse struct {
	Data struct {
		LocationHistory []locationPayload `json:"locationHistory"`
		TotalPoints     int               `json:"totalPoints"`
		TotalDistance   float64           `json:"totalDistance"`
	} `json:"data"`
}

type materialsResponse struct {
	Materials []struct {
		MaterialID   string `json:"materialId"`
		MaterialType string `json:"materialType"`
		Title        string `json:"title"`
	} `json:"materials"`
}

// FleetCompliance fetches the live compliance/location report for one day.
func (c *Client) FleetCompliance(ctx context.Context, date string) (*model.FleetSnapshot, error) {
	endpoint := fmt.Sprintf("%s/screenTracking/compliance?date=%s", c.baseURL, url.QueryEscape(date))

	var payload complianceResponse
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}

	snapshot := &model.FleetSnapshot{
		Screens:         convertScreens(payload.Data.Screens),
		MaterialScreens: convertScreens(payload.Data.MaterialScreens),
		Summary: model.FleetSummary{
			TotalScreens:     payload.Data.TotalScreens,
			OnlineScreens:    payload.Data.OnlineScreens,
			CompliantScreens: payload.Data.CompliantScreens,
		},
		ReceivedAt: time.Now(),
	}
	if snapshot.Summary.TotalScreens == 0 {
		snapshot.Summary.TotalScreens = len(snapshot.Screens)
	}
	for _, s := range snapshot.Screens {
		snapshot.Summary.AlertCount += len(s.Alerts)
	}

	return snapshot, nil
}

// Route fetches one device's recorded route for one calendar day. A
// successful response with zero points is a valid "nothing to show" answer,
// not an error.
func (c *Client) Route(ctx context.Context, deviceID, date string) (*model.HistoricalRouteData, error) {
	endpoint := fmt.Sprintf("%s/deviceTracking/route/%s?date=%s",
		c.baseURL, url.PathEscape(deviceID), url.QueryEscape(date))

	var payload routeResponse
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}
	if !payload.Success {
		return nil, fmt.Errorf("%w: route %s/%s", ErrRejected, deviceID, date)
	}

	route := geo.FilterValid(convertPoints(payload.Data.Route))
	metrics := model.RouteMetrics{
		TotalDistance:    payload.Data.Metrics.TotalDistance,
		TotalDuration:    payload.Data.Metrics.TotalDuration,
		PointCount:       len(route),
		TotalAdPlays:     payload.Data.Metrics.TotalAdPlays,
		TotalHoursOnline: payload.Data.Metrics.TotalHoursOnline,
	}
	if metrics.TotalDistance == 0 && len(route) > 1 {
		metrics.TotalDistance = geo.PathDistance(route)
	}

	return &model.HistoricalRouteData{
		DeviceID: deviceID,
		Date:     date,
		Route:    route,
		Metrics:  metrics,
	}, nil
}

// Path fetches the live-mode path history for one device and day.
func (c *Client) Path(ctx context.Context, deviceID, date string) (*model.PathData, error) {
	endpoint := fmt.Sprintf("%s/screenTracking/path/%s?date=%s",
		c.baseURL, url.PathEscape(deviceID), url.QueryEscape(date))

	var payload pathResponse
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}

	history := geo.FilterValid(convertPoints(payload.Data.LocationHistory))
	distance := payload.Data.TotalDistance
	if distance == 0 && len(history) > 1 {
		distance = geo.PathDistance(history)
	}

	return &model.PathData{
		DeviceID:        deviceID,
		LocationHistory: history,
		TotalPoints:     len(history),
		TotalDistance:   distance,
	}, nil
}

// Materials fetches the material list used for filtering the device set.
func (c *Client) Materials(ctx context.Context) ([]model.Material, error) {
	var payload materialsResponse
	if err := c.getJSON(ctx, c.baseURL+"/material", &payload); err != nil {
		return nil, err
	}

	materials := make([]model.Material, 0, len(payload.Materials))
	for _, m := range payload.Materials {
		materials = append(materials, model.Material{
			MaterialID:   m.MaterialID,
			MaterialType: m.MaterialType,
			Title:        m.Title,
		})
	}
	return materials, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d from %s", ErrUnavailable, resp.StatusCode, endpoint)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	return nil
}

func convertScreens(payloads []screenPayload) []model.ScreenStatus {
	screens := make([]model.ScreenStatus, 0, len(payloads))
	for _, p := range payloads {
		screen := model.ScreenStatus{
			DeviceID:           p.DeviceID,
			MaterialID:         p.MaterialID,
			IsOnline:           p.IsOnline,
			CurrentHours:       p.CurrentHours,
			HoursRemaining:     p.HoursRemaining,
			IsCompliant:        p.IsCompliant,
			TotalDistanceToday: p.TotalDistanceToday,
			Alerts:             p.Alerts,
		}
		if p.CurrentLocation != nil && geo.IsValid(p.CurrentLocation.Lat, p.CurrentLocation.Lng) {
			loc := convertPoint(*p.CurrentLocation)
			screen.CurrentLocation = &loc
		}
		screens = append(screens, screen)
	}
	return screens
}

func convertPoints(payloads []locationPayload) []model.LocationPoint {
	points := make([]model.LocationPoint, 0, len(payloads))
	for _, p := range payloads {
		points = append(points, convertPoint(p))
	}
	return points
}

func convertPoint(p locationPayload) model.LocationPoint {
	return model.LocationPoint{
		Lat:       p.Lat,
		Lng:       p.Lng,
		Timestamp: p.Timestamp,
		Speed:     p.Speed,
		Heading:   p.Heading,
		Accuracy:  p.Accuracy,
	}
}

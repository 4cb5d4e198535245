package maprender

import (
	"time"

	"tracking-service/internal/geo"
	"tracking-service/internal/model"
)

// Input is the validated dashboard state the adapter translates into map
// primitives. Locations reaching this package have already passed
// coordinate validation; a nil CurrentLocation means "no trusted fix".
type Input struct {
	State    model.ViewState
	Epoch    int64
	Screens  []model.ScreenStatus
	Selected *model.ScreenStatus
	LivePath *model.PathData
	Route    *model.HistoricalRouteData
	Center   *model.LatLng
}

// Adapter owns the map surface: nothing else emits layers for it. An epoch
// change in the output instructs the surface to remount (after a short
// delay that lets the clear become visible) instead of diffing layers.
type Adapter struct {
	remountDelay time.Duration
}

func NewAdapter(remountDelay time.Duration) *Adapter {
	return &Adapter{remountDelay: remountDelay}
}

func (a *Adapter) Render(in Input) model.RenderInstruction {
	out := model.RenderInstruction{
		State:          in.State,
		Epoch:          in.Epoch,
		RemountDelayMS: a.remountDelay.Milliseconds(),
		Center:         in.Center,
		Markers:        []model.Marker{},
		Polylines:      []model.Polyline{},
	}

	switch in.State {
	case model.ViewLive:
		a.renderLive(in, &out)
	case model.ViewHistoricalReady:
		a.renderHistorical(in, &out)
	default:
		// Loading, empty and error states paint no layers; the surface
		// shows the matching panel instead.
	}

	return out
}

func (a *Adapter) renderLive(in Input, out *model.RenderInstruction) {
	for _, screen := range in.Screens {
		if screen.CurrentLocation == nil || !geo.IsValid(screen.CurrentLocation.Lat, screen.CurrentLocation.Lng) {
			// Never plot a device at a default or sentinel position.
			continue
		}
		marker := model.Marker{
			ID:       screen.DeviceID,
			Kind:     model.MarkerDevice,
			Position: screen.CurrentLocation.Position(),
			Color:    deviceColor(screen),
			Label:    screen.DeviceID,
		}
		if in.Selected != nil && in.Selected.DeviceID == screen.DeviceID {
			marker.Selected = true
		}
		out.Markers = append(out.Markers, marker)
	}

	out.NoLocationData = len(in.Screens) > 0 && len(out.Markers) == 0

	if in.Selected != nil && in.LivePath != nil &&
		in.LivePath.DeviceID == in.Selected.DeviceID &&
		len(in.LivePath.LocationHistory) >= 2 {
		out.Polylines = append(out.Polylines, model.Polyline{
			ID:     "live-path-" + in.LivePath.DeviceID,
			Points: toPositions(in.LivePath.LocationHistory),
		})
	}
}

func (a *Adapter) renderHistorical(in Input, out *model.RenderInstruction) {
	if in.Route == nil || len(in.Route.Route) == 0 {
		return
	}

	points := in.Route.Route
	out.Polylines = append(out.Polylines, model.Polyline{
		ID:     "route-" + in.Route.DeviceID + "-" + in.Route.Date,
		Points: toPositions(points),
	})
	out.Markers = append(out.Markers,
		model.Marker{
			ID:       "start-" + in.Route.DeviceID,
			Kind:     model.MarkerRouteStart,
			Position: points[0].Position(),
			Color:    model.MarkerGreen,
		},
		model.Marker{
			ID:       "end-" + in.Route.DeviceID,
			Kind:     model.MarkerRouteEnd,
			Position: points[len(points)-1].Position(),
			Color:    model.MarkerRed,
		},
	)
}

func deviceColor(screen model.ScreenStatus) model.MarkerColor {
	switch {
	case !screen.IsOnline:
		return model.MarkerGray
	case screen.IsCompliant:
		return model.MarkerGreen
	default:
		return model.MarkerRed
	}
}

func toPositions(points []model.LocationPoint) []model.LatLng {
	positions := make([]model.LatLng, 0, len(points))
	for _, p := range points {
		positions = append(positions, p.Position())
	}
	return positions
}

package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"tracking-service/internal/geo"
	"tracking-service/internal/maprender"
	"tracking-service/internal/model"
)

var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrUnknownDevice    = errors.New("unknown device")
	ErrUnknownMaterial  = errors.New("unknown material")
	ErrNoSelection      = errors.New("no device selected")
	ErrInvalidTab       = errors.New("invalid tab")
)

type PathSource interface {
	Path(ctx context.Context, deviceID, date string) (*model.PathData, error)
}

type MaterialSource interface {
	Materials(ctx context.Context) ([]model.Material, error)
}

// Publisher pushes dashboard updates to connected clients.
type Publisher interface {
	Broadcast(messageType string, data interface{})
}

const (
	publishRender       = "render"
	publishConnectivity = "connectivity"
)

// DashboardState is the full read model served to clients.
type DashboardState struct {
	Connection     model.ConnectionState      `json:"connection"`
	ViewState      model.ViewState            `json:"view_state"`
	Selection      model.Selection            `json:"selection"`
	Screens        []model.ScreenStatus       `json:"screens"`
	SelectedScreen *model.ScreenStatus        `json:"selected_screen,omitempty"`
	Materials      []model.Material           `json:"materials"`
	Summary        model.FleetSummary         `json:"summary"`
	LivePath       *model.PathData            `json:"live_path,omitempty"`
	Route          *model.HistoricalRouteData `json:"route,omitempty"`
	RouteError     string                     `json:"route_error,omitempty"`
	Render         model.RenderInstruction    `json:"render"`
}

// Dashboard owns the single mutable dashboard state. Every mutation goes
// through its lock: user actions arrive from the HTTP layer, data arrives
// from the poller and from async route/path fetch completions. The poller
// and fetchers never write selection state; only user actions and the
// selection reconciliation do.
type Dashboard struct {
	mu  sync.Mutex
	log zerolog.Logger

	history   *HistoryFetcher
	paths     PathSource
	materials MaterialSource
	renderer  *maprender.Adapter
	publisher Publisher

	ctx context.Context

	screens      []model.ScreenStatus
	summary      model.FleetSummary
	materialList []model.Material
	connection   model.ConnectionState
	centered     bool
	center       *model.LatLng

	selection  model.Selection
	livePath   *model.PathData
	pathKey    model.RouteKey
	reconciler *Reconciler
	routeError string
	render     model.RenderInstruction
}

func NewDashboard(history *HistoryFetcher, paths PathSource, materials MaterialSource,
	renderer *maprender.Adapter, publisher Publisher, log zerolog.Logger) *Dashboard {

	d := &Dashboard{
		log:        log.With().Str("component", "dashboard").Logger(),
		history:    history,
		paths:      paths,
		materials:  materials,
		renderer:   renderer,
		publisher:  publisher,
		ctx:        context.Background(),
		connection: model.ConnectionConnecting,
		selection: model.Selection{
			MaterialID: model.MaterialAll,
			Tab:        model.TabLive,
			Date:       time.Now().Format(model.DateLayout),
		},
		reconciler: NewReconciler(),
	}
	d.refreshRenderLocked()
	return d
}

// Start binds the base context used by asynchronous fetches and loads the
// material list. Actions issued before Start use a background context.
func (d *Dashboard) Start(ctx context.Context) {
	d.mu.Lock()
	d.ctx = ctx
	d.mu.Unlock()

	go func() {
		materials, err := d.materials.Materials(ctx)
		if err != nil {
			d.log.Warn().Err(err).Msg("material list fetch failed")
			return
		}
		d.mu.Lock()
		d.materialList = materials
		d.mu.Unlock()
	}()
}

// State returns a point-in-time copy of the dashboard read model.
func (d *Dashboard) State() DashboardState {
	d.mu.Lock()
	defer d.mu.Unlock()

	filtered := FilterScreens(d.screens, d.selection.MaterialID)
	return DashboardState{
		Connection:     d.connection,
		ViewState:      d.reconciler.State(),
		Selection:      d.selection,
		Screens:        filtered,
		SelectedScreen: FindScreen(filtered, d.selection.DeviceID),
		Materials:      d.materialList,
		Summary:        d.summary,
		LivePath:       d.livePath,
		Route:          d.reconciler.Route(),
		RouteError:     d.routeError,
		Render:         d.render,
	}
}

// Render returns the current render instruction.
func (d *Dashboard) Render() model.RenderInstruction {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.render
}

// PollDate implements SnapshotSink.
func (d *Dashboard) PollDate() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.selection.Date
}

// PollStarted implements SnapshotSink.
func (d *Dashboard) PollStarted() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.connection != model.ConnectionConnected {
		d.connection = model.ConnectionConnecting
		d.publishConnectivityLocked()
	}
}

// ApplySnapshot implements SnapshotSink: replaces the fleet state wholesale
// and reconciles the selection against the new filtered list.
func (d *Dashboard) ApplySnapshot(snapshot *model.FleetSnapshot) {
	d.mu.Lock()
	defer d.mu.Unlock()

	reconnected := d.connection != model.ConnectionConnected
	d.connection = model.ConnectionConnected
	d.screens = snapshot.Screens
	d.summary = snapshot.Summary

	// Recenter only on the first snapshot after (re)connection; following
	// the fleet on every tick would fight the user's manual pan.
	if reconnected {
		d.centered = false
	}
	if !d.centered {
		for _, s := range snapshot.Screens {
			if s.CurrentLocation != nil && geo.IsValid(s.CurrentLocation.Lat, s.CurrentLocation.Lng) {
				center := s.CurrentLocation.Position()
				d.center = &center
				d.centered = true
				break
			}
		}
	}

	d.reconcileSelectionLocked()
	d.refreshRenderLocked()
	d.publishConnectivityLocked()
	d.publishRenderLocked()
}

// PollFailed implements SnapshotSink: the previous snapshot stays rendered,
// only the connectivity indicator flips.
func (d *Dashboard) PollFailed(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.connection = model.ConnectionDisconnected
	d.publishConnectivityLocked()
}

// SelectMaterial narrows the visible device set and re-reconciles the
// selection against it.
func (d *Dashboard) SelectMaterial(materialID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if materialID == "" {
		materialID = model.MaterialAll
	}
	if materialID != model.MaterialAll && len(d.materialList) > 0 {
		known := false
		for _, m := range d.materialList {
			if m.MaterialID == materialID {
				known = true
				break
			}
		}
		if !known {
			return ErrUnknownMaterial
		}
	}

	d.selection.MaterialID = materialID
	d.reconcileSelectionLocked()
	d.refreshRenderLocked()
	d.publishRenderLocked()
	return nil
}

// SelectScreen selects a device explicitly. The device must be present in
// the currently filtered list.
func (d *Dashboard) SelectScreen(deviceID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	filtered := FilterScreens(d.screens, d.selection.MaterialID)
	if FindScreen(filtered, deviceID) == nil {
		return ErrUnknownDevice
	}
	if d.selection.DeviceID == deviceID {
		return nil
	}

	d.selection.DeviceID = deviceID
	d.onSelectionChangedLocked()
	d.refreshRenderLocked()
	d.publishRenderLocked()
	return nil
}

// SetTab switches between live and historical mode.
func (d *Dashboard) SetTab(tab model.Tab) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch tab {
	case model.TabLive, model.TabHistorical:
	default:
		return ErrInvalidTab
	}
	if d.selection.Tab == tab {
		return nil
	}

	d.selection.Tab = tab
	if tab == model.TabLive {
		d.reconciler.EnterLive()
		d.startPathFetchLocked()
	} else {
		d.startRouteFetchLocked()
	}
	d.refreshRenderLocked()
	d.publishRenderLocked()
	return nil
}

// SetDate changes the tracking day. In historical mode this re-keys the
// route fetch; in live mode the next poll tick picks the date up.
func (d *Dashboard) SetDate(date string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	clamped := model.ClampDate(date, time.Now())
	if d.selection.Date == clamped {
		return nil
	}

	d.selection.Date = clamped
	d.livePath = nil
	d.onSelectionChangedLocked()
	d.refreshRenderLocked()
	d.publishRenderLocked()
	return nil
}

// LoadRoute is the manual "Load Route" action: forces historical mode and
// a fresh fetch for the current selection.
func (d *Dashboard) LoadRoute() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.selection.DeviceID == "" {
		return ErrNoSelection
	}

	d.selection.Tab = model.TabHistorical
	d.startRouteFetchLocked()
	d.refreshRenderLocked()
	d.publishRenderLocked()
	return nil
}

// reconcileSelectionLocked keeps the selected device consistent with the
// filtered list and reacts when the selection had to move.
func (d *Dashboard) reconcileSelectionLocked() {
	filtered := FilterScreens(d.screens, d.selection.MaterialID)
	next := ReconcileSelection(filtered, d.selection.DeviceID)
	if next == d.selection.DeviceID {
		return
	}
	d.selection.DeviceID = next
	d.onSelectionChangedLocked()
}

// onSelectionChangedLocked refetches whatever the active tab renders for
// the (possibly new) selection key.
func (d *Dashboard) onSelectionChangedLocked() {
	if d.selection.DeviceID == "" {
		d.livePath = nil
		d.pathKey = model.RouteKey{}
		if d.selection.Tab == model.TabHistorical {
			d.reconciler.EnterHistoricalEmpty()
		}
		return
	}

	if d.selection.Tab == model.TabHistorical {
		d.startRouteFetchLocked()
	} else {
		d.startPathFetchLocked()
	}
}

// startRouteFetchLocked enters HISTORICAL_LOADING, clears the surface, and
// issues the fetch. The captured key is compared against the then-current
// pending key on completion; a mismatch discards the response.
func (d *Dashboard) startRouteFetchLocked() {
	if d.selection.DeviceID == "" {
		d.reconciler.EnterHistoricalEmpty()
		return
	}

	key := d.selection.RouteKey()
	d.routeError = ""
	d.reconciler.BeginHistorical(key)

	ctx := d.ctx
	go func() {
		route, err := d.history.Fetch(ctx, key)

		d.mu.Lock()
		defer d.mu.Unlock()
		if !d.reconciler.Complete(key, route, err) {
			return
		}
		if err != nil {
			d.routeError = err.Error()
		}
		d.refreshRenderLocked()
		d.publishRenderLocked()
	}()
}

// startPathFetchLocked rebuilds the live path for the selected device. Uses
// the same captured-key discipline as route fetches.
func (d *Dashboard) startPathFetchLocked() {
	if d.selection.DeviceID == "" {
		d.livePath = nil
		d.pathKey = model.RouteKey{}
		return
	}

	key := model.RouteKey{DeviceID: d.selection.DeviceID, Date: d.selection.Date}
	if d.pathKey == key && d.livePath != nil {
		return
	}
	d.pathKey = key

	ctx := d.ctx
	go func() {
		path, err := d.paths.Path(ctx, key.DeviceID, key.Date)

		d.mu.Lock()
		defer d.mu.Unlock()
		if d.pathKey != key {
			return
		}
		if err != nil {
			d.log.Warn().Err(err).Str("device", key.DeviceID).Msg("live path fetch failed")
			return
		}
		d.livePath = path
		d.refreshRenderLocked()
		d.publishRenderLocked()
	}()
}

func (d *Dashboard) refreshRenderLocked() {
	filtered := FilterScreens(d.screens, d.selection.MaterialID)
	d.render = d.renderer.Render(maprender.Input{
		State:    d.reconciler.State(),
		Epoch:    d.reconciler.Epoch(),
		Screens:  filtered,
		Selected: FindScreen(filtered, d.selection.DeviceID),
		LivePath: d.livePath,
		Route:    d.reconciler.Route(),
		Center:   d.center,
	})
}

func (d *Dashboard) publishRenderLocked() {
	if d.publisher != nil {
		d.publisher.Broadcast(publishRender, d.render)
	}
}

func (d *Dashboard) publishConnectivityLocked() {
	if d.publisher != nil {
		d.publisher.Broadcast(publishConnectivity, d.connection)
	}
}

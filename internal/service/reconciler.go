package service

import "tracking-service/internal/model"

// Reconciler is the view-mode state machine. It decides when historical
// data may be rendered, when it must be purged, and when the render surface
// has to discard previously drawn layers via an epoch bump.
//
// The epoch increments exactly when the identity of the data to render
// changes, never on a mere loading-status change. The map surface treats a
// new epoch as an order to remount, so a polyline from an earlier selection
// cannot survive into the next paint.
//
// Reconciler is not safe for concurrent use; the Dashboard serializes all
// access under its own lock.
type Reconciler struct {
	state   model.ViewState
	epoch   int64
	pending model.RouteKey
	route   *model.HistoricalRouteData
}

func NewReconciler() *Reconciler {
	return &Reconciler{state: model.ViewLive}
}

func (r *Reconciler) State() model.ViewState { return r.state }

func (r *Reconciler) Epoch() int64 { return r.epoch }

// Route returns the committed historical route. Non-nil only in
// HISTORICAL_READY.
func (r *Reconciler) Route() *model.HistoricalRouteData { return r.route }

// EnterLive discards any historical route and pending fetch. The purge is
// unconditional: rendering a historical polyline while the tab claims to be
// live is the defect this machine exists to prevent.
func (r *Reconciler) EnterLive() {
	if r.state == model.ViewLive {
		return
	}
	r.route = nil
	r.pending = model.RouteKey{}
	r.state = model.ViewLive
	r.epoch++
}

// BeginHistorical records the fetch about to be issued for key and clears
// the surface first. Clear-then-fetch ordering prevents a frame where the
// old and new routes are both visible.
func (r *Reconciler) BeginHistorical(key model.RouteKey) {
	r.route = nil
	r.pending = key
	r.state = model.ViewHistoricalLoading
	r.epoch++
}

// EnterHistoricalEmpty is the historical tab with nothing selected to load.
func (r *Reconciler) EnterHistoricalEmpty() {
	r.route = nil
	r.pending = model.RouteKey{}
	r.state = model.ViewHistoricalEmpty
	r.epoch++
}

// Complete commits a fetch result. The result is applied only when key
// still matches the pending request: a slower response for a selection the
// user has already left is discarded on arrival (last-request-wins).
// Returns whether the state changed.
func (r *Reconciler) Complete(key model.RouteKey, route *model.HistoricalRouteData, err error) bool {
	if r.state == model.ViewLive || key != r.pending {
		return false
	}

	switch {
	case err != nil:
		r.route = nil
		r.state = model.ViewHistoricalError
	case route == nil || len(route.Route) == 0:
		r.route = nil
		r.state = model.ViewHistoricalEmpty
	default:
		r.route = route
		r.state = model.ViewHistoricalReady
		r.epoch++
	}
	r.pending = model.RouteKey{}
	return true
}

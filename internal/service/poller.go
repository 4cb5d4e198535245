package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"tracking-service/internal/model"
)

type SnapshotSource interface {
	FleetCompliance(ctx context.Context, date string) (*model.FleetSnapshot, error)
}

// SnapshotSink receives poll outcomes. The poller never touches selection
// or view state itself; it only reports what happened.
type SnapshotSink interface {
	PollDate() string
	PollStarted()
	ApplySnapshot(snapshot *model.FleetSnapshot)
	PollFailed(err error)
}

// Poller drives the fleet snapshot fetch on a fixed interval plus manual
// refresh. Failures are non-fatal: the sink keeps its previous snapshot and
// the next tick retries. The tick interval already throttles load, so there
// is no backoff.
type Poller struct {
	source   SnapshotSource
	sink     SnapshotSink
	interval time.Duration
	refresh  chan struct{}
	log      zerolog.Logger
}

func NewPoller(source SnapshotSource, sink SnapshotSink, interval time.Duration, log zerolog.Logger) *Poller {
	return &Poller{
		source:   source,
		sink:     sink,
		interval: interval,
		refresh:  make(chan struct{}, 1),
		log:      log.With().Str("component", "poller").Logger(),
	}
}

// Refresh requests an immediate tick. Coalesces when one is already queued.
func (p *Poller) Refresh() {
	select {
	case p.refresh <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is canceled. Ticks are strictly sequential: each
// fetch completes (or fails) before the next one is issued, so results
// apply in receipt order.
func (p *Poller) Run(ctx context.Context) error {
	p.tick(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.tick(ctx)
		case <-p.refresh:
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	p.sink.PollStarted()

	date := p.sink.PollDate()
	snapshot, err := p.source.FleetCompliance(ctx, date)
	if err != nil {
		p.log.Warn().Err(err).Str("date", date).Msg("fleet snapshot fetch failed")
		p.sink.PollFailed(err)
		return
	}

	p.sink.ApplySnapshot(snapshot)
}

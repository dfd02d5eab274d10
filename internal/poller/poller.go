package poller

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/cypherlabdev/offer-catalog-service/internal/service"
)

// Poller refreshes the catalog on a fixed interval
type Poller struct {
	refresher service.Refresher
	interval  time.Duration
	logger    zerolog.Logger
}

// NewPoller creates a new poller
func NewPoller(refresher service.Refresher, interval time.Duration, logger zerolog.Logger) *Poller {
	return &Poller{
		refresher: refresher,
		interval:  interval,
		logger:    logger.With().Str("component", "poller").Logger(),
	}
}

// Run refreshes every interval until ctx is canceled. The first refresh
// happens one interval after Run starts; the initial load is the caller's job.
func (p *Poller) Run(ctx context.Context) {
	p.logger.Info().
		Dur("interval", p.interval).
		Msg("starting refresh poller")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info().Msg("stopping refresh poller")
			return
		case <-ticker.C:
			p.pollOnce(ctx)
		}
	}
}

// pollOnce performs one refresh; failures keep the previous snapshot and are retried next tick
func (p *Poller) pollOnce(ctx context.Context) {
	if err := p.refresher.Refresh(ctx); err != nil {
		p.logger.Warn().
			Err(err).
			Dur("retry_in", p.interval).
			Msg("scheduled refresh failed")
	}
}

package ratesync

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/betops/settlecore/internal/domain"
	"github.com/betops/settlecore/internal/usecase"
)

// Refresher periodically warms the shared rate cache so that readers always
// have a last-known value to fall back on, even if the feeds go down later.
// Each sweep resolves every supported currency; the resolver itself handles
// caching and degradation.
type Refresher struct {
	rates    usecase.RateSource
	interval time.Duration
	logger   zerolog.Logger
}

// Config for Refresher.
type Config struct {
	Rates    usecase.RateSource
	Interval time.Duration
	Logger   zerolog.Logger
}

// NewRefresher creates a new Refresher.
func NewRefresher(cfg Config) *Refresher {
	if cfg.Interval == 0 {
		cfg.Interval = 5 * time.Minute
	}

	return &Refresher{
		rates:    cfg.Rates,
		interval: cfg.Interval,
		logger:   cfg.Logger,
	}
}

// Start runs the refresh loop until the context is cancelled. It sweeps once
// immediately so the cache is warm before the first transaction.
func (r *Refresher) Start(ctx context.Context) error {
	r.logger.Info().Dur("interval", r.interval).Msg("rate refresher started")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("rate refresher shutting down")
			return ctx.Err()
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Refresher) sweep(ctx context.Context) {
	var unknown int

	for _, currency := range domain.SupportedCurrencies() {
		if ctx.Err() != nil {
			return
		}

		resolved := r.rates.RateToBase(ctx, currency)
		if !resolved.Known {
			unknown++
		}
	}

	if unknown > 0 {
		r.logger.Warn().Int("unknown", unknown).Msg("rate refresh sweep finished with unresolved currencies")
		return
	}

	r.logger.Debug().Msg("rate refresh sweep finished")
}

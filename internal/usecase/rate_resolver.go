package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/betops/settlecore/internal/domain"
	"github.com/betops/settlecore/internal/infrastructure/metrics"
)

// ResolvedRate is a rate plus how it was obtained. Known is false when no real
// rate could be found anywhere and the identity pass-through is in effect.
type ResolvedRate struct {
	domain.Rate
	Known bool
	Stale bool
}

// RateResolver supplies rates against the base currency with caching and
// graceful degradation. It never returns an error: a missing rate degrades to
// the last cached value, and failing that to the identity rate, because
// blocking money entry on a rate lookup is worse than an approximate
// conversion.
type RateResolver struct {
	marketFeed RateFeed
	cryptoFeed RateFeed
	cache      RateCache
	freshFor   time.Duration
	metrics    *metrics.Metrics
	logger     zerolog.Logger
	now        func() time.Time
}

// NewRateResolver creates a new RateResolver. freshFor is how long a cached
// rate is served without consulting the feed.
func NewRateResolver(marketFeed, cryptoFeed RateFeed, cache RateCache, freshFor time.Duration, logger zerolog.Logger) *RateResolver {
	return &RateResolver{
		marketFeed: marketFeed,
		cryptoFeed: cryptoFeed,
		cache:      cache,
		freshFor:   freshFor,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// UseMetrics attaches rate-resolution instrumentation.
func (r *RateResolver) UseMetrics(m *metrics.Metrics) {
	r.metrics = m
}

func (r *RateResolver) countCache(outcome string) {
	if r.metrics != nil {
		r.metrics.RateCacheHits.WithLabelValues(outcome).Inc()
	}
}

func (r *RateResolver) countFetch(feed, outcome string) {
	if r.metrics != nil {
		r.metrics.RateFetches.WithLabelValues(feed, outcome).Inc()
	}
}

// RateToBase resolves the rate of currency against the base currency.
// Stablecoins resolve through their routing currency; unrecognized codes get
// the identity rate plus a diagnostic warning.
func (r *RateResolver) RateToBase(ctx context.Context, currency domain.Currency) ResolvedRate {
	now := r.now()

	if !currency.Supported() {
		r.logger.Warn().
			Str("currency", currency.String()).
			Msg("unsupported currency, passing through identity rate")

		return r.identity(currency, now)
	}

	routing := currency.RoutingCurrency()
	if routing == domain.BaseCurrency {
		return ResolvedRate{
			Rate: domain.Rate{
				Currency:  currency,
				ToBase:    decimal.NewFromInt(1),
				Source:    domain.RateSourceMarket,
				FetchedAt: now,
			},
			Known: true,
		}
	}

	// Fresh cache hit short-circuits the feed entirely. Readers never wait
	// on an in-flight refresh; they use the last-known value.
	cached, cacheErr := r.cache.Get(ctx, routing)
	if cacheErr == nil && now.Sub(cached.FetchedAt) < r.freshFor {
		r.countCache("hit")
		return ResolvedRate{Rate: r.rebrand(cached, currency), Known: true}
	}

	r.countCache("miss")

	feed, feedName := r.marketFeed, "market"
	if routing.IsCrypto() {
		feed, feedName = r.cryptoFeed, "crypto"
	}

	toBase, err := feed.FetchRateToBase(ctx, routing)
	if err == nil && toBase.GreaterThan(decimal.Zero) {
		rate := domain.Rate{
			Currency:  routing,
			ToBase:    toBase,
			Source:    domain.RateSourceMarket,
			FetchedAt: now,
		}

		if setErr := r.cache.Set(ctx, rate); setErr != nil {
			r.logger.Warn().Err(setErr).
				Str("currency", routing.String()).
				Msg("failed to cache rate")
		}

		r.countFetch(feedName, "ok")

		return ResolvedRate{Rate: r.rebrand(rate, currency), Known: true}
	}

	// Feed failed: serve the stale cached value rather than failing.
	if cacheErr == nil {
		r.countFetch(feedName, "stale")
		r.logger.Warn().Err(err).
			Str("currency", routing.String()).
			Time("fetched_at", cached.FetchedAt).
			Msg("rate feed unavailable, serving stale cached rate")

		return ResolvedRate{Rate: r.rebrand(cached, currency), Known: true, Stale: true}
	}

	r.logger.Warn().Err(err).
		Str("currency", currency.String()).
		Msg("no rate available, passing through identity rate")

	r.countFetch(feedName, "identity")

	return r.identity(currency, now)
}

func (r *RateResolver) identity(currency domain.Currency, now time.Time) ResolvedRate {
	return ResolvedRate{
		Rate: domain.Rate{
			Currency:  currency,
			ToBase:    decimal.NewFromInt(1),
			Source:    domain.RateSourceMarket,
			FetchedAt: now,
		},
		Known: false,
	}
}

// rebrand relabels a routing-currency rate with the originally requested
// code, so USDT callers see a USDT rate even though USD was resolved.
func (r *RateResolver) rebrand(rate domain.Rate, currency domain.Currency) domain.Rate {
	rate.Currency = currency
	return rate
}

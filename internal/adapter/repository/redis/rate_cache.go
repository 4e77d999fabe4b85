package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/betops/settlecore/internal/domain"
)

// RateCache implements usecase.RateCache using Redis. Cached rates carry no
// TTL: a stale rate is the resolver's fallback when the feed is down, so
// entries are overwritten on refresh but never expired.
type RateCache struct {
	client *redis.Client
	prefix string
}

// NewRateCache creates a new RateCache.
func NewRateCache(client *redis.Client) *RateCache {
	return &RateCache{
		client: client,
		prefix: "rate:",
	}
}

type cachedRate struct {
	Currency  string    `json:"currency"`
	ToBase    string    `json:"to_base"`
	Source    string    `json:"source"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Get returns the last cached rate for a currency, or
// domain.ErrRateUnavailable when the currency has never been cached.
func (c *RateCache) Get(ctx context.Context, currency domain.Currency) (domain.Rate, error) {
	data, err := c.client.Get(ctx, c.prefix+string(currency)).Bytes()
	if err == redis.Nil {
		return domain.Rate{}, domain.ErrRateUnavailable
	}
	if err != nil {
		return domain.Rate{}, err
	}

	var cached cachedRate
	if err := json.Unmarshal(data, &cached); err != nil {
		return domain.Rate{}, fmt.Errorf("decode cached rate for %s: %w", currency, err)
	}

	toBase, err := decimal.NewFromString(cached.ToBase)
	if err != nil {
		return domain.Rate{}, fmt.Errorf("decode cached rate for %s: %w", currency, err)
	}

	return domain.Rate{
		Currency:  domain.Currency(cached.Currency),
		ToBase:    toBase,
		Source:    domain.RateSource(cached.Source),
		FetchedAt: cached.FetchedAt,
	}, nil
}

// Set stores a rate, replacing any previous value for the currency.
func (c *RateCache) Set(ctx context.Context, rate domain.Rate) error {
	data, err := json.Marshal(cachedRate{
		Currency:  string(rate.Currency),
		ToBase:    rate.ToBase.String(),
		Source:    string(rate.Source),
		FetchedAt: rate.FetchedAt,
	})
	if err != nil {
		return err
	}

	return c.client.Set(ctx, c.prefix+string(rate.Currency), data, 0).Err()
}

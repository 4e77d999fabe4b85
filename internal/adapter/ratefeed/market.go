package ratefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/betops/settlecore/internal/domain"
)

const (
	fetchInitialInterval = 100 * time.Millisecond
	fetchMaxElapsedTime  = 5 * time.Second
)

// MarketFeed fetches fiat exchange rates from an HTTP market feed. Rates are
// quoted as base-currency units per one unit of the requested currency.
type MarketFeed struct {
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

// NewMarketFeed creates a new MarketFeed.
func NewMarketFeed(baseURL string, timeout time.Duration, logger zerolog.Logger) *MarketFeed {
	return &MarketFeed{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type marketRateResponse struct {
	Currency   string          `json:"currency"`
	RateToBase decimal.Decimal `json:"rate_to_base"`
	AsOf       time.Time       `json:"as_of"`
}

// FetchRateToBase queries the feed for one currency's rate against the base
// currency, retrying transient failures with exponential backoff. The caller
// (RateResolver) owns all degradation: a returned error here simply means the
// feed could not answer right now.
func (f *MarketFeed) FetchRateToBase(ctx context.Context, currency domain.Currency) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/rates/%s", f.baseURL, currency)

	var rate decimal.Decimal

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := f.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return backoff.Permanent(fmt.Errorf("%s: %w", currency, domain.ErrRateUnavailable))
		case resp.StatusCode != http.StatusOK:
			return fmt.Errorf("market feed returned status %d", resp.StatusCode)
		}

		var body marketRateResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return backoff.Permanent(fmt.Errorf("decode market feed response: %w", err))
		}

		if body.RateToBase.LessThanOrEqual(decimal.Zero) {
			return backoff.Permanent(fmt.Errorf("%s: non-positive rate from feed: %w", currency, domain.ErrRateUnavailable))
		}

		rate = body.RateToBase

		return nil
	}

	if err := backoff.Retry(operation, feedBackoff(ctx)); err != nil {
		f.logger.Warn().Err(err).Str("currency", currency.String()).Msg("market feed fetch failed")
		return decimal.Zero, err
	}

	return rate, nil
}

func feedBackoff(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = fetchInitialInterval
	b.MaxElapsedTime = fetchMaxElapsedTime

	return backoff.WithContext(b, ctx)
}

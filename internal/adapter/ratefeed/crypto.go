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

// CryptoFeed fetches crypto-asset prices from an HTTP price feed. A price is
// the base-currency value of one unit of the asset, which is exactly the
// rate-to-base the resolver needs.
type CryptoFeed struct {
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

// NewCryptoFeed creates a new CryptoFeed.
func NewCryptoFeed(baseURL string, timeout time.Duration, logger zerolog.Logger) *CryptoFeed {
	return &CryptoFeed{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type cryptoPriceResponse struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
	AsOf   time.Time       `json:"as_of"`
}

// FetchRateToBase queries the price feed for one asset, retrying transient
// failures with exponential backoff.
func (f *CryptoFeed) FetchRateToBase(ctx context.Context, currency domain.Currency) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/prices/%s", f.baseURL, currency)

	var price decimal.Decimal

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
			return fmt.Errorf("crypto feed returned status %d", resp.StatusCode)
		}

		var body cryptoPriceResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return backoff.Permanent(fmt.Errorf("decode crypto feed response: %w", err))
		}

		if body.Price.LessThanOrEqual(decimal.Zero) {
			return backoff.Permanent(fmt.Errorf("%s: non-positive price from feed: %w", currency, domain.ErrRateUnavailable))
		}

		price = body.Price

		return nil
	}

	if err := backoff.Retry(operation, feedBackoff(ctx)); err != nil {
		f.logger.Warn().Err(err).Str("currency", currency.String()).Msg("crypto feed fetch failed")
		return decimal.Zero, err
	}

	return price, nil
}

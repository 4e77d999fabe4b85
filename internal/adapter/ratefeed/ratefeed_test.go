package ratefeed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/betops/settlecore/internal/domain"
)

func TestMarketFeedFetchRateToBase(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rates/BRL":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"currency":"BRL","rate_to_base":"0.19","as_of":"2026-01-02T15:04:05Z"}`))
		case "/rates/XXX":
			w.WriteHeader(http.StatusNotFound)
		case "/rates/EUR":
			w.Write([]byte(`{"currency":"EUR","rate_to_base":"0"}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	feed := NewMarketFeed(server.URL, 2*time.Second, zerolog.Nop())
	ctx := context.Background()

	t.Run("returns rate", func(t *testing.T) {
		rate, err := feed.FetchRateToBase(ctx, domain.BRL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !rate.Equal(decimal.RequireFromString("0.19")) {
			t.Errorf("expected 0.19, got %s", rate)
		}
	})

	t.Run("unknown currency is permanent", func(t *testing.T) {
		_, err := feed.FetchRateToBase(ctx, domain.Currency("XXX"))
		if !errors.Is(err, domain.ErrRateUnavailable) {
			t.Errorf("expected ErrRateUnavailable, got %v", err)
		}
	})

	t.Run("non-positive rate rejected", func(t *testing.T) {
		_, err := feed.FetchRateToBase(ctx, domain.EUR)
		if !errors.Is(err, domain.ErrRateUnavailable) {
			t.Errorf("expected ErrRateUnavailable, got %v", err)
		}
	})
}

func TestMarketFeedRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"currency":"GBP","rate_to_base":"1.27"}`))
	}))
	defer server.Close()

	feed := NewMarketFeed(server.URL, 2*time.Second, zerolog.Nop())

	rate, err := feed.FetchRateToBase(context.Background(), domain.GBP)
	if err != nil {
		t.Fatalf("unexpected error after retries: %v", err)
	}

	if !rate.Equal(decimal.RequireFromString("1.27")) {
		t.Errorf("expected 1.27, got %s", rate)
	}

	if calls.Load() < 3 {
		t.Errorf("expected at least 3 calls, got %d", calls.Load())
	}
}

func TestMarketFeedRespectsContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	feed := NewMarketFeed(server.URL, 2*time.Second, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := feed.FetchRateToBase(ctx, domain.BRL); err == nil {
		t.Fatal("expected error with cancelled context")
	}
}

func TestCryptoFeedFetchRateToBase(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/prices/BTC":
			w.Write([]byte(`{"symbol":"BTC","price":"64250.75"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	feed := NewCryptoFeed(server.URL, 2*time.Second, zerolog.Nop())
	ctx := context.Background()

	rate, err := feed.FetchRateToBase(ctx, domain.BTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !rate.Equal(decimal.RequireFromString("64250.75")) {
		t.Errorf("expected 64250.75, got %s", rate)
	}

	if _, err := feed.FetchRateToBase(ctx, domain.ETH); !errors.Is(err, domain.ErrRateUnavailable) {
		t.Errorf("expected ErrRateUnavailable for unlisted asset, got %v", err)
	}
}

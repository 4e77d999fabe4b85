package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type stubIdempotencyStore struct {
	checkFn  func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	updateFn func(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

func (s *stubIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if s.checkFn != nil {
		return s.checkFn(ctx, key, response, ttl)
	}
	return false, nil, nil
}

func (s *stubIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if s.updateFn != nil {
		return s.updateFn(ctx, key, response, ttl)
	}
	return nil
}

func postEntryRequest(key string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts/A1/entries", bytes.NewBufferString(`{"kind":"deposit","amount":"100","currency":"BRL"}`))
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}

	return req
}

func TestIdempotencyMiddleware_PassThrough(t *testing.T) {
	tests := []struct {
		name string
		req  *http.Request
	}{
		{name: "read request", req: httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)},
		{name: "mutating request without key", req: postEntryRequest("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mw := NewIdempotencyMiddleware(&stubIdempotencyStore{
				checkFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
					t.Fatal("store must not be consulted")
					return false, nil, nil
				},
			})

			called := false
			rr := httptest.NewRecorder()
			mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			})).ServeHTTP(rr, tt.req)

			if !called {
				t.Fatal("expected request to pass through to the handler")
			}
		})
	}
}

func TestIdempotencyMiddleware_ReplaysDuplicate(t *testing.T) {
	recorded := `{"id":"entry-1","amount":"100","currency":"BRL"}`

	mw := NewIdempotencyMiddleware(&stubIdempotencyStore{
		checkFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
			return true, []byte(recorded), nil
		},
	})

	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("duplicate must not reach the handler")
	})).ServeHTTP(rr, postEntryRequest("dep-2026-001"))

	if rr.Header().Get("X-Idempotency-Replay") != "true" {
		t.Fatal("expected replay to be marked")
	}

	if rr.Body.String() != recorded {
		t.Fatalf("expected recorded entry replayed, got %s", rr.Body.String())
	}
}

func TestIdempotencyMiddleware_RecordsSuccess(t *testing.T) {
	var (
		storedKey  string
		storedBody []byte
	)

	mw := NewIdempotencyMiddleware(&stubIdempotencyStore{
		updateFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) error {
			storedKey = key
			storedBody = append([]byte(nil), response...)
			return nil
		},
	})

	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"entry-1"}`))
	})).ServeHTTP(rr, postEntryRequest("dep-2026-002"))

	if rr.Code != http.StatusCreated {
		t.Fatalf("unexpected status: %d", rr.Code)
	}

	if storedKey != "dep-2026-002" || string(storedBody) != `{"id":"entry-1"}` {
		t.Fatalf("expected response recorded under the key, got key=%q body=%s", storedKey, storedBody)
	}
}

func TestIdempotencyMiddleware_SkipsFailedResponses(t *testing.T) {
	mw := NewIdempotencyMiddleware(&stubIdempotencyStore{
		updateFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) error {
			t.Fatal("failed responses must not be recorded")
			return nil
		},
	})

	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})).ServeHTTP(rr, postEntryRequest("dep-2026-003"))

	if rr.Code != http.StatusConflict {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
}

func TestIdempotencyMiddleware_StoreFailureBlocksRequest(t *testing.T) {
	mw := NewIdempotencyMiddleware(&stubIdempotencyStore{
		checkFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
			return false, nil, context.DeadlineExceeded
		},
	})

	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run when deduplication is unavailable")
	})).ServeHTTP(rr, postEntryRequest("dep-2026-004"))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 when the store is down, got %d", rr.Code)
	}
}

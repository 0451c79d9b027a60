package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func doRequest(t *testing.T, mw echo.MiddlewareFunc, ip string) error {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Real-IP", ip)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	handler := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	return mw(handler)(c)
}

func TestRateLimit_WithinLimit(t *testing.T) {
	store := NewRateLimiterStore(RateLimitConfig{RequestsPerMinute: 60, BurstSize: 5})
	mw := RateLimit(store)

	for i := 0; i < 5; i++ {
		if err := doRequest(t, mw, "10.0.0.1"); err != nil {
			t.Fatalf("request %d should pass: %v", i, err)
		}
	}
}

func TestRateLimit_ExceedsBurst(t *testing.T) {
	store := NewRateLimiterStore(RateLimitConfig{RequestsPerMinute: 1, BurstSize: 2})
	mw := RateLimit(store)

	doRequest(t, mw, "10.0.0.2")
	doRequest(t, mw, "10.0.0.2")

	err := doRequest(t, mw, "10.0.0.2")
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %v", err)
	}
}

func TestRateLimit_PerKeyIsolation(t *testing.T) {
	store := NewRateLimiterStore(RateLimitConfig{RequestsPerMinute: 1, BurstSize: 1})
	mw := RateLimit(store)

	if err := doRequest(t, mw, "10.0.0.3"); err != nil {
		t.Fatalf("first key should pass: %v", err)
	}
	if err := doRequest(t, mw, "10.0.0.3"); err == nil {
		t.Fatal("first key should now be limited")
	}
	if err := doRequest(t, mw, "10.0.0.4"); err != nil {
		t.Fatalf("second key should be unaffected: %v", err)
	}
}

func TestRateLimit_CustomKeyFunc(t *testing.T) {
	store := NewRateLimiterStore(RateLimitConfig{
		RequestsPerMinute: 1,
		BurstSize:         1,
		KeyFunc: func(c echo.Context) string {
			return c.Request().Header.Get("X-User")
		},
	})
	mw := RateLimit(store)

	e := echo.New()
	handler := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	run := func(user string) error {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-User", user)
		rec := httptest.NewRecorder()
		return mw(handler)(e.NewContext(req, rec))
	}

	if err := run("alice"); err != nil {
		t.Fatalf("alice should pass: %v", err)
	}
	if err := run("alice"); err == nil {
		t.Fatal("alice should be limited")
	}
	if err := run("bob"); err != nil {
		t.Fatalf("bob should be unaffected: %v", err)
	}
}

func TestRateLimiterStore_EvictIdle(t *testing.T) {
	store := NewRateLimiterStore(RateLimitConfig{
		RequestsPerMinute: 60,
		BurstSize:         1,
		IdleEviction:      time.Millisecond,
	})
	mw := RateLimit(store)

	doRequest(t, mw, "10.0.0.5")
	doRequest(t, mw, "10.0.0.6")
	if store.Len() != 2 {
		t.Fatalf("expected 2 buckets, got %d", store.Len())
	}

	time.Sleep(5 * time.Millisecond)
	evicted := store.EvictIdle()
	if evicted != 2 {
		t.Errorf("expected 2 evictions, got %d", evicted)
	}
	if store.Len() != 0 {
		t.Errorf("expected empty store, got %d", store.Len())
	}
}

func TestRequestID_GeneratesAndPreserves(t *testing.T) {
	e := echo.New()
	handler := func(c echo.Context) error {
		rid, _ := c.Get("request_id").(string)
		if rid == "" {
			t.Error("expected request_id in context")
		}
		return c.NoContent(http.StatusOK)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	if err := RequestID()(handler)(e.NewContext(req, rec)); err != nil {
		t.Fatal(err)
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("expected X-Request-ID response header")
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "fixed-id")
	rec = httptest.NewRecorder()
	if err := RequestID()(handler)(e.NewContext(req, rec)); err != nil {
		t.Fatal(err)
	}
	if rec.Header().Get(RequestIDHeader) != "fixed-id" {
		t.Errorf("expected preserved id, got %q", rec.Header().Get(RequestIDHeader))
	}
}

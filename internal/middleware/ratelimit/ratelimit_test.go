package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(perMinute int) (*Limiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC)}
	rl := NewLimiter(Config{RequestsPerMinute: perMinute})
	rl.now = clock.now
	return rl, clock
}

func TestAllowWithinWindow(t *testing.T) {
	rl, clock := newTestLimiter(3)

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Fatal("fourth request in the same minute should be limited")
	}
	if !rl.Allow("10.0.0.2") {
		t.Fatal("other clients have their own window")
	}

	clock.advance(time.Minute)
	if !rl.Allow("10.0.0.1") {
		t.Fatal("a new window should reset the counter")
	}

	if got := rl.GetMetrics().Limited; got != 1 {
		t.Errorf("Limited = %d, want 1", got)
	}
}

func TestWindowIsNotExtendedByTraffic(t *testing.T) {
	rl, clock := newTestLimiter(2)

	rl.Allow("k")
	clock.advance(40 * time.Second)
	rl.Allow("k")
	clock.advance(30 * time.Second)
	if !rl.Allow("k") {
		t.Fatal("window started 70s ago and should have reset")
	}
}

func TestCleanupStaleEntries(t *testing.T) {
	rl, clock := newTestLimiter(10)

	rl.Allow("old")
	clock.advance(11 * time.Minute)
	rl.Allow("fresh")

	if removed := rl.cleanupStaleEntries(); removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if got := rl.GetMetrics().ClientCount; got != 1 {
		t.Errorf("ClientCount = %d, want 1", got)
	}
}

func TestDefaultsApplied(t *testing.T) {
	rl := NewLimiter(Config{})
	if rl.requestsPerMinute != DefaultConfig().RequestsPerMinute {
		t.Errorf("requestsPerMinute = %d", rl.requestsPerMinute)
	}
	if rl.cleanupInterval != DefaultConfig().CleanupInterval {
		t.Errorf("cleanupInterval = %v", rl.cleanupInterval)
	}
}

func TestMiddleware(t *testing.T) {
	rl, _ := newTestLimiter(1)
	key := func(*http.Request) string { return "client" }
	writesOnly := func(r *http.Request) bool { return r.Method != http.MethodGet }
	h := rl.Middleware(key, writesOnly, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		method string
		want   int
	}{
		{http.MethodPost, http.StatusNoContent},
		{http.MethodGet, http.StatusNoContent},
		{http.MethodGet, http.StatusNoContent},
		{http.MethodPut, http.StatusTooManyRequests},
	}
	for i, tt := range tests {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(tt.method, "/api/goal", nil))
		if rec.Code != tt.want {
			t.Errorf("request %d (%s): status = %d, want %d", i+1, tt.method, rec.Code, tt.want)
		}
		if rec.Code == http.StatusTooManyRequests && rec.Header().Get("Retry-After") != "60" {
			t.Errorf("missing Retry-After header")
		}
	}
}

func TestMiddlewareCustomResponse(t *testing.T) {
	rl, _ := newTestLimiter(1)
	called := false
	onLimit := func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusTooManyRequests)
	}
	h := rl.Middleware(func(*http.Request) string { return "c" }, nil, onLimit)(http.NotFoundHandler())

	for i := 0; i < 2; i++ {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}
	if !called {
		t.Fatal("onLimit was not invoked")
	}
}

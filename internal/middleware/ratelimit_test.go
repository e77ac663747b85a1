package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/nicofratini/prospeo-bolt/internal/config"
)

func limiterContext(t *testing.T, userID string) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/properties", nil)
	req.RemoteAddr = "192.0.2.10:4567"
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/properties")
	if userID != "" {
		c.Set("user_id", userID)
	}
	return c
}

// The limiter is mounted globally, before authentication, so the default
// strategy must not depend on a session: an unauthenticated request and a
// would-be "anon" facet would otherwise pool every anonymous caller into a
// single bucket per route.
func TestBucketKeyDefaultIsSessionFree(t *testing.T) {
	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip_route"}

	key := bucketKey(cfg, limiterContext(t, ""))
	if strings.Contains(key, "anon") {
		t.Fatalf("key %q carries a user facet on a pre-auth request", key)
	}
	if !strings.Contains(key, "192.0.2.10") {
		t.Fatalf("key %q missing the client ip", key)
	}
	if !strings.Contains(key, "/v1/properties") {
		t.Fatalf("key %q missing the route", key)
	}

	// An unrecognized strategy falls back to the same ip+route shape.
	cfg.KeyStrategy = "bogus"
	if got := bucketKey(cfg, limiterContext(t, "")); got != key {
		t.Fatalf("fallback key = %q, want %q", got, key)
	}
}

func TestBucketKeyUserStrategies(t *testing.T) {
	cases := []struct {
		strategy string
		userID   string
		want     string
	}{
		{"user", "u-1", "rl:user:u-1"},
		{"user", "", "rl:user:anon"},
		{"user_route", "u-1", "rl:user:u-1:route:GET /v1/properties"},
		{"ip_user", "u-1", "rl:ip:192.0.2.10:user:u-1"},
		{"ip_user_route", "u-1", "rl:ip:192.0.2.10:user:u-1:route:GET /v1/properties"},
		{"ip", "u-1", "rl:ip:192.0.2.10"},
		{"route", "u-1", "rl:route:GET /v1/properties"},
	}
	for _, tc := range cases {
		cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: tc.strategy}
		if got := bucketKey(cfg, limiterContext(t, tc.userID)); got != tc.want {
			t.Errorf("strategy %q: key = %q, want %q", tc.strategy, got, tc.want)
		}
	}
}

func TestTokenBucketNilClientPassesThrough(t *testing.T) {
	mw := TokenBucket(config.RateLimitConfig{Enabled: true}, nil)

	called := false
	err := mw(func(c echo.Context) error {
		called = true
		return nil
	})(limiterContext(t, ""))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !called {
		t.Fatal("next handler not invoked")
	}
}

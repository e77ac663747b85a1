package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/nicofratini/prospeo-bolt/internal/config"
)

func TestCaptureWriterKeepsBodyWithinLimit(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 64}

	if _, err := cw.Write([]byte("hello ")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := cw.Write([]byte("world")); err != nil {
		t.Fatalf("write: %v", err)
	}

	if cw.overflow {
		t.Fatal("body within limit marked as overflowed")
	}
	if got := cw.buf.String(); got != "hello world" {
		t.Fatalf("captured %q, want %q", got, "hello world")
	}
	if cw.size != 11 {
		t.Fatalf("size = %d, want 11", cw.size)
	}
}

func TestCaptureWriterFlagsOversizedBody(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 10}

	body := strings.Repeat("x", 25)
	if _, err := cw.Write([]byte(body)); err != nil {
		t.Fatalf("write: %v", err)
	}

	if !cw.overflow {
		t.Fatal("oversized body not marked as overflowed")
	}
	if cw.size != 25 {
		t.Fatalf("size = %d, want 25", cw.size)
	}
	// The client still gets the complete body; only the cache copy is
	// abandoned.
	if rec.Body.String() != body {
		t.Fatalf("client body truncated to %d bytes", rec.Body.Len())
	}
	if int64(cw.buf.Len()) > cw.limit {
		t.Fatalf("buffered %d bytes past the limit", cw.buf.Len())
	}
}

func TestCaptureWriterOverflowAcrossWrites(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 10}

	// Each write fits on its own; together they cross the limit.
	_, _ = cw.Write([]byte("123456"))
	_, _ = cw.Write([]byte("789012"))

	if !cw.overflow {
		t.Fatal("cumulative overflow not detected")
	}
	if rec.Body.String() != "123456789012" {
		t.Fatalf("client body = %q", rec.Body.String())
	}
}

func TestCachePayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	body := []byte(`{"voices":[]}`)

	payload, err := encodePayload(http.StatusOK, hdr, body)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	status, gotHdr, gotBody, ok := decodePayload(payload)
	if !ok {
		t.Fatal("decode failed")
	}
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if gotHdr.Get("Content-Type") != "application/json" {
		t.Fatalf("header = %v", gotHdr)
	}
	if string(gotBody) != string(body) {
		t.Fatalf("body = %q", gotBody)
	}
}

func TestRedisCacheDisabledPassesThrough(t *testing.T) {
	mw := RedisCache(config.CacheConfig{Enabled: false}, nil)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/ai/voices", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	err := mw(func(c echo.Context) error {
		called = true
		return c.String(http.StatusOK, "ok")
	})(c)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !called {
		t.Fatal("next handler not invoked")
	}
	if got := rec.Header().Get("X-Cache"); got != "" {
		t.Fatalf("X-Cache = %q, want unset", got)
	}
}

package validate

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/nicofratini/prospeo-bolt/internal/apperr"
)

func ctxFor(target string) echo.Context {
	e := echo.New()
	e.Validator = New()
	req := httptest.NewRequest("GET", target, nil)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestParsePaginationDefaults(t *testing.T) {
	p := ParsePagination(ctxFor("/"))
	if p.Page != 1 || p.Limit != 10 {
		t.Fatalf("defaults = %+v, want page 1 limit 10", p)
	}
}

func TestParsePaginationClamps(t *testing.T) {
	cases := []struct {
		target    string
		page, lim int
	}{
		{"/?page=0&limit=1000", 1, 50},
		{"/?page=-3&limit=0", 1, 1},
		{"/?page=7&limit=25", 7, 25},
		{"/?page=abc&limit=xyz", 1, 10},
		{"/?limit=50", 1, 50},
	}
	for _, tc := range cases {
		p := ParsePagination(ctxFor(tc.target))
		if p.Page != tc.page || p.Limit != tc.lim {
			t.Errorf("%s: got %+v, want page %d limit %d", tc.target, p, tc.page, tc.lim)
		}
	}
}

func TestPaginationOffset(t *testing.T) {
	p := Pagination{Page: 3, Limit: 10}
	if p.Offset() != 20 {
		t.Fatalf("offset = %d, want 20", p.Offset())
	}
}

func TestTotalPages(t *testing.T) {
	cases := []struct {
		total int64
		limit int
		want  int64
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25, 10, 3},
		{100, 50, 2},
	}
	for _, tc := range cases {
		if got := TotalPages(tc.total, tc.limit); got != tc.want {
			t.Errorf("TotalPages(%d, %d) = %d, want %d", tc.total, tc.limit, got, tc.want)
		}
	}
}

type sampleBody struct {
	Name  string `json:"name" validate:"required,min=2"`
	Email string `json:"email" validate:"required,email"`
	Kind  string `json:"kind" validate:"omitempty,oneof=house apartment"`
}

func bindCtx(body string) echo.Context {
	e := echo.New()
	e.Validator = New()
	req := httptest.NewRequest("POST", "/", strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	return e.NewContext(req, httptest.NewRecorder())
}

func TestBindBodyEmpty(t *testing.T) {
	var dst sampleBody
	err := BindBody(bindCtx(""), &dst)
	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Message != "request body is required" {
		t.Fatalf("got %v", err)
	}
}

func TestBindBodyUnknownField(t *testing.T) {
	var dst sampleBody
	err := BindBody(bindCtx(`{"name":"ok","email":"a@b.co","extra":1}`), &dst)
	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Status != 400 {
		t.Fatalf("unknown fields must be rejected, got %v", err)
	}
}

func TestBindBodyMessagesInDeclarationOrder(t *testing.T) {
	var dst sampleBody
	err := BindBody(bindCtx(`{"name":"x","email":"nope","kind":"castle"}`), &dst)
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("got %v", err)
	}
	msg := ae.Message
	wantParts := []string{
		"name must be at least 2 characters",
		"email must be a valid email address",
		"kind must be one of: house, apartment",
	}
	for _, part := range wantParts {
		if !strings.Contains(msg, part) {
			t.Fatalf("message %q missing %q", msg, part)
		}
	}
	if strings.Index(msg, "name") > strings.Index(msg, "email must") {
		t.Fatalf("messages out of declaration order: %q", msg)
	}
	if !strings.Contains(msg, ", ") {
		t.Fatalf("messages must be comma-joined: %q", msg)
	}
}

func TestBindBodyValid(t *testing.T) {
	var dst sampleBody
	if err := BindBody(bindCtx(`{"name":"ok","email":"a@b.co"}`), &dst); err != nil {
		t.Fatalf("valid body rejected: %v", err)
	}
	if dst.Name != "ok" {
		t.Fatalf("bound value lost: %+v", dst)
	}
}

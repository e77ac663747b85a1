package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/nicofratini/prospeo-bolt/internal/apperr"
	"github.com/nicofratini/prospeo-bolt/internal/utils"
)

const secret = "test-secret"

func runJWT(t *testing.T, authHeader string) (echo.Context, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	c := e.NewContext(req, httptest.NewRecorder())

	var seen echo.Context
	err := JWTAuth(secret)(func(c echo.Context) error {
		seen = c
		return nil
	})(c)
	return seen, err
}

func TestJWTAuthSetsIdentityClaims(t *testing.T) {
	tok, err := utils.NewAccessToken(secret, "user-1", "a@b.co", "Ada", 5)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}

	c, err := runJWT(t, "Bearer "+tok.Token)
	if err != nil {
		t.Fatalf("valid token rejected: %v", err)
	}
	if got, _ := c.Get("user_id").(string); got != "user-1" {
		t.Fatalf("user_id = %q", got)
	}
	if got, _ := c.Get("email").(string); got != "a@b.co" {
		t.Fatalf("email = %q", got)
	}
	if got, _ := c.Get("name").(string); got != "Ada" {
		t.Fatalf("name = %q", got)
	}
}

func TestJWTAuthRejects(t *testing.T) {
	wrongSecret, _ := utils.NewAccessToken("other-secret", "user-1", "a@b.co", "Ada", 5)
	expired, _ := utils.NewAccessToken(secret, "user-1", "a@b.co", "Ada", -5)

	cases := map[string]string{
		"missing header": "",
		"not bearer":     "Basic abc",
		"garbage token":  "Bearer not.a.jwt",
		"wrong secret":   "Bearer " + wrongSecret.Token,
		"expired":        "Bearer " + expired.Token,
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := runJWT(t, header)
			var ae *apperr.Error
			if !errors.As(err, &ae) || ae.Status != http.StatusUnauthorized {
				t.Fatalf("got %v, want 401", err)
			}
		})
	}
}

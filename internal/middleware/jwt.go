package middleware // middleware contains reusable HTTP middleware functions

import (
	"strings" // prefix checking and trimming for the Authorization header

	"github.com/golang-jwt/jwt/v5" // JWT parsing and validation
	"github.com/labstack/echo/v4"  // Echo framework types

	"github.com/nicofratini/prospeo-bolt/internal/apperr"
)

// JWTAuth is the session resolver for protected routes. It validates the
// Bearer access token and stores the identity claims (user_id, email,
// name) in the request context, where handlers read them back through
// their own helpers. The secret must match the one used at issue time.
// Requests without a valid token stop here with a 401.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return apperr.Unauthorized()
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			// Parse with HS256 only; any other signing method is rejected
			// so a tampered header cannot downgrade verification.
			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return apperr.Unauthorized()
			}

			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return apperr.Unauthorized()
			}
			sub, _ := claims["sub"].(string)
			if sub == "" {
				return apperr.Unauthorized()
			}

			c.Set("user_id", sub)
			if email, ok := claims["email"].(string); ok {
				c.Set("email", email)
			}
			if name, ok := claims["name"].(string); ok {
				c.Set("name", name)
			}
			return next(c)
		}
	}
}

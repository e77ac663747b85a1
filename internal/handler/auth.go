package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/nicofratini/prospeo-bolt/internal/apperr"
	"github.com/nicofratini/prospeo-bolt/internal/repository"
	"github.com/nicofratini/prospeo-bolt/internal/utils"
	"github.com/nicofratini/prospeo-bolt/internal/validate"
)

// authUserStore is the user access the auth endpoints need.
type authUserStore interface {
	Create(ctx context.Context, name, email, passwordHash string) (repository.User, error)
	GetByEmail(ctx context.Context, email string) (repository.User, error)
	GetByID(ctx context.Context, id string) (repository.User, error)
}

// tokenStore persists refresh-token state.
type tokenStore interface {
	StoreRefresh(ctx context.Context, userID, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (string, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
}

// AuthHandler implements registration and the session lifecycle: login,
// refresh-token rotation and logout.
type AuthHandler struct {
	users  authUserStore
	tokens tokenStore

	jwtSecret      string
	accessTTLMin   int
	refreshTTLDays int
	bcryptCost     int
}

func NewAuthHandler(users authUserStore, tokens tokenStore, jwtSecret string, accessTTLMin, refreshTTLDays, bcryptCost int) *AuthHandler {
	return &AuthHandler{
		users:          users,
		tokens:         tokens,
		jwtSecret:      jwtSecret,
		accessTTLMin:   accessTTLMin,
		refreshTTLDays: refreshTTLDays,
		bcryptCost:     bcryptCost,
	}
}

// userResponse is the public shape of a user. The password hash never
// appears here.
type userResponse struct {
	ID                  string    `json:"id"`
	Email               string    `json:"email"`
	Name                string    `json:"name"`
	OnboardingCompleted bool      `json:"onboarding_completed"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func toUserResponse(u repository.User) userResponse {
	return userResponse{
		ID:                  u.ID,
		Email:               u.Email,
		Name:                u.Name,
		OnboardingCompleted: u.OnboardingCompleted,
		CreatedAt:           u.CreatedAt,
		UpdatedAt:           u.UpdatedAt,
	}
}

// tokenPair is one issued session: a short-lived access JWT plus the
// rotating refresh token.
type tokenPair struct {
	AccessToken      string    `json:"access_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshToken     string    `json:"refresh_token"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// Register creates an account and opens its first session.
// POST /v1/users
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := validate.BindBody(c, &req); err != nil {
		return err
	}

	hash, err := utils.HashPassword(req.Password, h.bcryptCost)
	if err != nil {
		return apperr.Internal(err)
	}
	u, err := h.users.Create(c.Request().Context(), req.Name, req.Email, hash)
	if err != nil {
		return mapRepoErr(err)
	}

	pair, err := h.issueTokens(c.Request().Context(), u)
	if err != nil {
		return apperr.Internal(err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"user": toUserResponse(u), "tokens": pair})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login verifies credentials and issues a session. A wrong email and a
// wrong password answer identically.
// POST /v1/auth/login
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := validate.BindBody(c, &req); err != nil {
		return err
	}

	u, err := h.users.GetByEmail(c.Request().Context(), req.Email)
	if err != nil {
		return invalidCredentials()
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return invalidCredentials()
	}

	pair, err := h.issueTokens(c.Request().Context(), u)
	if err != nil {
		return apperr.Internal(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user": toUserResponse(u), "tokens": pair})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Refresh rotates a refresh token: the presented token is revoked and a
// fresh pair is issued, so each refresh token works at most once.
// POST /v1/auth/refresh
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := validate.BindBody(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	hash := utils.HashRefreshRaw(req.RefreshToken)
	userID, err := h.tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return apperr.Unauthorized()
	}
	u, err := h.users.GetByID(ctx, userID)
	if err != nil {
		return apperr.Unauthorized()
	}
	if err := h.tokens.RevokeByHash(ctx, hash); err != nil {
		return apperr.Internal(err)
	}

	pair, err := h.issueTokens(ctx, u)
	if err != nil {
		return apperr.Internal(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"tokens": pair})
}

// Logout revokes the presented refresh token. Revoking an unknown token
// still answers 204; logout is idempotent.
// POST /v1/auth/logout
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshRequest
	if err := validate.BindBody(c, &req); err != nil {
		return err
	}
	if err := h.tokens.RevokeByHash(c.Request().Context(), utils.HashRefreshRaw(req.RefreshToken)); err != nil {
		return apperr.Internal(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) issueTokens(ctx context.Context, u repository.User) (tokenPair, error) {
	access, err := utils.NewAccessToken(h.jwtSecret, u.ID, u.Email, u.Name, h.accessTTLMin)
	if err != nil {
		return tokenPair{}, err
	}
	refresh, err := utils.NewRefreshToken(h.refreshTTLDays)
	if err != nil {
		return tokenPair{}, err
	}
	if err := h.tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return tokenPair{}, err
	}
	return tokenPair{
		AccessToken:      access.Token,
		AccessExpiresAt:  access.Exp,
		RefreshToken:     refresh.Raw,
		RefreshExpiresAt: refresh.Exp,
	}, nil
}

func invalidCredentials() error {
	return &apperr.Error{Status: http.StatusUnauthorized, Message: "invalid email or password"}
}

package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/nicofratini/prospeo-bolt/internal/apperr"
	"github.com/nicofratini/prospeo-bolt/internal/onboarding"
	"github.com/nicofratini/prospeo-bolt/internal/queue"
	"github.com/nicofratini/prospeo-bolt/internal/repository"
	"github.com/nicofratini/prospeo-bolt/internal/validate"
)

// profileStore is the user access the profile and onboarding endpoints need.
type profileStore interface {
	GetByID(ctx context.Context, id string) (repository.User, error)
	UpdateProfile(ctx context.Context, id string, name, email *string) (repository.User, error)
	Delete(ctx context.Context, id string) error
	OnboardingCompleted(ctx context.Context, id string) (bool, error)
	CompleteOnboarding(ctx context.Context, id string) error
}

// sessionRevoker invalidates every active session of a user.
type sessionRevoker interface {
	RevokeAllForUser(ctx context.Context, userID string) error
}

// OnboardingPublisher emits the onboarding.completed event. Best-effort:
// the handler logs failures and carries on.
type OnboardingPublisher func(ctx context.Context, ev queue.OnboardingCompletedEvent) error

// UserHandler serves the authenticated user's profile and the onboarding
// flow endpoints.
type UserHandler struct {
	users   profileStore
	tokens  sessionRevoker
	flow    *onboarding.Flow
	publish OnboardingPublisher
	log     *zap.Logger
}

func NewUserHandler(users profileStore, tokens sessionRevoker, flow *onboarding.Flow, publish OnboardingPublisher, log *zap.Logger) *UserHandler {
	return &UserHandler{users: users, tokens: tokens, flow: flow, publish: publish, log: log}
}

// Get returns the caller's profile.
// GET /v1/users
func (h *UserHandler) Get(c echo.Context) error {
	id, err := currentUser(c)
	if err != nil {
		return err
	}
	u, err := h.users.GetByID(c.Request().Context(), id.UserID)
	if err != nil {
		return mapRepoErr(err)
	}
	return c.JSON(http.StatusOK, toUserResponse(u))
}

type updateProfileRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=2,max=100"`
	Email *string `json:"email" validate:"omitempty,email"`
}

// Update changes name and/or email; omitted fields stay untouched.
// PUT /v1/users
func (h *UserHandler) Update(c echo.Context) error {
	id, err := currentUser(c)
	if err != nil {
		return err
	}
	var req updateProfileRequest
	if err := validate.BindBody(c, &req); err != nil {
		return err
	}
	if req.Name == nil && req.Email == nil {
		return apperr.BadRequest("nothing to update")
	}

	u, err := h.users.UpdateProfile(c.Request().Context(), id.UserID, req.Name, req.Email)
	if err != nil {
		return mapRepoErr(err)
	}
	return c.JSON(http.StatusOK, toUserResponse(u))
}

// Delete removes the account. Sessions are revoked first so a concurrent
// request cannot refresh itself past the deletion; owned rows cascade in
// the database.
// DELETE /v1/users
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := currentUser(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := h.tokens.RevokeAllForUser(ctx, id.UserID); err != nil {
		return apperr.Internal(err)
	}
	if err := h.users.Delete(ctx, id.UserID); err != nil {
		return mapRepoErr(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// OnboardingStatus reports whether the caller finished the setup flow,
// from a real lookup of the stored flag.
// GET /v1/users/onboarding/status
func (h *UserHandler) OnboardingStatus(c echo.Context) error {
	id, err := currentUser(c)
	if err != nil {
		return err
	}
	done, err := h.users.OnboardingCompleted(c.Request().Context(), id.UserID)
	if err != nil {
		return mapRepoErr(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"completed": done})
}

// OnboardingSteps describes the flow: the ordered steps and the exit path.
// GET /v1/users/onboarding/steps
func (h *UserHandler) OnboardingSteps(c echo.Context) error {
	if _, err := currentUser(c); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"steps":     h.flow.Steps(),
		"exit_path": h.flow.ExitPath(),
	})
}

type navigateRequest struct {
	CurrentStep int    `json:"current_step" validate:"gte=0"`
	Action      string `json:"action" validate:"required,oneof=advance back skip"`
}

// OnboardingNavigate applies one flow action server-side and returns the
// resulting transition. An Advance off the last step marks onboarding
// complete (best-effort) and exits to the dashboard path either way.
// POST /v1/users/onboarding/navigate
func (h *UserHandler) OnboardingNavigate(c echo.Context) error {
	id, err := currentUser(c)
	if err != nil {
		return err
	}
	var req navigateRequest
	if err := validate.BindBody(c, &req); err != nil {
		return err
	}

	var action onboarding.Action
	switch req.Action {
	case "advance":
		action = onboarding.Advance
	case "back":
		action = onboarding.Retreat
	case "skip":
		action = onboarding.Skip
	}

	nav := onboarding.NewNavigator(h.flow, func(ctx context.Context) error {
		return h.completeFor(ctx, id)
	}, h.log)
	tr := nav.Do(c.Request().Context(), req.CurrentStep, action)

	resp := echo.Map{
		"step_index": tr.Index,
		"path":       tr.Path,
		"completed":  tr.Completes,
	}
	if !tr.Exited() {
		resp["step"] = h.flow.Steps()[tr.Index]
	}
	return c.JSON(http.StatusOK, resp)
}

// OnboardingComplete marks the flow finished directly, for clients that
// skip straight to the dashboard. Completing twice is a no-op.
// POST /v1/users/onboarding/complete
func (h *UserHandler) OnboardingComplete(c echo.Context) error {
	id, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.completeFor(c.Request().Context(), id); err != nil {
		return mapRepoErr(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"completed": true})
}

// completeFor sets the flag and emits the lifecycle event. The publish is
// best-effort; only the flag write can fail the operation.
func (h *UserHandler) completeFor(ctx context.Context, id identity) error {
	if err := h.users.CompleteOnboarding(ctx, id.UserID); err != nil {
		return err
	}
	if h.publish != nil {
		ev := queue.OnboardingCompletedEvent{
			UserID:      id.UserID,
			Email:       id.Email,
			CompletedAt: time.Now().UTC().Format(time.RFC3339),
		}
		if err := h.publish(ctx, ev); err != nil && h.log != nil {
			h.log.Warn("onboarding.completed publish failed", zap.Error(err))
		}
	}
	return nil
}

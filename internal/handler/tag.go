package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nicofratini/prospeo-bolt/internal/repository"
	"github.com/nicofratini/prospeo-bolt/internal/validate"
)

// tagStore is the data access for tag CRUD.
type tagStore interface {
	ListByOwner(ctx context.Context, userID string) ([]*repository.Tag, error)
	Create(ctx context.Context, t *repository.Tag) error
	GetByIDAndOwner(ctx context.Context, id, userID string) (*repository.Tag, error)
	DeleteByIDAndOwner(ctx context.Context, id, userID string) error
}

// callTagStore manages assignments between owned calls and owned tags.
type callTagStore interface {
	ListForCall(ctx context.Context, callID, userID string) ([]*repository.Tag, error)
	Assign(ctx context.Context, callID, tagID, userID string) error
	Unassign(ctx context.Context, callID, tagID, userID string) error
}

// callChecker verifies call ownership before assignment mutations.
type callChecker interface {
	ExistsOwned(ctx context.Context, id, userID string) (bool, error)
}

// TagHandler serves tag CRUD plus the call-tag assignment surface.
type TagHandler struct {
	tags     tagStore
	callTags callTagStore
	calls    callChecker
}

func NewTagHandler(tags tagStore, callTags callTagStore, calls callChecker) *TagHandler {
	return &TagHandler{tags: tags, callTags: callTags, calls: calls}
}

// List returns the caller's tags, sorted by name.
// GET /v1/tags
func (h *TagHandler) List(c echo.Context) error {
	id, err := currentUser(c)
	if err != nil {
		return err
	}
	tags, err := h.tags.ListByOwner(c.Request().Context(), id.UserID)
	if err != nil {
		return mapRepoErr(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"tags": tags})
}

type createTagRequest struct {
	Name  string  `json:"name" validate:"required,min=1,max=50"`
	Color *string `json:"color" validate:"omitempty,hexcolor"`
}

// Create adds a tag. Duplicate names within one user answer 409; the same
// name under another user is unrelated.
// POST /v1/tags
func (h *TagHandler) Create(c echo.Context) error {
	id, err := currentUser(c)
	if err != nil {
		return err
	}
	var req createTagRequest
	if err := validate.BindBody(c, &req); err != nil {
		return err
	}

	t := &repository.Tag{UserID: id.UserID, Name: req.Name, Color: req.Color}
	if err := h.tags.Create(c.Request().Context(), t); err != nil {
		return mapRepoErr(err)
	}
	return c.JSON(http.StatusCreated, t)
}

// Delete removes an owned tag; its call assignments cascade away.
// DELETE /v1/tags/:id
func (h *TagHandler) Delete(c echo.Context) error {
	id, err := currentUser(c)
	if err != nil {
		return err
	}
	tagID, err := pathParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.tags.DeleteByIDAndOwner(c.Request().Context(), tagID, id.UserID); err != nil {
		return mapRepoErr(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListForCall returns the tags assigned to one owned call.
// GET /v1/calls/:id/tags
func (h *TagHandler) ListForCall(c echo.Context) error {
	id, err := currentUser(c)
	if err != nil {
		return err
	}
	callID, err := pathParam(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := h.requireCall(ctx, callID, id.UserID); err != nil {
		return err
	}
	tags, err := h.callTags.ListForCall(ctx, callID, id.UserID)
	if err != nil {
		return mapRepoErr(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"tags": tags})
}

type assignTagRequest struct {
	TagID string `json:"tag_id" validate:"required,uuid4"`
}

// Assign links an owned tag to an owned call. Call and tag ownership are
// verified independently, so a foreign id on either side answers 404
// before anything is written.
// POST /v1/calls/:id/tags
func (h *TagHandler) Assign(c echo.Context) error {
	id, err := currentUser(c)
	if err != nil {
		return err
	}
	callID, err := pathParam(c, "id")
	if err != nil {
		return err
	}
	var req assignTagRequest
	if err := validate.BindBody(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	if err := h.requireCall(ctx, callID, id.UserID); err != nil {
		return err
	}
	if _, err := h.tags.GetByIDAndOwner(ctx, req.TagID, id.UserID); err != nil {
		return mapRepoErr(err)
	}
	if err := h.callTags.Assign(ctx, callID, req.TagID, id.UserID); err != nil {
		return mapRepoErr(err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"call_id": callID, "tag_id": req.TagID})
}

// Unassign removes one tag from one call. A missing assignment answers 404
// on every attempt.
// DELETE /v1/calls/:id/tags/:tagId
func (h *TagHandler) Unassign(c echo.Context) error {
	id, err := currentUser(c)
	if err != nil {
		return err
	}
	callID, err := pathParam(c, "id")
	if err != nil {
		return err
	}
	tagID, err := pathParam(c, "tagId")
	if err != nil {
		return err
	}
	if err := h.callTags.Unassign(c.Request().Context(), callID, tagID, id.UserID); err != nil {
		return mapRepoErr(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *TagHandler) requireCall(ctx context.Context, callID, userID string) error {
	ok, err := h.calls.ExistsOwned(ctx, callID, userID)
	if err != nil {
		return mapRepoErr(err)
	}
	if !ok {
		return mapRepoErr(repository.ErrCallNotFound)
	}
	return nil
}

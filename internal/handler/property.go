package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nicofratini/prospeo-bolt/internal/repository"
	"github.com/nicofratini/prospeo-bolt/internal/validate"
)

// propertyStore is the data access the property endpoints need.
type propertyStore interface {
	Create(ctx context.Context, p *repository.Property) error
	ListByOwner(ctx context.Context, userID string) ([]*repository.Property, error)
	GetByIDAndOwner(ctx context.Context, id, userID string) (*repository.Property, error)
	Update(ctx context.Context, p *repository.Property) error
	DeleteByIDAndOwner(ctx context.Context, id, userID string) error
}

// PropertyHandler serves the owner-scoped property CRUD.
type PropertyHandler struct {
	props propertyStore
}

func NewPropertyHandler(props propertyStore) *PropertyHandler {
	return &PropertyHandler{props: props}
}

// propertyRequest is shared by create and update; both accept the full
// mutable column set. Status defaults to active on create when omitted.
type propertyRequest struct {
	Name         string   `json:"name" validate:"required,min=1,max=255"`
	Address      *string  `json:"address" validate:"omitempty,max=500"`
	PropertyType *string  `json:"property_type" validate:"omitempty,oneof=house apartment"`
	Status       string   `json:"status" validate:"omitempty,oneof=active inactive sold"`
	Price        *float64 `json:"price" validate:"omitempty,gt=0"`
	Description  *string  `json:"description" validate:"omitempty,max=5000"`
}

// List returns every property of the caller, newest first.
// GET /v1/properties
func (h *PropertyHandler) List(c echo.Context) error {
	id, err := currentUser(c)
	if err != nil {
		return err
	}
	props, err := h.props.ListByOwner(c.Request().Context(), id.UserID)
	if err != nil {
		return mapRepoErr(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"properties": props})
}

// Create adds a property for the caller.
// POST /v1/properties
func (h *PropertyHandler) Create(c echo.Context) error {
	id, err := currentUser(c)
	if err != nil {
		return err
	}
	var req propertyRequest
	if err := validate.BindBody(c, &req); err != nil {
		return err
	}
	if req.Status == "" {
		req.Status = "active"
	}

	p := &repository.Property{
		UserID:       id.UserID,
		Name:         req.Name,
		Address:      req.Address,
		PropertyType: req.PropertyType,
		Status:       req.Status,
		Price:        req.Price,
		Description:  req.Description,
	}
	if err := h.props.Create(c.Request().Context(), p); err != nil {
		return mapRepoErr(err)
	}
	return c.JSON(http.StatusCreated, p)
}

// Get fetches one owned property.
// GET /v1/properties/:id
func (h *PropertyHandler) Get(c echo.Context) error {
	id, err := currentUser(c)
	if err != nil {
		return err
	}
	propID, err := pathParam(c, "id")
	if err != nil {
		return err
	}
	p, err := h.props.GetByIDAndOwner(c.Request().Context(), propID, id.UserID)
	if err != nil {
		return mapRepoErr(err)
	}
	return c.JSON(http.StatusOK, p)
}

// Update rewrites an owned property's mutable fields.
// PUT /v1/properties/:id
func (h *PropertyHandler) Update(c echo.Context) error {
	id, err := currentUser(c)
	if err != nil {
		return err
	}
	propID, err := pathParam(c, "id")
	if err != nil {
		return err
	}
	var req propertyRequest
	if err := validate.BindBody(c, &req); err != nil {
		return err
	}
	if req.Status == "" {
		req.Status = "active"
	}

	p := &repository.Property{
		ID:           propID,
		UserID:       id.UserID,
		Name:         req.Name,
		Address:      req.Address,
		PropertyType: req.PropertyType,
		Status:       req.Status,
		Price:        req.Price,
		Description:  req.Description,
	}
	if err := h.props.Update(c.Request().Context(), p); err != nil {
		return mapRepoErr(err)
	}
	return c.JSON(http.StatusOK, p)
}

// Delete removes an owned property.
// DELETE /v1/properties/:id
func (h *PropertyHandler) Delete(c echo.Context) error {
	id, err := currentUser(c)
	if err != nil {
		return err
	}
	propID, err := pathParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.props.DeleteByIDAndOwner(c.Request().Context(), propID, id.UserID); err != nil {
		return mapRepoErr(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Package handler contains the HTTP endpoints. Handlers bind and validate
// input, call their store through a narrow interface, and return either a
// response value or an apperr error; status-code mapping happens in the
// central error handler, never here. Each handler declares the interface
// it needs so tests can substitute function-field fakes.
package handler

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/nicofratini/prospeo-bolt/internal/apperr"
	"github.com/nicofratini/prospeo-bolt/internal/repository"
)

// identity is the session identity resolved by the JWT middleware.
type identity struct {
	UserID string
	Email  string
	Name   string
}

// currentUser reads the identity claims the session resolver stored in the
// request context. Handlers on protected routes can rely on UserID being
// set; the guard here only catches wiring mistakes.
func currentUser(c echo.Context) (identity, error) {
	uid, _ := c.Get("user_id").(string)
	if uid == "" {
		return identity{}, apperr.Unauthorized()
	}
	email, _ := c.Get("email").(string)
	name, _ := c.Get("name").(string)
	return identity{UserID: uid, Email: email, Name: name}, nil
}

// pathParam returns a required path parameter or a 400.
func pathParam(c echo.Context, name string) (string, error) {
	v := c.Param(name)
	if v == "" {
		return "", apperr.BadRequest(name + " is required")
	}
	return v, nil
}

// mapRepoErr translates repository sentinels into the API error taxonomy.
// Not-found sentinels cover foreign-owned rows too, so the 404 here never
// discloses existence to non-owners.
func mapRepoErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		return apperr.NotFound("user")
	case errors.Is(err, repository.ErrPropertyNotFound):
		return apperr.NotFound("property")
	case errors.Is(err, repository.ErrCallNotFound):
		return apperr.NotFound("call")
	case errors.Is(err, repository.ErrTagNotFound):
		return apperr.NotFound("tag")
	case errors.Is(err, repository.ErrAgentNotFound):
		return apperr.NotFound("agent configuration")
	case errors.Is(err, repository.ErrAssignmentNotFound):
		return apperr.NotFound("tag assignment")
	case errors.Is(err, repository.ErrEmailExists):
		return apperr.Conflict("email is already registered")
	case errors.Is(err, repository.ErrTagExists):
		return apperr.Conflict("a tag with this name already exists")
	case errors.Is(err, repository.ErrTagAssigned):
		return apperr.Conflict("tag is already assigned to this call")
	}
	return apperr.Internal(err)
}

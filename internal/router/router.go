// Package router wires handlers onto the Echo instance. Route layout:
// public endpoints at the root and under /v1/auth, everything else in the
// /v1 group behind the session resolver.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nicofratini/prospeo-bolt/internal/handler"
	"github.com/nicofratini/prospeo-bolt/internal/middleware"
)

// Deps collects everything the route table needs. Cache is optional; a nil
// value leaves the cacheable routes uncached.
type Deps struct {
	Health     *handler.HealthHandler
	Auth       *handler.AuthHandler
	Users      *handler.UserHandler
	Properties *handler.PropertyHandler
	Calls      *handler.CallHandler
	Tags       *handler.TagHandler
	Agent      *handler.AgentHandler
	Calcom     *handler.CalcomHandler

	JWTSecret string
	Cache     echo.MiddlewareFunc
}

// Register builds the full route table.
func Register(e *echo.Echo, d Deps) {
	e.GET("/healthz", d.Health.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Registration and the session lifecycle are the only open endpoints.
	e.POST("/v1/users", d.Auth.Register)
	auth := e.Group("/v1/auth")
	auth.POST("/login", d.Auth.Login)
	auth.POST("/refresh", d.Auth.Refresh)
	auth.POST("/logout", d.Auth.Logout)

	v1 := e.Group("/v1", middleware.JWTAuth(d.JWTSecret))

	v1.GET("/users", d.Users.Get)
	v1.PUT("/users", d.Users.Update)
	v1.DELETE("/users", d.Users.Delete)
	v1.GET("/users/onboarding/status", d.Users.OnboardingStatus)
	v1.GET("/users/onboarding/steps", d.Users.OnboardingSteps)
	v1.POST("/users/onboarding/navigate", d.Users.OnboardingNavigate)
	v1.POST("/users/onboarding/complete", d.Users.OnboardingComplete)

	v1.GET("/properties", d.Properties.List)
	v1.POST("/properties", d.Properties.Create)
	v1.GET("/properties/:id", d.Properties.Get)
	v1.PUT("/properties/:id", d.Properties.Update)
	v1.DELETE("/properties/:id", d.Properties.Delete)

	v1.GET("/calls", d.Calls.List)
	v1.GET("/calls/:id", d.Calls.Get)
	v1.GET("/calls/:id/tags", d.Tags.ListForCall)
	v1.POST("/calls/:id/tags", d.Tags.Assign)
	v1.DELETE("/calls/:id/tags/:tagId", d.Tags.Unassign)

	v1.GET("/tags", d.Tags.List)
	v1.POST("/tags", d.Tags.Create)
	v1.DELETE("/tags/:id", d.Tags.Delete)

	v1.GET("/ai/agent", d.Agent.Get)
	v1.PUT("/ai/agent", d.Agent.Put)

	v1.GET("/calcom/availability", d.Calcom.Availability)
	v1.GET("/calcom/bookings", d.Calcom.Bookings)
	v1.POST("/calcom/bookings", d.Calcom.CreateBooking)
	v1.DELETE("/calcom/bookings/:id", d.Calcom.CancelBooking)

	// Slow-moving upstream catalogs sit behind the response cache.
	cached := []echo.MiddlewareFunc{}
	if d.Cache != nil {
		cached = append(cached, d.Cache)
	}
	v1.GET("/ai/voices", d.Agent.Voices, cached...)
	v1.GET("/calcom/event-types", d.Calcom.EventTypes, cached...)
}

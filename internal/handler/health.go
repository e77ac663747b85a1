package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger is the slice of *sql.DB the health check needs.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler { return &HealthHandler{db: db} }

// Health reports liveness plus database reachability. A broken database
// still answers 200 with "degraded" so orchestrators can tell the process
// is up while dashboards see the dependency state.
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	dbStatus := "ok"
	if h.db == nil || h.db.PingContext(ctx) != nil {
		status = "degraded"
		dbStatus = "unreachable"
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status": status,
		"db":     dbStatus,
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

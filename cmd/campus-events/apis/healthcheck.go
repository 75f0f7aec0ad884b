package apis

import (
	"campus-events-backend/cmd/campus-events/model"
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type IPinger interface {
	PingContext(ctx context.Context) error
}

type HealthCheckAPI struct {
	db      IPinger
	started time.Time
}

func NewHealthCheckAPI(db IPinger) *HealthCheckAPI {
	return &HealthCheckAPI{
		db:      db,
		started: time.Now(),
	}
}

func (a *HealthCheckAPI) Setup(g *echo.Group) {
	g.GET("/healthz", a.healthCheck)
	g.GET("/api/health", a.healthCheck)
}

func (a *HealthCheckAPI) healthCheck(c echo.Context) error {

	err := a.db.PingContext(c.Request().Context())
	if err != nil {
		return c.JSON(
			http.StatusServiceUnavailable,
			model.BaseResponse{
				Message: "database unavailable",
			},
		)
	}

	return c.JSON(
		http.StatusOK,
		model.BaseResponse{
			Success: true,
			Message: "healthy",
			Data: map[string]any{
				"uptime": time.Since(a.started).Round(time.Second).String(),
			},
		},
	)
}

package apis

import (
	"campus-events-backend/cmd/campus-events/model"
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

type IDashboardService interface {
	Participant(ctx context.Context, actor model.Actor) (model.ParticipantDashboard, error)
}

type DashboardAPI struct {
	dashboardService IDashboardService
	auth             IAuthenticator
}

func NewDashboardAPI(dashboardService IDashboardService, auth IAuthenticator) *DashboardAPI {
	return &DashboardAPI{
		dashboardService: dashboardService,
		auth:             auth,
	}
}

func (a *DashboardAPI) Setup(g *echo.Group) {
	g.GET("/dashboard/participant", a.participant, RequireAuth(a.auth))
}

func (a *DashboardAPI) participant(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	dashboard, err := a.dashboardService.Participant(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, dashboard)
}

package apis

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type IRealtimeHub interface {
	Handler(userID string) http.Handler
}

// RealtimeAPI upgrades authenticated requests to the per-user websocket.
type RealtimeAPI struct {
	hub  IRealtimeHub
	auth IAuthenticator
}

func NewRealtimeAPI(hub IRealtimeHub, auth IAuthenticator) *RealtimeAPI {
	return &RealtimeAPI{
		hub:  hub,
		auth: auth,
	}
}

func (a *RealtimeAPI) Setup(g *echo.Group) {
	g.GET("/ws", a.connect, RequireAuth(a.auth))
}

func (a *RealtimeAPI) connect(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	a.hub.Handler(actor.ID).ServeHTTP(c.Response(), c.Request())
	return nil
}

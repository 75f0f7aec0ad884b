package apis

import (
	"campus-events-backend/cmd/campus-events/model"
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

type IEventService interface {
	List(ctx context.Context, actor *model.Actor, q model.EventListQuery) (model.Page[model.Event], error)
	Get(ctx context.Context, actor *model.Actor, id string) (model.Event, error)
	MyEvents(ctx context.Context, actor model.Actor, q model.EventListQuery) (model.Page[model.Event], error)
	Create(ctx context.Context, actor model.Actor, req model.EventRequest) (model.Event, error)
	Update(ctx context.Context, actor model.Actor, id string, req model.EventUpdateRequest) (model.Event, error)
	Delete(ctx context.Context, actor model.Actor, id string) error
}

type EventAPI struct {
	eventService IEventService
	auth         IAuthenticator
}

func NewEventAPI(eventService IEventService, auth IAuthenticator) *EventAPI {
	return &EventAPI{
		eventService: eventService,
		auth:         auth,
	}
}

func (a *EventAPI) Setup(g *echo.Group) {
	events := g.Group("/events")
	manager := []echo.MiddlewareFunc{RequireAuth(a.auth), RequireRole(model.RoleOrganizer, model.RoleAdmin)}

	events.GET("", a.listEvents, OptionalAuth(a.auth))
	events.GET("/:id", a.getEvent, OptionalAuth(a.auth))
	events.GET("/my/events", a.myEvents, manager...)
	events.POST("", a.createEvent, manager...)
	events.PUT("/:id", a.updateEvent, manager...)
	events.DELETE("/:id", a.deleteEvent, manager...)
}

func (a *EventAPI) listEvents(c echo.Context) error {
	var q model.EventListQuery
	if err := c.Bind(&q); err != nil {
		return err
	}

	page, err := a.eventService.List(c.Request().Context(), optionalActor(c), q)
	if err != nil {
		return err
	}
	return paged(c, page)
}

func (a *EventAPI) myEvents(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var q model.EventListQuery
	if err := c.Bind(&q); err != nil {
		return err
	}

	page, err := a.eventService.MyEvents(c.Request().Context(), actor, q)
	if err != nil {
		return err
	}
	return paged(c, page)
}

func (a *EventAPI) getEvent(c echo.Context) error {
	event, err := a.eventService.Get(c.Request().Context(), optionalActor(c), c.Param("id"))
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, event)
}

func (a *EventAPI) createEvent(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req model.EventRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	event, err := a.eventService.Create(c.Request().Context(), actor, req)
	if err != nil {
		return err
	}
	return success(c, http.StatusCreated, event)
}

func (a *EventAPI) updateEvent(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req model.EventUpdateRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	event, err := a.eventService.Update(c.Request().Context(), actor, c.Param("id"), req)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, event)
}

func (a *EventAPI) deleteEvent(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	if err := a.eventService.Delete(c.Request().Context(), actor, c.Param("id")); err != nil {
		return err
	}
	return successMessage(c, "event deleted")
}

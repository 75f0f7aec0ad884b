package apis

import (
	"bytes"
	"campus-events-backend/cmd/campus-events/model"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
)

type IRegistrationService interface {
	Register(ctx context.Context, actor model.Actor, req model.RegistrationRequest) (model.Registration, error)
	Cancel(ctx context.Context, actor model.Actor, id, reason string) (model.Registration, error)
	UpdateStatus(ctx context.Context, actor model.Actor, id string, req model.RegistrationStatusRequest) (model.Registration, error)
	CheckIn(ctx context.Context, actor model.Actor, id string) (model.Registration, error)
	CheckOut(ctx context.Context, actor model.Actor, id string) (model.Registration, error)
	SubmitFeedback(ctx context.Context, actor model.Actor, id string, req model.FeedbackRequest) (model.Registration, error)
	Get(ctx context.Context, actor model.Actor, id string) (model.RegistrationView, error)
	ListMine(ctx context.Context, actor model.Actor, q model.RegistrationListQuery) (model.Page[model.RegistrationView], error)
	ListAll(ctx context.Context, q model.RegistrationListQuery) (model.Page[model.RegistrationView], error)
	ListForEvent(ctx context.Context, actor model.Actor, eventID string, q model.RegistrationListQuery) (model.Page[model.RegistrationView], error)
	Attendance(ctx context.Context, actor model.Actor, eventID string) ([]model.Registration, error)
	Export(ctx context.Context, actor model.Actor, eventID string, w io.Writer) error
	Import(ctx context.Context, actor model.Actor, eventID string, r io.Reader) ([]model.RegistrationImportResult, error)
	Recompute(ctx context.Context, actor model.Actor, eventID string) (model.EventCounters, error)
}

type RegistrationAPI struct {
	registrationService IRegistrationService
	auth                IAuthenticator
}

func NewRegistrationAPI(registrationService IRegistrationService, auth IAuthenticator) *RegistrationAPI {
	return &RegistrationAPI{
		registrationService: registrationService,
		auth:                auth,
	}
}

func (a *RegistrationAPI) Setup(g *echo.Group) {
	authed := RequireAuth(a.auth)
	manager := RequireRole(model.RoleOrganizer, model.RoleAdmin)

	g.GET("/events/:id/registrations", a.listEventRegistrations, authed, manager)

	registrations := g.Group("/registrations", authed)
	registrations.POST("", a.register)
	registrations.GET("", a.listAll, RequireRole(model.RoleAdmin))
	registrations.GET("/my", a.listMine)
	registrations.GET("/:id", a.getRegistration)
	registrations.DELETE("/:id", a.cancel)
	registrations.POST("/:id/feedback", a.submitFeedback)
	registrations.PUT("/:id/status", a.updateStatus, manager)
	registrations.POST("/:id/checkin", a.checkIn, manager)
	registrations.POST("/:id/checkout", a.checkOut, manager)
	registrations.GET("/event/:eventId/attendance", a.attendance, manager)
	registrations.GET("/event/:eventId/export", a.export, manager)
	registrations.POST("/event/:eventId/import", a.importCSV, manager)
	registrations.POST("/event/:eventId/recompute", a.recompute, manager)
}

func (a *RegistrationAPI) register(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req model.RegistrationRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	registration, err := a.registrationService.Register(c.Request().Context(), actor, req)
	if err != nil {
		return err
	}
	return success(c, http.StatusCreated, registration)
}

func (a *RegistrationAPI) listAll(c echo.Context) error {
	var q model.RegistrationListQuery
	if err := c.Bind(&q); err != nil {
		return err
	}

	page, err := a.registrationService.ListAll(c.Request().Context(), q)
	if err != nil {
		return err
	}
	return paged(c, page)
}

func (a *RegistrationAPI) listMine(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var q model.RegistrationListQuery
	if err := c.Bind(&q); err != nil {
		return err
	}

	page, err := a.registrationService.ListMine(c.Request().Context(), actor, q)
	if err != nil {
		return err
	}
	return paged(c, page)
}

func (a *RegistrationAPI) listEventRegistrations(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var q model.RegistrationListQuery
	if err := c.Bind(&q); err != nil {
		return err
	}

	page, err := a.registrationService.ListForEvent(c.Request().Context(), actor, c.Param("id"), q)
	if err != nil {
		return err
	}
	return paged(c, page)
}

func (a *RegistrationAPI) getRegistration(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	registration, err := a.registrationService.Get(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, registration)
}

func (a *RegistrationAPI) cancel(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req model.CancelRegistrationRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	registration, err := a.registrationService.Cancel(c.Request().Context(), actor, c.Param("id"), req.Reason)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, registration)
}

func (a *RegistrationAPI) updateStatus(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req model.RegistrationStatusRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	registration, err := a.registrationService.UpdateStatus(c.Request().Context(), actor, c.Param("id"), req)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, registration)
}

func (a *RegistrationAPI) checkIn(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	registration, err := a.registrationService.CheckIn(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, registration)
}

func (a *RegistrationAPI) checkOut(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	registration, err := a.registrationService.CheckOut(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, registration)
}

func (a *RegistrationAPI) submitFeedback(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req model.FeedbackRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	registration, err := a.registrationService.SubmitFeedback(c.Request().Context(), actor, c.Param("id"), req)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, registration)
}

func (a *RegistrationAPI) attendance(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	registrations, err := a.registrationService.Attendance(c.Request().Context(), actor, c.Param("eventId"))
	if err != nil {
		return err
	}
	if registrations == nil {
		registrations = []model.Registration{}
	}
	return success(c, http.StatusOK, registrations)
}

func (a *RegistrationAPI) export(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	eventID := c.Param("eventId")

	var buf bytes.Buffer
	if err := a.registrationService.Export(c.Request().Context(), actor, eventID, &buf); err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=registrations-%s.csv", eventID))
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// importCSV registers every participant listed in the uploaded csvfile.
func (a *RegistrationAPI) importCSV(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	csvfile, err := c.FormFile("csvfile")
	if err != nil {
		return model.ErrValidation("csvfile is required")
	}

	cf, err := csvfile.Open()
	if err != nil {
		return model.ErrValidation("csvfile could not be read")
	}
	defer cf.Close()

	results, err := a.registrationService.Import(c.Request().Context(), actor, c.Param("eventId"), cf)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, results)
}

func (a *RegistrationAPI) recompute(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	counters, err := a.registrationService.Recompute(c.Request().Context(), actor, c.Param("eventId"))
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, counters)
}

package apis

import (
	"campus-events-backend/cmd/campus-events/model"
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

type INotificationService interface {
	List(ctx context.Context, actor model.Actor, q model.NotificationListQuery) (model.Page[model.Notification], error)
	Get(ctx context.Context, actor model.Actor, id string) (model.Notification, error)
	UnreadCount(ctx context.Context, actor model.Actor) (int64, error)
	MarkRead(ctx context.Context, actor model.Actor, id string) (model.Notification, error)
	MarkAllRead(ctx context.Context, actor model.Actor) (int64, error)
	TrackOpen(ctx context.Context, actor model.Actor, id string) (model.Notification, error)
	TrackClick(ctx context.Context, actor model.Actor, id string, ch model.Channel) (model.Notification, error)
	Delete(ctx context.Context, actor model.Actor, id string) error
	Send(ctx context.Context, sender *model.Actor, req model.NotificationRequest) (model.Notification, error)
	SendBulk(ctx context.Context, sender *model.Actor, req model.BulkNotificationRequest) (model.BulkNotificationResult, error)
	Retry(ctx context.Context, id string) (model.Notification, error)
	TestEmail(ctx context.Context, to string) error
}

type NotificationAPI struct {
	notificationService INotificationService
	auth                IAuthenticator
}

func NewNotificationAPI(notificationService INotificationService, auth IAuthenticator) *NotificationAPI {
	return &NotificationAPI{
		notificationService: notificationService,
		auth:                auth,
	}
}

func (a *NotificationAPI) Setup(g *echo.Group) {
	manager := RequireRole(model.RoleOrganizer, model.RoleAdmin)

	notifications := g.Group("/notifications", RequireAuth(a.auth))
	notifications.GET("", a.listNotifications)
	notifications.GET("/unread-count", a.unreadCount)
	notifications.PUT("/read-all", a.markAllRead)
	notifications.GET("/:id", a.getNotification)
	notifications.PUT("/:id/read", a.markRead)
	notifications.POST("/:id/opened", a.trackOpen)
	notifications.POST("/:id/clicked", a.trackClick)
	notifications.DELETE("/:id", a.deleteNotification)
	notifications.POST("/send", a.send, manager)
	notifications.POST("/send-bulk", a.sendBulk, manager)
	notifications.POST("/:id/retry", a.retry, manager)
	notifications.POST("/test-email", a.testEmail, RequireRole(model.RoleAdmin))
}

func (a *NotificationAPI) listNotifications(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var q model.NotificationListQuery
	if err := c.Bind(&q); err != nil {
		return err
	}

	page, err := a.notificationService.List(c.Request().Context(), actor, q)
	if err != nil {
		return err
	}
	return paged(c, page)
}

func (a *NotificationAPI) unreadCount(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	count, err := a.notificationService.UnreadCount(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, map[string]int64{"count": count})
}

func (a *NotificationAPI) markAllRead(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	count, err := a.notificationService.MarkAllRead(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, map[string]int64{"updated": count})
}

func (a *NotificationAPI) getNotification(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	notification, err := a.notificationService.Get(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, notification)
}

func (a *NotificationAPI) markRead(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	notification, err := a.notificationService.MarkRead(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, notification)
}

func (a *NotificationAPI) trackOpen(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	notification, err := a.notificationService.TrackOpen(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, notification)
}

// trackClick takes the channel from ?channel=, email when absent.
func (a *NotificationAPI) trackClick(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	ch := model.Channel(c.QueryParam("channel"))
	notification, err := a.notificationService.TrackClick(c.Request().Context(), actor, c.Param("id"), ch)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, notification)
}

func (a *NotificationAPI) deleteNotification(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	if err := a.notificationService.Delete(c.Request().Context(), actor, c.Param("id")); err != nil {
		return err
	}
	return successMessage(c, "notification deleted")
}

func (a *NotificationAPI) send(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req model.NotificationRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	notification, err := a.notificationService.Send(c.Request().Context(), &actor, req)
	if err != nil {
		return err
	}
	return success(c, http.StatusCreated, notification)
}

func (a *NotificationAPI) sendBulk(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req model.BulkNotificationRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	result, err := a.notificationService.SendBulk(c.Request().Context(), &actor, req)
	if err != nil {
		return err
	}
	return success(c, http.StatusCreated, result)
}

func (a *NotificationAPI) retry(c echo.Context) error {
	notification, err := a.notificationService.Retry(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, notification)
}

func (a *NotificationAPI) testEmail(c echo.Context) error {
	var req model.TestEmailRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if err := a.notificationService.TestEmail(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return successMessage(c, "test email sent")
}

package apis

import (
	"campus-events-backend/cmd/campus-events/model"
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

type IUserService interface {
	List(ctx context.Context, q model.UserListQuery) (model.Page[model.User], error)
	Get(ctx context.Context, id string) (model.User, error)
	Create(ctx context.Context, req model.CreateUserRequest) (model.User, error)
	Update(ctx context.Context, id string, req model.UpdateUserRequest) (model.User, error)
	Deactivate(ctx context.Context, actor model.Actor, id string) error
}

type UserAPI struct {
	userService IUserService
	auth        IAuthenticator
}

func NewUserAPI(userService IUserService, auth IAuthenticator) *UserAPI {
	return &UserAPI{
		userService: userService,
		auth:        auth,
	}
}

func (a *UserAPI) Setup(g *echo.Group) {
	users := g.Group("/users", RequireAuth(a.auth), RequireRole(model.RoleAdmin))
	users.GET("", a.listUsers)
	users.POST("", a.createUser)
	users.GET("/:id", a.getUser)
	users.PUT("/:id", a.updateUser)
	users.DELETE("/:id", a.deleteUser)
}

func (a *UserAPI) listUsers(c echo.Context) error {
	var q model.UserListQuery
	if err := c.Bind(&q); err != nil {
		return err
	}

	page, err := a.userService.List(c.Request().Context(), q)
	if err != nil {
		return err
	}
	return paged(c, page)
}

func (a *UserAPI) getUser(c echo.Context) error {
	user, err := a.userService.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, user)
}

func (a *UserAPI) createUser(c echo.Context) error {
	var req model.CreateUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := a.userService.Create(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return success(c, http.StatusCreated, user)
}

func (a *UserAPI) updateUser(c echo.Context) error {
	var req model.UpdateUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := a.userService.Update(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, user)
}

func (a *UserAPI) deleteUser(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	if err := a.userService.Deactivate(c.Request().Context(), actor, c.Param("id")); err != nil {
		return err
	}
	return successMessage(c, "user deactivated")
}

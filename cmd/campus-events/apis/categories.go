package apis

import (
	"campus-events-backend/cmd/campus-events/model"
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

type ICategoryService interface {
	Tree(ctx context.Context, includeInactive bool) ([]*model.Category, error)
	Get(ctx context.Context, id string) (model.Category, error)
	Create(ctx context.Context, actor model.Actor, req model.CategoryRequest) (model.Category, error)
	Update(ctx context.Context, id string, req model.CategoryUpdateRequest) (model.Category, error)
	Delete(ctx context.Context, id string) error
}

type CategoryAPI struct {
	categoryService ICategoryService
	auth            IAuthenticator
}

func NewCategoryAPI(categoryService ICategoryService, auth IAuthenticator) *CategoryAPI {
	return &CategoryAPI{
		categoryService: categoryService,
		auth:            auth,
	}
}

func (a *CategoryAPI) Setup(g *echo.Group) {
	categories := g.Group("/categories")
	admin := []echo.MiddlewareFunc{RequireAuth(a.auth), RequireRole(model.RoleAdmin)}

	categories.GET("", a.listCategories, OptionalAuth(a.auth))
	categories.GET("/:id", a.getCategory)
	categories.POST("", a.createCategory, admin...)
	categories.PUT("/:id", a.updateCategory, admin...)
	categories.DELETE("/:id", a.deleteCategory, admin...)
}

// listCategories returns the category forest. Inactive categories are
// only included for admins asking for them.
func (a *CategoryAPI) listCategories(c echo.Context) error {
	includeInactive := false
	if actor, ok := actorFrom(c); ok && actor.IsAdmin() {
		includeInactive = c.QueryParam("include_inactive") == "true"
	}

	tree, err := a.categoryService.Tree(c.Request().Context(), includeInactive)
	if err != nil {
		return err
	}
	if tree == nil {
		tree = []*model.Category{}
	}
	return success(c, http.StatusOK, tree)
}

func (a *CategoryAPI) getCategory(c echo.Context) error {
	category, err := a.categoryService.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, category)
}

func (a *CategoryAPI) createCategory(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req model.CategoryRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	category, err := a.categoryService.Create(c.Request().Context(), actor, req)
	if err != nil {
		return err
	}
	return success(c, http.StatusCreated, category)
}

func (a *CategoryAPI) updateCategory(c echo.Context) error {
	var req model.CategoryUpdateRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	category, err := a.categoryService.Update(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, category)
}

func (a *CategoryAPI) deleteCategory(c echo.Context) error {
	if err := a.categoryService.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return successMessage(c, "category deleted")
}

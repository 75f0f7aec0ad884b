package apis

import (
	"campus-events-backend/cmd/campus-events/model"
	"context"
	"slices"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	TokenCookie = "jwt"

	actorKey = "actor"
)

type IAuthenticator interface {
	Authenticate(ctx context.Context, raw string) (model.User, error)
}

// tokenFrom reads the session token from the cookie, a bearer header or
// the token query parameter, in that order.
func tokenFrom(c echo.Context) string {
	if cookie, err := c.Cookie(TokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if scheme, token, ok := strings.Cut(c.Request().Header.Get(echo.HeaderAuthorization), " "); ok && strings.EqualFold(scheme, "bearer") {
		return strings.TrimSpace(token)
	}
	return c.QueryParam("token")
}

func authenticate(c echo.Context, auth IAuthenticator, raw string) error {
	user, err := auth.Authenticate(c.Request().Context(), raw)
	if err != nil {
		return err
	}
	c.Set(actorKey, model.Actor{ID: user.ID, Role: user.Role})
	return nil
}

// RequireAuth rejects requests without a valid session token.
func RequireAuth(auth IAuthenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := tokenFrom(c)
			if raw == "" {
				return model.ErrUnauthorized("not authorized to access this route")
			}
			if err := authenticate(c, auth, raw); err != nil {
				return err
			}
			return next(c)
		}
	}
}

// OptionalAuth identifies the caller when a valid token is present and
// lets anonymous requests through otherwise.
func OptionalAuth(auth IAuthenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if raw := tokenFrom(c); raw != "" {
				// An invalid token is treated as no token.
				_ = authenticate(c, auth, raw)
			}
			return next(c)
		}
	}
}

// RequireRole must run after RequireAuth.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, ok := actorFrom(c)
			if !ok {
				return model.ErrUnauthorized("not authorized to access this route")
			}
			if !slices.Contains(roles, actor.Role) {
				return model.ErrForbidden("user role %s is not authorized to access this route", actor.Role)
			}
			return next(c)
		}
	}
}

func actorFrom(c echo.Context) (model.Actor, bool) {
	actor, ok := c.Get(actorKey).(model.Actor)
	return actor, ok
}

// currentActor is used by handlers mounted behind RequireAuth.
func currentActor(c echo.Context) (model.Actor, error) {
	actor, ok := actorFrom(c)
	if !ok {
		return model.Actor{}, model.ErrUnauthorized("not authorized to access this route")
	}
	return actor, nil
}

func optionalActor(c echo.Context) *model.Actor {
	actor, ok := actorFrom(c)
	if !ok {
		return nil
	}
	return &actor
}

package apis

import (
	"campus-events-backend/cmd/campus-events/model"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestTokenFrom(t *testing.T) {
	e := newTestEcho()

	tests := []struct {
		name    string
		prepare func(r *http.Request)
		want    string
	}{
		{
			name:    "none",
			prepare: func(r *http.Request) {},
			want:    "",
		},
		{
			name: "cookie",
			prepare: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: TokenCookie, Value: "from-cookie"})
				r.Header.Set(echo.HeaderAuthorization, "Bearer from-header")
			},
			want: "from-cookie",
		},
		{
			name: "bearer",
			prepare: func(r *http.Request) {
				r.Header.Set(echo.HeaderAuthorization, "bearer from-header")
			},
			want: "from-header",
		},
		{
			name: "basic auth is ignored",
			prepare: func(r *http.Request) {
				r.Header.Set(echo.HeaderAuthorization, "Basic YWRhOnNlY3JldA==")
			},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.prepare(req)
			c := e.NewContext(req, httptest.NewRecorder())

			assert.Equal(t, tt.want, tokenFrom(c))
		})
	}

	t.Run("query", func(t *testing.T) {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/ws?token=from-query", nil), httptest.NewRecorder())
		assert.Equal(t, "from-query", tokenFrom(c))
	})
}

func protectedServer(auth IAuthenticator, roles ...model.Role) *echo.Echo {
	e := newTestEcho()
	mw := []echo.MiddlewareFunc{RequireAuth(auth)}
	if len(roles) > 0 {
		mw = append(mw, RequireRole(roles...))
	}
	e.GET("/private", func(c echo.Context) error {
		actor, err := currentActor(c)
		if err != nil {
			return err
		}
		return success(c, http.StatusOK, actor.ID)
	}, mw...)
	e.GET("/public", func(c echo.Context) error {
		if actor := optionalActor(c); actor != nil {
			return success(c, http.StatusOK, actor.ID)
		}
		return success(c, http.StatusOK, "anonymous")
	}, OptionalAuth(auth))
	return e
}

func TestRequireAuth(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		auth := new(MockAuthService)
		e := protectedServer(auth)
		rec := httptest.NewRecorder()

		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/private", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "not authorized to access this route", decodeResponse(t, rec).Message)
		auth.AssertNotCalled(t, "Authenticate", mock.Anything, mock.Anything)
	})

	t.Run("rejected token", func(t *testing.T) {
		auth := new(MockAuthService)
		auth.On("Authenticate", mock.Anything, "stale").
			Return(model.User{}, model.ErrUnauthorized("password recently changed, please log in again"))
		e := protectedServer(auth)
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer stale")
		rec := httptest.NewRecorder()

		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "password recently changed, please log in again", decodeResponse(t, rec).Message)
	})

	t.Run("valid token", func(t *testing.T) {
		auth := new(MockAuthService)
		auth.On("Authenticate", mock.Anything, "good").
			Return(model.User{ID: "ada", Role: model.RoleParticipant}, nil)
		e := protectedServer(auth)
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		req.AddCookie(&http.Cookie{Name: TokenCookie, Value: "good"})
		rec := httptest.NewRecorder()

		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ada", decodeResponse(t, rec).Data)
		auth.AssertExpectations(t)
	})
}

func TestRequireRole(t *testing.T) {
	auth := new(MockAuthService)
	auth.On("Authenticate", mock.Anything, "participant").
		Return(model.User{ID: "ada", Role: model.RoleParticipant}, nil)
	auth.On("Authenticate", mock.Anything, "organizer").
		Return(model.User{ID: "grace", Role: model.RoleOrganizer}, nil)
	e := protectedServer(auth, model.RoleOrganizer, model.RoleAdmin)

	req := httptest.NewRequest(http.MethodGet, "/private?token=participant", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "user role participant is not authorized to access this route", decodeResponse(t, rec).Message)

	req = httptest.NewRequest(http.MethodGet, "/private?token=organizer", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOptionalAuth(t *testing.T) {
	auth := new(MockAuthService)
	auth.On("Authenticate", mock.Anything, "good").
		Return(model.User{ID: "ada", Role: model.RoleParticipant}, nil)
	auth.On("Authenticate", mock.Anything, "bad").
		Return(model.User{}, model.ErrUnauthorized("invalid token"))
	e := protectedServer(auth)

	tests := map[string]string{
		"/public":            "anonymous",
		"/public?token=bad":  "anonymous",
		"/public?token=good": "ada",
	}
	for target, want := range tests {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

		assert.Equal(t, http.StatusOK, rec.Code, target)
		assert.Equal(t, want, decodeResponse(t, rec).Data, target)
	}
}

package apis

import (
	"campus-events-backend/cmd/campus-events/model"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

func newTestAuthAPI() (*AuthAPI, *MockAuthService) {
	svc := new(MockAuthService)
	api := NewAuthAPI(svc, CookieConfig{Secure: true, TTL: 24 * time.Hour})
	api.now = func() time.Time { return testNow }
	return api, svc
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == TokenCookie {
			return cookie
		}
	}
	require.FailNow(t, "no session cookie set")
	return nil
}

func TestAuthAPI_Login_Success(t *testing.T) {
	e := newTestEcho()
	req := jsonRequest(t, http.MethodPost, "/api/auth/login", model.LoginRequest{
		Email:    "ada@example.edu",
		Password: "Secret123",
	})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	api, svc := newTestAuthAPI()
	svc.On("Login", mock.Anything, model.LoginRequest{Email: "ada@example.edu", Password: "Secret123"}).
		Return(model.AuthResult{User: model.User{ID: "ada", Email: "ada@example.edu"}, Token: "signed.jwt.token"}, nil)

	call(e, c, api.login)

	assert.Equal(t, http.StatusOK, rec.Code)
	response := decodeResponse(t, rec)
	assert.True(t, response.Success)
	var result model.AuthResult
	decodeData(t, response, &result)
	assert.Equal(t, "signed.jwt.token", result.Token)
	assert.Equal(t, "ada", result.User.ID)

	cookie := sessionCookie(t, rec)
	assert.Equal(t, "signed.jwt.token", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.True(t, testNow.Add(24*time.Hour).Equal(cookie.Expires))

	svc.AssertExpectations(t)
}

func TestAuthAPI_Login_Locked(t *testing.T) {
	e := newTestEcho()
	req := jsonRequest(t, http.MethodPost, "/api/auth/login", model.LoginRequest{
		Email:    "ada@example.edu",
		Password: "Secret123",
	})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	api, svc := newTestAuthAPI()
	svc.On("Login", mock.Anything, mock.Anything).
		Return(model.AuthResult{}, model.ErrLocked("account is temporarily locked due to too many failed login attempts"))

	call(e, c, api.login)

	assert.Equal(t, http.StatusLocked, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestAuthAPI_Register_ValidationError(t *testing.T) {
	e := newTestEcho()
	req := jsonRequest(t, http.MethodPost, "/api/auth/register", map[string]string{
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"email":      "ada@example.edu",
		"password":   "password",
	})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	api, svc := newTestAuthAPI()

	call(e, c, api.register)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	response := decodeResponse(t, rec)
	assert.Equal(t, map[string]string{"password": "password"}, response.Errors)
	svc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
}

func TestAuthAPI_Register_Created(t *testing.T) {
	e := newTestEcho()
	body := model.RegisterUserRequest{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.edu",
		Password:  "Secret123",
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(t, http.MethodPost, "/api/auth/register", body), rec)

	api, svc := newTestAuthAPI()
	svc.On("Register", mock.Anything, body).
		Return(model.AuthResult{User: model.User{ID: "ada"}, Token: "tok"}, nil)

	call(e, c, api.register)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "tok", sessionCookie(t, rec).Value)
	svc.AssertExpectations(t)
}

func TestAuthAPI_Logout(t *testing.T) {
	e := newTestEcho()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil), rec)

	api, _ := newTestAuthAPI()

	call(e, c, api.logout)

	assert.Equal(t, http.StatusOK, rec.Code)
	cookie := sessionCookie(t, rec)
	assert.Equal(t, "none", cookie.Value)
	assert.Equal(t, -1, cookie.MaxAge)
}

func TestAuthAPI_Me(t *testing.T) {
	e := newTestEcho()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/auth/me", nil), rec)
	asActor(c, "ada", model.RoleParticipant)

	api, svc := newTestAuthAPI()
	svc.On("Me", mock.Anything, model.Actor{ID: "ada", Role: model.RoleParticipant}).
		Return(model.User{ID: "ada", FirstName: "Ada", PasswordHash: "$2a$10$hash"}, nil)

	call(e, c, api.me)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "$2a$10$hash")
	var user model.User
	decodeData(t, decodeResponse(t, rec), &user)
	assert.Equal(t, "Ada", user.FirstName)
}

func TestAuthAPI_ResetPassword(t *testing.T) {
	e := newTestEcho()
	body := model.ResetPasswordRequest{Password: "NewSecret1"}
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(t, http.MethodPut, "/api/auth/reset-password/abc123", body), rec)
	c.SetParamNames("token")
	c.SetParamValues("abc123")

	api, svc := newTestAuthAPI()
	svc.On("ResetPassword", mock.Anything, "abc123", body).
		Return(model.AuthResult{}, model.ErrValidation("invalid or expired reset token"))

	call(e, c, api.resetPassword)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid or expired reset token", decodeResponse(t, rec).Message)
	svc.AssertExpectations(t)
}

func TestAuthAPI_ForgotPasswordMailFailure(t *testing.T) {
	e := newTestEcho()
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(t, http.MethodPost, "/api/auth/forgot-password", model.ForgotPasswordRequest{Email: "ada@example.edu"}), rec)

	api, svc := newTestAuthAPI()
	svc.On("ForgotPassword", mock.Anything, "ada@example.edu").
		Return(model.ErrInternal(assert.AnError, "email could not be sent"))

	call(e, c, api.forgotPassword)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", decodeResponse(t, rec).Message)
}

package apis

import (
	"campus-events-backend/cmd/campus-events/model"
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type IAuthService interface {
	IAuthenticator
	Register(ctx context.Context, req model.RegisterUserRequest) (model.AuthResult, error)
	Login(ctx context.Context, req model.LoginRequest) (model.AuthResult, error)
	Me(ctx context.Context, actor model.Actor) (model.User, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, rawToken string, req model.ResetPasswordRequest) (model.AuthResult, error)
	UpdatePassword(ctx context.Context, actor model.Actor, req model.UpdatePasswordRequest) (model.AuthResult, error)
	UpdateProfile(ctx context.Context, actor model.Actor, req model.UpdateProfileRequest) (model.User, error)
	VerifyEmail(ctx context.Context, rawToken string) (model.User, error)
	ResendVerification(ctx context.Context, actor model.Actor) error
}

type CookieConfig struct {
	Secure bool
	TTL    time.Duration
}

type AuthAPI struct {
	authService IAuthService
	cookie      CookieConfig
	now         func() time.Time
}

func NewAuthAPI(authService IAuthService, cookie CookieConfig) *AuthAPI {
	return &AuthAPI{
		authService: authService,
		cookie:      cookie,
		now:         time.Now,
	}
}

func (a *AuthAPI) Setup(g *echo.Group) {
	auth := g.Group("/auth")
	auth.POST("/register", a.register)
	auth.POST("/login", a.login)
	auth.POST("/logout", a.logout)
	auth.POST("/forgot-password", a.forgotPassword)
	auth.PUT("/reset-password/:token", a.resetPassword)
	auth.GET("/verify-email/:token", a.verifyEmail)

	protected := RequireAuth(a.authService)
	auth.GET("/me", a.me, protected)
	auth.PUT("/update-password", a.updatePassword, protected)
	auth.PUT("/update-profile", a.updateProfile, protected)
	auth.POST("/resend-verification", a.resendVerification, protected)
}

func (a *AuthAPI) setSession(c echo.Context, status int, result model.AuthResult) error {
	c.SetCookie(&http.Cookie{
		Name:     TokenCookie,
		Value:    result.Token,
		Path:     "/",
		Expires:  a.now().Add(a.cookie.TTL),
		HttpOnly: true,
		Secure:   a.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return success(c, status, result)
}

func (a *AuthAPI) register(c echo.Context) error {
	var req model.RegisterUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	result, err := a.authService.Register(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return a.setSession(c, http.StatusCreated, result)
}

func (a *AuthAPI) login(c echo.Context) error {
	var req model.LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	result, err := a.authService.Login(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return a.setSession(c, http.StatusOK, result)
}

func (a *AuthAPI) logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     TokenCookie,
		Value:    "none",
		Path:     "/",
		Expires:  a.now().Add(10 * time.Second),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return successMessage(c, "logged out")
}

func (a *AuthAPI) forgotPassword(c echo.Context) error {
	var req model.ForgotPasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if err := a.authService.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return successMessage(c, "password reset email sent")
}

func (a *AuthAPI) resetPassword(c echo.Context) error {
	var req model.ResetPasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	result, err := a.authService.ResetPassword(c.Request().Context(), c.Param("token"), req)
	if err != nil {
		return err
	}
	return a.setSession(c, http.StatusOK, result)
}

func (a *AuthAPI) verifyEmail(c echo.Context) error {
	user, err := a.authService.VerifyEmail(c.Request().Context(), c.Param("token"))
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, user)
}

func (a *AuthAPI) me(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	user, err := a.authService.Me(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, user)
}

func (a *AuthAPI) updatePassword(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req model.UpdatePasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	result, err := a.authService.UpdatePassword(c.Request().Context(), actor, req)
	if err != nil {
		return err
	}
	return a.setSession(c, http.StatusOK, result)
}

func (a *AuthAPI) updateProfile(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req model.UpdateProfileRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := a.authService.UpdateProfile(c.Request().Context(), actor, req)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, user)
}

func (a *AuthAPI) resendVerification(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	if err := a.authService.ResendVerification(c.Request().Context(), actor); err != nil {
		return err
	}
	return successMessage(c, "verification email sent")
}

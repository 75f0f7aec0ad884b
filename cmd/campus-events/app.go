package main

import (
	"campus-events-backend/cmd/campus-events/apis"
	"campus-events-backend/cmd/campus-events/mailer"
	"campus-events-backend/cmd/campus-events/realtime"
	"campus-events-backend/cmd/campus-events/repository"
	"campus-events-backend/cmd/campus-events/scheduler"
	"campus-events-backend/cmd/campus-events/service"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"golang.org/x/time/rate"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const bodyLimit = "2M"

type appMailer interface {
	service.AccountMailer
	service.NotificationMailer
}

type app struct {
	cfg    EnvCfg
	logger *log.Logger
	db     *gorm.DB
	hub    *realtime.Hub

	auth          *service.AuthService
	users         *service.UserService
	events        *service.EventService
	categories    *service.CategoryService
	registrations *service.RegistrationService
	notifications *service.NotificationService
	dashboard     *service.DashboardService
}

func newLogger(cfg EnvCfg) *log.Logger {
	logger := log.New("campus-events")
	logger.SetLevel(cfg.logLevel())
	return logger
}

func openDB(cfg EnvCfg) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
}

func newMailer(cfg EnvCfg, logger *log.Logger) (appMailer, error) {
	if !cfg.EmailEnabled {
		return mailer.NewLogMailer(logger), nil
	}
	return mailer.New(mailer.Config{
		Host:     cfg.EmailHost,
		Port:     cfg.EmailPort,
		Username: cfg.EmailUser,
		Password: cfg.EmailPassword,
		From:     cfg.EmailFrom,
		AppName:  cfg.AppName,
		AppURL:   cfg.AppURL,
	}, logger)
}

func newApp(cfg EnvCfg, db *gorm.DB, logger *log.Logger) (*app, error) {
	mail, err := newMailer(cfg, logger)
	if err != nil {
		return nil, err
	}

	tx := repository.NewTxManager(db)
	userRepo := repository.NewUserRepo(db)
	categoryRepo := repository.NewCategoryRepo(db)
	eventRepo := repository.NewEventRepo(db)
	registrationRepo := repository.NewRegistrationRepo(db)
	notificationRepo := repository.NewNotificationRepo(db)

	hub := realtime.NewHub(logger)
	notifications := service.NewNotificationService(tx, notificationRepo, userRepo, hub, mail, logger)

	return &app{
		cfg:    cfg,
		logger: logger,
		db:     db,
		hub:    hub,
		auth: service.NewAuthService(
			userRepo,
			service.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpire),
			mail,
			service.AuthConfig{
				AppURL:           cfg.AppURL,
				MaxLoginAttempts: cfg.MaxLoginAttempts,
				LockoutDuration:  cfg.LockoutDuration,
			},
			logger,
		),
		users:         service.NewUserService(userRepo, logger),
		events:        service.NewEventService(eventRepo, categoryRepo, registrationRepo, userRepo, notifications, logger),
		categories:    service.NewCategoryService(tx, categoryRepo, eventRepo, logger),
		registrations: service.NewRegistrationService(tx, eventRepo, registrationRepo, userRepo, notifications, logger),
		notifications: notifications,
		dashboard:     service.NewDashboardService(registrationRepo, eventRepo, notifications),
	}, nil
}

func (a *app) newScheduler() (*scheduler.Scheduler, error) {
	return scheduler.New(
		scheduler.Config{
			DispatchSchedule: a.cfg.DispatchSchedule,
			ReminderSchedule: a.cfg.ReminderSchedule,
			CleanupSchedule:  a.cfg.CleanupSchedule,
		},
		a.notifications,
		a.events,
		a.notifications,
		a.logger,
	)
}

func (a *app) server() (*echo.Echo, error) {
	sqlDB, err := a.db.DB()
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.Logger = a.logger
	e.Validator = apis.NewValidator()
	e.JSONSerializer = apis.JSONSerializer{}
	e.HTTPErrorHandler = apis.NewErrorHandler(a.logger)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(requestLoggerConfig(a.logger)))
	e.Use(middleware.CORSWithConfig(corsConfig(a.cfg.CORSOrigins)))
	e.Use(middleware.RateLimiterWithConfig(rateLimiterConfig(a.cfg.RateLimitPerMinute)))
	e.Use(middleware.BodyLimit(bodyLimit))
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/ws"
		},
	}))

	rootg := e.Group("")
	apig := rootg.Group("/api")

	apis.
		NewHealthCheckAPI(sqlDB).
		Setup(rootg)

	apis.
		NewRealtimeAPI(a.hub, a.auth).
		Setup(rootg)

	apis.
		NewAuthAPI(a.auth, apis.CookieConfig{Secure: a.cfg.CookieSecure, TTL: a.cfg.JWTExpire}).
		Setup(apig)

	apis.
		NewUserAPI(a.users, a.auth).
		Setup(apig)

	apis.
		NewCategoryAPI(a.categories, a.auth).
		Setup(apig)

	apis.
		NewEventAPI(a.events, a.auth).
		Setup(apig)

	apis.
		NewRegistrationAPI(a.registrations, a.auth).
		Setup(apig)

	apis.
		NewNotificationAPI(a.notifications, a.auth).
		Setup(apig)

	apis.
		NewDashboardAPI(a.dashboard, a.auth).
		Setup(apig)

	return e, nil
}

func requestLoggerConfig(logger *log.Logger) middleware.RequestLoggerConfig {
	return middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			entry := log.JSON{
				"message":   "request",
				"method":    v.Method,
				"uri":       v.URI,
				"status":    v.Status,
				"latency":   v.Latency.String(),
				"remote_ip": v.RemoteIP,
			}
			if v.Error != nil {
				entry["error"] = v.Error.Error()
			}
			if v.Status >= http.StatusInternalServerError {
				logger.Errorj(entry)
				return nil
			}
			logger.Infoj(entry)
			return nil
		},
	}
}

func corsConfig(origins []string) middleware.CORSConfig {
	if len(origins) == 0 {
		return middleware.DefaultCORSConfig
	}
	return middleware.CORSConfig{
		AllowOrigins:     origins,
		AllowCredentials: true,
	}
}

// rateLimiterConfig limits each client IP on /api routes to perMinute
// requests, refilled evenly across the minute.
func rateLimiterConfig(perMinute int) middleware.RateLimiterConfig {
	return middleware.RateLimiterConfig{
		Skipper: func(c echo.Context) bool {
			return perMinute <= 0 || !strings.HasPrefix(c.Request().URL.Path, "/api/")
		},
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(float64(perMinute) / 60),
			Burst:     perMinute,
			ExpiresIn: 3 * time.Minute,
		}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests, please try again later")
		},
	}
}

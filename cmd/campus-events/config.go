package main

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/labstack/gommon/log"
)

const envPrefix = "CAMPUS_EVENTS"

type EnvCfg struct {
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`

	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     int    `envconfig:"DB_PORT" required:"true"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" required:"true"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	JWTSecret    string        `envconfig:"JWT_SECRET" required:"true"`
	JWTExpire    time.Duration `envconfig:"JWT_EXPIRE" default:"720h"`
	CookieSecure bool          `envconfig:"COOKIE_SECURE" default:"false"`

	CORSOrigins        []string `envconfig:"CORS_ORIGINS"`
	RateLimitPerMinute int      `envconfig:"RATE_LIMIT_PER_MINUTE" default:"100"`

	EmailEnabled  bool   `envconfig:"EMAIL_ENABLED" default:"false"`
	EmailHost     string `envconfig:"EMAIL_HOST"`
	EmailPort     int    `envconfig:"EMAIL_PORT" default:"587"`
	EmailUser     string `envconfig:"EMAIL_USER"`
	EmailPassword string `envconfig:"EMAIL_PASSWORD"`
	EmailFrom     string `envconfig:"EMAIL_FROM"`

	AppName string `envconfig:"APP_NAME" default:"Campus Events"`
	AppURL  string `envconfig:"APP_URL" default:"http://localhost:3000"`

	MaxLoginAttempts int           `envconfig:"MAX_LOGIN_ATTEMPTS" default:"5"`
	LockoutDuration  time.Duration `envconfig:"LOCKOUT_DURATION" default:"2h"`

	DispatchSchedule string `envconfig:"DISPATCH_SCHEDULE" default:"@every 1m"`
	ReminderSchedule string `envconfig:"REMINDER_SCHEDULE" default:"@every 15m"`
	CleanupSchedule  string `envconfig:"CLEANUP_SCHEDULE" default:"@daily"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// loadConfig reads an optional .env file and then the process
// environment. Variables already set in the environment win.
func loadConfig() (EnvCfg, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return EnvCfg{}, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg EnvCfg
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return EnvCfg{}, err
	}
	if cfg.EmailEnabled && cfg.EmailHost == "" {
		return EnvCfg{}, errors.New("EMAIL_HOST is required when EMAIL_ENABLED is set")
	}
	return cfg, nil
}

func (c EnvCfg) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		c.DBHost,
		c.DBPort,
		c.DBUser,
		c.DBPassword,
		c.DBName,
		c.DBSSLMode,
	)
}

func (c EnvCfg) logLevel() log.Lvl {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	default:
		return log.INFO
	}
}

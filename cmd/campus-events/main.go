package main

import (
	"context"
	"os"

	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:           "campus-events",
	Short:         "Campus event management backend",
	Long:          `HTTP API for campus events: accounts, categories, events, registrations with waitlists, and notifications.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// bootstrap loads configuration and opens the database shared by every
// subcommand.
func bootstrap() (EnvCfg, *log.Logger, *gorm.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return EnvCfg{}, nil, nil, err
	}

	logger := newLogger(cfg)

	db, err := openDB(cfg)
	if err != nil {
		return EnvCfg{}, nil, nil, err
	}

	return cfg, logger, db, nil
}

func main() {

	err := os.Setenv("TZ", "UTC")
	if err != nil {
		panic(err)
	}

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Errorj(log.JSON{
			"message": "command failed",
			"error":   err.Error(),
		})
		os.Exit(1)
	}
}

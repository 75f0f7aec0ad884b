package main

import (
	"campus-events-backend/cmd/campus-events/repository"
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

var serveMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the background scheduler",
	Long: `Run the HTTP API, the websocket endpoint and the cron jobs that
dispatch due notifications, send event reminders and sweep expired
notifications.

Example:
  campus-events serve
  campus-events serve --migrate`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "apply pending migrations before serving")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, db, err := bootstrap()
	if err != nil {
		return err
	}

	if serveMigrate {
		version, err := repository.Migrate(cmd.Context(), db, repository.MigrateUp)
		if err != nil {
			return err
		}
		logger.Infoj(log.JSON{
			"message": "migrations applied",
			"version": version,
		})
	}

	a, err := newApp(cfg, db, logger)
	if err != nil {
		return err
	}

	e, err := a.server()
	if err != nil {
		return err
	}

	jobs, err := a.newScheduler()
	if err != nil {
		return err
	}
	jobs.Start()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- e.Start(cfg.HTTPAddr)
	}()

	logger.Infoj(log.JSON{
		"message": "server started",
		"addr":    cfg.HTTPAddr,
		"jobs":    jobs.Jobs(),
	})

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Errorj(log.JSON{
			"message": "http shutdown failed",
			"error":   err.Error(),
		})
	}
	if err := jobs.Stop(shutdownCtx); err != nil {
		logger.Errorj(log.JSON{
			"message": "scheduler did not stop in time",
			"error":   err.Error(),
		})
	}

	return serveErr
}

// Package httpd implements the HTTP server command for the gohoops
// service.
package httpd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/gohoops/cmd/common"
	"github.com/jonesrussell/gohoops/internal/api"
	"github.com/jonesrussell/gohoops/internal/logger"
	"github.com/jonesrussell/gohoops/internal/tasks"
)

const (
	signalChannelBufferSize = 1
	errorChannelBufferSize  = 1
	defaultShutdownTimeout  = 30 * time.Second
)

// Command returns the httpd command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "httpd",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server exposing scrape triggers, task status,
and aggregation endpoints. Terminal tasks older than the retention
window are swept on a periodic schedule.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Start()
		},
	}
}

// Start starts the HTTP server and runs until interrupted. It handles
// graceful shutdown on SIGINT or SIGTERM.
func Start() error {
	deps, err := common.New()
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	registry := tasks.NewRegistry(deps.Logger)
	runner := tasks.NewRunner(deps.Logger)

	handler := api.NewHandler(
		registry,
		runner,
		deps.Scrapers,
		deps.Aggregator,
		deps.Config.Scraper.CurrentYear,
		deps.Logger,
	)

	if !deps.Config.Logger.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(handler)

	sweeper, err := startSweeper(deps.Config.Tasks.SweepSchedule, registry, deps.Logger)
	if err != nil {
		return err
	}
	defer sweeper.Stop()

	server := &http.Server{
		Addr:         deps.Config.Server.Address,
		Handler:      router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	deps.Logger.Info("starting http server", "addr", server.Addr)
	errChan := make(chan error, errorChannelBufferSize)
	go func() {
		if serveErr := server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errChan <- serveErr
		}
	}()

	return runUntilInterrupt(deps.Logger, server, errChan)
}

// startSweeper schedules periodic removal of old terminal tasks.
func startSweeper(schedule string, registry *tasks.Registry, log logger.Interface) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		registry.Sweep()
	})
	if err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}

	c.Start()
	log.Info("task sweeper scheduled", "schedule", schedule)
	return c, nil
}

// runUntilInterrupt blocks until a shutdown signal or server error.
func runUntilInterrupt(log logger.Interface, server *http.Server, errChan chan error) error {
	sigChan := make(chan os.Signal, signalChannelBufferSize)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case serverErr := <-errChan:
		log.Error("server error", "error", serverErr.Error())
		return fmt.Errorf("server error: %w", serverErr)
	case sig := <-sigChan:
		log.Info("shutdown signal received", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", "error", err.Error())
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Info("server stopped")
	return nil
}

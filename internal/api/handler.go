// Package api implements the HTTP boundary: endpoints that trigger
// scrape tasks, report task status, and run aggregation.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jonesrussell/gohoops/internal/aggregator"
	"github.com/jonesrussell/gohoops/internal/domain"
	"github.com/jonesrussell/gohoops/internal/logger"
	"github.com/jonesrussell/gohoops/internal/scraper"
	"github.com/jonesrussell/gohoops/internal/tasks"
)

// recentTasksLimit caps the recent-tasks listing.
const recentTasksLimit = 10

// Handler carries the dependencies the HTTP endpoints act on.
type Handler struct {
	registry    *tasks.Registry
	runner      *tasks.Runner
	scrapers    *scraper.Service
	aggregator  *aggregator.Aggregator
	currentYear int
	log         logger.Interface
}

// NewHandler creates the API handler.
func NewHandler(
	registry *tasks.Registry,
	runner *tasks.Runner,
	scrapers *scraper.Service,
	agg *aggregator.Aggregator,
	currentYear int,
	log logger.Interface,
) *Handler {
	return &Handler{
		registry:    registry,
		runner:      runner,
		scrapers:    scrapers,
		aggregator:  agg,
		currentYear: currentYear,
		log:         log,
	}
}

// Scrape handles GET /api/v1/scrape/{stats|ratings|scores|trank|all}.
// It validates the year range, sweeps old tasks, registers a new one,
// and schedules the pipeline in the background.
func (h *Handler) Scrape(kind domain.TaskType) gin.HandlerFunc {
	return func(c *gin.Context) {
		years, err := h.parseYearRange(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   err.Error(),
			})
			return
		}

		h.registry.Sweep()

		task := h.registry.Create(kind, map[string]any{
			"start_year": years.Start,
			"end_year":   years.End,
		})

		h.runner.Run(task, func(task *domain.Task) error {
			return h.scrapers.Run(context.Background(), task, years)
		})

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "scraping started in the background",
			"task_id": task.ID(),
			"status":  string(task.Status()),
		})
	}
}

// ListTasks handles GET /api/v1/tasks.
func (h *Handler) ListTasks(c *gin.Context) {
	recent := h.registry.Recent(recentTasksLimit)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(recent),
		"tasks":   recent,
	})
}

// GetTask handles GET /api/v1/tasks/:id.
func (h *Handler) GetTask(c *gin.Context) {
	task, err := h.registry.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "task not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"task":    task.Snapshot(),
	})
}

// CancelTask handles POST /api/v1/tasks/:id/cancel.
func (h *Handler) CancelTask(c *gin.Context) {
	id := c.Param("id")
	if err := h.registry.Cancel(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "task not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "task cancellation requested",
	})
}

// AggregateYear handles POST /api/v1/aggregate/:year. Aggregation is
// synchronous; it only reads files the scrapers already wrote.
func (h *Handler) AggregateYear(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   fmt.Sprintf("invalid year format: %s", c.Param("year")),
		})
		return
	}

	combined, err := h.aggregator.AggregateYear(year)
	if err != nil {
		h.aggregationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("aggregated data for year %d", year),
		"teams":   combined.Len(),
	})
}

// AggregateRange handles POST /api/v1/aggregate.
func (h *Handler) AggregateRange(c *gin.Context) {
	years, err := h.parseYearRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	if err := h.aggregator.AggregateRange(years.Start, years.End); err != nil {
		h.aggregationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("aggregated data for years %d to %d", years.Start, years.End),
	})
}

// Health handles GET /health.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// aggregationError maps aggregation failures to responses: a missing
// dataset is a conflict the caller can fix by scraping, anything else
// is a server error.
func (h *Handler) aggregationError(c *gin.Context, err error) {
	var missing *aggregator.MissingDatasetError
	if errors.As(err, &missing) {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error":   missing.Error(),
		})
		return
	}

	h.log.Error("aggregation failed", "error", err.Error())
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error":   "aggregation failed",
	})
}

// parseYearRange reads start_year and end_year query parameters, both
// defaulting to the current year, and validates the range.
func (h *Handler) parseYearRange(c *gin.Context) (scraper.YearRange, error) {
	years := scraper.YearRange{Start: h.currentYear, End: h.currentYear}

	if raw := c.Query("start_year"); raw != "" {
		start, err := strconv.Atoi(raw)
		if err != nil {
			return years, fmt.Errorf("invalid year format: %s", raw)
		}
		years.Start = start
	}
	if raw := c.Query("end_year"); raw != "" {
		end, err := strconv.Atoi(raw)
		if err != nil {
			return years, fmt.Errorf("invalid year format: %s", raw)
		}
		years.End = end
	}

	if err := years.Validate(h.currentYear); err != nil {
		return years, err
	}
	return years, nil
}

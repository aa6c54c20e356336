package scraper

import (
	"context"
	"errors"
	"time"

	"github.com/jonesrussell/gohoops/internal/domain"
	"github.com/jonesrussell/gohoops/internal/fetch"
	"github.com/jonesrussell/gohoops/internal/logger"
	"github.com/jonesrussell/gohoops/internal/tasks"
)

// Source is one scrape pipeline's per-year behavior. The generic
// driver in Pipeline.Run owns the year loop, cancellation
// checkpoints, progress reporting, and per-year error absorption;
// sources own fetching, parsing, and persisting a single season.
type Source interface {
	// Kind identifies the source for logging and task typing.
	Kind() domain.TaskType

	// ScrapeYear fetches, parses, and persists one season. It
	// returns the number of rows written; zero rows means "no data
	// for this year" and no file is written.
	ScrapeYear(ctx context.Context, task *domain.Task, year int) (int, error)

	// Finish runs once after every year has been attempted, for
	// sources that persist an all-years concatenation.
	Finish(ctx context.Context) error

	// YearPace is the courtesy pause between seasons.
	YearPace() time.Duration
}

// Pipeline drives a Source across a span of seasons.
type Pipeline struct {
	log logger.Interface

	// sleep is replaceable in tests.
	sleep func(time.Duration)
}

// NewPipeline creates a pipeline driver.
func NewPipeline(log logger.Interface) *Pipeline {
	return &Pipeline{log: log, sleep: time.Sleep}
}

// SetSleep replaces the pacing sleep function. Test hook.
func (p *Pipeline) SetSleep(fn func(time.Duration)) {
	p.sleep = fn
}

// Run processes every season in the range through src. A single
// year's failure is logged and skipped; only cancellation or a
// failure outside the per-year boundary aborts the whole pipeline.
// Progress is updated after each year, successful or not.
func (p *Pipeline) Run(ctx context.Context, task *domain.Task, src Source, years YearRange) error {
	toProcess := years.Years()
	total := len(toProcess)
	kind := string(src.Kind())

	if total == 0 {
		p.log.Warn("no years to process", "source", kind,
			"start_year", years.Start, "end_year", years.End)
		return nil
	}

	p.log.Info("starting scrape",
		"source", kind,
		"years", total,
		"start_year", years.Start,
		"end_year", years.End,
	)

	processed := 0
	for i, year := range toProcess {
		if task != nil && task.Cancelled() {
			p.log.Info("scrape cancelled", "source", kind, "year", year)
			return tasks.ErrTaskCancelled
		}

		p.log.Info("processing year", "source", kind, "year", year,
			"position", i+1, "total", total)

		rows, err := src.ScrapeYear(ctx, task, year)
		switch {
		case errors.Is(err, tasks.ErrTaskCancelled) || errors.Is(err, fetch.ErrCancelled):
			p.log.Info("scrape cancelled", "source", kind, "year", year)
			return tasks.ErrTaskCancelled
		case err != nil:
			p.log.Error("failed to process year, skipping",
				"source", kind, "year", year, "error", err.Error())
		case rows == 0:
			p.log.Warn("no data collected for year, skipping file write",
				"source", kind, "year", year)
		default:
			processed++
			p.log.Info("processed year", "source", kind, "year", year, "rows", rows)
		}

		if task != nil {
			task.UpdateProgress((i + 1) * 100 / total)
		}

		p.sleep(src.YearPace())
	}

	if err := src.Finish(ctx); err != nil {
		return err
	}

	p.log.Info("finished scrape", "source", kind,
		"processed", processed, "total", total)
	return nil
}

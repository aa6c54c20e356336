package scraper

import (
	"context"

	"github.com/jonesrussell/gohoops/internal/dataset"
	"github.com/jonesrussell/gohoops/internal/domain"
	"github.com/jonesrussell/gohoops/internal/fetch"
	"github.com/jonesrussell/gohoops/internal/logger"
)

// Service bundles the scrape pipelines behind one entry point per task
// type. It is the unit the HTTP handlers and CLI commands run inside a
// background task.
type Service struct {
	client   *fetch.Client
	store    *dataset.Store
	pipeline *Pipeline
	log      logger.Interface
}

// NewService creates a scraping service.
func NewService(client *fetch.Client, store *dataset.Store, log logger.Interface) *Service {
	return &Service{
		client:   client,
		store:    store,
		pipeline: NewPipeline(log),
		log:      log,
	}
}

// Pipeline exposes the year-loop driver. Test hook for pacing.
func (s *Service) Pipeline() *Pipeline {
	return s.pipeline
}

// ScrapeStats runs the TeamRankings stats pipeline over the range.
func (s *Service) ScrapeStats(ctx context.Context, task *domain.Task, years YearRange) error {
	return s.pipeline.Run(ctx, task, NewStatsSource(s.client, s.store, s.log), years)
}

// ScrapeRatings runs the TeamRankings ratings pipeline over the range.
func (s *Service) ScrapeRatings(ctx context.Context, task *domain.Task, years YearRange) error {
	return s.pipeline.Run(ctx, task, NewRatingsSource(s.client, s.store, s.log), years)
}

// ScrapeTRank runs the T-Rank pipeline over the range.
func (s *Service) ScrapeTRank(ctx context.Context, task *domain.Task, years YearRange) error {
	return s.pipeline.Run(ctx, task, NewTRankSource(s.client, s.store, s.log), years)
}

// ScrapeScores runs the tournament scores pipeline over the range. The
// source is per-run because it accumulates the AllScores rows.
func (s *Service) ScrapeScores(ctx context.Context, task *domain.Task, years YearRange) error {
	return s.pipeline.Run(ctx, task, NewScoresSource(s.client, s.store, s.log), years)
}

// ScrapeAll runs stats, ratings, and scores back to back under one
// task. Each stage drives the task's progress through its own year
// loop; the milestones mark stage boundaries.
func (s *Service) ScrapeAll(ctx context.Context, task *domain.Task, years YearRange) error {
	if err := s.ScrapeStats(ctx, task, years); err != nil {
		return err
	}
	if task != nil {
		task.UpdateProgress(33)
	}

	if err := s.ScrapeRatings(ctx, task, years); err != nil {
		return err
	}
	if task != nil {
		task.UpdateProgress(66)
	}

	return s.ScrapeScores(ctx, task, years)
}

// Run dispatches a scrape by task type.
func (s *Service) Run(ctx context.Context, task *domain.Task, years YearRange) error {
	switch task.Type() {
	case domain.TaskScrapeStats:
		return s.ScrapeStats(ctx, task, years)
	case domain.TaskScrapeRatings:
		return s.ScrapeRatings(ctx, task, years)
	case domain.TaskScrapeScores:
		return s.ScrapeScores(ctx, task, years)
	case domain.TaskScrapeTRank:
		return s.ScrapeTRank(ctx, task, years)
	default:
		return s.ScrapeAll(ctx, task, years)
	}
}

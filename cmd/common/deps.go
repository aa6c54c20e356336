// Package common wires the shared dependency graph used by every
// subcommand.
package common

import (
	"fmt"

	"github.com/jonesrussell/gohoops/internal/aggregator"
	"github.com/jonesrussell/gohoops/internal/config"
	"github.com/jonesrussell/gohoops/internal/dataset"
	"github.com/jonesrussell/gohoops/internal/fetch"
	"github.com/jonesrussell/gohoops/internal/logger"
	"github.com/jonesrussell/gohoops/internal/scraper"
	"github.com/jonesrussell/gohoops/internal/teams"
)

// Deps holds the components shared by the httpd, scrape, and aggregate
// commands.
type Deps struct {
	Config     *config.Config
	Logger     logger.Interface
	Store      *dataset.Store
	Client     *fetch.Client
	Normalizer *teams.Normalizer
	Scrapers   *scraper.Service
	Aggregator *aggregator.Aggregator
}

// New loads configuration and builds the dependency graph.
func New() (*Deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(&cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	store, err := dataset.NewStore(cfg.Scraper.DataDir, log)
	if err != nil {
		return nil, fmt.Errorf("create dataset store: %w", err)
	}

	client := fetch.NewClient(fetch.Config{
		Timeout:          cfg.Scraper.RequestTimeout,
		UserAgent:        cfg.Scraper.UserAgent,
		ForbiddenBackoff: cfg.Scraper.ForbiddenBackoff,
	}, log)

	normalizer, err := teams.Load(cfg.Scraper.AliasesFile)
	if err != nil {
		return nil, fmt.Errorf("load team aliases: %w", err)
	}

	return &Deps{
		Config:     cfg,
		Logger:     log,
		Store:      store,
		Client:     client,
		Normalizer: normalizer,
		Scrapers:   scraper.NewService(client, store, log),
		Aggregator: aggregator.New(store, normalizer, log),
	}, nil
}

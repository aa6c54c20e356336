// Package aggregator joins the per-year scraped datasets into one
// combined table per season.
package aggregator

import (
	"errors"
	"fmt"

	"github.com/jonesrussell/gohoops/internal/dataset"
	"github.com/jonesrussell/gohoops/internal/logger"
	"github.com/jonesrussell/gohoops/internal/teams"
)

// MissingDatasetError reports that a required per-year dataset is
// absent or empty. Aggregation needs all three sources for a year.
type MissingDatasetError struct {
	Dataset string
	Year    int
}

func (e *MissingDatasetError) Error() string {
	return fmt.Sprintf("dataset %q for year %d is missing, please (re)scrape it",
		e.Dataset, e.Year)
}

// Aggregator builds Combined<year> datasets from the scraped inputs.
type Aggregator struct {
	store      *dataset.Store
	normalizer *teams.Normalizer
	log        logger.Interface
}

// New creates an aggregator.
func New(store *dataset.Store, normalizer *teams.Normalizer, log logger.Interface) *Aggregator {
	return &Aggregator{store: store, normalizer: normalizer, log: log}
}

// AggregateYear outer-joins TRank, TeamRankingsRatings, and
// TeamRankingsStats for a season, canonicalizes team names, and writes
// Combined<year>. All three inputs must exist and be non-empty.
func (a *Aggregator) AggregateYear(year int) (*dataset.Dataset, error) {
	trank, err := a.read(fmt.Sprintf("TRank%d", year), year)
	if err != nil {
		return nil, err
	}
	ratings, err := a.read(fmt.Sprintf("TeamRankingsRatings%d", year), year)
	if err != nil {
		return nil, err
	}
	stats, err := a.read(fmt.Sprintf("TeamRankingsStats%d", year), year)
	if err != nil {
		return nil, err
	}

	combined := trank.OuterJoin(ratings).OuterJoin(stats)
	combined = combined.RenameTeams(a.normalizer.Normalize)

	name := fmt.Sprintf("Combined%d", year)
	if err := a.store.WriteDataset(name, combined); err != nil {
		return nil, fmt.Errorf("write %s: %w", name, err)
	}

	a.log.Info("aggregated year",
		"year", year,
		"teams", combined.Len(),
		"columns", len(combined.Columns()),
	)
	return combined, nil
}

// AggregateRange aggregates each year in [start, end] independently
// and stops at the first failure. Years already aggregated keep their
// Combined files.
func (a *Aggregator) AggregateRange(start, end int) error {
	for year := start; year <= end; year++ {
		if year == 2020 {
			continue
		}
		if _, err := a.AggregateYear(year); err != nil {
			return fmt.Errorf("aggregate year %d: %w", year, err)
		}
		a.log.Info("aggregated data saved", "year", year)
	}
	return nil
}

// read loads a named dataset, mapping absence or emptiness to a
// MissingDatasetError.
func (a *Aggregator) read(name string, year int) (*dataset.Dataset, error) {
	ds, err := a.store.ReadDataset(name)
	if errors.Is(err, dataset.ErrNoData) {
		return nil, &MissingDatasetError{Dataset: name, Year: year}
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if ds.Len() == 0 {
		return nil, &MissingDatasetError{Dataset: name, Year: year}
	}
	return ds, nil
}

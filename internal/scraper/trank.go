package scraper

import (
	"context"
	"encoding/csv"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jonesrussell/gohoops/internal/dataset"
	"github.com/jonesrussell/gohoops/internal/domain"
	"github.com/jonesrussell/gohoops/internal/fetch"
	"github.com/jonesrussell/gohoops/internal/logger"
)

const tRankBaseURL = "https://barttorvik.com/trank.php"

// tRankRawHeaders names the columns of the headerless CSV barttorvik
// serves, in wire order. The Unnamed slots are blank filler columns.
var tRankRawHeaders = []string{
	"TEAM",
	"ADJOE",
	"ADJDE",
	"BARTHAG",
	"REC",
	"W",
	"G",
	"EFG%",
	"EFGD%",
	"FTR",
	"FTRD",
	"TO%",
	"TO%D",
	"OR%",
	"DR%",
	"TEMPO",
	"2P%",
	"2P%D",
	"3P%",
	"3P%D",
	"BLK%",
	"BLK%D",
	"AST%",
	"AST%D",
	"3PR",
	"3PRD",
	"ADJTEMPO",
	"Unnamed: 27",
	"Unnamed: 28",
	"Unnamed: 29",
	"YEAR",
	"Unnamed: 31",
	"Unnamed: 32",
	"Unnamed: 33",
	"WAB",
	"FT%",
	"FT%D",
}

// tRankColumns is the output column order for TRank<year> datasets.
var tRankColumns = []string{
	"TEAM",
	"YEAR",
	"G",
	"REC",
	"W",
	"ADJOE",
	"ADJDE",
	"BARTHAG",
	"EFG%",
	"EFGD%",
	"TO%",
	"TO%D",
	"OR%",
	"DR%",
	"FTR",
	"FTRD",
	"3P%",
	"3P%D",
	"2P%",
	"2P%D",
	"FT%",
	"FT%D",
	"BLK%",
	"BLK%D",
	"3PR",
	"3PRD",
	"AST%",
	"AST%D",
	"TEMPO",
	"ADJTEMPO",
	"WAB",
}

// TRankSource scrapes barttorvik.com T-Rank efficiency ratings, one
// CSV download per season.
type TRankSource struct {
	client  *fetch.Client
	store   *dataset.Store
	log     logger.Interface
	baseURL string
}

// NewTRankSource creates the T-Rank source.
func NewTRankSource(client *fetch.Client, store *dataset.Store, log logger.Interface) *TRankSource {
	return &TRankSource{client: client, store: store, log: log, baseURL: tRankBaseURL}
}

// Kind implements Source.
func (s *TRankSource) Kind() domain.TaskType { return domain.TaskScrapeTRank }

// YearPace implements Source.
func (s *TRankSource) YearPace() time.Duration { return 500 * time.Millisecond }

// Finish implements Source. T-Rank datasets are purely per-year.
func (s *TRankSource) Finish(context.Context) error { return nil }

// ScrapeYear downloads the season CSV, relabels and reorders its
// columns, sorts rows by team, and writes TRank<year>.
func (s *TRankSource) ScrapeYear(ctx context.Context, _ *domain.Task, year int) (int, error) {
	endDay := EndDay(year)
	url := fmt.Sprintf("%s?&begin=%d1101&end=%d03%d&year=%d&csv=1",
		s.baseURL, year-1, year, endDay-1, year)

	s.log.Debug("requesting t-rank csv", "year", year, "url", url)

	body, err := s.client.Get(ctx, url)
	if err != nil {
		return 0, err
	}

	text := strings.TrimLeft(string(body), "\uFEFF\n\r\t ")
	if strings.HasPrefix(text, "<") {
		return 0, fmt.Errorf(
			"t-rank returned HTML instead of CSV for year %d, the site may be blocking automated requests",
			year)
	}

	records, err := csv.NewReader(strings.NewReader(text)).ReadAll()
	if err != nil {
		return 0, fmt.Errorf("parse t-rank csv for year %d: %w", year, err)
	}

	ds, err := buildTRankDataset(records, year)
	if err != nil {
		return 0, err
	}
	if ds.Len() == 0 {
		return 0, nil
	}

	name := fmt.Sprintf("TRank%d", year)
	if err := s.store.WriteDataset(name, ds); err != nil {
		return 0, fmt.Errorf("write %s: %w", name, err)
	}
	return ds.Len(), nil
}

// buildTRankDataset maps headerless CSV records onto the named output
// columns, dropping the filler columns and sorting rows by team.
func buildTRankDataset(records [][]string, year int) (*dataset.Dataset, error) {
	for _, record := range records {
		if len(record) != len(tRankRawHeaders) {
			return nil, fmt.Errorf(
				"column count mismatch for year %d: expected %d, got %d",
				year, len(tRankRawHeaders), len(record))
		}
	}

	rawIdx := make(map[string]int, len(tRankRawHeaders))
	for i, name := range tRankRawHeaders {
		rawIdx[name] = i
	}

	sorted := make([][]string, len(records))
	copy(sorted, records)
	teamIdx := rawIdx["TEAM"]
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i][teamIdx] < sorted[j][teamIdx]
	})

	ds := dataset.NewKeyed("TEAM")
	for _, record := range sorted {
		team := record[teamIdx]
		for _, col := range tRankColumns {
			ds.Set(team, col, record[rawIdx[col]])
		}
	}
	return ds, nil
}

package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonesrussell/gohoops/internal/dataset"
	"github.com/jonesrussell/gohoops/internal/domain"
	"github.com/jonesrussell/gohoops/internal/fetch"
	"github.com/jonesrussell/gohoops/internal/logger"
	"github.com/jonesrussell/gohoops/internal/tasks"
)

const teamRankingsBaseURL = "https://www.teamrankings.com/ncaa-basketball"

// metricPace is the courtesy pause between metric page requests within
// a year.
const metricPace = 200 * time.Millisecond

// StatNames are the TeamRankings stat pages scraped per season. Each
// becomes one column in the TeamRankingsStats<year> dataset.
var StatNames = []string{
	"points-per-game",
	"average-scoring-margin",
	"offensive-efficiency",
	"floor-percentage",
	"1st-half-points-per-game",
	"2nd-half-points-per-game",
	"shooting-pct",
	"free-throw-pct",
	"true-shooting-percentage",
	"field-goals-made-per-game",
	"field-goals-attempted-per-game",
	"offensive-rebounds-per-game",
	"defensive-rebounds-per-game",
	"total-rebounding-percentage",
	"blocks-per-game",
	"steals-per-game",
	"assists-per-game",
	"assists-per-possession",
	"turnovers-per-game",
	"personal-fouls-per-game",
	"opponent-points-per-game",
	"opponent-average-scoring-margin",
	"defensive-efficiency",
	"opponent-floor-percentage",
	"opponent-1st-half-points-per-game",
	"opponent-2nd-half-points-per-game",
	"opponent-shooting-pct",
	"opponent-free-throw-pct",
	"opponent-true-shooting-percentage",
	"opponent-field-goals-made-per-game",
	"opponent-field-goals-attempted-per-game",
	"opponent-offensive-rebounds-per-game",
	"opponent-defensive-rebounds-per-game",
	"opponent-blocks-per-game",
	"opponent-steals-per-game",
	"opponent-assists-per-game",
	"opponent-assists-per-possession",
	"opponent-turnovers-per-game",
	"opponent-personal-fouls-per-game",
	"possessions-per-game",
	"extra-chances-per-game",
}

// RatingNames are the TeamRankings ranking pages scraped per season.
var RatingNames = []string{
	"predictive",
	"neutral",
	"schedule-strength",
	"season-sos",
	"sos-basic",
	"last-5-games",
	"last-10-games",
	"luck",
	"consistency",
	"vs-1-25",
	"vs-26-50",
	"vs-51-100",
	"vs-101-200",
	"vs-201-and-up",
	"first-half",
	"second-half",
}

// recordSuffixRe matches the trailing won-lost record TeamRankings
// appends to team names on ranking pages, e.g. "Duke (28-3)".
var recordSuffixRe = regexp.MustCompile(`\s+\(\d+-\d+\)$`)

// metricProfile is the stats-vs-ratings variation of the shared
// TeamRankings scrape: URL shape, the table column holding the value,
// team name cleanup, and the output dataset name.
type metricProfile struct {
	kind       domain.TaskType
	items      []string
	urlFor     func(item string, year, endDay int) string
	valueCol   func(year int) string
	cleanTeam  func(name string) (string, bool)
	outputName func(year int) string
}

var statsProfile = metricProfile{
	kind:  domain.TaskScrapeStats,
	items: StatNames,
	urlFor: func(item string, year, endDay int) string {
		return fmt.Sprintf("%s/stat/%s?date=%d-03-%d", teamRankingsBaseURL, item, year, endDay)
	},
	// Stat pages label the season value column with the prior year.
	valueCol: func(year int) string { return strconv.Itoa(year - 1) },
	cleanTeam: func(name string) (string, bool) {
		name = strings.TrimSpace(name)
		return name, name != ""
	},
	outputName: func(year int) string { return fmt.Sprintf("TeamRankingsStats%d", year) },
}

var ratingsProfile = metricProfile{
	kind:  domain.TaskScrapeRatings,
	items: RatingNames,
	urlFor: func(item string, year, endDay int) string {
		return fmt.Sprintf("%s/ranking/%s-by-other?date=%d-03-%d", teamRankingsBaseURL, item, year, endDay)
	},
	valueCol: func(int) string { return "Rating" },
	cleanTeam: func(name string) (string, bool) {
		name = strings.TrimSpace(recordSuffixRe.ReplaceAllString(name, ""))
		return name, name != ""
	},
	outputName: func(year int) string { return fmt.Sprintf("TeamRankingsRatings%d", year) },
}

// MetricSource scrapes TeamRankings metric pages, one page per metric
// per season, and merges them into a single team-keyed dataset per
// year. It implements Source for both stats and ratings.
type MetricSource struct {
	profile metricProfile
	client  *fetch.Client
	store   *dataset.Store
	log     logger.Interface

	// sleep is replaceable in tests.
	sleep func(time.Duration)
}

// NewStatsSource creates the TeamRankings stats source.
func NewStatsSource(client *fetch.Client, store *dataset.Store, log logger.Interface) *MetricSource {
	return &MetricSource{profile: statsProfile, client: client, store: store, log: log, sleep: time.Sleep}
}

// NewRatingsSource creates the TeamRankings ratings source.
func NewRatingsSource(client *fetch.Client, store *dataset.Store, log logger.Interface) *MetricSource {
	return &MetricSource{profile: ratingsProfile, client: client, store: store, log: log, sleep: time.Sleep}
}

// SetSleep replaces the pacing sleep function. Test hook.
func (s *MetricSource) SetSleep(fn func(time.Duration)) {
	s.sleep = fn
}

// Kind implements Source.
func (s *MetricSource) Kind() domain.TaskType { return s.profile.kind }

// YearPace implements Source.
func (s *MetricSource) YearPace() time.Duration { return 500 * time.Millisecond }

// Finish implements Source. Metric datasets are purely per-year.
func (s *MetricSource) Finish(context.Context) error { return nil }

// ScrapeYear fetches every metric page for one season and merges the
// resulting columns into a team-keyed dataset. A single metric's
// failure drops that column and keeps the year going; the year fails
// only on cancellation or a write error.
func (s *MetricSource) ScrapeYear(ctx context.Context, task *domain.Task, year int) (int, error) {
	endDay := EndDay(year)
	ds := dataset.New()

	for i, item := range s.profile.items {
		if task != nil && task.Cancelled() {
			return 0, tasks.ErrTaskCancelled
		}

		s.log.Debug("processing metric",
			"kind", string(s.profile.kind),
			"metric", item,
			"year", year,
			"position", i+1,
			"total", len(s.profile.items),
		)

		url := s.profile.urlFor(item, year, endDay)
		col, err := s.scrapeMetric(ctx, task, url, item, year)
		switch {
		case errors.Is(err, fetch.ErrCancelled):
			return 0, tasks.ErrTaskCancelled
		case err != nil:
			s.log.Error("failed to scrape metric, skipping",
				"metric", item, "year", year, "error", err.Error())
		default:
			ds.MergeColumn(col)
		}

		s.sleep(metricPace)
	}

	if ds.Len() == 0 {
		return 0, nil
	}

	name := s.profile.outputName(year)
	if err := s.store.WriteDataset(name, ds); err != nil {
		return 0, fmt.Errorf("write %s: %w", name, err)
	}
	return ds.Len(), nil
}

// scrapeMetric fetches and parses one metric page into a column of
// team to value.
func (s *MetricSource) scrapeMetric(
	ctx context.Context,
	task *domain.Task,
	url, item string,
	year int,
) (*dataset.Column, error) {
	cancelled := func() bool { return task != nil && task.Cancelled() }

	body, err := s.client.GetWithForbiddenRetry(ctx, url, cancelled)
	if err != nil {
		return nil, err
	}

	return parseMetricTable(body, item, s.profile.valueCol(year), s.profile.cleanTeam)
}

// parseMetricTable extracts the Team and value columns from the first
// table on a TeamRankings page. A "--" value means the metric was not
// recorded and is coerced to "0".
func parseMetricTable(
	body []byte,
	item, valueCol string,
	cleanTeam func(string) (string, bool),
) (*dataset.Column, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, errors.New("no tables found on page")
	}

	teamIdx, valIdx := -1, -1
	table.Find("tr").First().Find("th, td").Each(func(i int, cell *goquery.Selection) {
		switch strings.TrimSpace(cell.Text()) {
		case "Team":
			teamIdx = i
		case valueCol:
			valIdx = i
		}
	})
	if teamIdx < 0 || valIdx < 0 {
		return nil, fmt.Errorf("missing expected columns (Team, %s)", valueCol)
	}

	col := dataset.NewColumn(item)
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() <= teamIdx || cells.Length() <= valIdx {
			return
		}

		team, ok := cleanTeam(cells.Eq(teamIdx).Text())
		if !ok {
			return
		}

		value := strings.TrimSpace(cells.Eq(valIdx).Text())
		if value == "--" {
			value = "0"
		}
		col.Add(team, value)
	})

	return col, nil
}

package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/gohoops/internal/dataset"
	"github.com/jonesrussell/gohoops/internal/domain"
	"github.com/jonesrussell/gohoops/internal/fetch"
	"github.com/jonesrussell/gohoops/internal/logger"
)

const statsPage = `<html><body><table>
<thead><tr><th>Rank</th><th>Team</th><th>2023</th><th>2022</th></tr></thead>
<tbody>
<tr><td>1</td><td>Duke</td><td>82.1</td><td>80.0</td></tr>
<tr><td>2</td><td>Gonzaga</td><td>--</td><td>88.2</td></tr>
</tbody>
</table></body></html>`

const ratingsPage = `<html><body><table>
<thead><tr><th>Rank</th><th>Team</th><th>Rating</th></tr></thead>
<tbody>
<tr><td>1</td><td>Duke (28-3)</td><td>21.5</td></tr>
<tr><td>2</td><td></td><td>19.0</td></tr>
<tr><td>3</td><td>Kansas (25-6)</td><td>18.8</td></tr>
</tbody>
</table></body></html>`

func TestParseMetricTableStats(t *testing.T) {
	col, err := parseMetricTable([]byte(statsPage), "points-per-game", "2023", statsProfile.cleanTeam)
	require.NoError(t, err)

	assert.Equal(t, 2, col.Len())

	ds := dataset.New()
	ds.MergeColumn(col)

	v, _ := ds.Get("Duke", "points-per-game")
	assert.Equal(t, "82.1", v)

	// The dash placeholder means zero.
	v, _ = ds.Get("Gonzaga", "points-per-game")
	assert.Equal(t, "0", v)
}

func TestParseMetricTableRatingsCleansNames(t *testing.T) {
	col, err := parseMetricTable([]byte(ratingsPage), "predictive", "Rating", ratingsProfile.cleanTeam)
	require.NoError(t, err)

	// The empty-name row is dropped.
	assert.Equal(t, 2, col.Len())

	ds := dataset.New()
	ds.MergeColumn(col)

	// The won-lost suffix is stripped.
	v, ok := ds.Get("Duke", "predictive")
	require.True(t, ok)
	assert.Equal(t, "21.5", v)

	_, ok = ds.Get("Duke (28-3)", "predictive")
	assert.False(t, ok)
}

func TestParseMetricTableMissingColumn(t *testing.T) {
	_, err := parseMetricTable([]byte(statsPage), "points-per-game", "2019", statsProfile.cleanTeam)
	assert.Error(t, err)
}

func TestParseMetricTableNoTable(t *testing.T) {
	_, err := parseMetricTable([]byte("<html><body><p>no data</p></body></html>"),
		"points-per-game", "2023", statsProfile.cleanTeam)
	assert.Error(t, err)
}

func TestMetricURLs(t *testing.T) {
	statsURL := statsProfile.urlFor("points-per-game", 2024, 21)
	assert.Equal(t,
		"https://www.teamrankings.com/ncaa-basketball/stat/points-per-game?date=2024-03-21",
		statsURL)

	ratingsURL := ratingsProfile.urlFor("predictive", 2024, 21)
	assert.Equal(t,
		"https://www.teamrankings.com/ncaa-basketball/ranking/predictive-by-other?date=2024-03-21",
		ratingsURL)
}

func TestMetricSourceScrapeYear(t *testing.T) {
	// Serve the same stats page for every metric; the value column
	// label is the prior season.
	page := `<html><body><table>
<tr><th>Rank</th><th>Team</th><th>2023</th></tr>
<tr><td>1</td><td>Duke</td><td>82.1</td></tr>
</table></body></html>`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page)
	}))
	defer server.Close()

	store, err := dataset.NewStore(t.TempDir(), logger.NewNoop())
	require.NoError(t, err)

	client := fetch.NewClient(fetch.Config{}, logger.NewNoop())
	client.SetSleep(func(time.Duration) {})

	src := NewStatsSource(client, store, logger.NewNoop())
	src.SetSleep(func(time.Duration) {})
	src.profile.urlFor = func(item string, year, endDay int) string {
		return server.URL + "/" + item
	}

	task := domain.NewTask("t1", domain.TaskScrapeStats, nil)
	task.Start()

	rows, err := src.ScrapeYear(context.Background(), task, 2024)
	require.NoError(t, err)
	assert.Equal(t, 1, rows)

	ds, err := store.ReadDataset("TeamRankingsStats2024")
	require.NoError(t, err)
	assert.Equal(t, []string{"Duke"}, ds.Teams())
	// One column per stat page plus the team key.
	assert.Len(t, ds.Columns(), len(StatNames)+1)
}

package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/gohoops/internal/dataset"
	"github.com/jonesrussell/gohoops/internal/fetch"
	"github.com/jonesrussell/gohoops/internal/logger"
)

const bracketPage = `<html><body>
<div id="brackets">
  <div id="east">
    <div class="round">
      <div>
        <div class="winner"><div>1</div><div><a href="#">Duke</a></div><div><a href="#">78</a></div></div>
        <div><div>16</div><div><a href="#">Norfolk St.</a></div><div><a href="#">55</a></div></div>
        <div><a href="#">at Greensboro, North Carolina</a></div>
      </div>
      <div>
        <div><div>8</div><div><a href="#">Baylor</a></div><div><a href="#">60</a></div></div>
        <div class="winner"><div>9</div><div><a href="#">Creighton</a></div><div><a href="#">72</a></div></div>
      </div>
    </div>
    <div class="round">
      <div>
        <div class="winner"><div>1</div><div><a href="#">Duke</a></div><div><a href="#">81</a></div></div>
        <div><div>9</div><div><a href="#">Creighton</a></div><div><a href="#">66</a></div></div>
      </div>
    </div>
  </div>
  <div id="national">
    <div class="round"></div>
  </div>
  <div>no id, skipped</div>
</div>
</body></html>`

func newScoresSource(t *testing.T) (*ScoresSource, *dataset.Store) {
	t.Helper()

	store, err := dataset.NewStore(t.TempDir(), logger.NewNoop())
	require.NoError(t, err)
	return NewScoresSource(nil, store, logger.NewNoop()), store
}

func parseTeamNode(t *testing.T, html string) *goquery.Selection {
	t.Helper()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc.Find("body").Children().First()
}

func TestParseBrackets(t *testing.T) {
	src, _ := newScoresSource(t)

	games, err := src.parseBrackets([]byte(bracketPage), 2024, "test-url")
	require.NoError(t, err)
	require.Len(t, games, 3)

	first := games[0]
	assert.Equal(t, 2024, first.Year)
	assert.Equal(t, "east", first.Bracket)
	assert.Equal(t, 1, first.Round)
	require.NotNil(t, first.TeamA)
	assert.Equal(t, "Duke", first.TeamA.Name)
	assert.Equal(t, 1, first.TeamA.Seed)
	assert.Equal(t, 78, first.TeamA.Score)
	assert.True(t, first.TeamA.Won)
	require.NotNil(t, first.TeamB)
	assert.Equal(t, "Norfolk St.", first.TeamB.Name)
	assert.False(t, first.TeamB.Won)
	require.NotNil(t, first.Location)
	assert.Equal(t, "Greensboro, North Carolina", *first.Location)

	// Two children only: no location, still a valid game.
	second := games[1]
	assert.Nil(t, second.Location)
	assert.True(t, second.TeamB.Won)

	// The second round starts numbering again within the bracket.
	third := games[2]
	assert.Equal(t, 2, third.Round)
}

func TestParseBracketsMissingNode(t *testing.T) {
	src, _ := newScoresSource(t)

	_, err := src.parseBrackets([]byte("<html><body></body></html>"), 2024, "test-url")
	assert.Error(t, err)
}

func TestParseBracketsNoChildren(t *testing.T) {
	src, _ := newScoresSource(t)

	_, err := src.parseBrackets([]byte(`<html><body><div id="brackets"><div>x</div></div></body></html>`), 2024, "u")
	assert.Error(t, err)
}

func TestParseTeamSeedOnlyYieldsNoTeam(t *testing.T) {
	src, _ := newScoresSource(t)

	node := parseTeamNode(t, `<div><div>12</div></div>`)
	assert.Nil(t, src.parseTeam(node))
}

func TestParseTeamWithoutScore(t *testing.T) {
	src, _ := newScoresSource(t)

	node := parseTeamNode(t, `<div><div>7</div><div><a href="#">Dayton</a></div></div>`)
	team := src.parseTeam(node)
	require.NotNil(t, team)
	assert.Equal(t, "Dayton", team.Name)
	assert.Equal(t, 7, team.Seed)
	assert.Nil(t, team.Score)
	assert.False(t, team.Won)
}

func TestParseTeamNonNumericSeedKeptAsString(t *testing.T) {
	src, _ := newScoresSource(t)

	node := parseTeamNode(t, `<div><div>–</div><div><a href="#">TBD</a></div></div>`)
	team := src.parseTeam(node)
	require.NotNil(t, team)
	assert.Equal(t, "–", team.Seed)
}

func TestScoresScrapeYearWritesPerYearAndAllScores(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, bracketPage)
	}))
	defer server.Close()

	store, err := dataset.NewStore(t.TempDir(), logger.NewNoop())
	require.NoError(t, err)

	client := fetch.NewClient(fetch.Config{}, logger.NewNoop())
	client.SetSleep(func(time.Duration) {})

	src := NewScoresSource(client, store, logger.NewNoop())
	src.baseURL = server.URL

	rows, err := src.ScrapeYear(context.Background(), nil, 2024)
	require.NoError(t, err)
	assert.Equal(t, 3, rows)

	require.NoError(t, src.Finish(context.Background()))

	header, perYear, err := store.ReadTable("Scores2024")
	require.NoError(t, err)
	assert.Equal(t, gameHeader, header)
	assert.Len(t, perYear, 3)

	// First row flattens the winning team with its location.
	assert.Equal(t, "2024", perYear[0][0])
	assert.Equal(t, "east", perYear[0][1])
	assert.Equal(t, "Duke", perYear[0][4])
	assert.Equal(t, "true", perYear[0][6])
	assert.Equal(t, "Greensboro, North Carolina", perYear[0][11])

	_, all, err := store.ReadTable("AllScores")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestScoresFinishWithoutGamesWritesNothing(t *testing.T) {
	src, store := newScoresSource(t)

	require.NoError(t, src.Finish(context.Background()))
	assert.False(t, store.Exists("AllScores"))
}

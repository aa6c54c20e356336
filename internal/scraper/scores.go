package scraper

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonesrussell/gohoops/internal/dataset"
	"github.com/jonesrussell/gohoops/internal/domain"
	"github.com/jonesrussell/gohoops/internal/fetch"
	"github.com/jonesrussell/gohoops/internal/logger"
)

const sportsRefBaseURL = "https://www.sports-reference.com/cbb/postseason/men"

// scoresYearPace is the pause between season pages. Sports Reference
// limits clients to 20 requests per minute.
const scoresYearPace = 3 * time.Second

// gameHeader is the flattened CSV layout for game rows.
var gameHeader = []string{
	"year",
	"bracket",
	"round",
	"team_a.seed",
	"team_a.name",
	"team_a.score",
	"team_a.won",
	"team_b.seed",
	"team_b.name",
	"team_b.score",
	"team_b.won",
	"location",
}

// ScoresSource scrapes NCAA tournament bracket pages from Sports
// Reference into per-year game datasets plus an all-years
// concatenation. A ScoresSource accumulates state across ScrapeYear
// calls, so each pipeline run needs a fresh one.
type ScoresSource struct {
	client  *fetch.Client
	store   *dataset.Store
	log     logger.Interface
	baseURL string

	allGames []domain.Game
}

// NewScoresSource creates a scores source for one pipeline run.
func NewScoresSource(client *fetch.Client, store *dataset.Store, log logger.Interface) *ScoresSource {
	return &ScoresSource{client: client, store: store, log: log, baseURL: sportsRefBaseURL}
}

// Kind implements Source.
func (s *ScoresSource) Kind() domain.TaskType { return domain.TaskScrapeScores }

// YearPace implements Source.
func (s *ScoresSource) YearPace() time.Duration { return scoresYearPace }

// ScrapeYear fetches one season's bracket page, parses its games, and
// writes Scores<year>. Games also accumulate for the AllScores
// concatenation written by Finish.
func (s *ScoresSource) ScrapeYear(ctx context.Context, _ *domain.Task, year int) (int, error) {
	url := fmt.Sprintf("%s/%d-ncaa.html", s.baseURL, year)
	s.log.Debug("requesting scores", "year", year, "url", url)

	body, err := s.client.Get(ctx, url)
	if err != nil {
		return 0, err
	}

	games, err := s.parseBrackets(body, year, url)
	if err != nil {
		return 0, err
	}
	if len(games) == 0 {
		return 0, nil
	}

	s.allGames = append(s.allGames, games...)

	name := fmt.Sprintf("Scores%d", year)
	if err := s.store.WriteTable(name, gameHeader, gameRows(games)); err != nil {
		return 0, fmt.Errorf("write %s: %w", name, err)
	}
	return len(games), nil
}

// Finish writes the AllScores concatenation of every collected game.
func (s *ScoresSource) Finish(context.Context) error {
	if len(s.allGames) == 0 {
		s.log.Warn("no score data collected, skipping all-scores write")
		return nil
	}

	s.log.Info("writing all-scores concatenation", "games", len(s.allGames))
	if err := s.store.WriteTable("AllScores", gameHeader, gameRows(s.allGames)); err != nil {
		return fmt.Errorf("write AllScores: %w", err)
	}
	return nil
}

// parseBrackets extracts every game from the page's #brackets node.
// Each child of #brackets that carries an id attribute is one bracket
// (a region or the final four).
func (s *ScoresSource) parseBrackets(body []byte, year int, url string) ([]domain.Game, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse scores html for year %d: %w", year, err)
	}

	bracketsNode := doc.Find("#brackets").First()
	if bracketsNode.Length() == 0 {
		return nil, fmt.Errorf("could not find brackets node for year %d at %s", year, url)
	}

	var games []domain.Game
	bracketCount := 0
	bracketsNode.Children().Each(func(_ int, bracket *goquery.Selection) {
		id, ok := bracket.Attr("id")
		if !ok {
			return
		}
		bracketCount++
		games = append(games, s.parseBracketGames(year, id, bracket)...)
	})

	if bracketCount == 0 {
		return nil, fmt.Errorf("could not find bracket children for year %d at %s", year, url)
	}

	s.log.Debug("parsed games", "year", year, "games", len(games))
	return games, nil
}

// parseBracketGames walks a bracket's rounds in document order,
// numbering them from 1, and parses each round's game nodes.
func (s *ScoresSource) parseBracketGames(year int, bracketID string, bracket *goquery.Selection) []domain.Game {
	rounds := bracket.Find("div[class^='round']")
	if rounds.Length() == 0 {
		s.log.Warn("no rounds found in bracket", "bracket", bracketID, "year", year)
		return nil
	}

	var games []domain.Game
	rounds.Each(func(roundIdx int, round *goquery.Selection) {
		roundNum := roundIdx + 1
		round.ChildrenFiltered("div").Each(func(_ int, gameNode *goquery.Selection) {
			if gameNode.Children().Length() == 0 {
				s.log.Debug("skipping empty game node",
					"bracket", bracketID, "round", roundNum, "year", year)
				return
			}
			if game := s.parseGame(year, bracketID, roundNum, gameNode); game != nil {
				games = append(games, *game)
			}
		})
	})
	return games
}

// parseGame builds a Game from a game node: two team children and an
// optional third child holding an "at <venue>" link. A game missing
// either team is dropped.
func (s *ScoresSource) parseGame(year int, bracketID string, round int, node *goquery.Selection) *domain.Game {
	children := node.Children()
	if children.Length() < 2 {
		s.log.Debug("game node missing team children",
			"bracket", bracketID, "round", round, "year", year)
		return nil
	}

	teamA := s.parseTeam(children.Eq(0))
	teamB := s.parseTeam(children.Eq(1))
	if teamA == nil || teamB == nil {
		s.log.Debug("failed to parse one or both teams",
			"bracket", bracketID, "round", round, "year", year)
		return nil
	}

	game := &domain.Game{
		Year:    year,
		Bracket: bracketID,
		Round:   round,
		TeamA:   teamA,
		TeamB:   teamB,
	}

	if children.Length() >= 3 {
		link := children.Eq(2).Find("a").First()
		if text := strings.TrimSpace(link.Text()); link.Length() > 0 && strings.HasPrefix(text, "at ") {
			location := strings.TrimSpace(strings.TrimPrefix(text, "at "))
			game.Location = &location
		} else {
			s.log.Debug("unexpected location node structure",
				"bracket", bracketID, "round", round, "year", year)
		}
	}

	return game
}

// parseTeam builds a TeamResult from a team node: seed, name, and an
// optional score as direct children, with the winner carrying a
// "winner" class. A node without a name is unparseable.
func (s *ScoresSource) parseTeam(node *goquery.Selection) *domain.TeamResult {
	children := node.Children()

	var seedText, name, scoreText string
	switch {
	case children.Length() >= 3:
		seedText = strings.TrimSpace(children.Eq(0).Text())
		name = strings.TrimSpace(children.Eq(1).Text())
		scoreText = strings.TrimSpace(children.Eq(2).Text())
	case children.Length() == 2:
		seedText = strings.TrimSpace(children.Eq(0).Text())
		name = strings.TrimSpace(children.Eq(1).Text())
	default:
		s.log.Warn("unexpected team node structure")
		return nil
	}

	if name == "" {
		s.log.Warn("failed to parse team name")
		return nil
	}

	return &domain.TeamResult{
		Seed:  parseMaybeInt(seedText),
		Name:  name,
		Score: parseMaybeInt(scoreText),
		Won:   node.HasClass("winner"),
	}
}

// parseMaybeInt converts numeric text to int, keeps non-numeric text
// as a string, and maps empty text to nil.
func parseMaybeInt(text string) any {
	if text == "" {
		return nil
	}
	if n, err := strconv.Atoi(text); err == nil {
		return n
	}
	return text
}

// gameRows flattens games into CSV rows matching gameHeader.
func gameRows(games []domain.Game) [][]string {
	rows := make([][]string, 0, len(games))
	for _, g := range games {
		location := ""
		if g.Location != nil {
			location = *g.Location
		}
		rows = append(rows, []string{
			strconv.Itoa(g.Year),
			g.Bracket,
			strconv.Itoa(g.Round),
			formatAny(g.TeamA.Seed),
			g.TeamA.Name,
			formatAny(g.TeamA.Score),
			strconv.FormatBool(g.TeamA.Won),
			formatAny(g.TeamB.Seed),
			g.TeamB.Name,
			formatAny(g.TeamB.Score),
			strconv.FormatBool(g.TeamB.Won),
			location,
		})
	}
	return rows
}

// formatAny renders an optional seed or score cell; nil means absent.
func formatAny(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

package domain

// TeamResult is one side of a tournament game. Seed and Score hold an
// int when the scraped text looks numeric, otherwise the raw string is
// retained; both may be nil when absent from the page.
type TeamResult struct {
	Seed  any    `json:"seed"`
	Name  string `json:"name"`
	Score any    `json:"score"`
	Won   bool   `json:"won"`
}

// Game is one tournament game parsed from a bracket page. TeamB may be
// absent for byes and forfeits; Location is nil when the page carries
// no venue line.
type Game struct {
	Year     int         `json:"year"`
	Bracket  string      `json:"bracket"`
	Round    int         `json:"round"`
	TeamA    *TeamResult `json:"team_a"`
	TeamB    *TeamResult `json:"team_b"`
	Location *string     `json:"location"`
}

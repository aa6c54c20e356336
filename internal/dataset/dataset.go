// Package dataset provides the per-year tabular datasets produced by
// the scrapers: tables keyed by team name with one column per metric,
// persisted as flat CSV files.
package dataset

// TeamColumn is the canonical key column name.
const TeamColumn = "Team"

// Column is a single metric keyed by team name, as parsed from one
// source page.
type Column struct {
	Name   string
	teams  []string
	values map[string]string
}

// NewColumn creates an empty metric column.
func NewColumn(name string) *Column {
	return &Column{
		Name:   name,
		values: map[string]string{},
	}
}

// Add records a value for a team. The first value wins on duplicates.
func (c *Column) Add(team, value string) {
	if _, ok := c.values[team]; ok {
		return
	}
	c.teams = append(c.teams, team)
	c.values[team] = value
}

// Len returns the number of teams in the column.
func (c *Column) Len() int { return len(c.teams) }

// Dataset is a table keyed by team name. The first column is always
// the team key; rows keep insertion order.
type Dataset struct {
	keyName string
	columns []string
	teams   []string
	rows    map[string]map[string]string
}

// New creates an empty dataset keyed by the standard Team column.
func New() *Dataset {
	return NewKeyed(TeamColumn)
}

// NewKeyed creates an empty dataset with a custom key column name.
func NewKeyed(keyName string) *Dataset {
	return &Dataset{
		keyName: keyName,
		columns: []string{keyName},
		rows:    map[string]map[string]string{},
	}
}

// KeyName returns the name of the key column.
func (d *Dataset) KeyName() string { return d.keyName }

// Columns returns the column names, key column first.
func (d *Dataset) Columns() []string { return d.columns }

// Teams returns the team keys in insertion order.
func (d *Dataset) Teams() []string { return d.teams }

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.teams) }

// Get returns the cell value for a team and column.
func (d *Dataset) Get(team, column string) (string, bool) {
	row, ok := d.rows[team]
	if !ok {
		return "", false
	}
	v, ok := row[column]
	return v, ok
}

// Set stores a cell value, registering the team and column as needed.
func (d *Dataset) Set(team, column, value string) {
	if column != d.keyName && !d.hasColumn(column) {
		d.columns = append(d.columns, column)
	}
	row, ok := d.rows[team]
	if !ok {
		row = map[string]string{}
		d.rows[team] = row
		d.teams = append(d.teams, team)
	}
	if column != d.keyName {
		row[column] = value
	}
}

func (d *Dataset) hasColumn(name string) bool {
	for _, c := range d.columns {
		if c == name {
			return true
		}
	}
	return false
}

// MergeColumn outer-merges a metric column into the dataset: existing
// teams gain the new column, unseen teams are appended with empty
// cells elsewhere.
func (d *Dataset) MergeColumn(c *Column) {
	if !d.hasColumn(c.Name) {
		d.columns = append(d.columns, c.Name)
	}
	for _, team := range c.teams {
		d.Set(team, c.Name, c.values[team])
	}
}

// OuterJoin joins two datasets on their team keys. No row is dropped:
// teams present in either side appear in the result. Columns already
// present on the left keep their left-side values.
func (d *Dataset) OuterJoin(other *Dataset) *Dataset {
	joined := NewKeyed(d.keyName)
	joined.columns = append([]string{}, d.columns...)

	for _, team := range d.teams {
		joined.Set(team, d.keyName, team)
		// Copy only cells the row actually has, so a shared column's
		// right-side value can fill a gap the left never recorded.
		for _, col := range d.columns[1:] {
			if v, ok := d.rows[team][col]; ok {
				joined.Set(team, col, v)
			}
		}
	}

	for _, col := range other.columns[1:] {
		if !joined.hasColumn(col) {
			joined.columns = append(joined.columns, col)
		}
	}
	for _, team := range other.teams {
		joined.Set(team, joined.keyName, team)
		for _, col := range other.columns[1:] {
			if _, ok := joined.rows[team][col]; !ok {
				joined.Set(team, col, other.rows[team][col])
			}
		}
	}

	return joined
}

// RenameTeams rewrites every team key through fn, merging rows whose
// rewritten names collide (first row wins per cell).
func (d *Dataset) RenameTeams(fn func(string) string) *Dataset {
	out := NewKeyed(d.keyName)
	out.columns = append([]string{}, d.columns...)

	for _, team := range d.teams {
		renamed := fn(team)
		out.Set(renamed, d.keyName, renamed)
		for _, col := range d.columns[1:] {
			if v, ok := d.rows[team][col]; ok {
				if _, exists := out.rows[renamed][col]; !exists {
					out.Set(renamed, col, v)
				}
			}
		}
	}

	return out
}

// ToTable flattens the dataset into a header and rows for CSV output.
// Missing cells render as empty strings.
func (d *Dataset) ToTable() ([]string, [][]string) {
	header := append([]string{}, d.columns...)
	rows := make([][]string, 0, len(d.teams))
	for _, team := range d.teams {
		row := make([]string, len(d.columns))
		row[0] = team
		for i, col := range d.columns[1:] {
			row[i+1] = d.rows[team][col]
		}
		rows = append(rows, row)
	}
	return header, rows
}

// FromTable rebuilds a dataset from a header and rows. The first
// header cell is taken as the key column name.
func FromTable(header []string, rows [][]string) *Dataset {
	if len(header) == 0 {
		return New()
	}
	d := NewKeyed(header[0])
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		team := row[0]
		d.Set(team, d.keyName, team)
		for i, col := range header[1:] {
			if i+1 < len(row) {
				d.Set(team, col, row[i+1])
			}
		}
	}
	return d
}

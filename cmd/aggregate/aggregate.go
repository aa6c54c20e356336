// Package aggregate implements the one-shot CLI aggregation command.
package aggregate

import (
	"errors"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/gohoops/cmd/common"
	"github.com/jonesrussell/gohoops/internal/aggregator"
	"github.com/jonesrussell/gohoops/internal/scraper"
)

// Command returns the aggregate command.
func Command() *cobra.Command {
	var startYear, endYear int

	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Combine scraped per-year datasets",
		Long: `Join each season's T-Rank, ratings, and stats datasets into a
Combined<year> file. Every season in the range must have all three
datasets scraped already.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(startYear, endYear)
		},
	}

	cmd.Flags().IntVar(&startYear, "start-year", 0, "first season to aggregate (default: current year)")
	cmd.Flags().IntVar(&endYear, "end-year", 0, "last season to aggregate (default: current year)")
	return cmd
}

func run(startYear, endYear int) error {
	deps, err := common.New()
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	currentYear := deps.Config.Scraper.CurrentYear
	years := scraper.YearRange{Start: startYear, End: endYear}
	if years.Start == 0 {
		years.Start = currentYear
	}
	if years.End == 0 {
		years.End = currentYear
	}
	if err := years.Validate(currentYear); err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Year", "Teams", "Columns"})

	for _, year := range years.Years() {
		combined, aggErr := deps.Aggregator.AggregateYear(year)
		if aggErr != nil {
			t.Render()

			var missing *aggregator.MissingDatasetError
			if errors.As(aggErr, &missing) {
				return fmt.Errorf("aggregation stopped: %w", missing)
			}
			return fmt.Errorf("aggregate year %d: %w", year, aggErr)
		}
		t.AppendRow(table.Row{year, combined.Len(), len(combined.Columns())})
	}

	t.Render()
	return nil
}

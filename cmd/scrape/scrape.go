// Package scrape implements the one-shot CLI scraping command.
package scrape

import (
	"context"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/gohoops/cmd/common"
	"github.com/jonesrussell/gohoops/internal/domain"
	"github.com/jonesrussell/gohoops/internal/scraper"
	"github.com/jonesrussell/gohoops/internal/tasks"
)

var kinds = map[string]domain.TaskType{
	"stats":   domain.TaskScrapeStats,
	"ratings": domain.TaskScrapeRatings,
	"scores":  domain.TaskScrapeScores,
	"trank":   domain.TaskScrapeTRank,
	"all":     domain.TaskScrapeAll,
}

// Command returns the scrape command.
func Command() *cobra.Command {
	var startYear, endYear int

	cmd := &cobra.Command{
		Use:       "scrape [stats|ratings|scores|trank|all]",
		Short:     "Run a scraping pipeline in the foreground",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"stats", "ratings", "scores", "trank", "all"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], startYear, endYear)
		},
	}

	cmd.Flags().IntVar(&startYear, "start-year", 0, "first season to scrape (default: current year)")
	cmd.Flags().IntVar(&endYear, "end-year", 0, "last season to scrape (default: current year)")
	return cmd
}

func run(kindName string, startYear, endYear int) error {
	kind, ok := kinds[kindName]
	if !ok {
		return fmt.Errorf("unknown scrape kind %q", kindName)
	}

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

	registry := tasks.NewRegistry(deps.Logger)
	runner := tasks.NewRunner(deps.Logger)

	task := registry.Create(kind, map[string]any{
		"start_year": years.Start,
		"end_year":   years.End,
	})

	runner.Run(task, func(task *domain.Task) error {
		return deps.Scrapers.Run(context.Background(), task, years)
	})
	runner.Wait()

	renderSummary(task.Snapshot(), years)

	if task.Status() == domain.StatusFailure {
		return fmt.Errorf("scrape %s failed", kindName)
	}
	return nil
}

// renderSummary prints the finished task as a table.
func renderSummary(snapshot domain.TaskSnapshot, years scraper.YearRange) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"Task", "Type", "Years", "Status", "Progress", "Error"})

	errText := ""
	if snapshot.Error != nil {
		errText = *snapshot.Error
	}
	t.AppendRow(table.Row{
		snapshot.ID,
		string(snapshot.Type),
		fmt.Sprintf("%d-%d", years.Start, years.End),
		string(snapshot.Status),
		fmt.Sprintf("%d%%", snapshot.Progress),
		errText,
	})

	t.Render()
}

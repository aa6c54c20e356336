// Package scraper implements the per-source scraping pipelines: it
// fetches NCAA basketball statistics, ratings, and tournament bracket
// scores, reshapes them into per-year datasets, and persists them
// incrementally.
package scraper

import (
	"fmt"
)

// ExcludedYear is skipped in every year range: the 2020 tournament was
// cancelled.
const ExcludedYear = 2020

// endDays maps a season to the day in March the tournament data ends
// on. TeamRankings and T-Rank pages are addressed by that date.
var endDays = map[int]int{
	2008: 20,
	2009: 19,
	2010: 18,
	2011: 17,
	2012: 15,
	2013: 21,
	2014: 20,
	2015: 19,
	2016: 17,
	2017: 16,
	2018: 15,
	2019: 21,
	2021: 19,
	2022: 17,
	2023: 16,
	2024: 21,
	2025: 20,
}

// defaultEndDay is used for seasons missing from the table.
const defaultEndDay = 18

// EndDay returns the tournament end day for a season.
func EndDay(year int) int {
	if day, ok := endDays[year]; ok {
		return day
	}
	return defaultEndDay
}

// YearRange is an inclusive span of seasons to process.
type YearRange struct {
	Start int
	End   int
}

// Validate checks that the range is ordered and does not extend past
// the current season.
func (yr YearRange) Validate(currentYear int) error {
	if yr.Start > yr.End {
		return fmt.Errorf("start year %d is after end year %d", yr.Start, yr.End)
	}
	if yr.End > currentYear {
		return fmt.Errorf("end year %d is in the future (current year is %d)", yr.End, currentYear)
	}
	return nil
}

// Years expands the range into the list of seasons to process,
// excluding the cancelled 2020 tournament. Progress denominators use
// the length of this list.
func (yr YearRange) Years() []int {
	years := make([]int, 0, yr.End-yr.Start+1)
	for y := yr.Start; y <= yr.End; y++ {
		if y == ExcludedYear {
			continue
		}
		years = append(years, y)
	}
	return years
}

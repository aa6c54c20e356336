package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestYearsExcludes2020(t *testing.T) {
	years := YearRange{Start: 2018, End: 2022}.Years()
	assert.Equal(t, []int{2018, 2019, 2021, 2022}, years)
}

func TestYearsSingle2020IsEmpty(t *testing.T) {
	assert.Empty(t, YearRange{Start: 2020, End: 2020}.Years())
}

func TestYearRangeValidate(t *testing.T) {
	tests := []struct {
		name    string
		years   YearRange
		current int
		wantErr bool
	}{
		{name: "single current year", years: YearRange{2025, 2025}, current: 2025},
		{name: "full range", years: YearRange{2008, 2025}, current: 2025},
		{name: "start after end", years: YearRange{2024, 2020}, current: 2025, wantErr: true},
		{name: "end in the future", years: YearRange{2024, 2026}, current: 2025, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.years.Validate(tt.current)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEndDay(t *testing.T) {
	assert.Equal(t, 20, EndDay(2008))
	assert.Equal(t, 21, EndDay(2019))
	assert.Equal(t, 20, EndDay(2025))
	// Unknown seasons fall back to a mid-March default.
	assert.Equal(t, defaultEndDay, EndDay(2031))
}

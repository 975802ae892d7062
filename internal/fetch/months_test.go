package fetch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flarewatch/pkg/errors"
)

func TestBuildMonths(t *testing.T) {
	now := time.Date(2021, time.February, 15, 0, 0, 0, 0, time.UTC)

	months := BuildMonths(2020, 11, now)

	require.Len(t, months, 4)
	assert.Equal(t, "2020-11", months[0].String())
	assert.Equal(t, "2020-12", months[1].String())
	assert.Equal(t, "2021-01", months[2].String())
	assert.Equal(t, "2021-02", months[3].String())
	assert.Equal(t, "02-2021", months[3].Label())
}

func TestBuildMonthsSingle(t *testing.T) {
	now := time.Date(2021, time.February, 1, 0, 0, 0, 0, time.UTC)
	assert.Len(t, BuildMonths(2021, 2, now), 1)
	assert.Empty(t, BuildMonths(2021, 3, now))
}

func TestValidateStart(t *testing.T) {
	now := time.Date(2021, time.June, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		year  int
		month int
		ok    bool
	}{
		{"first year", FirstYear, 1, true},
		{"current month", 2021, 6, true},
		{"before publication", 1950, 12, false},
		{"future year", 2022, 1, false},
		{"future month", 2021, 7, false},
		{"month zero", 2020, 0, false},
		{"month thirteen", 2020, 13, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStart(tt.year, tt.month, now)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeInvalidInput, errors.GetErrorCode(err))
		})
	}
}

func TestParseStart(t *testing.T) {
	now := time.Date(2021, time.June, 1, 0, 0, 0, 0, time.UTC)

	y, m, err := ParseStart("2019", "3", now)
	require.NoError(t, err)
	assert.Equal(t, 2019, y)
	assert.Equal(t, 3, m)

	_, _, err = ParseStart("twenty", "3", now)
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.GetErrorCode(err))
}

func TestOutputDir(t *testing.T) {
	now := time.Date(2021, time.March, 4, 5, 6, 7, 0, time.UTC)
	assert.Equal(t, "data/ND Oil-Gas Data--Gathered Mar-04-2021_05.06.07", OutputDir("data", now))
}

package flaring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flarewatch/pkg/errors"
)

func TestComputeGracePeriods(t *testing.T) {
	entries := ComputeGracePeriods(scenarioRecords())

	require.Len(t, entries, 1)
	assert.Equal(t, int64(100), entries[0].Key.WellID)
	assert.Equal(t, "A", entries[0].Key.Pool)
	assert.Equal(t, month(2018, time.January), entries[0].FirstProduction)
	assert.Equal(t, month(2019, time.January), entries[0].GracePeriodEnd)
}

func TestGraceCutoffIndependentOfOrder(t *testing.T) {
	base := scenarioRecords()
	orders := [][]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}

	for _, order := range orders {
		records := make([]ProductionRecord, len(order))
		for i, j := range order {
			records[i] = base[j]
		}
		entries := ComputeGracePeriods(records)
		require.Len(t, entries, 1)
		assert.Equal(t, month(2019, time.January), entries[0].GracePeriodEnd, "order %v", order)
	}
}

func TestComputeGracePeriodsPerGroup(t *testing.T) {
	records := []ProductionRecord{
		rec(200, "B", month(2020, time.March), "1"),
		rec(100, "A", month(2018, time.January), "1"),
		rec(100, "B", month(2016, time.July), "1"),
		rec(200, "B", month(2019, time.December), "1"),
	}

	entries := ComputeGracePeriods(records)

	require.Len(t, entries, 3)
	assert.Equal(t, GroupKey{WellID: 100, APINo: 33053000000100, Pool: "A"}, entries[0].Key)
	assert.Equal(t, month(2019, time.January), entries[0].GracePeriodEnd)
	assert.Equal(t, "B", entries[1].Key.Pool)
	assert.Equal(t, month(2017, time.July), entries[1].GracePeriodEnd)
	assert.Equal(t, int64(200), entries[2].Key.WellID)
	assert.Equal(t, month(2020, time.December), entries[2].GracePeriodEnd)
}

func TestAddGraceYear(t *testing.T) {
	tests := []struct {
		in   time.Time
		want time.Time
	}{
		{month(2018, time.January), month(2019, time.January)},
		{time.Date(2020, time.February, 29, 0, 0, 0, 0, time.UTC), time.Date(2021, time.February, 28, 0, 0, 0, 0, time.UTC)},
		{time.Date(2019, time.December, 31, 0, 0, 0, 0, time.UTC), time.Date(2020, time.December, 31, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AddGraceYear(tt.in), tt.in.String())
	}
}

func TestJoinGracePeriods(t *testing.T) {
	records := scenarioRecords()
	entries := ComputeGracePeriods(records)

	augmented, err := JoinGracePeriods(records, entries)
	require.NoError(t, err)
	require.Len(t, augmented, len(records))
	for i, a := range augmented {
		assert.Equal(t, records[i].Date, a.Date)
		assert.Equal(t, month(2019, time.January), a.GracePeriodEnd)
	}
}

func TestJoinGracePeriodsMissingEntry(t *testing.T) {
	records := append(scenarioRecords(), rec(300, "C", month(2020, time.May), "1"))
	entries := ComputeGracePeriods(scenarioRecords())

	augmented, err := JoinGracePeriods(records, entries)
	assert.Nil(t, augmented)
	assert.Equal(t, errors.ErrCodeJoinInvariant, errors.GetErrorCode(err))
}

func TestPartition(t *testing.T) {
	records := append(scenarioRecords(),
		rec(100, "A", month(2018, time.June), "1"),
		rec(200, "A", month(2021, time.March), "1"),
	)
	augmented, err := JoinGracePeriods(records, ComputeGracePeriods(records))
	require.NoError(t, err)

	within, after := Partition(augmented)

	assert.Equal(t, len(records), len(within)+len(after))
	require.Len(t, after, 1)
	assert.Equal(t, month(2019, time.June), after[0].Date)

	// the record dated exactly on the cutoff stays within the grace period
	var onCutoff bool
	for _, w := range within {
		if w.Date.Equal(w.GracePeriodEnd) {
			onCutoff = true
		}
	}
	assert.True(t, onCutoff)
}

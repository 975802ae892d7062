package flaring

import (
	"sort"
	"time"

	"flarewatch/pkg/errors"
)

// AddGraceYear returns t plus one calendar year. Feb 29 maps to Feb 28 of
// the following year rather than rolling into March.
func AddGraceYear(t time.Time) time.Time {
	next := t.AddDate(1, 0, 0)
	if next.Month() != t.Month() {
		next = next.AddDate(0, 0, -next.Day())
	}
	return next
}

// ComputeGracePeriods derives one cutoff per group: the group's earliest
// observed date plus one year. Entries are ordered by key.
func ComputeGracePeriods(records []ProductionRecord) []GracePeriodEntry {
	first := make(map[GroupKey]time.Time)
	for _, r := range records {
		k := r.Key()
		if d, ok := first[k]; !ok || r.Date.Before(d) {
			first[k] = r.Date
		}
	}

	entries := make([]GracePeriodEntry, 0, len(first))
	for k, d := range first {
		entries = append(entries, GracePeriodEntry{
			Key:             k,
			FirstProduction: d,
			GracePeriodEnd:  AddGraceYear(d),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key.Less(entries[j].Key)
	})
	return entries
}

// JoinGracePeriods attaches each record's group cutoff. A record without an
// entry means the entries were not derived from these records and aborts.
func JoinGracePeriods(records []ProductionRecord, entries []GracePeriodEntry) ([]AugmentedRecord, error) {
	cutoffs := make(map[GroupKey]time.Time, len(entries))
	for _, e := range entries {
		cutoffs[e.Key] = e.GracePeriodEnd
	}

	out := make([]AugmentedRecord, len(records))
	for i, r := range records {
		end, ok := cutoffs[r.Key()]
		if !ok {
			return nil, errors.JoinInvariantError(r.Key())
		}
		out[i] = AugmentedRecord{ProductionRecord: r, GracePeriodEnd: end}
	}
	return out, nil
}

// Partition splits records into those within and those after their grace
// period. Input order is preserved in both halves.
func Partition(records []AugmentedRecord) (within, after []AugmentedRecord) {
	for _, r := range records {
		if r.AfterGrace() {
			after = append(after, r)
		} else {
			within = append(within, r)
		}
	}
	return within, after
}

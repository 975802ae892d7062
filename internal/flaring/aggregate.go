package flaring

import (
	"sort"
)

type postGraceKey struct {
	GroupKey
	cutoff int64
}

// AggregatePostGrace sums flared gas over records dated strictly after their
// group's cutoff. Groups with no such record produce no row.
func AggregatePostGrace(records []AugmentedRecord) []PostGraceAggregate {
	sums := make(map[postGraceKey]*PostGraceAggregate)
	for _, r := range records {
		if !r.AfterGrace() {
			continue
		}
		k := postGraceKey{GroupKey: r.Key(), cutoff: r.GracePeriodEnd.Unix()}
		agg, ok := sums[k]
		if !ok {
			agg = &PostGraceAggregate{Key: k.GroupKey, GracePeriodEnd: r.GracePeriodEnd}
			sums[k] = agg
		}
		agg.FlaredAfterGrace = agg.FlaredAfterGrace.Add(r.GasFlared)
		agg.Records++
	}

	out := make([]PostGraceAggregate, 0, len(sums))
	for _, agg := range sums {
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key != out[j].Key {
			return out[i].Key.Less(out[j].Key)
		}
		return out[i].GracePeriodEnd.Before(out[j].GracePeriodEnd)
	})
	return out
}

// AggregateFullHistory sums every measure per group over all records.
func AggregateFullHistory(records []ProductionRecord) []FullHistoryAggregate {
	sums := make(map[GroupKey]*FullHistoryAggregate)
	for _, r := range records {
		k := r.Key()
		agg, ok := sums[k]
		if !ok {
			agg = &FullHistoryAggregate{Key: k, FirstProduction: r.Date}
			sums[k] = agg
		}
		agg.Measures = agg.Measures.Add(r)
		agg.Records++
		if r.Date.Before(agg.FirstProduction) {
			agg.FirstProduction = r.Date
		}
	}

	out := make([]FullHistoryAggregate, 0, len(sums))
	for _, agg := range sums {
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key.Less(out[j].Key)
	})
	return out
}

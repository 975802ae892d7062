package flaring

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"flarewatch/pkg/errors"
)

// MergeKey selects how post-grace volumes are joined onto full-history rows.
type MergeKey string

const (
	// MergeByWell joins on well id alone. Post-grace rows of a multi-pool
	// well are summed and attached to every full-history row of that well.
	// Each row still reports only its own cutoff, and none when its own
	// group flared nothing after grace.
	MergeByWell MergeKey = "well"
	// MergeByGroup joins on the full (well, api, pool) key.
	MergeByGroup MergeKey = "group"
)

// ParseMergeKey validates a configured merge key.
func ParseMergeKey(s string) (MergeKey, error) {
	switch MergeKey(strings.ToLower(strings.TrimSpace(s))) {
	case "", MergeByWell:
		return MergeByWell, nil
	case MergeByGroup:
		return MergeByGroup, nil
	}
	return "", errors.ConfigError(fmt.Sprintf("unknown merge key %q, expected %q or %q", s, MergeByWell, MergeByGroup), "report.merge_key")
}

func collapse(post []PostGraceAggregate, key func(GroupKey) GroupKey) map[GroupKey]Volume {
	totals := make(map[GroupKey]Volume, len(post))
	for _, p := range post {
		k := key(p.Key)
		totals[k] = totals[k].Add(p.FlaredAfterGrace)
	}
	return totals
}

// Rank left-joins post-grace volumes onto full-history rows and orders them
// by flared-after-grace volume, largest first. Rows without a post-grace
// match count as zero and sort after matched rows of equal volume; remaining
// ties are broken by key. Ranks are 1-based.
func Rank(post []PostGraceAggregate, full []FullHistoryAggregate, mergeKey MergeKey) []RankedResult {
	joinKey := func(k GroupKey) GroupKey { return GroupKey{WellID: k.WellID} }
	if mergeKey == MergeByGroup {
		joinKey = func(k GroupKey) GroupKey { return k }
	}
	totals := collapse(post, joinKey)
	ends := make(map[GroupKey]time.Time, len(post))
	for _, p := range post {
		ends[p.Key] = p.GracePeriodEnd
	}

	out := make([]RankedResult, len(full))
	for i, f := range full {
		r := RankedResult{
			Key:             f.Key,
			Measures:        f.Measures,
			FirstProduction: f.FirstProduction,
		}
		if total, ok := totals[joinKey(f.Key)]; ok {
			r.HasPostGrace = true
			r.GracePeriodEnd = ends[f.Key]
			r.FlaredAfterGrace = total
		}
		out[i] = r
	}

	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].FlaredAfterGrace.Cmp(out[j].FlaredAfterGrace); c != 0 {
			return c > 0
		}
		if out[i].HasPostGrace != out[j].HasPostGrace {
			return out[i].HasPostGrace
		}
		return out[i].Key.Less(out[j].Key)
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// Top returns the first n results, or all of them when n <= 0.
func Top(results []RankedResult, n int) []RankedResult {
	if n <= 0 || n >= len(results) {
		return results
	}
	return results[:n]
}

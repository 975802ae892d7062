package flaring

import (
	"time"

	"flarewatch/internal/observability"
	"flarewatch/pkg/errors"
)

// Input is the pair of raw tables a run consumes. Wells may be nil.
type Input struct {
	Production *RawTable
	Wells      *RawTable
}

// Report is the outcome of one run.
type Report struct {
	Results      []RankedResult
	GracePeriods []GracePeriodEntry
	PostGrace    []PostGraceAggregate
	Records      int
	Groups       int
	// DatasetStart is the earliest production date in the input.
	DatasetStart time.Time
	MergeKey     MergeKey
}

// Pipeline runs the grace-period analysis over a complete dataset.
type Pipeline struct {
	normalizer *Normalizer
	mergeKey   MergeKey
	logger     *observability.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

func WithNormalizer(n *Normalizer) Option {
	return func(p *Pipeline) { p.normalizer = n }
}

func WithMergeKey(k MergeKey) Option {
	return func(p *Pipeline) { p.mergeKey = k }
}

func WithLogger(l *observability.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// NewPipeline creates a pipeline merging by well id with default parsing.
func NewPipeline(opts ...Option) *Pipeline {
	p := &Pipeline{
		normalizer: NewNormalizer(),
		mergeKey:   MergeByWell,
		logger:     observability.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes every stage. Any error aborts the run and no partial report
// is returned.
func (p *Pipeline) Run(in Input) (*Report, error) {
	log := p.logger.WithField("component", "pipeline")
	if in.Production == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "production table is required").
			WithSeverity(errors.SeverityCritical)
	}

	records, err := p.normalizer.Production(in.Production)
	if err != nil {
		return nil, err
	}
	log.InfoWithFields("production records normalized", map[string]interface{}{
		"records": len(records),
	})

	var wells []WellRecord
	if in.Wells != nil {
		wells, err = p.normalizer.Wells(in.Wells)
		if err != nil {
			return nil, err
		}
		log.InfoWithFields("well index normalized", map[string]interface{}{
			"wells": len(wells),
		})
	}

	entries := ComputeGracePeriods(records)
	log.InfoWithFields("grace periods computed", map[string]interface{}{
		"groups": len(entries),
	})
	log.Info("grace period cutoffs are anchored to the earliest observed record of each well/pool, which may be later than its first production")

	augmented, err := JoinGracePeriods(records, entries)
	if err != nil {
		return nil, err
	}

	post := AggregatePostGrace(augmented)
	log.InfoWithFields("post-grace flaring aggregated", map[string]interface{}{
		"groups_with_post_grace_flaring": len(post),
	})
	log.Info("records in the month the grace period ends are counted as within the grace period")

	full := AggregateFullHistory(records)
	log.InfoWithFields("full history aggregated", map[string]interface{}{
		"groups": len(full),
	})

	results := Rank(post, full, p.mergeKey)

	report := &Report{
		Results:      results,
		GracePeriods: entries,
		PostGrace:    post,
		Records:      len(records),
		Groups:       len(full),
		MergeKey:     p.mergeKey,
	}
	for _, e := range entries {
		if report.DatasetStart.IsZero() || e.FirstProduction.Before(report.DatasetStart) {
			report.DatasetStart = e.FirstProduction
		}
	}
	annotate(report, wells)

	log.InfoWithFields("results ranked", map[string]interface{}{
		"rows":      len(results),
		"merge_key": string(p.mergeKey),
	})
	return report, nil
}

// annotate attaches spud dates and marks groups whose first observed record
// coincides with the start of the dataset.
func annotate(report *Report, wells []WellRecord) {
	spud := make(map[int64]*time.Time, len(wells))
	for _, w := range wells {
		if _, seen := spud[w.WellID]; !seen || spud[w.WellID] == nil {
			spud[w.WellID] = w.SpudDate
		}
	}

	for i := range report.Results {
		r := &report.Results[i]
		r.SpudDate = spud[r.Key.WellID]
		r.AnchoredAtCollectionStart = r.FirstProduction.Equal(report.DatasetStart)
	}
}

package fetch

import (
	"context"
	"path/filepath"
	"sort"
	"sync"

	"github.com/alitto/pond/v2"

	"flarewatch/internal/flaring"
	"flarewatch/internal/observability"
	"flarewatch/internal/source"
	"flarewatch/pkg/errors"
)

// MonthFetcher downloads one month of state volumes.
type MonthFetcher interface {
	FetchMonth(ctx context.Context, m Month) (*flaring.RawTable, error)
}

// MonthResult is the outcome for one month of a run.
type MonthResult struct {
	Month Month
	Table *flaring.RawTable
	Path  string
}

// Result is the outcome of a gathering run.
type Result struct {
	Months   []MonthResult
	Skipped  []Month
	Combined *flaring.RawTable
}

// ProgressFunc is called after each month completes.
type ProgressFunc func(done, total int, m Month)

// Runner fans month downloads out over a worker pool.
type Runner struct {
	fetcher   MonthFetcher
	workers   int
	outputDir string
	logger    *observability.Logger
	progress  ProgressFunc
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithWorkers sets the number of concurrent downloads.
func WithWorkers(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithOutputDir writes each month to by_month/YYYY-MM.csv under dir.
func WithOutputDir(dir string) RunnerOption {
	return func(r *Runner) { r.outputDir = dir }
}

// WithRunnerLogger sets the run logger.
func WithRunnerLogger(l *observability.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) RunnerOption {
	return func(r *Runner) { r.progress = fn }
}

// NewRunner creates a runner for the given fetcher.
func NewRunner(fetcher MonthFetcher, opts ...RunnerOption) *Runner {
	r := &Runner{
		fetcher: fetcher,
		workers: 4,
		logger:  observability.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run downloads every month. The first failure cancels the remaining work.
// Months are returned in chronological order regardless of completion order.
func (r *Runner) Run(ctx context.Context, months []Month) (*Result, error) {
	logger := r.logger.WithField("component", "fetch")
	if len(months) == 0 {
		return &Result{Combined: flaring.NewRawTable("production", nil)}, nil
	}

	pool := pond.NewPool(r.workers, pond.WithQueueSize(len(months)))
	defer pool.StopAndWait()

	group := pool.NewGroupContext(ctx)
	groupCtx := group.Context()

	var (
		mu      sync.Mutex
		done    int
		results []MonthResult
		skipped []Month
	)

	for _, m := range months {
		m := m // per-iteration copy; go.mod targets Go 1.21 loop semantics
		group.SubmitErr(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}

			table, err := r.fetcher.FetchMonth(groupCtx, m)
			if err != nil {
				return err
			}

			res := MonthResult{Month: m, Table: table}
			if table != nil && r.outputDir != "" {
				res.Path = filepath.Join(r.outputDir, "by_month", m.String()+".csv")
				if err := source.WriteCSV(res.Path, table); err != nil {
					return err
				}
			}

			mu.Lock()
			defer mu.Unlock()
			done++
			if table == nil {
				skipped = append(skipped, m)
				logger.WarnWithFields("no volumes published for month", map[string]interface{}{
					"month": m.String(),
				})
			} else {
				results = append(results, res)
				logger.DebugWithFields("month fetched", map[string]interface{}{
					"month": m.String(),
					"rows":  table.Len(),
				})
			}
			if r.progress != nil {
				r.progress(done, len(months), m)
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, pond.ErrGroupStopped)) {
			return nil, ctx.Err()
		}
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[j].Month.after(results[i].Month) })
	sort.Slice(skipped, func(i, j int) bool { return skipped[j].after(skipped[i]) })

	combined := flaring.NewRawTable("production", nil)
	for _, res := range results {
		combined.Concat(res.Table.WithSQLFriendlyHeader())
	}

	logger.InfoWithFields("gathering complete", map[string]interface{}{
		"months":  len(results),
		"skipped": len(skipped),
		"rows":    combined.Len(),
	})

	return &Result{Months: results, Skipped: skipped, Combined: combined}, nil
}

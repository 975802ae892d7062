package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"flarewatch/internal/common"
	"flarewatch/internal/flaring"
	"flarewatch/internal/source"
	"flarewatch/internal/store"
	"flarewatch/internal/ui"
	"flarewatch/pkg/errors"
)

type analyzeOptions struct {
	production string
	wells      string
	fromStore  bool
	top        int
	mergeKey   string
	format     string
	output     string
	save       bool
}

func newAnalyzeCommand(a *app) *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Rank wells by gas flared after their grace period",
		Long: `Reads the aggregated monthly production table and the well index,
computes each well/pool's grace period cutoff (one year after its first
observed production month), and ranks the results by gas flared after it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if !flags.Changed("production") {
				opts.production = a.config.Source.ProductionFile
			}
			if !flags.Changed("top") {
				opts.top = a.config.Report.Top
			}
			if !flags.Changed("merge-key") {
				opts.mergeKey = a.config.Report.MergeKey
			}
			if !flags.Changed("format") {
				opts.format = a.config.Report.Format
			}
			wellsExplicit := flags.Changed("wells")
			if !wellsExplicit {
				opts.wells = a.config.Source.WellsFile
			}
			return runAnalyze(cmd, a, opts, wellsExplicit)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.production, "production", "", "production CSV (default source.production_file)")
	flags.StringVar(&opts.wells, "wells", "", "well index CSV (default source.wells_file)")
	flags.BoolVar(&opts.fromStore, "from-store", false, "read inputs from the configured store instead of CSV files")
	flags.IntVar(&opts.top, "top", 0, "number of rows to show, 0 for all (default report.top)")
	flags.StringVar(&opts.mergeKey, "merge-key", "", "join post-grace volumes by 'well' or 'group'")
	flags.StringVarP(&opts.format, "format", "f", "", "output format: table, csv, json")
	flags.StringVarP(&opts.output, "output", "o", "", "write the report to a file instead of stdout")
	flags.BoolVar(&opts.save, "save", false, "persist the full ranking to the store")
	return cmd
}

func runAnalyze(cmd *cobra.Command, a *app, opts *analyzeOptions, wellsExplicit bool) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	logger := a.logger.WithField("command", "analyze")

	mergeKey, err := flaring.ParseMergeKey(opts.mergeKey)
	if err != nil {
		return err
	}
	switch opts.format {
	case "table", "csv", "json":
	default:
		return errors.ConfigError(fmt.Sprintf("unknown report format %q", opts.format), "report.format")
	}

	var st *store.Store
	if opts.fromStore || opts.save {
		st, err = openStore(ctx, a)
		if err != nil {
			return err
		}
		defer st.Close()
	}

	var input flaring.Input
	if opts.fromStore {
		input, err = loadFromStore(ctx, st)
	} else {
		input, err = loadFromFiles(a, opts, wellsExplicit)
	}
	if err != nil {
		return err
	}

	pipeline := flaring.NewPipeline(
		flaring.WithNormalizer(flaring.NewNormalizer(
			flaring.WithDateLayouts(a.config.Source.DateLayouts...),
			flaring.WithBlankMeasuresAsZero(a.config.Source.BlankMeasuresAsZero),
		)),
		flaring.WithMergeKey(mergeKey),
		flaring.WithLogger(a.logger),
	)
	report, err := pipeline.Run(input)
	if err != nil {
		return err
	}

	shown := flaring.Top(report.Results, opts.top)
	if err := writeReport(cmd, opts, report, shown); err != nil {
		return err
	}

	if opts.save {
		runID := uuid.NewString()
		n, err := st.SaveReport(ctx, runID, report.Results, a.now())
		if err != nil {
			return err
		}
		logger.InfoWithFields("report saved", map[string]interface{}{
			"run_id": runID,
			"rows":   n,
		})
	}
	return nil
}

func openStore(ctx context.Context, a *app) (*store.Store, error) {
	st, err := store.Open(ctx, a.config.Store.Driver, a.config.Store.DSN, store.WithLogger(a.logger))
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

func loadFromStore(ctx context.Context, st *store.Store) (flaring.Input, error) {
	production, err := st.LoadProduction(ctx)
	if err != nil {
		return flaring.Input{}, err
	}
	if production.Len() == 0 {
		return flaring.Input{}, errors.New(errors.ErrCodeInvalidInput, "the store holds no production data").
			WithSuggestions("Run 'flarewatch fetch' first")
	}
	wells, err := st.LoadWells(ctx)
	if err != nil {
		return flaring.Input{}, err
	}
	if wells.Len() == 0 {
		wells = nil
	}
	return flaring.Input{Production: production, Wells: wells}, nil
}

func loadFromFiles(a *app, opts *analyzeOptions, wellsExplicit bool) (flaring.Input, error) {
	production, err := source.ReadCSV(opts.production, "production")
	if err != nil {
		return flaring.Input{}, err
	}

	input := flaring.Input{Production: production}
	if opts.wells == "" {
		return input, nil
	}
	wells, err := source.ReadCSV(opts.wells, "wells")
	if err != nil {
		if !wellsExplicit && errors.GetErrorCode(err) == errors.ErrCodeFileNotFound {
			a.logger.WarnWithFields("well index not found, spud dates will be omitted", map[string]interface{}{
				"path": opts.wells,
			})
			return input, nil
		}
		return flaring.Input{}, err
	}
	input.Wells = wells
	return input, nil
}

func writeReport(cmd *cobra.Command, opts *analyzeOptions, report *flaring.Report, shown []flaring.RankedResult) error {
	var out io.Writer = cmd.OutOrStdout()
	if opts.output != "" {
		path, err := common.CleanPath(opts.output)
		if err != nil {
			return err
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, common.FilePermissionNormal) // #nosec G304 - output path chosen by the operator
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeFileOperation, "cannot create report file").
				WithContext("path", path)
		}
		defer f.Close()
		out = f
	}

	var err error
	switch opts.format {
	case "csv":
		err = source.WriteReportCSV(out, shown)
	case "json":
		err = source.WriteReportJSON(out, shown)
	default:
		ui.Header(out, "Gas Flared After Grace Period")
		ui.Summary(out, report, len(shown))
		fmt.Fprintln(out)
		ui.RankingTable(out, shown)
	}
	if err == nil && opts.output != "" {
		ui.Success(cmd.OutOrStdout(), fmt.Sprintf("%d rows written to %s", len(shown), opts.output))
	}
	return err
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"flarewatch/internal/credentials"
	"flarewatch/internal/fetch"
	"flarewatch/internal/flaring"
	"flarewatch/internal/source"
	"flarewatch/internal/ui"
	"flarewatch/pkg/errors"
)

const (
	combinedFileName  = "Monthly Production Aggregated.csv"
	wellIndexFileName = "Well_Index.csv"
)

type fetchOptions struct {
	startYear  int
	startMonth int
	workers    int
	outputDir  string
	noStore    bool
	noWells    bool
}

func interactive() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}

func newFetchCommand(a *app) *cobra.Command {
	opts := &fetchOptions{}

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download monthly state volumes and the well index",
		Long: `Downloads the state volumes table for every month from the start month
through the current month, writes one CSV per month plus a combined CSV,
downloads the well index, and stores everything in the configured store.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if !flags.Changed("start-year") {
				opts.startYear = a.config.Fetch.StartYear
			}
			if !flags.Changed("start-month") {
				opts.startMonth = a.config.Fetch.StartMonth
			}
			if !flags.Changed("workers") {
				opts.workers = a.config.Fetch.Workers
			}
			if !flags.Changed("output-dir") {
				opts.outputDir = a.config.Fetch.OutputDir
			}
			return runFetch(cmd, a, opts)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&opts.startYear, "start-year", 0, "first year to download (prompted when unset)")
	flags.IntVar(&opts.startMonth, "start-month", 0, "first month to download, 1-12 (prompted when unset)")
	flags.IntVar(&opts.workers, "workers", 0, "concurrent downloads (default fetch.workers)")
	flags.StringVar(&opts.outputDir, "output-dir", "", "directory for the gathered CSV files (default fetch.output_dir)")
	flags.BoolVar(&opts.noStore, "no-store", false, "only write CSV files")
	flags.BoolVar(&opts.noWells, "no-wells", false, "skip the well index download")
	return cmd
}

func runFetch(cmd *cobra.Command, a *app, opts *fetchOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	logger := a.logger.WithField("command", "fetch")
	now := a.now()

	if opts.startYear == 0 || opts.startMonth == 0 {
		if !interactive() {
			return errors.New(errors.ErrCodeInvalidInput, "start year and month are required").
				WithSuggestions("Pass --start-year and --start-month, or set fetch.start_year and fetch.start_month")
		}
		if err := promptStart(opts, now); err != nil {
			return err
		}
	}
	if err := fetch.ValidateStart(opts.startYear, opts.startMonth, now); err != nil {
		return err
	}

	login, err := resolveCredentials(cmd)
	if err != nil {
		return err
	}

	client := fetch.NewClient(fetch.Config{
		BaseURL:    a.config.Fetch.BaseURL,
		Username:   login.Username,
		Password:   login.Password,
		Timeout:    a.config.Fetch.Timeout,
		MaxRetries: a.config.Fetch.MaxRetries,
		RetryDelay: a.config.Fetch.RetryDelay,
	}, fetch.WithClientLogger(a.logger))

	months := fetch.BuildMonths(opts.startYear, opts.startMonth, now)
	dir := fetch.OutputDir(opts.outputDir, now)
	out := cmd.OutOrStdout()
	ui.Info(out, fmt.Sprintf("gathering %d months into %q", len(months), dir))

	bar := ui.NewProgressBar(cmd.ErrOrStderr(), len(months))
	runner := fetch.NewRunner(client,
		fetch.WithWorkers(opts.workers),
		fetch.WithOutputDir(dir),
		fetch.WithRunnerLogger(a.logger),
		fetch.WithProgress(func(done, total int, m fetch.Month) {
			bar.Update(done, m.String())
		}),
	)
	result, err := runner.Run(ctx, months)
	if err != nil {
		return err
	}
	bar.Finish(fmt.Sprintf("%d months gathered", len(result.Months)))
	for _, m := range result.Skipped {
		ui.Warning(out, fmt.Sprintf("no volumes published for %s", m.Label()))
	}

	if err := source.WriteCSV(filepath.Join(dir, combinedFileName), result.Combined); err != nil {
		return err
	}

	var wells *flaring.RawTable
	if !opts.noWells {
		wells, err = client.FetchWellIndex(ctx)
		if err != nil {
			return err
		}
		if err := source.WriteCSV(filepath.Join(dir, wellIndexFileName), wells); err != nil {
			return err
		}
	}

	ui.KeyValues(out,
		ui.Pair{Key: "Months", Value: strconv.Itoa(len(result.Months))},
		ui.Pair{Key: "Skipped", Value: strconv.Itoa(len(result.Skipped))},
		ui.Pair{Key: "Production rows", Value: strconv.Itoa(result.Combined.Len())},
		ui.Pair{Key: "Output", Value: dir},
	)

	if opts.noStore {
		return nil
	}

	st, err := openStore(ctx, a)
	if err != nil {
		return err
	}
	defer st.Close()

	stored := 0
	for _, m := range result.Months {
		n, err := st.SaveProductionMonth(ctx, m.Month.String(), m.Table)
		if err != nil {
			return err
		}
		stored += n
	}
	if wells != nil {
		if _, err := st.SaveWells(ctx, wells); err != nil {
			return err
		}
	}
	logger.InfoWithFields("gathered data stored", map[string]interface{}{
		"driver": st.Driver(),
		"rows":   stored,
	})
	ui.Success(out, fmt.Sprintf("%d production rows stored in %s", stored, st.Driver()))
	return nil
}

func promptStart(opts *fetchOptions, now time.Time) error {
	var year, month string
	if err := survey.AskOne(&survey.Input{
		Message: fmt.Sprintf("Start year (%d-%d):", fetch.FirstYear, now.Year()),
	}, &year, survey.WithValidator(survey.Required)); err != nil {
		return errors.Wrap(err, errors.ErrCodeInvalidInput, "start year prompt aborted")
	}
	if err := survey.AskOne(&survey.Input{
		Message: "Start month (1-12):",
	}, &month, survey.WithValidator(survey.Required)); err != nil {
		return errors.Wrap(err, errors.ErrCodeInvalidInput, "start month prompt aborted")
	}

	y, m, err := fetch.ParseStart(year, month, now)
	if err != nil {
		return err
	}
	opts.startYear, opts.startMonth = y, m
	return nil
}

// resolveCredentials finds the publisher login and offers to store a
// prompted one.
func resolveCredentials(cmd *cobra.Command) (credentials.Credentials, error) {
	manager, err := credentials.NewManager()
	if err != nil {
		return credentials.Credentials{}, err
	}

	var prompter credentials.Prompter
	if interactive() {
		prompter = credentials.SurveyPrompter{}
	}
	login, from, err := credentials.Resolve(manager, prompter)
	if err != nil {
		return credentials.Credentials{}, err
	}

	if from == "prompt" {
		save := false
		if err := survey.AskOne(&survey.Confirm{
			Message: fmt.Sprintf("Store these credentials in the %s?", manager.Backend()),
			Default: true,
		}, &save); err == nil && save {
			if err := manager.Save(login); err != nil {
				return credentials.Credentials{}, err
			}
			ui.Success(cmd.OutOrStdout(), "credentials stored")
		}
	}
	return login, nil
}

package cmd

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"flarewatch/internal/config"
	"flarewatch/internal/observability"
	"flarewatch/pkg/errors"
	"flarewatch/pkg/models"
)

// app is the state shared by every command of one invocation.
type app struct {
	settings   *viper.Viper
	config     *models.Config
	logger     *observability.Logger
	configFile string
	logLevel   string
	verbose    bool
	quiet      bool
	now        func() time.Time
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	a := &app{
		settings: viper.New(),
		logger:   observability.NewNop(),
		now:      time.Now,
	}

	rootCmd := &cobra.Command{
		Use:   "flarewatch",
		Short: "Rank wells by gas flared after their grace period",
		Long: `flarewatch - gathers monthly oil and gas production filings and ranks
well/pool streams by the volume of gas they flared after the one-year
grace period that follows first production.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default ./flarewatch.yaml or ~/.flarewatch/config.yaml)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "log at debug level")
	flags.BoolVarP(&a.quiet, "quiet", "q", false, "log errors only")

	rootCmd.AddCommand(
		newAnalyzeCommand(a),
		newFetchCommand(a),
		newCredentialsCommand(a),
		newConfigCommand(a),
		newVersionCommand(),
	)
	return rootCmd
}

func (a *app) setup(cmd *cobra.Command) error {
	if err := config.Init(a.settings, a.configFile); err != nil {
		return err
	}
	cfg, err := config.Load(a.settings)
	if err != nil {
		return err
	}
	a.config = cfg

	level := cfg.Logging.Level
	if a.logLevel != "" {
		level = a.logLevel
	}
	switch {
	case a.verbose:
		level = "debug"
	case a.quiet:
		level = "error"
	}

	a.logger = observability.NewLogger(observability.LoggerConfig{
		Level:    observability.LogLevelFromString(level),
		Output:   cmd.ErrOrStderr(),
		Encoding: cfg.Logging.Encoding,
		Service:  "flarewatch",
		Version:  Version,
	})
	observability.SetDefaultLogger(a.logger)
	a.logger.DebugWithFields("configuration loaded", map[string]interface{}{
		"config_file": a.settings.ConfigFileUsed(),
		"store":       cfg.Store.Driver,
	})
	return nil
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		errors.Display(os.Stderr, err)
		os.Exit(1)
	}
}

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"flarewatch/internal/config"
	"flarewatch/internal/store"
	"flarewatch/internal/ui"
	"flarewatch/pkg/errors"
)

func newConfigCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or inspect the configuration file",
	}

	var force, encryptDSN bool
	var dsn string
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with the default settings",
		Args:  cobra.NoArgs,
		// An unreadable existing file must not block writing a fresh one.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.configFile
			if path == "" {
				path = config.GetConfigFile()
			}
			if fileExists(path) && !force {
				return errors.New(errors.ErrCodeConfigInvalid, "configuration file already exists").
					WithContext("path", path).
					WithSuggestions("Pass --force to overwrite it")
			}

			cfg := config.Default()
			if dsn != "" {
				cfg.Store.DSN = dsn
			}
			if encryptDSN {
				sealed, err := config.EncryptValue(cfg.Store.DSN)
				if err != nil {
					return errors.Wrap(err, errors.ErrCodeEncryptionFailed, "cannot encrypt store.dsn")
				}
				cfg.Store.DSN = sealed
			}
			if err := config.Save(cfg, path); err != nil {
				return err
			}
			ui.Success(cmd.OutOrStdout(), fmt.Sprintf("configuration written to %s", path))
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	initCmd.Flags().StringVar(&dsn, "dsn", "", "store DSN to write instead of the default")
	initCmd.Flags().BoolVar(&encryptDSN, "encrypt-dsn", false, "store the DSN encrypted (ENC[...])")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *a.config
			if cfg.Store.Driver != store.DriverSQLite {
				cfg.Store.DSN = "<redacted>"
			}
			data, err := yaml.Marshal(&cfg)
			if err != nil {
				return errors.Wrap(err, errors.ErrCodeInternal, "cannot render configuration")
			}
			out := cmd.OutOrStdout()
			if used := a.settings.ConfigFileUsed(); used != "" {
				fmt.Fprintf(out, "# %s\n", used)
			} else {
				fmt.Fprintln(out, "# defaults (no configuration file found)")
			}
			_, err = out.Write(data)
			return err
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

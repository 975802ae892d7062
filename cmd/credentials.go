package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"flarewatch/internal/credentials"
	"flarewatch/internal/ui"
	"flarewatch/pkg/errors"
)

func newCredentialsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Manage the publisher subscription login",
		Long: `The login used by 'flarewatch fetch' is kept in the system keyring, or in an
encrypted file under ~/.flarewatch/credentials when no keyring is available.
Set FLAREWATCH_USE_KEYRING=false to force the file backend.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "set",
			Short: "Store a login (read from FLAREWATCH_USERNAME/FLAREWATCH_PASSWORD or prompted)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				manager, err := credentials.NewManager()
				if err != nil {
					return err
				}
				var prompter credentials.Prompter
				if interactive() {
					prompter = credentials.SurveyPrompter{}
				}
				login, _, err := credentials.Resolve(nil, prompter)
				if err != nil {
					return err
				}
				if err := manager.Save(login); err != nil {
					return err
				}
				a.logger.InfoWithFields("credentials stored", map[string]interface{}{
					"backend": manager.Backend(),
				})
				ui.Success(cmd.OutOrStdout(), fmt.Sprintf("credentials for %s stored in the %s", login.Username, manager.Backend()))
				return nil
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Show the login fetch would use",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				manager, err := credentials.NewManager()
				if err != nil {
					return err
				}
				login, from, err := credentials.Resolve(manager, nil)
				if err != nil {
					return err
				}
				ui.KeyValues(cmd.OutOrStdout(),
					ui.Pair{Key: "Username", Value: login.Username},
					ui.Pair{Key: "Password", Value: login.Masked()},
					ui.Pair{Key: "Source", Value: from},
					ui.Pair{Key: "Backend", Value: manager.Backend()},
				)
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete",
			Short: "Remove the stored login",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				manager, err := credentials.NewManager()
				if err != nil {
					return err
				}
				if _, err := manager.Load(); err != nil {
					if errors.GetErrorCode(err) == errors.ErrCodeCredentialMissing {
						ui.Info(cmd.OutOrStdout(), "no credentials stored")
						return nil
					}
					return err
				}
				if err := manager.Delete(); err != nil {
					return err
				}
				ui.Success(cmd.OutOrStdout(), "credentials deleted")
				return nil
			},
		},
	)
	return cmd
}

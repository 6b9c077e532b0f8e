package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the tables and the bootstrap administrators",
		Long: `Apply the database schema and create each user named in
BOOTSTRAP_ADMINS that does not exist yet. Safe to run repeatedly; the server
does the same on start.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rootOpts.open(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			created, err := a.Migrate(cmd.Context())
			if err != nil {
				return WrapExitError(ExitCommandError, "migrate failed", err)
			}

			if rootOpts.Output == "json" {
				return writeJSON(cmd.OutOrStdout(), map[string]int{"admins_created": created})
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "schema ready, %d administrators created\n", created)
			return err
		},
	}
}

// Package cli implements scanctl, the administrative command line for the
// scanning service.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/JonMunkholm/scanmaster/internal/app"
	"github.com/JonMunkholm/scanmaster/internal/config"
	"github.com/JonMunkholm/scanmaster/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Output  string // "json" | "text"
	EnvFile string

	// open builds the application. Tests replace it.
	open func(ctx context.Context, opts *RootOptions) (*app.App, error)
}

// ValidOutputs defines the allowed output formats.
var ValidOutputs = []string{"text", "json"}

// NewRootCommand creates the root command for scanctl.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{open: openApp})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scanctl",
		Short: "scanctl - barcode scanning administration",
		Long: `Administer the barcode scanning service: load the article catalog,
export the scan history, record scans and prepare the database.

Configuration is read from the environment and from a .env file, the same
variables the server uses (DATABASE_URL, EXPORT_TIMEZONE, ...).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidOutput(opts.Output) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid output %q: must be one of %v", opts.Output, ValidOutputs))
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output and debug logging")
	cmd.PersistentFlags().StringVarP(&opts.Output, "output", "o", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", "", "read environment from this file instead of ./.env")

	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewScanCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))

	return cmd
}

// openApp loads the environment and configuration, then connects. Logs go
// to stderr so stdout stays clean for command output.
func openApp(ctx context.Context, opts *RootOptions) (*app.App, error) {
	if err := loadEnv(opts.EnvFile); err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load env file", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	level := cfg.Logging.Level
	if opts.Verbose {
		level = "debug"
	}
	slog.SetDefault(logging.New(os.Stderr, level, cfg.Logging.Format))

	a, err := app.Open(ctx, cfg)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to connect", err)
	}
	return a, nil
}

// loadEnv reads path, or ./.env when path is empty. A missing ./.env is
// not an error.
func loadEnv(path string) error {
	if path != "" {
		return godotenv.Load(path)
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func isValidOutput(output string) bool {
	for _, o := range ValidOutputs {
		if o == output {
			return true
		}
	}
	return false
}

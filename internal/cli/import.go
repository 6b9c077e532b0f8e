package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/scanmaster/internal/core"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	Strict bool
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Load the article catalog from an xlsx or csv file",
		Long: `Reconcile a catalog file into the article master.

The file needs exactly three columns, Codigo Articulo, Descripcion and EAN,
with a header row. Each row inserts a new article or overwrites the code and
description of the article holding that EAN. Bad rows are reported and
skipped; the rest are applied.

Exit codes:
  0 - Import completed
  1 - Rows were rejected and --strict was given
  2 - The file could not be read or the import was aborted

Examples:
  scanctl import maestro.xlsx
  scanctl import maestro.csv --strict -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, cmd, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "exit with status 1 when any row is rejected")

	return cmd
}

func runImport(opts *ImportOptions, cmd *cobra.Command, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open file", err)
	}
	defer f.Close()

	a, err := opts.open(cmd.Context(), opts.RootOptions)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.Service.ImportFile(cmd.Context(), filepath.Base(path), f)
	if report == nil {
		return WrapExitError(ExitCommandError, core.FormatUserError(err), err)
	}

	if opts.Output == "json" {
		if werr := writeJSON(cmd.OutOrStdout(), report); werr != nil {
			return werr
		}
	} else {
		writeImportReport(cmd.OutOrStdout(), report, opts.Verbose)
	}

	if err != nil {
		return WrapExitError(ExitCommandError, "import aborted", err)
	}
	if opts.Strict && report.Rejected > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d rows rejected", report.Rejected))
	}
	return nil
}

// writeImportReport prints the totals, then each rejected row. Verbose also
// lists updates that replaced an article code.
func writeImportReport(w io.Writer, r *core.ImportReport, verbose bool) {
	name := r.FileName
	if name == "" {
		name = "import"
	}
	fmt.Fprintf(w, "%s: %d rows, %d inserted, %d updated, %d rejected (%s)\n",
		name, r.TotalRows, r.Inserted, r.Updated, r.Rejected, r.Duration.Round(time.Millisecond))
	if r.Aborted {
		fmt.Fprintln(w, "import stopped early; rows after the last one listed were not applied")
	}

	rejected := r.RejectedRows()
	if len(rejected) > 0 {
		fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ROW\tEAN\tCODE\tREASON")
		for _, o := range rejected {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", o.Row, o.EAN, o.InternalCode, o.Reason)
		}
		tw.Flush()
	}

	if !verbose {
		return
	}
	for _, o := range r.Outcomes {
		if o.PreviousCode != "" {
			fmt.Fprintf(w, "row %d: ean %s moved from %s to %s\n", o.Row, o.EAN, o.PreviousCode, o.InternalCode)
		}
	}
}

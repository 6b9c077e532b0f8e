package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/scanmaster/internal/core"
)

// ScanOptions holds flags for the scan command.
type ScanOptions struct {
	*RootOptions
	Actor string
}

// NewScanCommand creates the scan command.
func NewScanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "scan <ean>...",
		Short: "Validate codes against the catalog and record matches",
		Long: `Validate each code as if it had been scanned. Known codes record one
reading each; unknown codes are reported and record nothing.

Exit codes:
  0 - Every code matched
  1 - At least one code is not in the catalog
  2 - Command error

Examples:
  scanctl scan 8412345678901
  scanctl scan 8412345678901 5000000000017 --usuario almacen`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(opts, cmd, args)
		},
	}

	cmd.Flags().StringVar(&opts.Actor, "usuario", core.DefaultActor, "operator recorded on the readings")

	return cmd
}

func runScan(opts *ScanOptions, cmd *cobra.Command, codes []string) error {
	a, err := opts.open(cmd.Context(), opts.RootOptions)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := core.ContextWithActor(cmd.Context(), opts.Actor)
	w := cmd.OutOrStdout()

	results := make([]core.ScanResult, 0, len(codes))
	unmatched := 0
	for _, code := range codes {
		res, err := a.Service.Validate(ctx, code)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("scan %q", code), err)
		}
		if !res.Matched() {
			unmatched++
		}
		results = append(results, res)

		if opts.Output == "text" {
			writeScanResult(w, res, a.Location)
		}
	}

	if opts.Output == "json" {
		if err := writeJSON(w, results); err != nil {
			return err
		}
	}

	if unmatched > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d codes not in the catalog", unmatched, len(codes)))
	}
	return nil
}

// writeScanResult prints one tab-separated line per code.
func writeScanResult(w io.Writer, res core.ScanResult, loc *time.Location) {
	if !res.Matched() {
		fmt.Fprintf(w, "%s\tno existe en el maestro\n", res.EAN)
		return
	}
	r := res.Reading
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.EAN, r.InternalCode, r.Description, r.ReadAt.In(loc).Format("02/01/2006 15:04"))
}

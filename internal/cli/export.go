package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/scanmaster/internal/core"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	From   string
	To     string
	EAN    string
	Format string // "xlsx" | "csv"; empty infers from the file name
	Order  string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Write the scan history to an xlsx or csv file",
		Long: `Export recorded scans with the columns EAN, Codigo Articulo, Descripcion
and Fecha Lectura. Read times are written in EXPORT_TIMEZONE.

--from is inclusive and --to exclusive; a date-only --to covers that whole
day. Use "-" as the file to write to stdout.

Examples:
  scanctl export lecturas.xlsx
  scanctl export octubre.csv --from 2026-10-01 --to 2026-10-31 --order asc
  scanctl export - --format csv --ean 8412345678901`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.From, "from", "", "first day or instant to include (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().StringVar(&opts.To, "to", "", "last day to include, or exclusive RFC 3339 instant")
	cmd.Flags().StringVar(&opts.EAN, "ean", "", "only readings of this EAN")
	cmd.Flags().StringVar(&opts.Format, "format", "", "file format (xlsx|csv), default from the file extension")
	cmd.Flags().StringVar(&opts.Order, "order", string(core.OrderDesc), "read time order (asc|desc)")

	return cmd
}

// exportFormat picks the format from the flag, then from the extension.
func exportFormat(flag, path string) (core.ExportFormat, error) {
	if flag != "" {
		return core.ParseExportFormat(strings.ToLower(flag))
	}
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return core.FormatCSV, nil
	}
	return core.FormatXLSX, nil
}

func runExport(opts *ExportOptions, cmd *cobra.Command, path string) error {
	format, err := exportFormat(opts.Format, path)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --format", err)
	}
	if opts.Order != string(core.OrderAsc) && opts.Order != string(core.OrderDesc) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid --order %q: must be asc or desc", opts.Order))
	}

	a, err := opts.open(cmd.Context(), opts.RootOptions)
	if err != nil {
		return err
	}
	defer a.Close()

	filter := core.HistoryFilter{
		EAN:   strings.TrimSpace(opts.EAN),
		Order: core.ParseSortOrder(opts.Order),
	}
	if filter.From, err = parseBound(opts.From, a.Location, false); err != nil {
		return WrapExitError(ExitCommandError, "invalid --from", err)
	}
	if filter.To, err = parseBound(opts.To, a.Location, true); err != nil {
		return WrapExitError(ExitCommandError, "invalid --to", err)
	}

	req := core.ExportRequest{Filter: filter, Format: format}

	if path == "-" {
		n, err := a.Service.Export(cmd.Context(), cmd.OutOrStdout(), req)
		if err != nil {
			return WrapExitError(ExitCommandError, "export failed", err)
		}
		return reportExport(opts, cmd.ErrOrStderr(), "stdout", format, n)
	}

	n, err := exportToFile(cmd, a.Service, req, path)
	if err != nil {
		return WrapExitError(ExitCommandError, "export failed", err)
	}
	return reportExport(opts, cmd.OutOrStdout(), path, format, n)
}

// exportToFile writes next to path and renames on success, so a failed
// export never leaves a truncated file under the requested name.
func exportToFile(cmd *cobra.Command, svc *core.Service, req core.ExportRequest, path string) (int, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return 0, err
	}
	defer os.Remove(tmp.Name())

	n, err := svc.Export(cmd.Context(), tmp, req)
	if err != nil {
		tmp.Close()
		return n, err
	}
	if err := tmp.Close(); err != nil {
		return n, err
	}
	return n, os.Rename(tmp.Name(), path)
}

func reportExport(opts *ExportOptions, w io.Writer, dest string, format core.ExportFormat, n int) error {
	if opts.Output == "json" {
		return writeJSON(w, map[string]any{"file": dest, "format": format, "rows": n})
	}
	_, err := fmt.Fprintf(w, "wrote %d readings to %s\n", n, dest)
	return err
}

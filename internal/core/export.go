package core

// export.go streams the scan history into a downloadable file.
//
// Readings are pulled from ScanLogStore.Stream one at a time and written
// straight into the output: the xlsx path uses excelize's StreamWriter,
// which spills rows to a temporary file instead of building the sheet in
// memory, and the csv path flushes every ExportFlushEvery rows. An xlsx
// sheet holds at most maxXLSXReadings readings below the header; larger
// histories fail with ErrExportTooLarge before the workbook is written, and
// csv has no such limit.

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/JonMunkholm/scanmaster/internal/logging"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ExportColumns is the fixed header of every export.
var ExportColumns = []string{"EAN", "Codigo Articulo", "Descripcion", "Fecha Lectura"}

// ExportSheetName is the worksheet holding the readings.
const ExportSheetName = "Lecturas"

// ExportFlushEvery is how often the csv writer is flushed.
const ExportFlushEvery = 1000

const (
	exportDateFormat = "dd/mm/yyyy hh:mm"
	exportCSVLayout  = "02/01/2006 15:04"
	headerFill       = "121212"
	headerFont       = "FFFFFF"
)

var exportColumnWidths = []float64{20, 18, 40, 18}

// maxXLSXReadings is the worksheet row limit minus the header row.
var maxXLSXReadings = excelize.TotalRows - 1

// ExportFileName returns lecturas_YYYYMMDD_HHMMSS with the format's extension.
func ExportFileName(format ExportFormat, now time.Time) string {
	return fmt.Sprintf("lecturas_%s.%s", now.Format("20060102_150405"), format)
}

// Export writes the readings selected by req.Filter to w and returns how
// many were written. The default order is most recent first.
func (s *Service) Export(ctx context.Context, w io.Writer, req ExportRequest) (int, error) {
	if req.Filter.Order == "" {
		req.Filter.Order = OrderDesc
	}

	logger := logging.WithFields(ctx, "format", req.Format, "order", req.Filter.Order)

	var (
		n   int
		err error
	)
	switch req.Format {
	case FormatXLSX, "":
		n, err = s.exportXLSX(ctx, w, req.Filter)
	case FormatCSV:
		n, err = s.exportCSV(ctx, w, req.Filter)
	default:
		return 0, ErrUnsupportedFormat
	}
	if err != nil {
		return n, err
	}

	logger.Info("export completed", "rows", n)
	return n, nil
}

func (s *Service) exportXLSX(ctx context.Context, w io.Writer, f HistoryFilter) (int, error) {
	book := excelize.NewFile()
	defer book.Close()

	if err := book.SetSheetName(book.GetSheetName(0), ExportSheetName); err != nil {
		return 0, fmt.Errorf("name sheet: %w", err)
	}

	sw, err := book.NewStreamWriter(ExportSheetName)
	if err != nil {
		return 0, fmt.Errorf("open stream writer: %w", err)
	}

	for i, width := range exportColumnWidths {
		if err := sw.SetColWidth(i+1, i+1, width); err != nil {
			return 0, fmt.Errorf("set column width: %w", err)
		}
	}

	headerStyle, err := book.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: headerFont},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFill}},
	})
	if err != nil {
		return 0, fmt.Errorf("create header style: %w", err)
	}
	dateFormat := exportDateFormat
	dateStyle, err := book.NewStyle(&excelize.Style{CustomNumFmt: &dateFormat})
	if err != nil {
		return 0, fmt.Errorf("create date style: %w", err)
	}

	header := make([]interface{}, len(ExportColumns))
	for i, name := range ExportColumns {
		header[i] = excelize.Cell{StyleID: headerStyle, Value: name}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	n := 0
	err = s.scans.Stream(ctx, f, func(r ScanReading) error {
		if n >= maxXLSXReadings {
			return ErrExportTooLarge
		}
		cell, err := excelize.CoordinatesToCellName(1, n+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, []interface{}{
			r.EAN,
			r.InternalCode,
			r.Description,
			excelize.Cell{StyleID: dateStyle, Value: s.wallClock(r.ReadAt)},
		}); err != nil {
			return fmt.Errorf("write row %d: %w", n+2, err)
		}
		n++
		return nil
	})
	if err != nil {
		return n, fmt.Errorf("export readings: %w", err)
	}

	if err := sw.Flush(); err != nil {
		return n, fmt.Errorf("flush sheet: %w", err)
	}
	if err := book.Write(w); err != nil {
		return n, fmt.Errorf("write workbook: %w", err)
	}
	return n, nil
}

func (s *Service) exportCSV(ctx context.Context, w io.Writer, f HistoryFilter) (int, error) {
	// The BOM makes spreadsheet tools open the file as UTF-8.
	bw := transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())
	cw := csv.NewWriter(bw)

	if err := cw.Write(ExportColumns); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	n := 0
	err := s.scans.Stream(ctx, f, func(r ScanReading) error {
		if err := cw.Write([]string{
			r.EAN,
			r.InternalCode,
			r.Description,
			r.ReadAt.In(s.loc).Format(exportCSVLayout),
		}); err != nil {
			return err
		}
		n++
		if n%ExportFlushEvery == 0 {
			cw.Flush()
			return cw.Error()
		}
		return nil
	})
	if err != nil {
		return n, fmt.Errorf("export readings: %w", err)
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return n, fmt.Errorf("flush csv: %w", err)
	}
	if err := bw.Close(); err != nil {
		return n, fmt.Errorf("flush csv: %w", err)
	}
	return n, nil
}

// wallClock re-expresses t in the export zone as a zone-less time, which is
// what a spreadsheet date cell holds.
func (s *Service) wallClock(t time.Time) time.Time {
	local := t.In(s.loc)
	return time.Date(local.Year(), local.Month(), local.Day(),
		local.Hour(), local.Minute(), local.Second(), local.Nanosecond(), time.UTC)
}

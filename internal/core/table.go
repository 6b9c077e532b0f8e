package core

// table.go provides row-at-a-time readers over uploaded spreadsheets.
//
//   - XLSX: excelize's streaming row iterator over the active sheet.
//   - CSV: encoding/csv behind an x/text decoder that drops a UTF-8 BOM
//     (or switches to UTF-16 when one is present) and replaces invalid
//     bytes with U+FFFD. The delimiter is sniffed from the header line
//     because spreadsheet tools in comma-decimal locales write ';'.
//   - Rows: an in-memory table for callers that already hold the cells.

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// TableReader yields the rows of an uploaded table in file order. Next
// returns io.EOF after the last row.
type TableReader interface {
	Next() ([]string, error)
	Close() error
}

// OpenTable picks a reader from the file extension.
func OpenTable(fileName string, r io.Reader) (TableReader, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx", ".xlsm":
		t, err := NewXLSXTable(r)
		if err != nil {
			return nil, err
		}
		return t, nil
	case ".csv", ".txt":
		t, err := NewCSVTable(r)
		if err != nil {
			return nil, err
		}
		return t, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(fileName))
	}
}

// RowsTable serves rows from memory.
type RowsTable struct {
	rows [][]string
	pos  int
}

func NewRowsTable(rows [][]string) *RowsTable {
	return &RowsTable{rows: rows}
}

func (t *RowsTable) Next() ([]string, error) {
	if t.pos >= len(t.rows) {
		return nil, io.EOF
	}
	row := t.rows[t.pos]
	t.pos++
	return row, nil
}

func (t *RowsTable) Close() error { return nil }

// CSVTable reads a delimited text file.
type CSVTable struct {
	r *csv.Reader
}

// NewCSVTable wraps r with BOM handling and UTF-8 sanitizing.
func NewCSVTable(r io.Reader) (*CSVTable, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	br := bufio.NewReader(decoded)

	delim, err := sniffDelimiter(br)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(br)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return &CSVTable{r: cr}, nil
}

func (t *CSVTable) Next() ([]string, error) {
	rec, err := t.r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("invalid csv: %w", err)
	}
	return rec, nil
}

func (t *CSVTable) Close() error { return nil }

// sniffDelimiter looks at the first line and prefers ';' or tab over ','
// when they are more frequent.
func sniffDelimiter(br *bufio.Reader) (rune, error) {
	line, err := br.Peek(4096)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return 0, fmt.Errorf("encoding error: %w", err)
	}
	if i := bytes.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}

	delim, best := ',', bytes.Count(line, []byte{','})
	for _, c := range []rune{';', '\t'} {
		if n := bytes.Count(line, []byte(string(c))); n > best {
			delim, best = c, n
		}
	}
	return delim, nil
}

// XLSXTable streams the rows of the workbook's active sheet.
type XLSXTable struct {
	f    *excelize.File
	rows *excelize.Rows
}

// NewXLSXTable opens the workbook and positions on the active sheet.
func NewXLSXTable(r io.Reader) (*XLSXTable, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			f.Close()
			return nil, ErrEmptyTable
		}
		sheet = sheets[0]
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return &XLSXTable{f: f, rows: rows}, nil
}

// Next returns raw cell values so numeric barcodes are not reformatted by
// the cell's number format.
func (t *XLSXTable) Next() ([]string, error) {
	if !t.rows.Next() {
		if err := t.rows.Error(); err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		return nil, io.EOF
	}
	return t.rows.Columns(excelize.Options{RawCellValue: true})
}

func (t *XLSXTable) Close() error {
	if err := t.rows.Close(); err != nil {
		t.f.Close()
		return err
	}
	return t.f.Close()
}

package core

import "errors"

var (
	// ErrInvalidInput is returned for a blank scanned code.
	ErrInvalidInput = errors.New("invalid input: scanned code is empty")

	// ErrNotFound is returned by CatalogStore.LookupByEAN on a miss.
	ErrNotFound = errors.New("article not found")

	// ErrColumnCount is returned when an upload does not have exactly three
	// columns. No row is applied.
	ErrColumnCount = errors.New("invalid column count: expected Codigo Articulo, Descripcion, EAN")

	// ErrEmptyTable is returned when an upload has no header row.
	ErrEmptyTable = errors.New("empty file: no header row")

	// ErrUnsupportedFormat is returned for file types other than xlsx and csv.
	ErrUnsupportedFormat = errors.New("unsupported file format: use xlsx or csv")

	// ErrExportTooLarge is returned when the selected history does not fit
	// in one xlsx worksheet. Nothing has been written to the output.
	ErrExportTooLarge = errors.New("export too large for xlsx: use csv")
)

package core

import (
	"time"

	"github.com/google/uuid"
)

// DefaultActor is recorded on readings when the caller is anonymous.
const DefaultActor = "anonimo"

// Article is a catalog entry. EAN is the natural key and never changes.
type Article struct {
	InternalCode string    `json:"codigo_articulo"`
	Description  string    `json:"descripcion"`
	EAN          string    `json:"ean"`
	CreatedAt    time.Time `json:"fecha_creacion"`
	UpdatedAt    time.Time `json:"fecha_actualizacion"`
}

// ScanReading is one recorded scan. InternalCode and Description are a
// snapshot taken at scan time.
type ScanReading struct {
	ID           int64      `json:"id"`
	EAN          string     `json:"ean"`
	InternalCode string     `json:"codigo_articulo"`
	Description  string     `json:"descripcion"`
	ReadAt       time.Time  `json:"fecha_lectura"`
	Actor        string     `json:"usuario"`
	SubmissionID *uuid.UUID `json:"submission_id,omitempty"`
}

// NewReading is what the validation service hands to the scan log.
// A zero SubmissionID means the append is not deduplicated.
type NewReading struct {
	EAN          string
	InternalCode string
	Description  string
	Actor        string
	SubmissionID uuid.UUID
}

// ScanStatus tells whether a scanned code matched the catalog.
type ScanStatus string

const (
	ScanMatched   ScanStatus = "matched"
	ScanUnmatched ScanStatus = "unmatched"
)

// ScanResult is the outcome of Validate. Reading is set only when matched.
type ScanResult struct {
	Status   ScanStatus   `json:"status"`
	EAN      string       `json:"ean"`
	Reading  *ScanReading `json:"reading,omitempty"`
	Replayed bool         `json:"replayed,omitempty"`
}

// Matched reports whether the code was found in the catalog.
func (r ScanResult) Matched() bool {
	return r.Status == ScanMatched
}

// UpsertStatus is the outcome of a single catalog write.
type UpsertStatus string

const (
	UpsertInserted UpsertStatus = "inserted"
	UpsertUpdated  UpsertStatus = "updated"
	UpsertRejected UpsertStatus = "rejected"
)

// UpsertResult describes what happened to one catalog write. Reason is set
// when rejected. PreviousCode is set when an update replaced a different
// internal code.
type UpsertResult struct {
	Status       UpsertStatus
	Reason       string
	PreviousCode string
}

// Rejection reasons reported by the catalog store and the reconciler.
const (
	ReasonEmptyEAN              = "empty_ean"
	ReasonEmptyInternalCode     = "empty_internal_code"
	ReasonDuplicateEAN          = "duplicate_ean"
	ReasonConstraintViolation   = "constraint_violation"
	ReasonInvalidValue          = "invalid_value"
	ReasonMissingRequiredField  = "missing_required_field"
	ReasonDuplicateEANInBatch   = "duplicate_ean_in_batch"
	ReasonUnexpectedColumnCount = "unexpected_column_count"
)

// RowStatus is the outcome of one import row.
type RowStatus string

const (
	RowInserted RowStatus = "inserted"
	RowUpdated  RowStatus = "updated"
	RowRejected RowStatus = "rejected"
)

// RowOutcome records what happened to one data row. Row is the 1-based row
// number in the uploaded sheet, so the header is row 1.
type RowOutcome struct {
	Row          int       `json:"row"`
	InternalCode string    `json:"codigo_articulo"`
	Description  string    `json:"descripcion"`
	EAN          string    `json:"ean"`
	Status       RowStatus `json:"status"`
	Reason       string    `json:"reason,omitempty"`
	PreviousCode string    `json:"previous_code,omitempty"`
}

// ImportReport is self-contained so it can be rendered without further
// engine calls.
type ImportReport struct {
	ID        string        `json:"id"`
	FileName  string        `json:"file_name,omitempty"`
	TotalRows int           `json:"total_rows"`
	Inserted  int           `json:"inserted"`
	Updated   int           `json:"updated"`
	Rejected  int           `json:"rejected"`
	Outcomes  []RowOutcome  `json:"outcomes"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
	Aborted   bool          `json:"aborted,omitempty"`
}

func (r *ImportReport) record(o RowOutcome) {
	r.TotalRows++
	switch o.Status {
	case RowInserted:
		r.Inserted++
	case RowUpdated:
		r.Updated++
	case RowRejected:
		r.Rejected++
	}
	r.Outcomes = append(r.Outcomes, o)
}

// RejectedRows returns only the rejected outcomes, in file order.
func (r *ImportReport) RejectedRows() []RowOutcome {
	var out []RowOutcome
	for _, o := range r.Outcomes {
		if o.Status == RowRejected {
			out = append(out, o)
		}
	}
	return out
}

// SortOrder orders history by read time.
type SortOrder string

const (
	OrderDesc SortOrder = "desc"
	OrderAsc  SortOrder = "asc"
)

// ParseSortOrder accepts "asc" or "desc"; anything else is most recent first.
func ParseSortOrder(s string) SortOrder {
	if s == string(OrderAsc) {
		return OrderAsc
	}
	return OrderDesc
}

// HistoryFilter selects scan readings. From is inclusive and To exclusive.
// Limit <= 0 means unbounded.
type HistoryFilter struct {
	From  *time.Time
	To    *time.Time
	EAN   string
	Order SortOrder
	Limit int
}

// ExportFormat is the file type produced by Export.
type ExportFormat string

const (
	FormatXLSX ExportFormat = "xlsx"
	FormatCSV  ExportFormat = "csv"
)

// ParseExportFormat defaults to xlsx for an empty string.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch s {
	case "", string(FormatXLSX):
		return FormatXLSX, nil
	case string(FormatCSV):
		return FormatCSV, nil
	default:
		return "", ErrUnsupportedFormat
	}
}

// ContentType returns the MIME type of the format.
func (f ExportFormat) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// ExportRequest selects what Export writes.
type ExportRequest struct {
	Filter HistoryFilter
	Format ExportFormat
}

package core

// import.go reconciles an uploaded catalog table into the master catalog.
//
// The table has a header row and three columns in fixed order:
// Codigo Articulo, Descripcion, EAN. Each data row is cleaned, checked for
// shape, checked against earlier rows of the same upload and then upserted
// on its own. Nothing spans rows: a rejected row leaves its siblings alone,
// and an interrupted import keeps what it already applied.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/JonMunkholm/scanmaster/internal/database"
	"github.com/JonMunkholm/scanmaster/internal/logging"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ImportColumns is the expected header, in order.
var ImportColumns = []string{"Codigo Articulo", "Descripcion", "EAN"}

// ReasonStoreError marks a row the database refused for a reason that is
// neither a constraint nor a data problem.
const ReasonStoreError = "store_error"

// importRow is the validated shape of one data row.
type importRow struct {
	InternalCode string `validate:"required,max=100"`
	Description  string
	EAN          string `validate:"required,max=64"`
	ExtraCells   int    `validate:"eq=0"`
}

// Import applies every data row of table to the catalog and reports the
// outcome of each. The returned error is non-nil only when the table is
// malformed (ErrColumnCount, ErrEmptyTable), the store became unavailable
// or ctx ended; in the last two cases the report covers the rows handled so
// far.
func (s *Service) Import(ctx context.Context, table TableReader) (*ImportReport, error) {
	return s.importTable(ctx, "", table)
}

// ImportFile opens r as xlsx or csv, chosen by fileName's extension, and
// imports it.
func (s *Service) ImportFile(ctx context.Context, fileName string, r io.Reader) (*ImportReport, error) {
	table, err := OpenTable(fileName, r)
	if err != nil {
		return nil, err
	}
	defer table.Close()

	return s.importTable(ctx, fileName, table)
}

func (s *Service) importTable(ctx context.Context, fileName string, table TableReader) (*ImportReport, error) {
	if s.limiter != nil {
		if err := s.limiter.Acquire(ctx); err != nil {
			return nil, err
		}
		defer s.limiter.Release()
	}

	ctx, cancel := context.WithTimeout(ctx, s.importTimeout)
	defer cancel()

	report := &ImportReport{
		ID:        uuid.NewString(),
		FileName:  fileName,
		StartedAt: s.now(),
		Outcomes:  []RowOutcome{},
	}
	start := time.Now()
	logger := logging.WithFields(ctx, "import_id", report.ID, "file", fileName)

	header, err := table.Next()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyTable
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if n := rowWidth(header); n != len(ImportColumns) {
		return nil, fmt.Errorf("%w: header has %d columns", ErrColumnCount, n)
	}

	logger.Info("import started")

	// claimed maps each EAN applied in this upload to its article code.
	claimed := make(map[string]string)
	rowNum := 1

	finish := func(err error) (*ImportReport, error) {
		report.Duration = time.Since(start)
		if err != nil {
			report.Aborted = true
			logger.Warn("import aborted",
				"error", err,
				"rows", report.TotalRows,
				"inserted", report.Inserted,
				"updated", report.Updated,
				"rejected", report.Rejected,
			)
			return report, err
		}
		logger.Info("import completed",
			"rows", report.TotalRows,
			"inserted", report.Inserted,
			"updated", report.Updated,
			"rejected", report.Rejected,
			"duration_ms", report.Duration.Milliseconds(),
		)
		return report, nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return finish(err)
		}

		cells, err := table.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		rowNum++
		if err != nil {
			return finish(fmt.Errorf("read row %d: %w", rowNum, err))
		}
		if isBlankRow(cells) {
			continue
		}

		outcome, err := s.applyRow(ctx, rowNum, cells, claimed)
		if err != nil {
			return finish(err)
		}
		report.record(outcome)

		if outcome.Status == RowRejected {
			logger.Debug("row rejected", "row", rowNum, "ean", outcome.EAN, "reason", outcome.Reason)
		}
		if report.TotalRows%s.logEvery == 0 {
			logger.Info("import progress", "rows", report.TotalRows)
		}
	}

	return finish(nil)
}

// applyRow classifies and applies one data row. It returns an error only
// when the import as a whole has to stop.
func (s *Service) applyRow(ctx context.Context, rowNum int, cells []string, claimed map[string]string) (RowOutcome, error) {
	row := importRow{
		InternalCode: CleanCode(cellAt(cells, 0)),
		Description:  CleanCell(cellAt(cells, 1)),
		EAN:          CleanEAN(cellAt(cells, 2)),
	}
	if len(cells) > len(ImportColumns) {
		row.ExtraCells = rowWidth(cells[len(ImportColumns):])
	}

	outcome := RowOutcome{
		Row:          rowNum,
		InternalCode: row.InternalCode,
		Description:  row.Description,
		EAN:          row.EAN,
	}

	if reason := s.checkRow(row); reason != "" {
		outcome.Status = RowRejected
		outcome.Reason = reason
		return outcome, nil
	}

	if code, ok := claimed[row.EAN]; ok && code != row.InternalCode {
		outcome.Status = RowRejected
		outcome.Reason = ReasonDuplicateEANInBatch
		return outcome, nil
	}

	res, err := s.catalog.Upsert(ctx, row.InternalCode, row.Description, row.EAN)
	if err != nil {
		if ctx.Err() != nil || database.IsUnavailable(err) {
			return outcome, fmt.Errorf("import row %d: %w", rowNum, err)
		}
		logging.FromContext(ctx).Error("row failed", "row", rowNum, "ean", row.EAN, "error", err)
		outcome.Status = RowRejected
		outcome.Reason = ReasonStoreError
		return outcome, nil
	}

	switch res.Status {
	case UpsertInserted:
		outcome.Status = RowInserted
	case UpsertUpdated:
		outcome.Status = RowUpdated
		outcome.PreviousCode = res.PreviousCode
	default:
		outcome.Status = RowRejected
		outcome.Reason = res.Reason
		return outcome, nil
	}

	if _, ok := claimed[row.EAN]; !ok {
		claimed[row.EAN] = row.InternalCode
	}
	return outcome, nil
}

// checkRow returns the rejection reason for a malformed row, or "". A
// missing field wins over the other problems.
func (s *Service) checkRow(row importRow) string {
	err := s.validate.Struct(row)
	if err == nil {
		return ""
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return ReasonInvalidValue
	}

	reason := ""
	for _, fe := range verrs {
		switch {
		case fe.Tag() == "required":
			return ReasonMissingRequiredField
		case fe.Field() == "ExtraCells":
			reason = ReasonUnexpectedColumnCount
		case reason == "":
			reason = ReasonInvalidValue
		}
	}
	return reason
}

package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/scanmaster/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// CatalogStore is the master catalog keyed by EAN.
type CatalogStore interface {
	// LookupByEAN is an exact, case-sensitive match. Returns ErrNotFound on
	// a miss.
	LookupByEAN(ctx context.Context, ean string) (Article, error)

	// Upsert inserts the article, or overwrites the code and description of
	// the one holding ean. Data problems come back as a Rejected result;
	// the error is reserved for store failures.
	Upsert(ctx context.Context, internalCode, description, ean string) (UpsertResult, error)

	Count(ctx context.Context) (int64, error)
}

// ScanLogStore is the append-only scan history. It has no update or delete.
type ScanLogStore interface {
	// Append stores a reading with a server-assigned timestamp. When the
	// submission id was already used, the original reading is returned
	// with replayed set.
	Append(ctx context.Context, r NewReading) (reading ScanReading, replayed bool, err error)

	// Stream calls fn for each matching reading in read-time order without
	// holding the result set in memory.
	Stream(ctx context.Context, f HistoryFilter, fn func(ScanReading) error) error

	List(ctx context.Context, f HistoryFilter) ([]ScanReading, error)
}

// checkUpsertInput applies the rejection rules that need no round trip.
func checkUpsertInput(internalCode, ean string) (UpsertResult, bool) {
	if strings.TrimSpace(ean) == "" {
		return UpsertResult{Status: UpsertRejected, Reason: ReasonEmptyEAN}, false
	}
	if strings.TrimSpace(internalCode) == "" {
		return UpsertResult{Status: UpsertRejected, Reason: ReasonEmptyInternalCode}, false
	}
	return UpsertResult{}, true
}

// rejectionReason classifies a statement error the catalog treats as a
// rejected row rather than a failure.
func rejectionReason(err error) (string, bool) {
	code := database.SQLState(err)
	switch {
	case code == database.CodeUniqueViolation:
		return ReasonDuplicateEAN, true
	case strings.HasPrefix(code, database.ClassIntegrity):
		return ReasonConstraintViolation, true
	case strings.HasPrefix(code, database.ClassDataException):
		return ReasonInvalidValue, true
	}
	return "", false
}

// PostgresCatalog implements CatalogStore on the articulos table.
type PostgresCatalog struct {
	pool *database.Pool
}

func NewPostgresCatalog(pool *database.Pool) *PostgresCatalog {
	return &PostgresCatalog{pool: pool}
}

func (c *PostgresCatalog) LookupByEAN(ctx context.Context, ean string) (Article, error) {
	var row database.Articulo
	err := c.pool.WithConn(ctx, func(ctx context.Context, db database.DBTX) error {
		var err error
		row, err = database.New(db).GetArticuloByEan(ctx, ean)
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return Article{}, ErrNotFound
	}
	if err != nil {
		return Article{}, fmt.Errorf("lookup article %q: %w", ean, err)
	}
	return articleFromRow(row), nil
}

func (c *PostgresCatalog) Upsert(ctx context.Context, internalCode, description, ean string) (UpsertResult, error) {
	if res, ok := checkUpsertInput(internalCode, ean); !ok {
		return res, nil
	}

	var row database.UpsertArticuloRow
	err := c.pool.WithConn(ctx, func(ctx context.Context, db database.DBTX) error {
		var err error
		row, err = database.New(db).UpsertArticulo(ctx, database.UpsertArticuloParams{
			CodigoArticulo: internalCode,
			Descripcion:    description,
			Ean:            ean,
		})
		return err
	})
	if err != nil {
		if reason, ok := rejectionReason(err); ok {
			return UpsertResult{Status: UpsertRejected, Reason: reason}, nil
		}
		return UpsertResult{}, fmt.Errorf("upsert article %q: %w", ean, err)
	}

	if row.Inserted {
		return UpsertResult{Status: UpsertInserted}, nil
	}
	res := UpsertResult{Status: UpsertUpdated}
	if row.PreviousCode != "" && row.PreviousCode != internalCode {
		res.PreviousCode = row.PreviousCode
	}
	return res, nil
}

func (c *PostgresCatalog) Count(ctx context.Context) (int64, error) {
	var n int64
	err := c.pool.WithConn(ctx, func(ctx context.Context, db database.DBTX) error {
		var err error
		n, err = database.New(db).CountArticulos(ctx)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return n, nil
}

// PostgresScanLog implements ScanLogStore on the lecturas table.
type PostgresScanLog struct {
	pool *database.Pool
}

func NewPostgresScanLog(pool *database.Pool) *PostgresScanLog {
	return &PostgresScanLog{pool: pool}
}

func (l *PostgresScanLog) Append(ctx context.Context, r NewReading) (ScanReading, bool, error) {
	params := database.InsertLecturaParams{
		Usuario:        r.Actor,
		Ean:            r.EAN,
		CodigoArticulo: r.InternalCode,
		Descripcion:    r.Description,
		SubmissionID:   pgtype.UUID{Bytes: [16]byte(r.SubmissionID), Valid: r.SubmissionID != uuid.Nil},
	}
	if params.Usuario == "" {
		params.Usuario = DefaultActor
	}

	var row database.Lectura
	replayed := false
	err := l.pool.WithConn(ctx, func(ctx context.Context, db database.DBTX) error {
		q := database.New(db)
		var err error
		row, err = q.InsertLectura(ctx, params)
		if errors.Is(err, pgx.ErrNoRows) && params.SubmissionID.Valid {
			replayed = true
			row, err = q.GetLecturaBySubmission(ctx, params.SubmissionID)
		}
		return err
	})
	if err != nil {
		return ScanReading{}, false, fmt.Errorf("append reading for %q: %w", r.EAN, err)
	}
	return readingFromRow(row), replayed, nil
}

// errSinkStopped stands in for a callback error while the connection is
// held, so a failing writer is never mistaken for a database fault.
var errSinkStopped = errors.New("stream consumer stopped")

func (l *PostgresScanLog) Stream(ctx context.Context, f HistoryFilter, fn func(ScanReading) error) error {
	var sinkErr error
	err := l.pool.WithConn(ctx, func(ctx context.Context, db database.DBTX) error {
		return database.New(db).StreamLecturas(ctx, listParams(f), func(row database.Lectura) error {
			if err := fn(readingFromRow(row)); err != nil {
				sinkErr = err
				return errSinkStopped
			}
			return nil
		})
	})
	if sinkErr != nil {
		return sinkErr
	}
	if err != nil {
		return fmt.Errorf("stream readings: %w", err)
	}
	return nil
}

func (l *PostgresScanLog) List(ctx context.Context, f HistoryFilter) ([]ScanReading, error) {
	var out []ScanReading
	err := l.Stream(ctx, f, func(r ScanReading) error {
		out = append(out, r)
		return nil
	})
	return out, err
}

func listParams(f HistoryFilter) database.ListLecturasParams {
	p := database.ListLecturasParams{
		Ean:        f.EAN,
		Descending: f.Order != OrderAsc,
	}
	if f.From != nil {
		p.From = pgtype.Timestamptz{Time: *f.From, Valid: true}
	}
	if f.To != nil {
		p.To = pgtype.Timestamptz{Time: *f.To, Valid: true}
	}
	if f.Limit > 0 {
		p.Limit = pgtype.Int4{Int32: int32(f.Limit), Valid: true}
	}
	return p
}

func articleFromRow(row database.Articulo) Article {
	return Article{
		InternalCode: row.CodigoArticulo,
		Description:  row.Descripcion,
		EAN:          row.Ean,
		CreatedAt:    row.FechaCreacion.Time,
		UpdatedAt:    row.FechaActualizacion.Time,
	}
}

func readingFromRow(row database.Lectura) ScanReading {
	r := ScanReading{
		ID:           row.ID,
		EAN:          row.Ean,
		InternalCode: row.CodigoArticulo,
		Description:  row.Descripcion,
		ReadAt:       row.FechaLectura.Time,
		Actor:        row.Usuario,
	}
	if row.SubmissionID.Valid {
		id := uuid.UUID(row.SubmissionID.Bytes)
		r.SubmissionID = &id
	}
	return r
}

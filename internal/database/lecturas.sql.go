package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
)

const insertLectura = `-- name: InsertLectura :one
INSERT INTO lecturas (usuario, ean, codigo_articulo, descripcion, submission_id)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (submission_id) DO NOTHING
RETURNING id, usuario, ean, codigo_articulo, descripcion, fecha_lectura, submission_id
`

type InsertLecturaParams struct {
	Usuario        string
	Ean            string
	CodigoArticulo string
	Descripcion    string
	SubmissionID   pgtype.UUID
}

// InsertLectura returns pgx.ErrNoRows when SubmissionID was already recorded.
func (q *Queries) InsertLectura(ctx context.Context, arg InsertLecturaParams) (Lectura, error) {
	row := q.db.QueryRow(ctx, insertLectura,
		arg.Usuario,
		arg.Ean,
		arg.CodigoArticulo,
		arg.Descripcion,
		arg.SubmissionID,
	)
	var i Lectura
	err := row.Scan(
		&i.ID,
		&i.Usuario,
		&i.Ean,
		&i.CodigoArticulo,
		&i.Descripcion,
		&i.FechaLectura,
		&i.SubmissionID,
	)
	return i, err
}

const getLecturaBySubmission = `-- name: GetLecturaBySubmission :one
SELECT id, usuario, ean, codigo_articulo, descripcion, fecha_lectura, submission_id
FROM lecturas
WHERE submission_id = $1
`

func (q *Queries) GetLecturaBySubmission(ctx context.Context, submissionID pgtype.UUID) (Lectura, error) {
	row := q.db.QueryRow(ctx, getLecturaBySubmission, submissionID)
	var i Lectura
	err := row.Scan(
		&i.ID,
		&i.Usuario,
		&i.Ean,
		&i.CodigoArticulo,
		&i.Descripcion,
		&i.FechaLectura,
		&i.SubmissionID,
	)
	return i, err
}

const countLecturas = `-- name: CountLecturas :one
SELECT count(*) FROM lecturas
`

func (q *Queries) CountLecturas(ctx context.Context) (int64, error) {
	row := q.db.QueryRow(ctx, countLecturas)
	var count int64
	err := row.Scan(&count)
	return count, err
}

// The two listing queries differ only in sort direction.
const listLecturasBase = `
SELECT id, usuario, ean, codigo_articulo, descripcion, fecha_lectura, submission_id
FROM lecturas
WHERE ($1::timestamptz IS NULL OR fecha_lectura >= $1)
  AND ($2::timestamptz IS NULL OR fecha_lectura < $2)
  AND ($3::text = '' OR ean = $3)
`

const listLecturasAsc = `-- name: ListLecturasAsc :many` + listLecturasBase + `ORDER BY fecha_lectura ASC, id ASC
LIMIT $4
`

const listLecturasDesc = `-- name: ListLecturasDesc :many` + listLecturasBase + `ORDER BY fecha_lectura DESC, id DESC
LIMIT $4
`

// ListLecturasParams filters the scan history. From is inclusive, To is
// exclusive. An invalid Limit means no limit.
type ListLecturasParams struct {
	From       pgtype.Timestamptz
	To         pgtype.Timestamptz
	Ean        string
	Descending bool
	Limit      pgtype.Int4
}

// StreamLecturas runs the history query and hands each row to fn as it is
// read off the wire. Iteration stops at the first error from fn.
func (q *Queries) StreamLecturas(ctx context.Context, arg ListLecturasParams, fn func(Lectura) error) error {
	query := listLecturasAsc
	if arg.Descending {
		query = listLecturasDesc
	}

	rows, err := q.db.Query(ctx, query, arg.From, arg.To, arg.Ean, arg.Limit)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var i Lectura
		if err := rows.Scan(
			&i.ID,
			&i.Usuario,
			&i.Ean,
			&i.CodigoArticulo,
			&i.Descripcion,
			&i.FechaLectura,
			&i.SubmissionID,
		); err != nil {
			return fmt.Errorf("scan lectura: %w", err)
		}
		if err := fn(i); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (q *Queries) ListLecturas(ctx context.Context, arg ListLecturasParams) ([]Lectura, error) {
	var items []Lectura
	err := q.StreamLecturas(ctx, arg, func(l Lectura) error {
		items = append(items, l)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

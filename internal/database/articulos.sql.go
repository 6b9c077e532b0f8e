package database

import (
	"context"
)

const countArticulos = `-- name: CountArticulos :one
SELECT count(*) FROM articulos
`

func (q *Queries) CountArticulos(ctx context.Context) (int64, error) {
	row := q.db.QueryRow(ctx, countArticulos)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const getArticuloByEan = `-- name: GetArticuloByEan :one
SELECT id, codigo_articulo, descripcion, ean, fecha_creacion, fecha_actualizacion
FROM articulos
WHERE ean = $1
`

func (q *Queries) GetArticuloByEan(ctx context.Context, ean string) (Articulo, error) {
	row := q.db.QueryRow(ctx, getArticuloByEan, ean)
	var i Articulo
	err := row.Scan(
		&i.ID,
		&i.CodigoArticulo,
		&i.Descripcion,
		&i.Ean,
		&i.FechaCreacion,
		&i.FechaActualizacion,
	)
	return i, err
}

const upsertArticulo = `-- name: UpsertArticulo :one
WITH prev AS (
    SELECT codigo_articulo FROM articulos WHERE ean = $3
)
INSERT INTO articulos (codigo_articulo, descripcion, ean)
VALUES ($1, $2, $3)
ON CONFLICT (ean) DO UPDATE
SET codigo_articulo     = EXCLUDED.codigo_articulo,
    descripcion         = EXCLUDED.descripcion,
    fecha_actualizacion = now()
RETURNING id, (xmax = 0) AS inserted, COALESCE((SELECT codigo_articulo FROM prev), '') AS previous_code
`

type UpsertArticuloParams struct {
	CodigoArticulo string
	Descripcion    string
	Ean            string
}

type UpsertArticuloRow struct {
	ID           int32
	Inserted     bool
	PreviousCode string
}

// UpsertArticulo inserts the article or overwrites the one holding the same
// EAN. Inserted is false when an existing row was updated.
func (q *Queries) UpsertArticulo(ctx context.Context, arg UpsertArticuloParams) (UpsertArticuloRow, error) {
	row := q.db.QueryRow(ctx, upsertArticulo, arg.CodigoArticulo, arg.Descripcion, arg.Ean)
	var i UpsertArticuloRow
	err := row.Scan(&i.ID, &i.Inserted, &i.PreviousCode)
	return i, err
}

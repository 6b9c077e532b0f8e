package database

import (
	"context"
)

const ensureUsuario = `-- name: EnsureUsuario :execrows
INSERT INTO usuarios (nombre_usuario, es_admin)
VALUES ($1, $2)
ON CONFLICT (nombre_usuario) DO NOTHING
`

type EnsureUsuarioParams struct {
	NombreUsuario string
	EsAdmin       bool
}

// EnsureUsuario returns 1 when the user was created and 0 when it existed.
func (q *Queries) EnsureUsuario(ctx context.Context, arg EnsureUsuarioParams) (int64, error) {
	result, err := q.db.Exec(ctx, ensureUsuario, arg.NombreUsuario, arg.EsAdmin)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const listUsuarios = `-- name: ListUsuarios :many
SELECT id, nombre_usuario, es_admin, fecha_creacion
FROM usuarios
ORDER BY nombre_usuario
`

func (q *Queries) ListUsuarios(ctx context.Context) ([]Usuario, error) {
	rows, err := q.db.Query(ctx, listUsuarios)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Usuario
	for rows.Next() {
		var i Usuario
		if err := rows.Scan(
			&i.ID,
			&i.NombreUsuario,
			&i.EsAdmin,
			&i.FechaCreacion,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

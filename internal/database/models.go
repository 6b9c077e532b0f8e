package database

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type Articulo struct {
	ID                 int32
	CodigoArticulo     string
	Descripcion        string
	Ean                string
	FechaCreacion      pgtype.Timestamptz
	FechaActualizacion pgtype.Timestamptz
}

type Lectura struct {
	ID             int64
	Usuario        string
	Ean            string
	CodigoArticulo string
	Descripcion    string
	FechaLectura   pgtype.Timestamptz
	SubmissionID   pgtype.UUID
}

type Usuario struct {
	ID            int32
	NombreUsuario string
	EsAdmin       bool
	FechaCreacion pgtype.Timestamptz
}

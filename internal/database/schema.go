package database

import (
	"context"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// EnsureSchema creates the tables and indexes when they do not exist yet.
// Safe to run on every start.
func EnsureSchema(ctx context.Context, db DBTX) error {
	if _, err := db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// EnsureAdmins registers each name as an administrator, leaving existing
// users untouched. Returns how many were newly created.
func EnsureAdmins(ctx context.Context, db DBTX, names []string) (int, error) {
	q := New(db)
	created := 0
	for _, name := range names {
		if name == "" {
			continue
		}
		n, err := q.EnsureUsuario(ctx, EnsureUsuarioParams{NombreUsuario: name, EsAdmin: true})
		if err != nil {
			return created, fmt.Errorf("ensure admin %q: %w", name, err)
		}
		created += int(n)
	}
	return created, nil
}

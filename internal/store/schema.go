package store

import (
	"context"
	_ "embed"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agersant/polaris/internal/apperr"
)

//go:embed schema.sql
var schemaSQL string

// applySchema runs the embedded schema against pool. It is idempotent
// (every statement is CREATE TABLE IF NOT EXISTS) so it is safe to call on
// every process start rather than tracking applied migrations, which is
// all a single-schema store like this one needs.
func applySchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return apperr.Wrap(apperr.IO, "apply database schema", err)
	}
	return nil
}

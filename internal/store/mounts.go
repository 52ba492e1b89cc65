package store

import (
	"context"

	"github.com/agersant/polaris/internal/apperr"
	"github.com/agersant/polaris/internal/vpath"
)

// ListMounts returns every persisted mount point, for building the
// vpath.Table at startup.
func (db *DB) ListMounts(ctx context.Context) ([]vpath.Mount, error) {
	rows, err := db.Pool.Query(ctx, `SELECT name, source FROM mount_dirs ORDER BY name`)
	if err != nil {
		return nil, apperr.Wrap(apperr.IO, "list mount dirs", err)
	}
	defer rows.Close()

	var mounts []vpath.Mount
	for rows.Next() {
		var m vpath.Mount
		if err := rows.Scan(&m.Name, &m.Source); err != nil {
			return nil, apperr.Wrap(apperr.IO, "scan mount dir row", err)
		}
		mounts = append(mounts, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.IO, "list mount dirs", err)
	}
	return mounts, nil
}

// ReplaceMounts atomically replaces the persisted mount table: the admin
// /mount_dirs CRUD surface always submits the full desired set, not
// incremental add/remove ops, so a delete-then-insert inside one
// transaction is both simpler and avoids a window where the table is
// inconsistent with the submitted set.
func (db *DB) ReplaceMounts(ctx context.Context, mounts []vpath.Mount) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return apperr.Wrap(apperr.IO, "begin mount dirs transaction", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM mount_dirs`); err != nil {
		return apperr.Wrap(apperr.IO, "clear mount dirs", err)
	}
	for _, m := range mounts {
		if _, err := tx.Exec(ctx,
			`INSERT INTO mount_dirs (name, source) VALUES ($1, $2)`, m.Name, m.Source); err != nil {
			if isUniqueViolation(err) {
				return apperr.New(apperr.Conflict, "duplicate mount name: "+m.Name)
			}
			return apperr.Wrap(apperr.IO, "insert mount dir", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return apperr.Wrap(apperr.IO, "commit mount dirs transaction", err)
	}
	return nil
}

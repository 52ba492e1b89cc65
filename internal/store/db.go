// Package store implements the relational persistence layer: users, the
// mount-point/settings mirror, and playlists. A thin pgx pool wrapper
// that applies an embedded schema on open.
package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agersant/polaris/internal/apperr"
)

// DB wraps a connection pool and applies the embedded schema on Open.
type DB struct {
	*pgxpool.Pool
}

// Open parses url, builds a pool with bounded connection lifetimes, a
// named application_name, and a connect timeout, pings it once, and
// applies the embedded schema before returning.
func Open(ctx context.Context, url string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, apperr.Wrap(apperr.BadRequest, "parse database url", err)
	}
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute
	cfg.ConnConfig.ConnectTimeout = 10 * time.Second
	cfg.ConnConfig.RuntimeParams["application_name"] = "polaris"

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, apperr.Wrap(apperr.IO, "create database pool", err)
	}

	db := &DB{Pool: pool}
	if err := db.Pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, apperr.Wrap(apperr.IO, "connect to database", err)
	}
	if err := applySchema(ctx, db.Pool); err != nil {
		pool.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) Close() {
	db.Pool.Close()
}

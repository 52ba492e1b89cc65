package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/agersant/polaris/internal/apperr"
)

// Setting keys mirrored from the TOML config file so the admin /settings
// endpoint can read and update them without a process restart.
const (
	SettingAlbumArtPattern = "album_art_pattern"
	SettingDDNSURL         = "ddns_url"
)

// GetSetting returns a mirrored setting's value, or ("", false) if unset.
func (db *DB) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := db.Pool.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, apperr.Wrap(apperr.IO, "query setting "+key, err)
	}
	return value, true, nil
}

// SetSetting upserts a mirrored setting.
func (db *DB) SetSetting(ctx context.Context, key, value string) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO settings (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`, key, value)
	if err != nil {
		return apperr.Wrap(apperr.IO, "set setting "+key, err)
	}
	return nil
}

// AllSettings returns every mirrored setting as a map.
func (db *DB) AllSettings(ctx context.Context) (map[string]string, error) {
	rows, err := db.Pool.Query(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, apperr.Wrap(apperr.IO, "list settings", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, apperr.Wrap(apperr.IO, "scan setting row", err)
		}
		out[k] = v
	}
	return out, rows.Err()
}

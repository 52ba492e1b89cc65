package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/agersant/polaris/internal/apperr"
	"github.com/agersant/polaris/internal/auth"
)

// User is the full persisted user record, a superset of auth.User with
// the fields only the admin/settings surface needs.
type User struct {
	Name          string
	PasswordHash  string
	Admin         bool
	LastFMSession string
	Theme         string
}

// GetUser satisfies auth.UserStore: the subset of a user record the auth
// core needs to verify a password or authorize a token subject.
func (db *DB) GetUser(name string) (auth.User, bool, error) {
	var u auth.User
	err := db.Pool.QueryRow(context.Background(),
		`SELECT name, password_hash, admin FROM users WHERE name = $1`, name,
	).Scan(&u.Name, &u.PasswordHash, &u.Admin)
	if errors.Is(err, pgx.ErrNoRows) {
		return auth.User{}, false, nil
	}
	if err != nil {
		return auth.User{}, false, apperr.Wrap(apperr.IO, "query user", err)
	}
	return u, true, nil
}

// ListUsers returns every user, for the admin /users listing endpoint.
func (db *DB) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT name, password_hash, admin, lastfm_session, theme FROM users ORDER BY name`)
	if err != nil {
		return nil, apperr.Wrap(apperr.IO, "list users", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.Name, &u.PasswordHash, &u.Admin, &u.LastFMSession, &u.Theme); err != nil {
			return nil, apperr.Wrap(apperr.IO, "scan user row", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.IO, "list users", err)
	}
	return users, nil
}

// CreateUser inserts a new user with an already-hashed password. Conflict
// is returned when the name is already taken.
func (db *DB) CreateUser(ctx context.Context, name, passwordHash string, admin bool) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO users (name, password_hash, admin) VALUES ($1, $2, $3)`,
		name, passwordHash, admin)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.New(apperr.Conflict, "user already exists: "+name)
		}
		return apperr.Wrap(apperr.IO, "create user", err)
	}
	return nil
}

// DeleteUser removes a user by name. Deleting an unknown user is a no-op,
// matching the admin surface's idempotent DELETE semantics.
func (db *DB) DeleteUser(ctx context.Context, name string) error {
	_, err := db.Pool.Exec(ctx, `DELETE FROM users WHERE name = $1`, name)
	if err != nil {
		return apperr.Wrap(apperr.IO, "delete user", err)
	}
	return nil
}

// SetPassword overwrites a user's stored password hash.
func (db *DB) SetPassword(ctx context.Context, name, passwordHash string) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE users SET password_hash = $2 WHERE name = $1`, name, passwordHash)
	if err != nil {
		return apperr.Wrap(apperr.IO, "update password", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.New(apperr.NotFound, "no such user: "+name)
	}
	return nil
}

// SetLastFMSession stores the session key obtained from a completed
// last.fm link handshake.
func (db *DB) SetLastFMSession(ctx context.Context, name, session string) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE users SET lastfm_session = $2 WHERE name = $1`, name, session)
	if err != nil {
		return apperr.Wrap(apperr.IO, "update lastfm session", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.New(apperr.NotFound, "no such user: "+name)
	}
	return nil
}

// SetTheme stores a user's preferred web UI theme.
func (db *DB) SetTheme(ctx context.Context, name, theme string) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE users SET theme = $2 WHERE name = $1`, name, theme)
	if err != nil {
		return apperr.Wrap(apperr.IO, "update theme", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.New(apperr.NotFound, "no such user: "+name)
	}
	return nil
}

// HasUsers reports whether at least one user exists, used at startup to
// decide whether the config file's [[users]] entries need applying.
func (db *DB) HasUsers(ctx context.Context) (bool, error) {
	var exists bool
	err := db.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users)`).Scan(&exists)
	if err != nil {
		return false, apperr.Wrap(apperr.IO, "check for existing users", err)
	}
	return exists, nil
}

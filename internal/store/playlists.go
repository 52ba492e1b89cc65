package store

import (
	"context"

	"github.com/agersant/polaris/internal/apperr"
)

// Playlist is a persisted, per-user ordered list of song virtual paths.
// Reordering and sharing between users aren't modeled here; this is just
// enough storage to back the CRUD endpoints.
type Playlist struct {
	ID        int64    `json:"id"`
	OwnerName string   `json:"owner_name"`
	Title     string   `json:"title"`
	SongPaths []string `json:"song_paths"`
}

// ListPlaylists returns every playlist owned by name.
func (db *DB) ListPlaylists(ctx context.Context, owner string) ([]Playlist, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, owner_name, title, song_paths FROM playlists WHERE owner_name = $1 ORDER BY title`, owner)
	if err != nil {
		return nil, apperr.Wrap(apperr.IO, "list playlists", err)
	}
	defer rows.Close()

	var playlists []Playlist
	for rows.Next() {
		var p Playlist
		if err := rows.Scan(&p.ID, &p.OwnerName, &p.Title, &p.SongPaths); err != nil {
			return nil, apperr.Wrap(apperr.IO, "scan playlist row", err)
		}
		playlists = append(playlists, p)
	}
	return playlists, rows.Err()
}

// GetPlaylist fetches one playlist by id, scoped to owner so a user can
// never read another user's playlist by guessing an id.
func (db *DB) GetPlaylist(ctx context.Context, owner string, id int64) (Playlist, error) {
	var p Playlist
	err := db.Pool.QueryRow(ctx,
		`SELECT id, owner_name, title, song_paths FROM playlists WHERE id = $1 AND owner_name = $2`,
		id, owner,
	).Scan(&p.ID, &p.OwnerName, &p.Title, &p.SongPaths)
	if err != nil {
		return Playlist{}, apperr.New(apperr.NotFound, "no such playlist")
	}
	return p, nil
}

// CreatePlaylist inserts a new playlist for owner.
func (db *DB) CreatePlaylist(ctx context.Context, owner, title string, songPaths []string) (Playlist, error) {
	var id int64
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO playlists (owner_name, title, song_paths) VALUES ($1, $2, $3) RETURNING id`,
		owner, title, songPaths,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return Playlist{}, apperr.New(apperr.Conflict, "playlist already exists: "+title)
		}
		return Playlist{}, apperr.Wrap(apperr.IO, "create playlist", err)
	}
	return Playlist{ID: id, OwnerName: owner, Title: title, SongPaths: songPaths}, nil
}

// UpdatePlaylist overwrites title and song paths of a playlist owned by
// owner.
func (db *DB) UpdatePlaylist(ctx context.Context, owner string, id int64, title string, songPaths []string) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE playlists SET title = $3, song_paths = $4 WHERE id = $1 AND owner_name = $2`,
		id, owner, title, songPaths)
	if err != nil {
		return apperr.Wrap(apperr.IO, "update playlist", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.New(apperr.NotFound, "no such playlist")
	}
	return nil
}

// DeletePlaylist removes a playlist owned by owner.
func (db *DB) DeletePlaylist(ctx context.Context, owner string, id int64) error {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM playlists WHERE id = $1 AND owner_name = $2`, id, owner)
	if err != nil {
		return apperr.Wrap(apperr.IO, "delete playlist", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.New(apperr.NotFound, "no such playlist")
	}
	return nil
}

package store

import (
	"context"
	"os"
	"testing"

	"github.com/agersant/polaris/internal/vpath"
)

// openTestDB connects to a scratch Postgres database for integration
// tests. Tests in this package need a real server (pgx has no in-memory
// driver), so they skip rather than fail when POLARIS_TEST_DATABASE_URL
// isn't set.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	url := os.Getenv("POLARIS_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("POLARIS_TEST_DATABASE_URL not set, skipping store integration test")
	}
	db, err := Open(context.Background(), url)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		db.Pool.Exec(context.Background(), `TRUNCATE users, mount_dirs, playlists, settings`)
		db.Close()
	})
	return db
}

func TestCreateAndGetUser(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.CreateUser(ctx, "alice", "hash123", true); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	u, ok, err := db.GetUser("alice")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if !ok {
		t.Fatalf("expected alice to exist")
	}
	if u.PasswordHash != "hash123" || !u.Admin {
		t.Fatalf("unexpected user record: %+v", u)
	}

	if err := db.CreateUser(ctx, "alice", "other", false); err == nil {
		t.Fatalf("expected a conflict creating a duplicate user")
	}
}

func TestGetUser_Unknown(t *testing.T) {
	db := openTestDB(t)
	_, ok, err := db.GetUser("nobody")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if ok {
		t.Fatalf("expected no user named nobody")
	}
}

func TestHasUsers(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	has, err := db.HasUsers(ctx)
	if err != nil {
		t.Fatalf("HasUsers: %v", err)
	}
	if has {
		t.Fatalf("expected no users in a freshly truncated table")
	}

	if err := db.CreateUser(ctx, "bob", "hash", false); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	has, err = db.HasUsers(ctx)
	if err != nil {
		t.Fatalf("HasUsers: %v", err)
	}
	if !has {
		t.Fatalf("expected HasUsers to report true after creating a user")
	}
}

func TestSetPassword_UnknownUser(t *testing.T) {
	db := openTestDB(t)
	if err := db.SetPassword(context.Background(), "ghost", "hash"); err == nil {
		t.Fatalf("expected an error updating a password for an unknown user")
	}
}

func TestReplaceMounts(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	var mounts []vpath.Mount
	got, err := db.ListMounts(ctx)
	if err != nil {
		t.Fatalf("ListMounts: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no mounts initially, got %v", got)
	}

	mounts = append(mounts, vpath.Mount{Name: "music", Source: "/music"})
	if err := db.ReplaceMounts(ctx, mounts); err != nil {
		t.Fatalf("ReplaceMounts: %v", err)
	}
	got, err = db.ListMounts(ctx)
	if err != nil {
		t.Fatalf("ListMounts: %v", err)
	}
	if len(got) != 1 || got[0].Name != "music" {
		t.Fatalf("unexpected mounts after replace: %v", got)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if _, ok, err := db.GetSetting(ctx, SettingAlbumArtPattern); err != nil {
		t.Fatalf("GetSetting: %v", err)
	} else if ok {
		t.Fatalf("expected no setting before it's written")
	}

	if err := db.SetSetting(ctx, SettingAlbumArtPattern, `Folder\.jpg`); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	value, ok, err := db.GetSetting(ctx, SettingAlbumArtPattern)
	if err != nil {
		t.Fatalf("GetSetting: %v", err)
	}
	if !ok || value != `Folder\.jpg` {
		t.Fatalf("GetSetting = (%q, %v), want (Folder\\.jpg, true)", value, ok)
	}

	if err := db.SetSetting(ctx, SettingAlbumArtPattern, `Cover\.png`); err != nil {
		t.Fatalf("SetSetting overwrite: %v", err)
	}
	value, _, err = db.GetSetting(ctx, SettingAlbumArtPattern)
	if err != nil {
		t.Fatalf("GetSetting: %v", err)
	}
	if value != `Cover\.png` {
		t.Fatalf("GetSetting after overwrite = %q, want Cover\\.png", value)
	}
}

func TestPlaylistCRUD(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.CreateUser(ctx, "alice", "hash", false); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	p, err := db.CreatePlaylist(ctx, "alice", "Favorites", []string{"music/a.flac", "music/b.flac"})
	if err != nil {
		t.Fatalf("CreatePlaylist: %v", err)
	}

	got, err := db.GetPlaylist(ctx, "alice", p.ID)
	if err != nil {
		t.Fatalf("GetPlaylist: %v", err)
	}
	if got.Title != "Favorites" || len(got.SongPaths) != 2 {
		t.Fatalf("unexpected playlist: %+v", got)
	}

	if _, err := db.GetPlaylist(ctx, "bob", p.ID); err == nil {
		t.Fatalf("expected an error fetching another user's playlist")
	}

	if err := db.UpdatePlaylist(ctx, "alice", p.ID, "Renamed", []string{"music/c.flac"}); err != nil {
		t.Fatalf("UpdatePlaylist: %v", err)
	}
	got, err = db.GetPlaylist(ctx, "alice", p.ID)
	if err != nil {
		t.Fatalf("GetPlaylist after update: %v", err)
	}
	if got.Title != "Renamed" || len(got.SongPaths) != 1 {
		t.Fatalf("unexpected playlist after update: %+v", got)
	}

	if err := db.DeletePlaylist(ctx, "alice", p.ID); err != nil {
		t.Fatalf("DeletePlaylist: %v", err)
	}
	if _, err := db.GetPlaylist(ctx, "alice", p.ID); err == nil {
		t.Fatalf("expected the playlist to be gone after delete")
	}
}

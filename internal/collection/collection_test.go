package collection

import (
	"testing"

	"github.com/agersant/polaris/internal/apperr"
	"github.com/agersant/polaris/internal/vpath"
)

func intPtr(i int) *int { return &i }

func mustTable(t *testing.T, mounts ...vpath.Mount) *vpath.Table {
	t.Helper()
	table, err := vpath.NewTable(mounts)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return table
}

// TestEmptyMount covers scenario S1: an empty mount scans to an empty tree.
func TestEmptyMount(t *testing.T) {
	table := mustTable(t, vpath.Mount{Name: "A", Source: "/m/a"})
	b := NewBuilder(table, nil)
	b.AddDirectory(DirectoryRecord{RealPath: "/m/a"})

	snap, err := b.Finish(1)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}

	entries, err := snap.Browse("A")
	if err != nil {
		t.Fatalf("Browse: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %v", entries)
	}
	if albums := snap.Albums(0, 0); len(albums) != 0 {
		t.Fatalf("expected no albums, got %v", albums)
	}
}

// TestSingleSong covers scenario S2.
func TestSingleSong(t *testing.T) {
	table := mustTable(t, vpath.Mount{Name: "A", Source: "/m/a"})
	b := NewBuilder(table, nil)
	b.AddDirectory(DirectoryRecord{RealPath: "/m/a"})
	b.AddSong(SongRecord{
		RealPath:       "/m/a/x.mp3",
		ParentRealPath: "/m/a",
		Title:          "Hi",
		Album:          "Al",
		Artists:        []string{"Bob"},
		AlbumArtists:   []string{"Bob"},
		TrackNumber:    intPtr(3),
		Year:           intPtr(2001),
	})

	snap, err := b.Finish(1)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}

	entries, err := snap.Browse("A")
	if err != nil {
		t.Fatalf("Browse: %v", err)
	}
	if len(entries) != 1 || entries[0].VirtualPath != "A/x.mp3" {
		t.Fatalf("got %v", entries)
	}

	albums := snap.Albums(0, 0)
	if len(albums) != 1 {
		t.Fatalf("expected one album, got %v", albums)
	}
	if albums[0].Key.NormalizedTitle != "al" || albums[0].Key.NormalizedAlbumArtists != "bob" {
		t.Fatalf("got key %+v", albums[0].Key)
	}

	results, err := snap.Search("artist:bob", 0, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected one result, got %v", results)
	}

	noResults, err := snap.Search("artist:bob AND year:2002", 0, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(noResults) != 0 {
		t.Fatalf("expected no results, got %v", noResults)
	}
}

// TestRemoval covers scenario S3: a file missing from a later scan is
// dropped, along with the album it formed.
func TestRemoval(t *testing.T) {
	table := mustTable(t, vpath.Mount{Name: "A", Source: "/m/a"})
	b1 := NewBuilder(table, nil)
	b1.AddDirectory(DirectoryRecord{RealPath: "/m/a"})
	b1.AddSong(SongRecord{RealPath: "/m/a/x.mp3", ParentRealPath: "/m/a", Title: "Hi"})
	snap1, err := b1.Finish(1)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}

	b2 := NewBuilder(table, snap1)
	b2.AddDirectory(DirectoryRecord{RealPath: "/m/a"})
	snap2, err := b2.Finish(2)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}

	entries, err := snap2.Browse("A")
	if err != nil {
		t.Fatalf("Browse: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries after removal, got %v", entries)
	}
	if albums := snap2.Albums(0, 0); len(albums) != 0 {
		t.Fatalf("expected no albums after removal, got %v", albums)
	}
}

// TestDateAddedCarriesForward covers invariant 1: re-scanning an unchanged
// tree preserves date_added.
func TestDateAddedCarriesForward(t *testing.T) {
	table := mustTable(t, vpath.Mount{Name: "A", Source: "/m/a"})
	b1 := NewBuilder(table, nil)
	b1.AddDirectory(DirectoryRecord{RealPath: "/m/a"})
	b1.AddSong(SongRecord{RealPath: "/m/a/x.mp3", ParentRealPath: "/m/a", Title: "Hi"})
	snap1, err := b1.Finish(1)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}

	b2 := NewBuilder(table, snap1)
	b2.AddDirectory(DirectoryRecord{RealPath: "/m/a"})
	b2.AddSong(SongRecord{RealPath: "/m/a/x.mp3", ParentRealPath: "/m/a", Title: "Hi"})
	snap2, err := b2.Finish(2)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}

	id1 := snap1.pathToSongID["A/x.mp3"]
	id2 := snap2.pathToSongID["A/x.mp3"]
	if snap1.Songs[id1].DateAdded != snap2.Songs[id2].DateAdded {
		t.Fatalf("date_added changed across rescan: %d vs %d", snap1.Songs[id1].DateAdded, snap2.Songs[id2].DateAdded)
	}
}

// TestAdjacentArt covers scenario S4's artwork resolution.
func TestAdjacentArt(t *testing.T) {
	table := mustTable(t, vpath.Mount{Name: "A", Source: "/m/a"})
	b := NewBuilder(table, nil)
	b.AddDirectory(DirectoryRecord{RealPath: "/m/a", AdjacentArtRealPath: "/m/a/Folder.jpg"})
	b.AddSong(SongRecord{RealPath: "/m/a/x.mp3", ParentRealPath: "/m/a", Title: "Hi"})

	snap, err := b.Finish(1)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	id := snap.pathToSongID["A/x.mp3"]
	if got := snap.Songs[id].Artwork; got != "A/Folder.jpg" {
		t.Fatalf("got artwork %q", got)
	}
}

// TestSearchBoolean covers scenario S6.
func TestSearchBoolean(t *testing.T) {
	table := mustTable(t, vpath.Mount{Name: "A", Source: "/m/a"})
	b := NewBuilder(table, nil)
	b.AddDirectory(DirectoryRecord{RealPath: "/m/a"})
	b.AddSong(SongRecord{RealPath: "/m/a/1.mp3", ParentRealPath: "/m/a", Title: "One", Genres: []string{"rock"}})
	b.AddSong(SongRecord{RealPath: "/m/a/2.mp3", ParentRealPath: "/m/a", Title: "Two", Genres: []string{"rock", "jazz"}})

	snap, err := b.Finish(1)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}

	results, err := snap.Search("genre:rock AND !genre:jazz", 0, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].VirtualPath != "A/1.mp3" {
		t.Fatalf("got %v", results)
	}
}

func TestBrowseUnknownPathIsNotFound(t *testing.T) {
	table := mustTable(t, vpath.Mount{Name: "A", Source: "/m/a"})
	b := NewBuilder(table, nil)
	b.AddDirectory(DirectoryRecord{RealPath: "/m/a"})
	snap, err := b.Finish(1)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}

	_, err = snap.Browse("A/missing")
	if !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestAlbumOrderingWithinAlbum(t *testing.T) {
	table := mustTable(t, vpath.Mount{Name: "A", Source: "/m/a"})
	b := NewBuilder(table, nil)
	b.AddDirectory(DirectoryRecord{RealPath: "/m/a"})
	b.AddSong(SongRecord{RealPath: "/m/a/b.mp3", ParentRealPath: "/m/a", Album: "Al", TrackNumber: intPtr(2)})
	b.AddSong(SongRecord{RealPath: "/m/a/a.mp3", ParentRealPath: "/m/a", Album: "Al", TrackNumber: intPtr(1)})
	b.AddSong(SongRecord{RealPath: "/m/a/c.mp3", ParentRealPath: "/m/a", Album: "Al"})

	snap, err := b.Finish(1)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	albums := snap.Albums(0, 0)
	if len(albums) != 1 {
		t.Fatalf("expected one album, got %v", albums)
	}
	order := albums[0].SongIDs
	want := []string{"A/a.mp3", "A/b.mp3", "A/c.mp3"}
	for i, id := range order {
		if snap.Songs[id].VirtualPath != want[i] {
			t.Fatalf("position %d: got %q want %q", i, snap.Songs[id].VirtualPath, want[i])
		}
	}
}

func TestAlbumsRandomDeterministic(t *testing.T) {
	table := mustTable(t, vpath.Mount{Name: "A", Source: "/m/a"})
	b := NewBuilder(table, nil)
	b.AddDirectory(DirectoryRecord{RealPath: "/m/a"})
	for _, name := range []string{"a", "b", "c", "d"} {
		b.AddSong(SongRecord{RealPath: "/m/a/" + name + ".mp3", ParentRealPath: "/m/a", Album: name})
	}
	snap, err := b.Finish(1)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}

	first := snap.AlbumsRandom(42, 0, 0)
	second := snap.AlbumsRandom(42, 0, 0)
	for i := range first {
		if first[i].Key != second[i].Key {
			t.Fatalf("same seed produced different order at %d", i)
		}
	}

	differentSeed := snap.AlbumsRandom(7, 0, 0)
	seenFirst := make(map[AlbumKey]bool)
	for _, a := range first {
		seenFirst[a.Key] = true
	}
	for _, a := range differentSeed {
		if !seenFirst[a.Key] {
			t.Fatalf("different seed produced a different set of albums")
		}
	}
}

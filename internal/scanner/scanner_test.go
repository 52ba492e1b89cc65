package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/agersant/polaris/internal/collection"
	"github.com/agersant/polaris/internal/vpath"
)

func TestScan_EmptyMount(t *testing.T) {
	dir := t.TempDir()
	table := mustTable(t, vpath.Mount{Name: "A", Source: dir})
	builder := collection.NewBuilder(table, nil)

	s := New(nil)
	stats, err := s.Scan(context.Background(), table.Mounts(), builder)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if stats.FilesSeen != 0 {
		t.Fatalf("expected no files seen, got %d", stats.FilesSeen)
	}

	snap, err := builder.Finish(1)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	entries, err := snap.Browse("A")
	if err != nil {
		t.Fatalf("Browse: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty root, got %v", entries)
	}
}

func TestScan_SkipsUnsupportedExtensions(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}
	table := mustTable(t, vpath.Mount{Name: "A", Source: dir})
	builder := collection.NewBuilder(table, nil)

	s := New(nil)
	stats, err := s.Scan(context.Background(), table.Mounts(), builder)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if stats.FilesSeen != 0 {
		t.Fatalf("expected .txt to be skipped, got %d files seen", stats.FilesSeen)
	}
}

func TestScan_CountsDecodeErrorsWithoutAborting(t *testing.T) {
	dir := t.TempDir()
	// Not a real MP3; the tag reader will classify this as unsupported or
	// corrupt, but the scan must still complete and count the error.
	if err := os.WriteFile(filepath.Join(dir, "broken.mp3"), []byte("not audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "also-broken.mp3"), []byte("not audio either"), 0o644); err != nil {
		t.Fatal(err)
	}
	table := mustTable(t, vpath.Mount{Name: "A", Source: dir})
	builder := collection.NewBuilder(table, nil)

	s := New(nil)
	stats, err := s.Scan(context.Background(), table.Mounts(), builder)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if stats.FilesSeen != 2 {
		t.Fatalf("expected 2 files seen, got %d", stats.FilesSeen)
	}
	if stats.Errors != 2 {
		t.Fatalf("expected 2 decode errors, got %d", stats.Errors)
	}
}

func TestScan_ResolvesAdjacentArtOncePerDirectory(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "album")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "Folder.jpg"), []byte("fake-jpeg"), 0o644); err != nil {
		t.Fatal(err)
	}
	table := mustTable(t, vpath.Mount{Name: "A", Source: dir})
	builder := collection.NewBuilder(table, nil)

	s := New(nil)
	if _, err := s.Scan(context.Background(), table.Mounts(), builder); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	snap, err := builder.Finish(1)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	entries, err := snap.Browse("A")
	if err != nil {
		t.Fatalf("Browse: %v", err)
	}
	if len(entries) != 1 || entries[0].Kind != collection.KindDirectory {
		t.Fatalf("expected one directory entry, got %v", entries)
	}
	if entries[0].Directory.Artwork != "A/album/Folder.jpg" {
		t.Fatalf("expected directory artwork to resolve to the adjacent file, got %q", entries[0].Directory.Artwork)
	}
}

func TestScan_CanceledContextReturnsNoError(t *testing.T) {
	dir := t.TempDir()
	table := mustTable(t, vpath.Mount{Name: "A", Source: dir})
	builder := collection.NewBuilder(table, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New(nil)
	if _, err := s.Scan(ctx, table.Mounts(), builder); err != nil {
		t.Fatalf("Scan with canceled context should not error, got %v", err)
	}
}

func mustTable(t *testing.T, mounts ...vpath.Mount) *vpath.Table {
	t.Helper()
	table, err := vpath.NewTable(mounts)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return table
}

package tagreader

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveAdjacentArt_PicksLexicographicallyFirstMatch(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"folder.png", "Folder.jpg", "cover.jpg"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	pattern, err := CompileArtPattern("")
	if err != nil {
		t.Fatalf("CompileArtPattern: %v", err)
	}
	got, err := ResolveAdjacentArt(dir, pattern)
	if err != nil {
		t.Fatalf("ResolveAdjacentArt: %v", err)
	}
	want := filepath.Join(dir, "Folder.jpg")
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestResolveAdjacentArt_NoMatch(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "cover.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	pattern, err := CompileArtPattern("")
	if err != nil {
		t.Fatalf("CompileArtPattern: %v", err)
	}
	got, err := ResolveAdjacentArt(dir, pattern)
	if err != nil {
		t.Fatalf("ResolveAdjacentArt: %v", err)
	}
	if got != "" {
		t.Fatalf("expected no match, got %q", got)
	}
}

func TestCompileArtPattern_IsCaseInsensitive(t *testing.T) {
	pattern, err := CompileArtPattern(`cover\.jpg`)
	if err != nil {
		t.Fatalf("CompileArtPattern: %v", err)
	}
	if !pattern.MatchString("COVER.JPG") {
		t.Fatalf("expected case-insensitive match")
	}
}

func TestCompileArtPattern_RejectsInvalidRegex(t *testing.T) {
	if _, err := CompileArtPattern("("); err == nil {
		t.Fatalf("expected an error for invalid regex")
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "polaris.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_DefaultsAlbumArtPattern(t *testing.T) {
	path := writeConfig(t, `
[[mount_dirs]]
name = "music"
source = "/music"

[[users]]
name = "alice"
admin = true
initial_password = "hunter2"
`)
	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if f.AlbumArtPattern != `Folder\.(jpeg|jpg|png)` {
		t.Fatalf("expected default album art pattern, got %q", f.AlbumArtPattern)
	}
	if len(f.MountDirs) != 1 || f.MountDirs[0].Name != "music" {
		t.Fatalf("expected one mount named music, got %v", f.MountDirs)
	}
}

func TestLoad_RejectsDuplicateMountNames(t *testing.T) {
	path := writeConfig(t, `
[[mount_dirs]]
name = "music"
source = "/a"

[[mount_dirs]]
name = "music"
source = "/b"
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected an error for duplicate mount names")
	}
}

func TestLoad_RejectsUserWithBothPasswordFields(t *testing.T) {
	path := writeConfig(t, `
[[users]]
name = "alice"
initial_password = "hunter2"
hashed_password = "$pbkdf2-sha256$i=1,l=1$YQ$YQ"
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected an error when both password fields are set")
	}
}

func TestLoad_RejectsUserWithNeitherPasswordField(t *testing.T) {
	path := writeConfig(t, `
[[users]]
name = "alice"
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected an error when neither password field is set")
	}
}

func TestDefaultDirs_HonorEnvOverride(t *testing.T) {
	t.Setenv("POLARIS_CONFIG_DIR", "/tmp/custom-config")
	t.Setenv("POLARIS_DATA_DIR", "/tmp/custom-data")
	if got := DefaultConfigDir(); got != "/tmp/custom-config" {
		t.Fatalf("expected env override, got %q", got)
	}
	if got := DefaultDataDir(); got != "/tmp/custom-data" {
		t.Fatalf("expected env override, got %q", got)
	}
}

// Package config implements the TOML configuration file and the
// versioned, read-through notification channel the rest of the system
// subscribes to for change detection. Loaded via koanf with its toml
// parser and file provider.
package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/agersant/polaris/internal/apperr"
)

const appName = "polaris"

// MountDir is one [[mount_dirs]] TOML entry.
type MountDir struct {
	Source string `koanf:"source"`
	Name   string `koanf:"name"`
}

// UserEntry is one [[users]] TOML entry. Exactly one of InitialPassword
// or HashedPassword must be set; File.Validate enforces this.
type UserEntry struct {
	Name            string `koanf:"name"`
	Admin           bool   `koanf:"admin"`
	InitialPassword string `koanf:"initial_password"`
	HashedPassword  string `koanf:"hashed_password"`
}

// File is the parsed contents of the TOML config file.
type File struct {
	AlbumArtPattern string     `koanf:"album_art_pattern"`
	DDNSURL         string     `koanf:"ddns_url"`
	MountDirs       []MountDir `koanf:"mount_dirs"`
	Users           []UserEntry `koanf:"users"`
}

// Validate checks the structural invariants the rest of the system relies
// on: unique mount names, exactly one password source per user.
func (f *File) Validate() error {
	seen := make(map[string]bool, len(f.MountDirs))
	for _, m := range f.MountDirs {
		if m.Name == "" {
			return apperr.New(apperr.BadRequest, "mount_dirs entry missing name")
		}
		if seen[m.Name] {
			return apperr.New(apperr.Conflict, "duplicate mount name: "+m.Name)
		}
		seen[m.Name] = true
	}
	userNames := make(map[string]bool, len(f.Users))
	for _, u := range f.Users {
		if u.Name == "" {
			return apperr.New(apperr.BadRequest, "users entry missing name")
		}
		if userNames[u.Name] {
			return apperr.New(apperr.Conflict, "duplicate user name: "+u.Name)
		}
		userNames[u.Name] = true
		if (u.InitialPassword == "") == (u.HashedPassword == "") {
			return apperr.New(apperr.BadRequest, "user "+u.Name+" needs exactly one of initial_password or hashed_password")
		}
	}
	return nil
}

// Load parses path as TOML into a File, applying the default album art
// pattern when unset.
func Load(path string) (*File, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		return nil, apperr.Wrap(apperr.BadRequest, "load config file "+path, err)
	}
	f := &File{AlbumArtPattern: `Folder\.(jpeg|jpg|png)`}
	if err := k.Unmarshal("", f); err != nil {
		return nil, apperr.Wrap(apperr.BadRequest, "parse config file "+path, err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// DefaultConfigDir resolves the config directory: POLARIS_CONFIG_DIR if
// set, else the XDG config home's polaris subdirectory.
func DefaultConfigDir() string {
	if v := os.Getenv("POLARIS_CONFIG_DIR"); v != "" {
		return v
	}
	return filepath.Join(xdg.ConfigHome, appName)
}

// DefaultDataDir resolves the data directory: POLARIS_DATA_DIR if set,
// else the XDG data home's polaris subdirectory.
func DefaultDataDir() string {
	if v := os.Getenv("POLARIS_DATA_DIR"); v != "" {
		return v
	}
	return filepath.Join(xdg.DataHome, appName)
}

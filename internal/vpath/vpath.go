// Package vpath implements the mount table that converts between real
// on-disk paths and the user-facing virtual paths the rest of the system
// treats as identity.
package vpath

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/agersant/polaris/internal/apperr"
)

// Mount binds a virtual top-level name to a real directory on disk.
type Mount struct {
	Name   string `json:"name"`
	Source string `json:"source"`
}

// Table is the (name -> source) binding used to convert paths in both
// directions. It is safe for concurrent reads; callers that rebuild it
// (on a config change) call Replace and swap in a fresh table.
type Table struct {
	mu     sync.RWMutex
	mounts []Mount
	byName map[string]string
}

func NewTable(mounts []Mount) (*Table, error) {
	byName := make(map[string]string, len(mounts))
	for _, m := range mounts {
		if m.Name == "" {
			return nil, apperr.New(apperr.BadRequest, "mount point name must not be empty")
		}
		if _, dup := byName[m.Name]; dup {
			return nil, apperr.New(apperr.Conflict, fmt.Sprintf("duplicate mount name %q", m.Name))
		}
		byName[m.Name] = filepath.Clean(m.Source)
	}
	return &Table{mounts: append([]Mount(nil), mounts...), byName: byName}, nil
}

// Replace atomically swaps the table's contents in place so existing
// holders of the *Table pointer observe the new bindings.
func (t *Table) Replace(mounts []Mount) error {
	fresh, err := NewTable(mounts)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mounts = fresh.mounts
	t.byName = fresh.byName
	return nil
}

func (t *Table) Mounts() []Mount {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]Mount(nil), t.mounts...)
}

// ToVirtual converts a real path to its virtual path, given the mount it
// was found under. realPath must be within mount.Source.
func ToVirtual(mount Mount, realPath string) (string, error) {
	rel, err := filepath.Rel(mount.Source, realPath)
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, "path not under mount source", err)
	}
	rel = filepath.ToSlash(rel)
	if rel == "." {
		return mount.Name, nil
	}
	return mount.Name + "/" + rel, nil
}

// ToReal converts a virtual path back to a real on-disk path.
func (t *Table) ToReal(virtualPath string) (string, error) {
	name, rest := splitFirstSegment(virtualPath)
	t.mu.RLock()
	source, ok := t.byName[name]
	t.mu.RUnlock()
	if !ok {
		return "", apperr.New(apperr.NotFound, fmt.Sprintf("no mount named %q", name))
	}
	if rest == "" {
		return source, nil
	}
	return filepath.Join(source, filepath.FromSlash(rest)), nil
}

// MountFor returns the mount whose source directory contains realPath, the
// one with the longest matching source when mounts are nested.
func (t *Table) MountFor(realPath string) (Mount, bool) {
	clean := filepath.Clean(realPath)
	t.mu.RLock()
	defer t.mu.RUnlock()
	var best Mount
	found := false
	for _, m := range t.mounts {
		source := filepath.Clean(m.Source)
		if clean != source && !strings.HasPrefix(clean, source+string(filepath.Separator)) {
			continue
		}
		if !found || len(source) > len(filepath.Clean(best.Source)) {
			best = m
			found = true
		}
	}
	return best, found
}

// Parent returns the virtual path of vp's parent, or "" if vp is a mount
// root (has no parent inside the collection).
func Parent(vp string) string {
	idx := strings.LastIndex(vp, "/")
	if idx < 0 {
		return ""
	}
	return vp[:idx]
}

// Segments splits a virtual path into its slash-separated components.
func Segments(vp string) []string {
	if vp == "" {
		return nil
	}
	return strings.Split(vp, "/")
}

func splitFirstSegment(vp string) (first, rest string) {
	idx := strings.IndexByte(vp, '/')
	if idx < 0 {
		return vp, ""
	}
	return vp[:idx], vp[idx+1:]
}

package tagreader

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/agersant/polaris/internal/apperr"
)

// DefaultArtPattern is the regex adjacent-art resolution uses when the
// config file doesn't override it.
const DefaultArtPattern = `Folder\.(jpeg|jpg|png)`

// CompileArtPattern compiles a configured album-art pattern, matched
// case-insensitively regardless of how the caller wrote it.
func CompileArtPattern(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		pattern = DefaultArtPattern
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, apperr.Wrap(apperr.BadRequest, "invalid album art pattern", err)
	}
	return re, nil
}

// ResolveAdjacentArt lists dir once and returns the real path of the first
// entry (in lexicographic filename order) whose name matches pattern, or
// "" if none match. ResolveAdjacentArtFromNames does the same over a
// pre-read name list, so the scanner can reuse one listing for both art
// resolution and file enumeration.
func ResolveAdjacentArt(dirPath string, pattern *regexp.Regexp) (string, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return "", apperr.Wrap(apperr.IO, "list directory for adjacent art", err)
	}
	return ResolveAdjacentArtFromNames(dirPath, entryNames(entries), pattern), nil
}

// ResolveAdjacentArtFromNames matches pattern against a pre-read,
// unsorted list of directory entry names.
func ResolveAdjacentArtFromNames(dirPath string, names []string, pattern *regexp.Regexp) string {
	var candidates []string
	for _, name := range names {
		if pattern.MatchString(name) {
			candidates = append(candidates, name)
		}
	}
	if len(candidates) == 0 {
		return ""
	}
	sort.Strings(candidates)
	return filepath.Join(dirPath, candidates[0])
}

func entryNames(entries []os.DirEntry) []string {
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names
}

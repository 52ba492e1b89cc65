// Package tagreader implements the tag & art reader (C1): decoding audio
// metadata and embedded/adjacent cover art from a single file. Format
// dispatch follows the multi-tier fallback chain used throughout the
// retrieved pack's tag-reading code (primary decoder, format-specific
// fallback, taglib as the last resort).
package tagreader

import (
	"path/filepath"
	"strings"

	"github.com/agersant/polaris/internal/apperr"
	"github.com/agersant/polaris/internal/collection"
)

// supportedExtensions is the set of audio file extensions this package
// can read tags from.
var supportedExtensions = map[string]bool{
	".flac": true, ".mp3": true, ".mp4": true, ".m4a": true, ".m4b": true,
	".mpc": true, ".ogg": true, ".opus": true, ".ape": true, ".wav": true, ".aiff": true,
}

// IsSupported reports whether path's extension is one this reader can
// decode, matched case-insensitively.
func IsSupported(path string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(path))]
}

// Result is what Read produces for one file: the staged song record plus
// whether it carried a usable embedded picture.
type Result struct {
	Record          collection.SongRecord
	EmbeddedPicture []byte // nil if the file has no usable embedded art
}

// Read decodes path's tags (and, if present, embedded picture) into a
// Result. Errors are classified apperr.Unsupported (an unsupported
// extension or a file that fails to decode) or apperr.IO — callers must
// never let a Read error abort a scan.
func Read(path string) (Result, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !supportedExtensions[ext] {
		return Result{}, apperr.New(apperr.Unsupported, "unsupported audio extension: "+ext)
	}

	switch ext {
	case ".mp3":
		return readMP3(path)
	case ".flac":
		return readFLAC(path)
	case ".mp4", ".m4a", ".m4b":
		return readMP4(path)
	case ".ogg", ".opus":
		return readOgg(path)
	case ".mpc", ".ape", ".wav", ".aiff":
		return readTaglib(path)
	default:
		return Result{}, apperr.New(apperr.Unsupported, "unsupported audio extension: "+ext)
	}
}

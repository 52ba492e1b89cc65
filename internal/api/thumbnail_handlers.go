package api

import (
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/agersant/polaris/internal/apperr"
	"github.com/agersant/polaris/internal/thumbnail"
)

const embeddedArtworkPrefix = "embedded:"

// handleThumbnail resolves a browse/search result's Artwork field (either
// a virtual path to an adjacent art file, or "embedded:<song_virtual_path>")
// to a real on-disk file, then asks the thumbnail cache for a resized JPEG.
//
// The virtual path segment of the URL can name either form directly: a
// client follows whatever string came back in a Song or Directory's
// Artwork field.
func (s *Server) handleThumbnail(c *gin.Context) {
	snap := s.currentSnapshot(c)
	if snap == nil {
		return
	}
	virtualPath := trimWildcard(c.Param("path"))

	var realPath string
	if strings.HasPrefix(virtualPath, embeddedArtworkPrefix) {
		songVP := strings.TrimPrefix(virtualPath, embeddedArtworkPrefix)
		result := snap.GetSongs([]string{songVP})[0]
		if result.NotFound {
			respondError(c, apperr.New(apperr.NotFound, "no such song: "+songVP))
			return
		}
		realPath = result.Song.RealPath
	} else {
		real, err := s.Mounts.ToReal(virtualPath)
		if err != nil {
			respondError(c, err)
			return
		}
		realPath = real
	}

	info, err := os.Stat(realPath)
	if err != nil {
		respondError(c, apperr.Wrap(apperr.NotFound, "artwork source not found", err))
		return
	}

	size, err := parseSizeClass(c.DefaultQuery("size", "large"))
	if err != nil {
		respondError(c, err)
		return
	}
	pad := c.Query("pad") == "y"

	path, err := s.Thumbnails.Get(thumbnail.Key{
		RealPath:  realPath,
		MtimeNS:   info.ModTime().UnixNano(),
		Size:      size,
		PadSquare: pad,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	c.File(path)
}

func parseSizeClass(raw string) (thumbnail.SizeClass, error) {
	switch raw {
	case "tiny":
		return thumbnail.Tiny, nil
	case "small":
		return thumbnail.Small, nil
	case "large":
		return thumbnail.Large, nil
	case "native":
		return thumbnail.Native, nil
	default:
		return 0, apperr.New(apperr.BadRequest, "size must be one of tiny, small, large, native")
	}
}

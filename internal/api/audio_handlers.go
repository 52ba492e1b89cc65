package api

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/agersant/polaris/internal/apperr"
)

// handleAudio streams the raw bytes of a song's file, honoring Range
// requests via the standard library's http.ServeContent. This is a
// deliberate one-line passthrough rather than a hand-rolled range parser.
func (s *Server) handleAudio(c *gin.Context) {
	virtualPath := trimWildcard(c.Param("path"))
	realPath, err := s.Mounts.ToReal(virtualPath)
	if err != nil {
		respondError(c, err)
		return
	}

	f, err := os.Open(realPath)
	if err != nil {
		respondError(c, apperr.Wrap(apperr.NotFound, "audio file not found", err))
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		respondError(c, apperr.Wrap(apperr.IO, "stat audio file", err))
		return
	}

	http.ServeContent(c.Writer, c.Request, info.Name(), info.ModTime(), f)
}

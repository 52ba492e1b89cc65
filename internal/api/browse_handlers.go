package api

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/agersant/polaris/internal/apperr"
	"github.com/agersant/polaris/internal/collection"
	"github.com/agersant/polaris/internal/orchestrator"
)

// trimWildcard strips the leading slash gin's *path wildcard always
// includes, so a request for "/browse/" lands on the empty virtual path
// (a mount-point-less root) rather than "/".
func trimWildcard(raw string) string {
	return strings.TrimPrefix(raw, "/")
}

// currentSnapshot loads the orchestrator's published snapshot, or
// responds NotFound if no scan has ever completed.
func (s *Server) currentSnapshot(c *gin.Context) *collection.Snapshot {
	snap := s.Orchestrator.Snapshot()
	if snap == nil {
		respondError(c, apperr.New(apperr.NotFound, "collection has not been indexed yet"))
	}
	return snap
}

func queryInt(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func (s *Server) handleBrowse(c *gin.Context) {
	snap := s.currentSnapshot(c)
	if snap == nil {
		return
	}
	entries, err := snap.Browse(trimWildcard(c.Param("path")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, entries)
}

func (s *Server) handleFlatten(c *gin.Context) {
	snap := s.currentSnapshot(c)
	if snap == nil {
		return
	}
	songs, err := snap.Flatten(trimWildcard(c.Param("path")), queryInt(c, "offset", 0), queryInt(c, "limit", 0))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, songs)
}

type getSongsRequest struct {
	Paths []string `json:"paths" binding:"required"`
}

func (s *Server) handleGetSongs(c *gin.Context) {
	snap := s.currentSnapshot(c)
	if snap == nil {
		return
	}
	var req getSongsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.New(apperr.BadRequest, "paths is required"))
		return
	}
	c.JSON(200, snap.GetSongs(req.Paths))
}

func (s *Server) handleAlbums(c *gin.Context) {
	snap := s.currentSnapshot(c)
	if snap == nil {
		return
	}
	c.JSON(200, snap.Albums(queryInt(c, "offset", 0), queryInt(c, "limit", 0)))
}

func (s *Server) handleAlbumsRandom(c *gin.Context) {
	snap := s.currentSnapshot(c)
	if snap == nil {
		return
	}
	seed, err := strconv.ParseInt(c.DefaultQuery("seed", "0"), 10, 64)
	if err != nil {
		respondError(c, apperr.New(apperr.BadRequest, "seed must be an integer"))
		return
	}
	c.JSON(200, snap.AlbumsRandom(seed, queryInt(c, "offset", 0), queryInt(c, "limit", 0)))
}

func (s *Server) handleAlbumsRecent(c *gin.Context) {
	snap := s.currentSnapshot(c)
	if snap == nil {
		return
	}
	c.JSON(200, snap.AlbumsRecent(queryInt(c, "offset", 0), queryInt(c, "limit", 0)))
}

func (s *Server) handleArtists(c *gin.Context) {
	snap := s.currentSnapshot(c)
	if snap == nil {
		return
	}
	c.JSON(200, snap.Artists())
}

func (s *Server) handleArtist(c *gin.Context) {
	snap := s.currentSnapshot(c)
	if snap == nil {
		return
	}
	artist, err := snap.Artist(c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, artist)
}

func (s *Server) handleGenres(c *gin.Context) {
	snap := s.currentSnapshot(c)
	if snap == nil {
		return
	}
	c.JSON(200, snap.Genres())
}

func (s *Server) handleGenre(c *gin.Context) {
	snap := s.currentSnapshot(c)
	if snap == nil {
		return
	}
	genre, err := snap.Genre(c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, genre)
}

func (s *Server) handleSearch(c *gin.Context) {
	snap := s.currentSnapshot(c)
	if snap == nil {
		return
	}
	songs, err := snap.Search(trimWildcard(c.Param("query")), queryInt(c, "offset", 0), queryInt(c, "limit", 0))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, songs)
}

func (s *Server) handleIndexStatus(c *gin.Context) {
	status := s.Orchestrator.Status()
	state := "Idle"
	if status.State == orchestrator.Scanning {
		state = "Scanning"
	}
	c.JSON(200, gin.H{
		"state":      state,
		"started_at": status.StartedAt,
		"files_seen": status.FilesSeen,
		"errors":     status.Errors,
	})
}

func (s *Server) handleTriggerIndex(c *gin.Context) {
	s.Orchestrator.Trigger()
	c.Status(202)
}

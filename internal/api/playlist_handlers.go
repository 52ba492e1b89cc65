package api

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/agersant/polaris/internal/apperr"
)

func (s *Server) handleListPlaylists(c *gin.Context) {
	playlists, err := s.Store.ListPlaylists(c.Request.Context(), currentUser(c).Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, playlists)
}

type playlistRequest struct {
	Title     string   `json:"title" binding:"required"`
	SongPaths []string `json:"song_paths"`
}

func (s *Server) handleCreatePlaylist(c *gin.Context) {
	var req playlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.New(apperr.BadRequest, "title is required"))
		return
	}
	playlist, err := s.Store.CreatePlaylist(c.Request.Context(), currentUser(c).Name, req.Title, req.SongPaths)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(201, playlist)
}

func playlistID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, apperr.New(apperr.BadRequest, "invalid playlist id")
	}
	return id, nil
}

func (s *Server) handleGetPlaylist(c *gin.Context) {
	id, err := playlistID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	playlist, err := s.Store.GetPlaylist(c.Request.Context(), currentUser(c).Name, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, playlist)
}

func (s *Server) handleUpdatePlaylist(c *gin.Context) {
	id, err := playlistID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req playlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.New(apperr.BadRequest, "title is required"))
		return
	}
	if err := s.Store.UpdatePlaylist(c.Request.Context(), currentUser(c).Name, id, req.Title, req.SongPaths); err != nil {
		respondError(c, err)
		return
	}
	c.Status(204)
}

func (s *Server) handleDeletePlaylist(c *gin.Context) {
	id, err := playlistID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := s.Store.DeletePlaylist(c.Request.Context(), currentUser(c).Name, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(204)
}

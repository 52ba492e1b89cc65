package api

import (
	"github.com/gin-gonic/gin"

	"github.com/agersant/polaris/internal/apperr"
	"github.com/agersant/polaris/internal/auth"
	"github.com/agersant/polaris/internal/store"
	"github.com/agersant/polaris/internal/tagreader"
	"github.com/agersant/polaris/internal/vpath"
)

func (s *Server) handleGetSettings(c *gin.Context) {
	file, _ := s.Config.Current()
	c.JSON(200, gin.H{
		"album_art_pattern": file.AlbumArtPattern,
		"ddns_url":          file.DDNSURL,
	})
}

type putSettingsRequest struct {
	AlbumArtPattern *string `json:"album_art_pattern"`
	DDNSURL         *string `json:"ddns_url"`
}

// handlePutSettings updates the config mirror and, when the art pattern
// changes, reloads the orchestrator since that pattern affects how every
// directory's artwork gets resolved on the next scan.
func (s *Server) handlePutSettings(c *gin.Context) {
	var req putSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.New(apperr.BadRequest, "malformed settings body"))
		return
	}

	current, _ := s.Config.Current()
	next := *current

	var artPattern *string
	if req.AlbumArtPattern != nil {
		if _, err := tagreader.CompileArtPattern(*req.AlbumArtPattern); err != nil {
			respondError(c, err)
			return
		}
		next.AlbumArtPattern = *req.AlbumArtPattern
		artPattern = req.AlbumArtPattern
	}
	if req.DDNSURL != nil {
		next.DDNSURL = *req.DDNSURL
	}

	ctx := c.Request.Context()
	if artPattern != nil {
		if err := s.Store.SetSetting(ctx, store.SettingAlbumArtPattern, *artPattern); err != nil {
			respondError(c, err)
			return
		}
	}
	if req.DDNSURL != nil {
		if err := s.Store.SetSetting(ctx, store.SettingDDNSURL, *req.DDNSURL); err != nil {
			respondError(c, err)
			return
		}
	}

	s.Config.Replace(&next)
	if artPattern != nil {
		compiled, _ := tagreader.CompileArtPattern(*artPattern)
		s.Orchestrator.ReloadMounts(s.Mounts, compiled)
	}
	c.Status(204)
}

func (s *Server) handleGetMounts(c *gin.Context) {
	c.JSON(200, s.Mounts.Mounts())
}

type mountDirEntry struct {
	Name   string `json:"name" binding:"required"`
	Source string `json:"source" binding:"required"`
}

type putMountsRequest struct {
	MountDirs []mountDirEntry `json:"mount_dirs" binding:"required"`
}

// handlePutMounts replaces the full mount table. Any in-flight scan is
// preempted since the set of real directories it's walking just changed.
func (s *Server) handlePutMounts(c *gin.Context) {
	var req putMountsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.New(apperr.BadRequest, "malformed mount_dirs body"))
		return
	}

	mounts := make([]vpath.Mount, len(req.MountDirs))
	for i, m := range req.MountDirs {
		mounts[i] = vpath.Mount{Name: m.Name, Source: m.Source}
	}

	if err := s.Store.ReplaceMounts(c.Request.Context(), mounts); err != nil {
		respondError(c, err)
		return
	}
	if err := s.Mounts.Replace(mounts); err != nil {
		respondError(c, err)
		return
	}
	s.Orchestrator.ReloadMounts(s.Mounts, nil)
	c.Status(204)
}

type userListEntry struct {
	Name  string `json:"name"`
	Admin bool   `json:"admin"`
}

func (s *Server) handleListUsers(c *gin.Context) {
	users, err := s.Store.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]userListEntry, len(users))
	for i, u := range users {
		out[i] = userListEntry{Name: u.Name, Admin: u.Admin}
	}
	c.JSON(200, out)
}

type createUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
	Admin    bool   `json:"admin"`
}

func (s *Server) handleCreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.New(apperr.BadRequest, "name and password are required"))
		return
	}
	if err := auth.ValidatePasswordStrength(req.Password); err != nil {
		respondError(c, err)
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(c, apperr.Wrap(apperr.Internal, "hash password", err))
		return
	}
	if err := s.Store.CreateUser(c.Request.Context(), req.Name, hash, req.Admin); err != nil {
		respondError(c, err)
		return
	}
	c.Status(201)
}

func (s *Server) handleDeleteUser(c *gin.Context) {
	if err := s.Store.DeleteUser(c.Request.Context(), c.Param("name")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(204)
}

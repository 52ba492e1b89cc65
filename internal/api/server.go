package api

import (
	"github.com/gin-gonic/gin"

	"github.com/agersant/polaris/internal/auth"
	"github.com/agersant/polaris/internal/config"
	"github.com/agersant/polaris/internal/lastfm"
	"github.com/agersant/polaris/internal/orchestrator"
	"github.com/agersant/polaris/internal/store"
	"github.com/agersant/polaris/internal/thumbnail"
	"github.com/agersant/polaris/internal/vpath"
)

// Server holds every collaborator the router's handlers call through.
// It has no state of its own beyond these references; all mutable state
// lives in the collaborators (orchestrator's snapshot pointer, config's
// manager, the DB pool).
type Server struct {
	Auth         *auth.Service
	Orchestrator *orchestrator.Orchestrator
	Thumbnails   *thumbnail.Cache
	Store        *store.DB
	Config       *config.Manager
	Mounts       *vpath.Table
	LastFM       *lastfm.Linker
}

// NewRouter builds the gin engine wiring every endpoint to srv's
// collaborators: global middleware first, then a flat route table split
// into public, authenticated, and admin groups.
func NewRouter(srv *Server) *gin.Engine {
	router := gin.New()
	router.Use(requestID(), recovery(), requestLogger(), cors(), acceptVersion())

	router.POST("/auth", srv.handleLogin)

	authed := router.Group("")
	authed.Use(authRequired(srv.Auth))
	{
		authed.GET("/browse", srv.handleBrowse)
		authed.GET("/browse/*path", srv.handleBrowse)
		authed.GET("/flatten", srv.handleFlatten)
		authed.GET("/flatten/*path", srv.handleFlatten)
		authed.POST("/get_songs", srv.handleGetSongs)
		authed.GET("/albums", srv.handleAlbums)
		authed.GET("/albums/random", srv.handleAlbumsRandom)
		authed.GET("/albums/recent", srv.handleAlbumsRecent)
		authed.GET("/artists", srv.handleArtists)
		authed.GET("/artists/:name", srv.handleArtist)
		authed.GET("/genres", srv.handleGenres)
		authed.GET("/genres/:name", srv.handleGenre)
		authed.GET("/search/*query", srv.handleSearch)
		authed.GET("/thumbnail/*path", srv.handleThumbnail)
		authed.GET("/audio/*path", srv.handleAudio)
		authed.GET("/index_status", srv.handleIndexStatus)
		authed.POST("/trigger_index", srv.handleTriggerIndex)

		authed.GET("/playlists", srv.handleListPlaylists)
		authed.POST("/playlists", srv.handleCreatePlaylist)
		authed.GET("/playlists/:id", srv.handleGetPlaylist)
		authed.PUT("/playlists/:id", srv.handleUpdatePlaylist)
		authed.DELETE("/playlists/:id", srv.handleDeletePlaylist)

		authed.POST("/lastfm/link", srv.handleLastFMRequestToken)
		authed.POST("/lastfm/link/callback", srv.handleLastFMExchange)
	}

	admin := router.Group("")
	admin.Use(adminRequired(srv.Auth))
	{
		admin.GET("/settings", srv.handleGetSettings)
		admin.PUT("/settings", srv.handlePutSettings)
		admin.GET("/mount_dirs", srv.handleGetMounts)
		admin.PUT("/mount_dirs", srv.handlePutMounts)
		admin.GET("/users", srv.handleListUsers)
		admin.POST("/users", srv.handleCreateUser)
		admin.DELETE("/users/:name", srv.handleDeleteUser)
	}

	return router
}

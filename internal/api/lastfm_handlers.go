package api

import (
	"github.com/gin-gonic/gin"

	"github.com/agersant/polaris/internal/apperr"
)

// handleLastFMRequestToken starts the last.fm account-link handshake: it
// returns the last.fm authorization URL the client opens, together with a
// PurposeLastFMLink token issued for this user. The callback handler does
// not read or verify that token.
func (s *Server) handleLastFMRequestToken(c *gin.Context) {
	if s.LastFM == nil {
		respondError(c, apperr.New(apperr.BadRequest, "last.fm is not configured on this server"))
		return
	}
	reqToken, err := s.LastFM.RequestToken()
	if err != nil {
		respondError(c, err)
		return
	}
	linkToken, err := s.Auth.IssueLastFMLinkToken(currentUser(c).Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, gin.H{
		"auth_url":   s.LastFM.AuthURL(reqToken),
		"link_token": linkToken,
	})
}

type lastfmCallbackRequest struct {
	RequestToken string `json:"request_token" binding:"required"`
}

// handleLastFMExchange completes the handshake: the client calls this
// after the user has authorized on last.fm, supplying the request token
// from the previous step. The caller must still be authenticated as the
// same user (authRequired gates this whole group); no separate
// link_token round-trip is required since the handler already knows the
// subject from the bearer token.
func (s *Server) handleLastFMExchange(c *gin.Context) {
	if s.LastFM == nil {
		respondError(c, apperr.New(apperr.BadRequest, "last.fm is not configured on this server"))
		return
	}
	var req lastfmCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.New(apperr.BadRequest, "request_token is required"))
		return
	}
	_, sessionKey, err := s.LastFM.ExchangeSession(req.RequestToken)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := s.Store.SetLastFMSession(c.Request.Context(), currentUser(c).Name, sessionKey); err != nil {
		respondError(c, err)
		return
	}
	c.Status(204)
}

package api

import (
	"github.com/gin-gonic/gin"

	"github.com/agersant/polaris/internal/apperr"
)

// loginRequest is POST /auth's body.
type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.New(apperr.BadRequest, "username and password are required"))
		return
	}
	token, err := s.Auth.Login(req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, gin.H{"token": token})
}

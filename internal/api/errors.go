// Package api wires the music collection, auth, thumbnail, and scan
// components onto a thin gin-gonic/gin router: the HTTP surface clients
// and the web UI consume, kept deliberately thin so the business logic
// stays in the packages underneath it.
package api

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/agersant/polaris/internal/apperr"
	"github.com/agersant/polaris/internal/collection"
)

// respondError writes the classified shape every handler returns on
// failure: an HTTP status derived from the error's Kind, and a short
// machine-readable kind tag alongside a human message. Stack traces
// never reach this function's caller, let alone the response body.
func respondError(c *gin.Context, err error) {
	var badQuery *collection.BadQuery
	if errors.As(err, &badQuery) {
		c.JSON(400, gin.H{"error": "bad_query", "message": err.Error()})
		return
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		c.JSON(ae.Kind.HTTPStatus(), gin.H{"error": string(ae.Kind), "message": ae.Message})
		return
	}
	c.JSON(500, gin.H{"error": string(apperr.Internal), "message": "internal error"})
}

package api

import (
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/agersant/polaris/internal/apperr"
	"github.com/agersant/polaris/internal/auth"
)

// CurrentAPIVersion is the API major version this server implements.
const CurrentAPIVersion = 8

// contextUserKey is the gin context key AuthRequired installs the
// authenticated auth.User under.
const contextUserKey = "polaris.user"

// contextRequestIDKey is the gin context key requestID installs a
// per-request correlation id under.
const contextRequestIDKey = "polaris.request_id"

// requestID assigns a random id to every request, used to correlate the
// access log line with any panic recovered further down the chain. The
// id is echoed back on X-Request-Id so a client can match its own logs
// against the server's.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.NewString()
		c.Set(contextRequestIDKey, id)
		c.Header("X-Request-Id", id)
		c.Next()
	}
}

func currentRequestID(c *gin.Context) string {
	v, _ := c.Get(contextRequestIDKey)
	id, _ := v.(string)
	return id
}

// bearerToken extracts the request's credential from either the
// Authorization header or the ?auth_token= query parameter, the latter
// existing for clients (like <audio> tags) that can't set headers.
func bearerToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		if after, ok := strings.CutPrefix(header, "Bearer "); ok {
			return after
		}
	}
	return c.Query("auth_token")
}

// authRequired authorizes every request behind it, stashing the
// authenticated user in the gin context for handlers to read.
func authRequired(authService *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			respondError(c, apperr.New(apperr.Unauthorized, "missing credentials"))
			c.Abort()
			return
		}
		user, err := authService.Authorize(token)
		if err != nil {
			respondError(c, err)
			c.Abort()
			return
		}
		c.Set(contextUserKey, user)
		c.Next()
	}
}

// adminRequired authorizes the request's token on its own (it does not
// need authRequired before it) and additionally checks the user's admin
// flag.
func adminRequired(authService *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		user, err := authService.RequireAdmin(token)
		if err != nil {
			respondError(c, err)
			c.Abort()
			return
		}
		c.Set(contextUserKey, user)
		c.Next()
	}
}

func currentUser(c *gin.Context) auth.User {
	v, _ := c.Get(contextUserKey)
	u, _ := v.(auth.User)
	return u
}

// acceptVersion reads and validates the Accept-Version header against
// CurrentAPIVersion. A missing header is treated as the current version.
// Only one version is implemented, so this rejects mismatches rather
// than dispatching between versions.
func acceptVersion() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("Accept-Version")
		if raw == "" {
			c.Next()
			return
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v != CurrentAPIVersion {
			respondError(c, apperr.New(apperr.BadRequest, "unsupported API version"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// requestLogger logs one line per request: id, method, path, status,
// latency.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Printf("[%s] %s %s %d %s", currentRequestID(c), c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// recovery converts a panicking handler into a 500 instead of crashing
// the process.
func recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[%s] panic recovered: %v", currentRequestID(c), r)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": string(apperr.Internal), "message": "internal error",
				})
			}
		}()
		c.Next()
	}
}

// cors is permissive by default, with byte-range headers explicitly
// exposed for the audio and thumbnail endpoints.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization, Accept-Version, X-Requested-With")
		c.Header("Access-Control-Expose-Headers", "Content-Length, Accept-Ranges, Content-Range")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

package api

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestAcceptVersion_MissingHeaderPasses(t *testing.T) {
	router := gin.New()
	router.Use(acceptVersion())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with no Accept-Version header, got %d", rec.Code)
	}
}

func TestAcceptVersion_MatchingHeaderPasses(t *testing.T) {
	router := gin.New()
	router.Use(acceptVersion())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Version", strconv.Itoa(CurrentAPIVersion))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with matching Accept-Version, got %d", rec.Code)
	}
}

func TestAcceptVersion_MismatchedHeaderRejected(t *testing.T) {
	router := gin.New()
	router.Use(acceptVersion())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Version", strconv.Itoa(CurrentAPIVersion+1))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 with mismatched Accept-Version, got %d", rec.Code)
	}
}

func TestCORS_PreflightShortCircuits(t *testing.T) {
	router := gin.New()
	router.Use(cors())
	called := false
	router.OPTIONS("/", func(c *gin.Context) { called = true })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for OPTIONS preflight, got %d", rec.Code)
	}
	if called {
		t.Fatalf("preflight should not reach the route handler")
	}
}

func TestRequestID_SetsHeaderAndContextValue(t *testing.T) {
	router := gin.New()
	router.Use(requestID())
	var seen string
	router.GET("/", func(c *gin.Context) {
		seen = currentRequestID(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if seen == "" {
		t.Fatalf("expected a non-empty request id in context")
	}
	if rec.Header().Get("X-Request-Id") != seen {
		t.Fatalf("X-Request-Id header %q does not match context value %q", rec.Header().Get("X-Request-Id"), seen)
	}
}

func TestRecovery_ConvertsPanicToInternalError(t *testing.T) {
	router := gin.New()
	router.Use(requestID(), recovery())
	router.GET("/", func(c *gin.Context) { panic("boom") })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 after recovered panic, got %d", rec.Code)
	}
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestEnrichContextGeneratesTraceID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(EnrichContext())
	router.GET("/ping", func(c *gin.Context) {
		if GetTraceID(c) == "" {
			t.Error("expected a generated trace id")
		}
		reqCtx := GetRequestContext(c)
		if reqCtx == nil || reqCtx.TraceID != GetTraceID(c) {
			t.Error("expected request context to carry the trace id")
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Header().Get(TraceIDHeader) == "" {
		t.Fatal("expected trace id response header")
	}
}

func TestEnrichContextHonorsInboundTraceID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(EnrichContext())
	router.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(TraceIDHeader, "upstream-trace")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if got := rr.Header().Get(TraceIDHeader); got != "upstream-trace" {
		t.Fatalf("expected inbound trace id to be reused, got %q", got)
	}
}

func TestCORSPreflightAndOriginMatching(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(CORS([]string{"https://app.chirpnet.example.com"}))
	router.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	preflight := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	preflight.Header.Set("Origin", "https://app.chirpnet.example.com")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, preflight)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected preflight status 204, got %d", rr.Code)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "https://app.chirpnet.example.com" {
		t.Fatalf("expected allow-origin for listed origin, got %q", rr.Header().Get("Access-Control-Allow-Origin"))
	}
	if rr.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Fatal("expected allow-methods header on preflight")
	}

	denied := httptest.NewRequest(http.MethodGet, "/ping", nil)
	denied.Header.Set("Origin", "https://evil.example.com")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, denied)

	if rr.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("expected no allow-origin header for unlisted origin")
	}
}

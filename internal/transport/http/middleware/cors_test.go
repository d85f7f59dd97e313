package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/citymarket/marketplace/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"
)

func newCORSEngine() *gin.Engine {
	r := gin.New()
	r.Use(middleware.CORS([]string{"https://Market.example.com"}))
	r.GET("/cities", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestCORS_AllowedOrigin(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/cities", nil)
	req.Header.Set("Origin", "https://market.example.com")
	newCORSEngine().ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://market.example.com" {
		t.Errorf("Allow-Origin = %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Allow-Credentials = %q, want true", got)
	}
	if got := w.Header().Get("Vary"); got != "Origin" {
		t.Errorf("Vary = %q, want Origin", got)
	}
}

func TestCORS_UnknownOrigin_NoHeader(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/cities", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	newCORSEngine().ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Allow-Origin = %q, want empty", got)
	}
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if got := w.Header().Get("Vary"); got != "Origin" {
		t.Errorf("Vary = %q, want Origin for a rejected origin too", got)
	}
}

func TestCORS_NoOrigin_NoVary(t *testing.T) {
	w := httptest.NewRecorder()
	newCORSEngine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cities", nil))

	if got := w.Header().Get("Vary"); got != "" {
		t.Errorf("Vary = %q, want empty without an Origin header", got)
	}
}

func TestCORS_Preflight_Returns204(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/cities", nil)
	req.Header.Set("Origin", "https://market.example.com")
	newCORSEngine().ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Error("missing Allow-Methods on preflight")
	}
}

package security

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newSecuredRouter(config *SecurityConfig) *gin.Engine {
	router := gin.New()
	SetupSecurityMiddleware(router, config)
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	router.POST("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func TestRateLimitMiddleware(t *testing.T) {
	router := newSecuredRouter(&SecurityConfig{
		EnableRateLimit:    true,
		RateLimitPerSecond: 1,
		RateLimitBurst:     2,
		MaxRequestSize:     1 << 20,
	})

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("Request %d: expected 200 within burst, got %d", i+1, w.Code)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("Expected 429 after burst exhausted, got %d", w.Code)
	}
}

func TestRateLimiter_PerIP(t *testing.T) {
	rl := NewRateLimiter(rate.Limit(1), 1)

	if !rl.GetLimiter("10.0.0.1").Allow() {
		t.Error("Expected first request from 10.0.0.1 allowed")
	}
	if rl.GetLimiter("10.0.0.1").Allow() {
		t.Error("Expected second request from 10.0.0.1 limited")
	}
	// A different IP carries its own budget
	if !rl.GetLimiter("10.0.0.2").Allow() {
		t.Error("Expected first request from 10.0.0.2 allowed")
	}
}

func TestRequestSizeMiddleware(t *testing.T) {
	router := newSecuredRouter(&SecurityConfig{MaxRequestSize: 64})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(strings.Repeat("x", 128)))
	router.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected 413 for oversized body, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/test", strings.NewReader("small"))
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 for small body, got %d", w.Code)
	}
}

func TestInputValidationMiddleware(t *testing.T) {
	router := newSecuredRouter(&SecurityConfig{MaxRequestSize: 1 << 20})

	cases := []struct {
		name   string
		target string
		want   int
	}{
		{"valid id", "/test?id=42", http.StatusOK},
		{"negative id", "/test?id=-1", http.StatusBadRequest},
		{"non-numeric id", "/test?id=abc", http.StatusBadRequest},
		{"valid url", "/test?url=https://example.org/img.jpg", http.StatusOK},
		{"relative url", "/test?url=/etc/passwd", http.StatusBadRequest},
		{"oversized url", "/test?url=https://example.org/" + strings.Repeat("a", 2048), http.StatusBadRequest},
		{"valid language", "/test?language=de", http.StatusOK},
		{"valid long language", "/test?language=zh-min-nan", http.StatusOK},
		{"uppercase language", "/test?language=DE", http.StatusBadRequest},
		{"single letter language", "/test?language=x", http.StatusBadRequest},
	}

	for _, c := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, c.target, nil)
		router.ServeHTTP(w, req)
		if w.Code != c.want {
			t.Errorf("%s: expected %d, got %d", c.name, c.want, w.Code)
		}
	}
}

func TestSecurityHeaders(t *testing.T) {
	router := newSecuredRouter(&SecurityConfig{
		EnableSecurityHeaders: true,
		MaxRequestSize:        1 << 20,
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	router.ServeHTTP(w, req)

	if got := w.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("Expected X-Frame-Options DENY, got '%s'", got)
	}
	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("Expected X-Content-Type-Options nosniff, got '%s'", got)
	}
}

func TestGetClientIP(t *testing.T) {
	router := gin.New()
	var got string
	router.GET("/ip", func(c *gin.Context) {
		got = getClientIP(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	router.ServeHTTP(httptest.NewRecorder(), req)
	if got != "203.0.113.7" {
		t.Errorf("Expected first forwarded IP, got '%s'", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.Header.Set("X-Real-IP", "198.51.100.9")
	router.ServeHTTP(httptest.NewRecorder(), req)
	if got != "198.51.100.9" {
		t.Errorf("Expected X-Real-IP value, got '%s'", got)
	}
}

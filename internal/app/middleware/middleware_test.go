package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"review-sentiment/internal/infrastructure/metrics"
	"review-sentiment/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestLoggingMiddleware_RequestID(t *testing.T) {
	newRouter := func(buf *bytes.Buffer) *gin.Engine {
		router := gin.New()
		router.Use(LoggingMiddleware(&LoggingConfig{
			Logger: logger.NewWithWriter(logger.Config{Level: slog.LevelDebug}, buf),
		}))
		router.GET("/test", func(c *gin.Context) {
			assert.Equal(t, GetRequestID(c), RequestIDFromContext(c.Request.Context()))
			c.String(http.StatusOK, GetRequestID(c))
		})
		return router
	}

	t.Run("generates new request ID when not provided", func(t *testing.T) {
		var buf bytes.Buffer
		req, _ := http.NewRequest("GET", "/test", nil)
		w := httptest.NewRecorder()
		newRouter(&buf).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Body.String())
		assert.Equal(t, w.Body.String(), w.Header().Get(RequestIDHeader))
		assert.Contains(t, buf.String(), "HTTP请求完成")
	})

	t.Run("uses provided request ID", func(t *testing.T) {
		var buf bytes.Buffer
		req, _ := http.NewRequest("GET", "/test", nil)
		req.Header.Set(RequestIDHeader, "custom-request-id-123")
		w := httptest.NewRecorder()
		newRouter(&buf).ServeHTTP(w, req)

		assert.Equal(t, "custom-request-id-123", w.Body.String())
		assert.Equal(t, "custom-request-id-123", w.Header().Get(RequestIDHeader))
		assert.Contains(t, buf.String(), "custom-request-id-123")
		assert.Contains(t, buf.String(), "response_size=21")
	})

	t.Run("reports zero size for empty responses", func(t *testing.T) {
		var buf bytes.Buffer
		router := gin.New()
		router.Use(LoggingMiddleware(&LoggingConfig{
			Logger: logger.NewWithWriter(logger.Config{Level: slog.LevelDebug}, &buf),
		}))
		router.POST("/empty", func(c *gin.Context) { c.Status(http.StatusNoContent) })

		req, _ := http.NewRequest("POST", "/empty", strings.NewReader("{}"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Contains(t, buf.String(), "response_size=0")
		assert.Contains(t, buf.String(), "content_type=application/json")
	})
}

func TestLoggingMiddleware_SkipPaths(t *testing.T) {
	var buf bytes.Buffer
	router := gin.New()
	router.Use(LoggingMiddleware(&LoggingConfig{
		SkipPaths: []string{"/api/health"},
		Logger:    logger.NewWithWriter(logger.Config{Level: slog.LevelDebug}, &buf),
	}))
	router.GET("/api/health", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	req, _ := http.NewRequest("GET", "/api/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.NotEmpty(t, w.Body.String())
	assert.Empty(t, buf.String())
}

func TestCORS(t *testing.T) {
	t.Run("sets CORS headers", func(t *testing.T) {
		router := gin.New()
		router.Use(CORS())
		router.GET("/test", func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})

		req, _ := http.NewRequest("GET", "/test", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Content-Type")
	})

	t.Run("handles OPTIONS preflight", func(t *testing.T) {
		router := gin.New()
		router.Use(CORS())
		router.POST("/test", func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})

		req, _ := http.NewRequest("OPTIONS", "/test", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestMetrics(t *testing.T) {
	m := metrics.New()
	router := gin.New()
	router.Use(Metrics(m))
	router.GET("/api/models", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	for i := 0; i < 2; i++ {
		req, _ := http.NewRequest("GET", "/api/models", nil)
		router.ServeHTTP(httptest.NewRecorder(), req)
	}
	req, _ := http.NewRequest("GET", "/missing", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/api/models", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("unmatched", "GET", "404")))
}

func TestBodyLimit(t *testing.T) {
	router := gin.New()
	router.Use(BodyLimit(8))
	router.POST("/test", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too large")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	req, _ := http.NewRequest("POST", "/test", strings.NewReader(strings.Repeat("x", 64)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	req, _ = http.NewRequest("POST", "/test", strings.NewReader("tiny"))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

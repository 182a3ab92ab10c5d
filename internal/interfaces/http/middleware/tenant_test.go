package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func setupTenantRouter(cfg TenantMiddlewareConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(TenantMiddlewareWithConfig(cfg))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/api/v1/receipts", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"tenant_id": GetTenantID(c).String(),
			"user_id":   GetUserID(c).String(),
		})
	})
	return router
}

func TestTenantMiddleware(t *testing.T) {
	t.Run("rejects requests without tenant header", func(t *testing.T) {
		router := setupTenantRouter(DefaultTenantConfig())

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/receipts", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Tenant identification required")
	})

	t.Run("rejects malformed tenant IDs", func(t *testing.T) {
		router := setupTenantRouter(DefaultTenantConfig())

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/receipts", nil)
		req.Header.Set(TenantHeaderKey, "not-a-uuid")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid tenant ID format")
	})

	t.Run("sets tenant and user in context", func(t *testing.T) {
		router := setupTenantRouter(DefaultTenantConfig())
		tenantID := uuid.New()
		userID := uuid.New()

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/receipts", nil)
		req.Header.Set(TenantHeaderKey, tenantID.String())
		req.Header.Set(UserHeaderKey, userID.String())
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), tenantID.String())
		assert.Contains(t, w.Body.String(), userID.String())
	})

	t.Run("skips configured paths", func(t *testing.T) {
		router := setupTenantRouter(DefaultTenantConfig())

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("rejects malformed user IDs", func(t *testing.T) {
		router := setupTenantRouter(DefaultTenantConfig())

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/receipts", nil)
		req.Header.Set(TenantHeaderKey, uuid.New().String())
		req.Header.Set(UserHeaderKey, "not-a-uuid")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("request_id"))
	})

	t.Run("keeps client-supplied request ID", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(RequestIDHeaderKey, "terminal-7-retry-2")
		router.ServeHTTP(w, req)

		assert.Equal(t, "terminal-7-retry-2", w.Body.String())
		assert.Equal(t, "terminal-7-retry-2", w.Header().Get(RequestIDHeaderKey))
	})

	t.Run("generates an ID when absent", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		router.ServeHTTP(w, req)

		assert.NotEmpty(t, w.Body.String())
		assert.Equal(t, w.Body.String(), w.Header().Get(RequestIDHeaderKey))
	})
}

func TestBodyLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(BodyLimit(16))
	router.POST("/echo", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("rejects oversized bodies", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/echo", nil)
		req.ContentLength = 1024
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})

	t.Run("passes small bodies", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/echo", nil)
		req.ContentLength = 8
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

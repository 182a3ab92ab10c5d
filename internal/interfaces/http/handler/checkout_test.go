package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/pos/backend/internal/interfaces/http/middleware"
)

// setupCheckoutRouter builds a router with the tenant middleware and the
// checkout routes. Services are nil: these tests exercise only paths
// that are rejected before any service call.
func setupCheckoutRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.TenantMiddleware())

	api := router.Group("/api/v1")
	NewCheckoutHandler(nil, nil).RegisterRoutes(api)
	return router
}

func TestCheckoutHandler_TenantGuard(t *testing.T) {
	router := setupCheckoutRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sales", strings.NewReader(`{}`))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCheckoutHandler_CreateSale_InvalidJSON(t *testing.T) {
	router := setupCheckoutRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sales", strings.NewReader(`{not json`))
	req.Header.Set(middleware.TenantHeaderKey, uuid.New().String())
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "BAD_REQUEST")
}

func TestCheckoutHandler_GetReceipt_InvalidID(t *testing.T) {
	router := setupCheckoutRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/receipts/not-a-uuid", nil)
	req.Header.Set(middleware.TenantHeaderKey, uuid.New().String())
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid receipt ID format")
}

func TestCheckoutHandler_VoidReceipt_RequiresReason(t *testing.T) {
	router := setupCheckoutRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/receipts/"+uuid.New().String()+"/void", strings.NewReader(`{}`))
	req.Header.Set(middleware.TenantHeaderKey, uuid.New().String())
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckoutHandler_ListParkedSales_RequiresStoreID(t *testing.T) {
	router := setupCheckoutRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/sales/parked", nil)
	req.Header.Set(middleware.TenantHeaderKey, uuid.New().String())
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid store ID format")
}

func TestCheckoutHandler_SearchReceipts_InvalidStatus(t *testing.T) {
	router := setupCheckoutRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/receipts?status=BOGUS", nil)
	req.Header.Set(middleware.TenantHeaderKey, uuid.New().String())
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

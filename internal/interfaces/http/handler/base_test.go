package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/pos/backend/internal/domain/shared"
)

func newTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func TestBaseHandler_HandleError(t *testing.T) {
	h := &BaseHandler{}

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found maps to 404", shared.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"validation maps to 400", shared.ErrInvalidInput, http.StatusBadRequest, "INVALID_INPUT"},
		{"conflict maps to 409", shared.ErrInsufficientStock, http.StatusConflict, "INSUFFICIENT_STOCK"},
		{"concurrency maps to 409", shared.ErrConcurrencyConflict, http.StatusConflict, "CONCURRENCY_CONFLICT"},
		{"internal maps to 500", shared.NewInternalError("DB_ERROR", "query failed"), http.StatusInternalServerError, "DB_ERROR"},
		{"unknown errors map to 500", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestContext()
			h.HandleError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.code)
		})
	}
}

func TestBaseHandler_HandleError_Wrapped(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext()

	wrapped := errors.Join(errors.New("loading receipt"), shared.ErrNotFound)
	h.HandleError(c, wrapped)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBaseHandler_HandleError_Nil(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext()

	h.HandleError(c, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestBaseHandler_Responses(t *testing.T) {
	h := &BaseHandler{}

	t.Run("Success", func(t *testing.T) {
		c, w := newTestContext()
		h.Success(c, gin.H{"key": "value"})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"success":true`)
	})

	t.Run("Created", func(t *testing.T) {
		c, w := newTestContext()
		h.Created(c, gin.H{"id": "123"})
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("NoContent", func(t *testing.T) {
		c, w := newTestContext()
		h.NoContent(c)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("SuccessWithMeta", func(t *testing.T) {
		c, w := newTestContext()
		h.SuccessWithMeta(c, []string{"a"}, 41, 1, 20)
		assert.Contains(t, w.Body.String(), `"total":41`)
		assert.Contains(t, w.Body.String(), `"total_pages":3`)
	})

	t.Run("error responses carry the request ID", func(t *testing.T) {
		c, w := newTestContext()
		c.Set("request_id", "req-42")
		h.BadRequest(c, "bad input")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "req-42")
	})
}

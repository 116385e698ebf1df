package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	apperrors "github.com/jonbarlo/onlineshop-api/common/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(handler gin.HandlerFunc) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/", handler)
	recorder := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	router.ServeHTTP(recorder, req)
	return recorder
}

func decode(t *testing.T, recorder *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return body
}

func TestSuccessEnvelope(t *testing.T) {
	recorder := serve(func(c *gin.Context) {
		Created(c, "Order created", gin.H{"orderNumber": "ORD-1"})
	})

	assert.Equal(t, http.StatusCreated, recorder.Code)
	body := decode(t, recorder)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Order created", body["message"])
	assert.Nil(t, body["error"])
	assert.Contains(t, body, "error")
	assert.NotEmpty(t, body["timestamp"])
	assert.NotContains(t, body, "pagination")
}

func TestPaginatedEnvelope(t *testing.T) {
	recorder := serve(func(c *gin.Context) {
		Paginated(c, "Products retrieved", []string{"a"}, NewPagination(2, 10, 21))
	})

	body := decode(t, recorder)
	pagination := body["pagination"].(map[string]interface{})
	assert.Equal(t, float64(2), pagination["page"])
	assert.Equal(t, float64(21), pagination["total"])
	assert.Equal(t, float64(3), pagination["totalPages"])
}

func TestErrorEnvelope(t *testing.T) {
	recorder := serve(func(c *gin.Context) {
		Error(c, apperrors.ErrOrderNotFound)
	})

	assert.Equal(t, http.StatusNotFound, recorder.Code)
	body := decode(t, recorder)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Order not found", body["message"])
	assert.Equal(t, "OrderNotFound", body["error"])
	assert.Nil(t, body["data"])
}

func TestErrorEnvelope_HidesInternalCause(t *testing.T) {
	recorder := serve(func(c *gin.Context) {
		Error(c, errors.New("pq: password authentication failed"))
	})

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.NotContains(t, recorder.Body.String(), "password authentication")
	assert.Equal(t, "InternalError", decode(t, recorder)["error"])
}

func TestNewPagination(t *testing.T) {
	assert.Equal(t, 0, NewPagination(1, 10, 0).TotalPages)
	assert.Equal(t, 1, NewPagination(1, 10, 10).TotalPages)
	assert.Equal(t, 0, NewPagination(1, 0, 10).TotalPages)
}

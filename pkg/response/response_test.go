package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Set("request_id", "req-1")
	return c, rec
}

func TestSuccessWritesEnvelope(t *testing.T) {
	c, rec := newContext()
	Success(c, 0, map[string]string{"id": "b1"}, "book", map[string]any{"count": 1})

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "req-1", body["request_id"])
	assert.Equal(t, "book", body["message"])
	assert.Equal(t, map[string]any{"id": "b1"}, body["data"])
	assert.NotContains(t, body, "error")
}

func TestErrorAbortsChain(t *testing.T) {
	c, rec := newContext()
	res := Error[any](c, 0, "invalid input", ErrorBody{Code: "validation_error", Details: map[string]string{"title": "is required"}})

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, res.Success)

	var body struct {
		Success bool      `json:"success"`
		Error   ErrorBody `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "validation_error", body.Error.Code)
	assert.Equal(t, "is required", body.Error.Details["title"])
}

func TestNoContent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.DELETE("/x", NoContent)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/x", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

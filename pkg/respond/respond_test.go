package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"fanclub/pkg/apperr"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func serve(t *testing.T, handler gin.HandlerFunc) (*httptest.ResponseRecorder, map[string]interface{}) {
	router := setupTestRouter()
	router.GET("/test", handler)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	router.ServeHTTP(w, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestOK(t *testing.T) {
	w, body := serve(t, func(c *gin.Context) { OK(c, gin.H{"id": "p1"}) })

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.NotContains(t, body, "message")
	assert.Equal(t, "p1", body["data"].(map[string]interface{})["id"])
}

func TestError_UsesKindStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
		msg    string
	}{
		{apperr.Validation("limit must be positive"), http.StatusBadRequest, "limit must be positive"},
		{apperr.AuthRequired("login required"), http.StatusUnauthorized, "login required"},
		{fmt.Errorf("failed to get tier: %w", apperr.NotFound("tier not found")), http.StatusNotFound, "tier not found"},
		{apperr.Conflict("level 2 is already used"), http.StatusConflict, "level 2 is already used"},
		{errors.New("pq: connection refused"), http.StatusInternalServerError, "internal error"},
	}
	for _, tt := range tests {
		w, body := serve(t, func(c *gin.Context) { Error(c, tt.err) })
		assert.Equal(t, tt.status, w.Code)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, tt.msg, body["message"])
	}
}

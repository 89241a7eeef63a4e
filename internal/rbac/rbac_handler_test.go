package rbac_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-leave/internal/domain"
	"go-leave/internal/rbac"
	"go-leave/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_Enforce(t *testing.T) {
	gin.SetMode(gin.TestMode)

	handler := rbac.NewHandler(newService(t))
	router := gin.New()
	router.POST("/rbac/enforce", handler.Enforce)

	body, _ := json.Marshal(domain.EnforceRequest{Role: " HR ", Resource: "leave", Action: "approve"})
	req := httptest.NewRequest(http.MethodPost, "/rbac/enforce", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var env struct {
		response.ApiEnvelope
		Data domain.EnforceResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.True(t, env.Data.Allowed)
}

func TestHandler_MyPermissions(t *testing.T) {
	gin.SetMode(gin.TestMode)

	handler := rbac.NewHandler(newService(t))
	router := gin.New()
	router.GET("/rbac/permissions/me", func(c *gin.Context) {
		c.Set("role", "employee")
		c.Next()
	}, handler.MyPermissions)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/rbac/permissions/me", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "leave:create")
	assert.NotContains(t, w.Body.String(), "leave:approve")
}

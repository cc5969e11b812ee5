package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/appser/appser-store/internal/auth"
	"github.com/appser/appser-store/pkg/logger"
	"github.com/appser/appser-store/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func setupRouter(t *testing.T) (*gin.Engine, *auth.Handler) {
	t.Helper()
	logger.Init(logger.ERROR, false, nil)
	gin.SetMode(gin.TestMode)

	h := auth.NewHandler(secret, "admin-key")
	router := gin.New()
	router.POST("/auth/token", h.IssueToken)
	router.POST("/auth/logout", h.Logout)
	router.PUT("/admin", h.RequireAdmin(), func(c *gin.Context) {
		claims, ok := auth.ClaimsFrom(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"subject": claims.Subject})
	})
	return router, h
}

func do(router *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestRequireAdmin(t *testing.T) {
	router, _ := setupRouter(t)

	adminToken, err := utils.GenerateJWT("ops", utils.RoleAdmin, secret, time.Hour)
	require.NoError(t, err)
	viewerToken, err := utils.GenerateJWT("bob", "viewer", secret, time.Hour)
	require.NoError(t, err)
	foreignToken, err := utils.GenerateJWT("ops", utils.RoleAdmin, "other-secret", time.Hour)
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, do(router, "PUT", "/admin", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(router, "PUT", "/admin", foreignToken, "").Code)
	assert.Equal(t, http.StatusForbidden, do(router, "PUT", "/admin", viewerToken, "").Code)

	resp := do(router, "PUT", "/admin", adminToken, "")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"subject":"ops"}`, resp.Body.String())
}

func TestMalformedHeader(t *testing.T) {
	router, _ := setupRouter(t)

	req := httptest.NewRequest("PUT", "/admin", nil)
	req.Header.Set("Authorization", "Token abc")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Contains(t, resp.Body.String(), "Invalid authorization header format")
}

func TestIssueTokenThenLogout(t *testing.T) {
	router, _ := setupRouter(t)

	assert.Equal(t, http.StatusUnauthorized, do(router, "POST", "/auth/token", "", `{"key":"wrong"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(router, "POST", "/auth/token", "", `{}`).Code)

	resp := do(router, "POST", "/auth/token", "", `{"key":"admin-key"}`)
	require.Equal(t, http.StatusCreated, resp.Code)

	var out auth.TokenResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	assert.Equal(t, utils.RoleAdmin, out.Role)

	assert.Equal(t, http.StatusOK, do(router, "PUT", "/admin", out.Token, "").Code)
	assert.Equal(t, http.StatusOK, do(router, "POST", "/auth/logout", out.Token, "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(router, "PUT", "/admin", out.Token, "").Code)
}

func TestIssueTokenDisabledWithoutKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := auth.NewHandler(secret, "")
	router := gin.New()
	router.POST("/auth/token", h.IssueToken)

	assert.Equal(t, http.StatusForbidden, do(router, "POST", "/auth/token", "", `{"key":"anything"}`).Code)
}

package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/appser/appser-store/pkg/logger"
	"github.com/appser/appser-store/pkg/utils"
	"github.com/gin-gonic/gin"
)

const (
	DefaultTokenTTL = 24 * time.Hour
	claimsKey       = "claims"
)

type Handler struct {
	JWTSecret string
	AdminKey  string
	TokenTTL  time.Duration

	mu      sync.RWMutex
	revoked map[string]struct{}
}

func NewHandler(jwtSecret, adminKey string) *Handler {
	return &Handler{
		JWTSecret: jwtSecret,
		AdminKey:  adminKey,
		TokenTTL:  DefaultTokenTTL,
		revoked:   make(map[string]struct{}),
	}
}

type TokenRequest struct {
	Key string `json:"key" binding:"required"`
}

type TokenResponse struct {
	Token     string    `json:"token"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IssueToken exchanges the configured admin key for an admin token.
func (h *Handler) IssueToken(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if h.AdminKey == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Token issuing is disabled"})
		return
	}
	if subtle.ConstantTimeCompare([]byte(req.Key), []byte(h.AdminKey)) != 1 {
		logger.Warn("admin_token_rejected", "client_ip", c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid admin key"})
		return
	}

	token, err := utils.GenerateJWT("admin", utils.RoleAdmin, h.JWTSecret, h.TokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}
	logger.Info("admin_token_issued", "client_ip", c.ClientIP())
	c.JSON(http.StatusCreated, TokenResponse{
		Token:     token,
		Role:      utils.RoleAdmin,
		ExpiresAt: time.Now().Add(h.TokenTTL),
	})
}

// Logout revokes the presented token for the lifetime of this process.
func (h *Handler) Logout(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		return
	}
	h.mu.Lock()
	h.revoked[token] = struct{}{}
	h.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (h *Handler) isRevoked(token string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.revoked[token]
	return ok
}

// RequireRole accepts a valid, unrevoked bearer token carrying role.
func (h *Handler) RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			return
		}
		if h.isRevoked(token) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token has been revoked"})
			return
		}
		claims, err := utils.ValidateJWT(token, h.JWTSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		if claims.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

func (h *Handler) RequireAdmin() gin.HandlerFunc {
	return h.RequireRole(utils.RoleAdmin)
}

// ClaimsFrom returns the claims stored by RequireRole.
func ClaimsFrom(c *gin.Context) (*utils.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*utils.Claims)
	return claims, ok
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
		return "", false
	}
	return parts[1], true
}

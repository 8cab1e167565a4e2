package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rckrdmrd/glit-backend-sub002/apperr"
	"github.com/rckrdmrd/glit-backend-sub002/cache"
	"github.com/rckrdmrd/glit-backend-sub002/config"
)

const (
	UserIDKey   = "user_id"
	UserRoleKey = "user_role"
	TokenKey    = "token"
)

// SessionKey is the cache key that keeps a login token alive.
func SessionKey(token string) string {
	return "session:" + token
}

// Auth validates the Bearer JWT token and checks the session cache.
func Auth(sec config.SecurityConfig, c cache.Cache) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			abort(ctx, http.StatusUnauthorized, apperr.CodeUnauthorized, "missing token")
			return
		}
		tokenStr := strings.TrimPrefix(header, "Bearer ")

		claims, ok := CheckToken(ctx.Request.Context(), tokenStr, sec.JWTSecret, c)
		if !ok {
			abort(ctx, http.StatusUnauthorized, apperr.CodeUnauthorized, "invalid or expired session")
			return
		}

		ctx.Set(UserIDKey, claims.UserID)
		ctx.Set(UserRoleKey, claims.Role)
		ctx.Set(TokenKey, tokenStr)
		ctx.Next()
	}
}

// CheckToken parses the token and confirms its session is still live.
func CheckToken(ctx context.Context, tokenStr, secret string, c cache.Cache) (*Claims, bool) {
	claims, err := ParseToken(tokenStr, secret)
	if err != nil {
		return nil, false
	}
	cacheCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	exists, err := c.Exists(cacheCtx, SessionKey(tokenStr))
	if err != nil || !exists {
		return nil, false
	}
	return claims, true
}

// RequireRole rejects callers whose role is not one of roles. Must run after Auth.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		if !allowed[GetUserRole(c)] {
			abort(c, http.StatusForbidden, apperr.CodeForbidden, "insufficient role")
			return
		}
		c.Next()
	}
}

// GetUserID retrieves the authenticated user ID from the Gin context.
func GetUserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

// GetUserRole retrieves the authenticated user's role.
func GetUserRole(c *gin.Context) string {
	return c.GetString(UserRoleKey)
}

// GetToken retrieves the raw bearer token of the current request.
func GetToken(c *gin.Context) string {
	return c.GetString(TokenKey)
}

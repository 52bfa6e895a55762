package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"resumify/internal/auth"
)

const identityKey = "identity"

// TokenValidator 是 *auth.AuthService 校验令牌的部分。
type TokenValidator interface {
	ValidateToken(tokenString, wantType string) (*auth.TokenClaims, error)
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

// bearerToken 返回 Authorization 头中的令牌；没有该头时 present 为 false。
func bearerToken(c *gin.Context) (token string, present bool) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return "", false
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", true
	}
	return parts[1], true
}

// AuthMiddleware 要求有效的访问令牌，并把身份注入上下文。
func AuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, present := bearerToken(c)
		if !present || token == "" {
			abortUnauthorized(c)
			return
		}
		claims, err := validator.ValidateToken(token, auth.TokenTypeAccess)
		if err != nil {
			abortUnauthorized(c)
			return
		}
		c.Set(identityKey, claims.Identity())
		c.Next()
	}
}

// OptionalAuth 没有令牌时按访客放行；带了令牌却无效时返回 401，便于前端刷新令牌。
func OptionalAuth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, present := bearerToken(c)
		if !present {
			c.Next()
			return
		}
		if token == "" {
			abortUnauthorized(c)
			return
		}
		claims, err := validator.ValidateToken(token, auth.TokenTypeAccess)
		if err != nil {
			abortUnauthorized(c)
			return
		}
		c.Set(identityKey, claims.Identity())
		c.Next()
	}
}

// IdentityFromContext 返回当前请求的身份，访客为 nil。
func IdentityFromContext(c *gin.Context) *auth.Identity {
	if value, ok := c.Get(identityKey); ok {
		if id, ok := value.(*auth.Identity); ok {
			return id
		}
	}
	return nil
}

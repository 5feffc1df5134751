package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"DemoHub/pkg/token"

	"github.com/gin-gonic/gin"
)

const (
	ContextUserIDKey = "current_user_id"
	ContextJTIKey    = "current_jti"
	ContextExpKey    = "current_exp"
)

func AuthMiddleware(tm *token.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "missing authorization header"})
			return
		}
		parts := strings.Fields(auth)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "invalid authorization header"})
			return
		}

		claims, err := tm.Parse(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": authErrorMessage(err)})
			return
		}

		SetClaims(c, claims)
		c.Next()
	}
}

// SetClaims stores verified claims on the request context.
func SetClaims(c *gin.Context, claims token.Claims) {
	c.Set(ContextUserIDKey, claims.UserID)
	c.Set(ContextJTIKey, claims.JTI)
	c.Set(ContextExpKey, claims.ExpiresAt)
}

// CurrentUserID is 0 when the request was not authenticated.
func CurrentUserID(c *gin.Context) uint {
	v, _ := c.Get(ContextUserIDKey)
	uid, _ := v.(uint)
	return uid
}

// CurrentToken returns the jti and expiry of the request's token.
func CurrentToken(c *gin.Context) (string, time.Time) {
	jti := c.GetString(ContextJTIKey)
	exp, _ := c.Get(ContextExpKey)
	t, _ := exp.(time.Time)
	return jti, t
}

func authErrorMessage(err error) string {
	if errors.Is(err, token.ErrRevoked) {
		return "Token has been revoked (logout)"
	}
	return "invalid token"
}

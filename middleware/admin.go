package middleware

import (
	"net/http"

	"DemoHub/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RequireAdmin must run after AuthMiddleware.
func RequireAdmin(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var user models.User
		if err := db.Select("id", "is_admin").First(&user, CurrentUserID(c)).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "User not found"})
			return
		}
		if !user.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"msg": "admin only"})
			return
		}
		c.Next()
	}
}

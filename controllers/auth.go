package controllers

import (
	"errors"
	"net/http"
	"strings"

	"DemoHub/middleware"
	"DemoHub/models"
	"DemoHub/pkg/cache"
	"DemoHub/pkg/config"
	"DemoHub/pkg/token"
	utils "DemoHub/pkg/utills"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Register handler. A new account changes the admin user stats, so the
// cached stats are dropped.
func Register(db *gorm.DB, cfg *config.Config, store *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Email           string `json:"email"`
			Name            string `json:"name"`
			Password        string `json:"password"`
			ConfirmPassword string `json:"confirm_password"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid request"})
			return
		}

		email := utils.NormalizeEmail(body.Email)
		password := body.Password

		if email == "" || password == "" || body.ConfirmPassword == "" {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "Email, password, and confirm password are required"})
			return
		}
		if !utils.ValidEmail(email) {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "Invalid email"})
			return
		}
		if password != body.ConfirmPassword {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "Passwords do not match"})
			return
		}
		if !utils.StrongEnough(password) {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "Password must contain at least one letter and one number"})
			return
		}

		name := strings.TrimSpace(body.Name)
		if name == "" {
			name = utils.LocalPart(email)
		}
		user := models.User{
			Email:    email,
			Provider: models.ProviderEmail,
			IsAdmin:  cfg.IsAdminEmail(email),
		}
		user.SetName(name)
		if err := user.SetPassword(password); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to set password"})
			return
		}
		if err := db.Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				c.JSON(http.StatusConflict, gin.H{"msg": "Email already exists"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to create user"})
			return
		}
		store.DeletePrefix(statsKeyPrefix)

		c.JSON(http.StatusCreated, gin.H{"msg": "User created", "user": userJSON(user)})
	}
}

// Login handler
func Login(db *gorm.DB, tm *token.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid request"})
			return
		}
		email := utils.NormalizeEmail(body.Email)
		if email == "" || body.Password == "" {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "Email and password are required"})
			return
		}

		var user models.User
		if err := db.Where("email = ?", email).First(&user).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"msg": "Invalid credentials"})
			return
		}
		if !user.CheckPassword(body.Password) {
			c.JSON(http.StatusUnauthorized, gin.H{"msg": "Invalid credentials"})
			return
		}

		tokenStr, claims, err := tm.Issue(user.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to create token"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"access_token": tokenStr,
			"expires_at":   claims.ExpiresAt,
			"user":         userJSON(user),
		})
	}
}

// Logout revokes the presented token until it would have expired anyway.
func Logout(tm *token.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		jti, exp := middleware.CurrentToken(c)
		if jti != "" {
			tm.Revoke(jti, exp)
		}
		c.JSON(http.StatusOK, gin.H{"msg": "logged out"})
	}
}

// Me returns the signed-in user.
func Me(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var user models.User
		if err := db.First(&user, middleware.CurrentUserID(c)).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"msg": "User not found"})
			return
		}
		c.JSON(http.StatusOK, userJSON(user))
	}
}

package controllers

import (
	"errors"
	"net/http"

	"DemoHub/middleware"
	"DemoHub/models"
	"DemoHub/pkg/cache"
	svc "DemoHub/pkg/services"
	utils "DemoHub/pkg/utills"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Profile(db *gorm.DB, store *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		var user models.User
		if err := db.First(&user, middleware.CurrentUserID(c)).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"msg": "User not found"})
			return
		}

		if c.Request.Method == http.MethodGet {
			c.JSON(http.StatusOK, userJSON(user))
			return
		}

		// PUT
		var body struct {
			Email    string  `json:"email"`
			Name     *string `json:"name"`
			Password string  `json:"password"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid request"})
			return
		}

		if email := utils.NormalizeEmail(body.Email); email != "" && email != user.Email {
			if !utils.ValidEmail(email) {
				c.JSON(http.StatusBadRequest, gin.H{"msg": "Invalid email"})
				return
			}
			user.Email = email
		}
		if body.Name != nil {
			user.SetName(*body.Name)
		}
		if body.Password != "" {
			if !utils.StrongEnough(body.Password) {
				c.JSON(http.StatusBadRequest, gin.H{"msg": "New password must contain at least one letter and one number"})
				return
			}
			if err := user.SetPassword(body.Password); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to set password"})
				return
			}
		}
		if err := db.Save(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				c.JSON(http.StatusConflict, gin.H{"msg": "Email already exists"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to update profile"})
			return
		}
		store.DeletePrefix(statsKeyPrefix)

		c.JSON(http.StatusOK, gin.H{"msg": "Profile updated successfully", "user": userJSON(user)})
	}
}

// UploadAvatar stores the multipart "avatar" file and points the profile at it.
func UploadAvatar(db *gorm.DB, store *svc.AvatarStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var user models.User
		if err := db.First(&user, middleware.CurrentUserID(c)).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"msg": "User not found"})
			return
		}
		header, err := c.FormFile("avatar")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "avatar file is required"})
			return
		}
		file, err := header.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "cannot read upload"})
			return
		}
		defer file.Close()

		url, err := store.Save(user.ID, header.Filename, header.Size, file)
		if err != nil {
			if errors.Is(err, svc.ErrInvalidImageType) || errors.Is(err, svc.ErrImageTooLarge) {
				c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to save avatar"})
			return
		}
		old := user.AvatarURL
		if err := db.Model(&user).Update("avatar_url", url).Error; err != nil {
			_ = store.Delete(url)
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to update profile"})
			return
		}
		_ = store.Delete(old)
		c.JSON(http.StatusOK, gin.H{"avatar_url": url})
	}
}

package controllers

import (
	"errors"
	"net/http"
	"time"

	"DemoHub/middleware"
	"DemoHub/models"
	"DemoHub/pkg/cache"
	svc "DemoHub/pkg/services"
	utils "DemoHub/pkg/utills"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	statsKeyPrefix = "stats:"
	recentWindow   = 7 * 24 * time.Hour
)

type userStats struct {
	Total       int64 `json:"total"`
	WithName    int64 `json:"with_name"`
	WithoutName int64 `json:"without_name"`
	RecentCount int64 `json:"recent_count"`
}

func userError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"msg": "User not found"})
	case errors.Is(err, gorm.ErrDuplicatedKey):
		c.JSON(http.StatusConflict, gin.H{"msg": "Email already exists"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "db error"})
	}
}

func ListUsers(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var users []models.User
		if err := db.Order("created_at desc").Order("id desc").Find(&users).Error; err != nil {
			userError(c, err)
			return
		}
		out := make([]gin.H, 0, len(users))
		for _, u := range users {
			out = append(out, userJSON(u))
		}
		c.JSON(http.StatusOK, out)
	}
}

func GetUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := uintParam(c, "id")
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid id"})
			return
		}
		var user models.User
		if err := db.First(&user, id).Error; err != nil {
			userError(c, err)
			return
		}
		c.JSON(http.StatusOK, userJSON(user))
	}
}

// CreateUser adds an account without a password; it can only sign in after
// a password is set through the profile.
func CreateUser(db *gorm.DB, store *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Email string `json:"email"`
			Name  string `json:"name"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid request"})
			return
		}
		email := utils.NormalizeEmail(body.Email)
		if email == "" || !utils.ValidEmail(email) {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "A valid email is required"})
			return
		}
		user := models.User{Email: email, Provider: models.ProviderAdmin}
		user.SetName(body.Name)
		if err := db.Create(&user).Error; err != nil {
			userError(c, err)
			return
		}
		store.DeletePrefix(statsKeyPrefix)
		c.JSON(http.StatusCreated, userJSON(user))
	}
}

// UpdateUser applies email only when non-empty. A present name replaces the
// stored one and an empty name clears it.
func UpdateUser(db *gorm.DB, store *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := uintParam(c, "id")
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid id"})
			return
		}
		var body struct {
			Email string  `json:"email"`
			Name  *string `json:"name"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid request"})
			return
		}
		var user models.User
		if err := db.First(&user, id).Error; err != nil {
			userError(c, err)
			return
		}
		if email := utils.NormalizeEmail(body.Email); email != "" {
			if !utils.ValidEmail(email) {
				c.JSON(http.StatusBadRequest, gin.H{"msg": "Invalid email"})
				return
			}
			user.Email = email
		}
		if body.Name != nil {
			user.SetName(*body.Name)
		}
		if err := db.Save(&user).Error; err != nil {
			userError(c, err)
			return
		}
		store.DeletePrefix(statsKeyPrefix)
		c.JSON(http.StatusOK, userJSON(user))
	}
}

// DeleteUser removes the user with every chat and message they own.
func DeleteUser(db *gorm.DB, store *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := uintParam(c, "id")
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid id"})
			return
		}
		if id == middleware.CurrentUserID(c) {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "cannot delete yourself"})
			return
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			var user models.User
			if err := tx.First(&user, id).Error; err != nil {
				return err
			}
			chatIDs := tx.Model(&models.Chat{}).Select("id").Where("user_id = ?", id)
			if err := tx.Where("chat_id IN (?)", chatIDs).Delete(&models.Message{}).Error; err != nil {
				return err
			}
			if err := tx.Where("user_id = ?", id).Delete(&models.Chat{}).Error; err != nil {
				return err
			}
			return tx.Delete(&user).Error
		})
		if err != nil {
			userError(c, err)
			return
		}
		store.DeletePrefix(statsKeyPrefix)
		c.JSON(http.StatusOK, gin.H{"msg": "deleted"})
	}
}

func computeUserStats(db *gorm.DB, now time.Time) (userStats, error) {
	var s userStats
	if err := db.Model(&models.User{}).Count(&s.Total).Error; err != nil {
		return s, err
	}
	if err := db.Model(&models.User{}).Where("name IS NOT NULL AND name <> ''").Count(&s.WithName).Error; err != nil {
		return s, err
	}
	if err := db.Model(&models.User{}).Where("created_at >= ?", now.Add(-recentWindow)).Count(&s.RecentCount).Error; err != nil {
		return s, err
	}
	s.WithoutName = s.Total - s.WithName
	return s, nil
}

// UserStats is cached for ttl; user writes drop the cached value.
func UserStats(db *gorm.DB, store *cache.Cache, ttl time.Duration) gin.HandlerFunc {
	key := statsKeyPrefix + "users"
	return func(c *gin.Context) {
		if v, ok := store.Get(key); ok {
			if s, ok := v.(userStats); ok {
				c.JSON(http.StatusOK, s)
				return
			}
		}
		s, err := computeUserStats(db, time.Now().UTC())
		if err != nil {
			userError(c, err)
			return
		}
		store.Set(key, s, ttl)
		c.JSON(http.StatusOK, s)
	}
}

// ExportUsers downloads every user as an xlsx workbook.
func ExportUsers(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var users []models.User
		if err := db.Order("created_at desc").Order("id desc").Find(&users).Error; err != nil {
			userError(c, err)
			return
		}
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", `attachment; filename="users.xlsx"`)
		if err := svc.WriteUsersXLSX(c.Writer, users); err != nil {
			c.Status(http.StatusInternalServerError)
		}
	}
}

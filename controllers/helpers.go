package controllers

import (
	"strconv"

	"DemoHub/models"

	"github.com/gin-gonic/gin"
)

func userJSON(u models.User) gin.H {
	return gin.H{
		"id":         u.ID,
		"email":      u.Email,
		"name":       u.Name,
		"avatar_url": u.AvatarURL,
		"provider":   u.Provider,
		"is_admin":   u.IsAdmin,
		"created_at": u.CreatedAt,
		"updated_at": u.UpdatedAt,
	}
}

func chatJSON(ch models.Chat, withMessages bool) gin.H {
	out := gin.H{
		"id":         ch.ID,
		"title":      ch.Title,
		"model_id":   ch.ModelID,
		"created_at": ch.CreatedAt,
		"updated_at": ch.UpdatedAt,
	}
	if withMessages {
		msgs := make([]models.UIMessage, 0, len(ch.Messages))
		for _, m := range ch.Messages {
			msgs = append(msgs, m.ToUI())
		}
		out["messages"] = msgs
	}
	return out
}

func modelJSON(m models.ModelInfo) gin.H {
	return gin.H{
		"id":          m.ID,
		"name":        m.Name,
		"description": m.Description,
		"base_url":    m.BaseURL,
		"provider":    m.Provider,
		"builtin":     m.Builtin,
		"has_api_key": m.APIKey != "",
	}
}

// uintParam parses a positive numeric path parameter.
func uintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		return 0, false
	}
	return uint(v), true
}

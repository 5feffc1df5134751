package controllers

import (
	"errors"
	"net/http"
	"strings"

	"DemoHub/models"
	svc "DemoHub/pkg/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func modelError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, svc.ErrModelNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Model not found"})
	case errors.Is(err, svc.ErrBuiltinModel):
		c.JSON(http.StatusForbidden, gin.H{"msg": "builtin models cannot be deleted"})
	case errors.Is(err, gorm.ErrDuplicatedKey):
		c.JSON(http.StatusConflict, gin.H{"msg": "model id already exists"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "db error"})
	}
}

type modelBody struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	APIKey      string `json:"api_key"`
	BaseURL     string `json:"base_url"`
	Provider    string `json:"provider"`
}

func (b modelBody) toModel() models.ModelInfo {
	return models.ModelInfo{
		ID:          strings.TrimSpace(b.ID),
		Name:        strings.TrimSpace(b.Name),
		Description: strings.TrimSpace(b.Description),
		APIKey:      strings.TrimSpace(b.APIKey),
		BaseURL:     strings.TrimSpace(b.BaseURL),
		Provider:    strings.ToLower(strings.TrimSpace(b.Provider)),
	}
}

// ListModels never exposes keys, only whether one is stored.
func ListModels(reg *svc.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := reg.List(c.Request.Context())
		if err != nil {
			modelError(c, err)
			return
		}
		out := make([]gin.H, 0, len(list))
		for _, m := range list {
			out = append(out, modelJSON(m))
		}
		c.JSON(http.StatusOK, gin.H{"models": out, "default_model_id": reg.DefaultID()})
	}
}

func CreateModel(reg *svc.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body modelBody
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid request"})
			return
		}
		m := body.toModel()
		if m.Provider == "" {
			m.Provider = models.ProviderOpenAI
		}
		if !models.ValidProvider(m.Provider) {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "unknown provider"})
			return
		}
		if m.Name == "" || m.APIKey == "" || (m.BaseURL == "" && m.Provider == models.ProviderOpenAI) {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "name, base_url and api_key are required"})
			return
		}
		created, err := reg.Create(c.Request.Context(), m)
		if err != nil {
			modelError(c, err)
			return
		}
		c.JSON(http.StatusCreated, modelJSON(created))
	}
}

func UpdateModel(reg *svc.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body modelBody
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid request"})
			return
		}
		m := body.toModel()
		if m.Provider != "" && !models.ValidProvider(m.Provider) {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "unknown provider"})
			return
		}
		updated, err := reg.Update(c.Request.Context(), c.Param("id"), m)
		if err != nil {
			modelError(c, err)
			return
		}
		c.JSON(http.StatusOK, modelJSON(updated))
	}
}

func DeleteModel(reg *svc.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := reg.Delete(c.Request.Context(), c.Param("id")); err != nil {
			modelError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"msg": "deleted"})
	}
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"DemoHub/models"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"gorm.io/gorm"
)

// Registry is the persisted list of models the chat pages can pick from.
type Registry struct {
	db        *gorm.DB
	defaultID string
}

func NewRegistry(db *gorm.DB, defaultID string) *Registry {
	return &Registry{db: db, defaultID: defaultID}
}

func (r *Registry) DefaultID() string { return r.defaultID }

// BuiltinModels are the gateway endpoints every install starts with. A
// Gemini entry is added when a Gemini key is configured.
func BuiltinModels(baseURL, apiKey, geminiKey, geminiModel string) []models.ModelInfo {
	list := []models.ModelInfo{
		{ID: "ep-20251203173341-sztlm", Name: "Kimi-K2", Description: "Kimi-K2"},
		{ID: "ep-20251124145531-b7dkr", Name: "Doubao-Seed-1.6(深度思考)", Description: "豆包大模型"},
		{ID: "ep-20251120155412-jmc8q", Name: "Doubao-lite-32k", Description: "豆包大模型"},
	}
	for i := range list {
		list[i].BaseURL = baseURL
		list[i].APIKey = apiKey
		list[i].Provider = models.ProviderOpenAI
		list[i].Builtin = true
	}
	if strings.TrimSpace(geminiKey) != "" && strings.TrimSpace(geminiModel) != "" {
		list = append(list, models.ModelInfo{
			ID:          geminiModel,
			Name:        "Gemini",
			Description: "Google Gemini",
			APIKey:      geminiKey,
			Provider:    models.ProviderGemini,
			Builtin:     true,
		})
	}
	return list
}

// Seed upserts builtin models so key or URL changes in config take effect.
func (r *Registry) Seed(ctx context.Context, list []models.ModelInfo) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range list {
			var existing models.ModelInfo
			err := tx.First(&existing, "id = ?", m.ID).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				if err := tx.Create(&m).Error; err != nil {
					return fmt.Errorf("seed model %s: %w", m.ID, err)
				}
			case err != nil:
				return fmt.Errorf("load model %s: %w", m.ID, err)
			default:
				existing.APIKey = m.APIKey
				existing.BaseURL = m.BaseURL
				existing.Provider = m.Provider
				existing.Builtin = true
				if err := tx.Save(&existing).Error; err != nil {
					return fmt.Errorf("update model %s: %w", m.ID, err)
				}
			}
		}
		return nil
	})
}

// List returns builtin models first, then custom ones by creation time.
func (r *Registry) List(ctx context.Context) ([]models.ModelInfo, error) {
	var list []models.ModelInfo
	err := r.db.WithContext(ctx).Order("builtin desc").Order("created_at asc").Order("id asc").Find(&list).Error
	return list, err
}

// Get resolves id, falling back to the default model when id is empty.
func (r *Registry) Get(ctx context.Context, id string) (models.ModelInfo, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		id = r.defaultID
	}
	var m models.ModelInfo
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ModelInfo{}, ErrModelNotFound
		}
		return models.ModelInfo{}, err
	}
	return m, nil
}

func (r *Registry) FindByName(ctx context.Context, name string) (models.ModelInfo, error) {
	var m models.ModelInfo
	if err := r.db.WithContext(ctx).Where("name = ?", name).Order("builtin desc").First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ModelInfo{}, ErrModelNotFound
		}
		return models.ModelInfo{}, err
	}
	return m, nil
}

// Create stores a custom model. An empty id gets a generated one.
func (r *Registry) Create(ctx context.Context, m models.ModelInfo) (models.ModelInfo, error) {
	if strings.TrimSpace(m.ID) == "" {
		id, err := gonanoid.New(12)
		if err != nil {
			return models.ModelInfo{}, err
		}
		m.ID = "custom-" + id
	}
	if m.Provider == "" {
		m.Provider = models.ProviderOpenAI
	}
	m.Builtin = false
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return models.ModelInfo{}, err
	}
	return m, nil
}

// Update replaces the editable fields. An empty APIKey keeps the stored one.
func (r *Registry) Update(ctx context.Context, id string, in models.ModelInfo) (models.ModelInfo, error) {
	m, err := r.Get(ctx, id)
	if err != nil {
		return models.ModelInfo{}, err
	}
	if in.Name != "" {
		m.Name = in.Name
	}
	m.Description = in.Description
	if in.BaseURL != "" {
		m.BaseURL = in.BaseURL
	}
	if in.APIKey != "" {
		m.APIKey = in.APIKey
	}
	if in.Provider != "" {
		m.Provider = in.Provider
	}
	if err := r.db.WithContext(ctx).Save(&m).Error; err != nil {
		return models.ModelInfo{}, err
	}
	return m, nil
}

func (r *Registry) Delete(ctx context.Context, id string) error {
	m, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if m.Builtin || strings.HasPrefix(m.ID, "ep-") {
		return ErrBuiltinModel
	}
	return r.db.WithContext(ctx).Delete(&models.ModelInfo{}, "id = ?", m.ID).Error
}

package models

import "time"

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// ModelInfo is one entry of the model registry. Builtin entries are seeded
// from configuration at startup and cannot be deleted.
type ModelInfo struct {
	ID          string `gorm:"primaryKey;size:120"`
	Name        string `gorm:"size:120;not null;index"`
	Description string `gorm:"size:500"`
	APIKey      string `gorm:"size:500"`
	BaseURL     string `gorm:"size:500"`
	Provider    string `gorm:"size:20;not null"`
	Builtin     bool   `gorm:"not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func ValidProvider(p string) bool {
	return p == ProviderOpenAI || p == ProviderGemini
}

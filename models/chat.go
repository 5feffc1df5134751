package models

import (
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// DefaultChatTitle is shown until a title is generated or set by the user.
const DefaultChatTitle = "新对话"

const chatIDLength = 10

type Chat struct {
	ID        string    `gorm:"primaryKey;size:64"`
	UserID    uint      `gorm:"not null;index"`
	Title     string    `gorm:"size:200;not null"`
	ModelID   string    `gorm:"size:120"`
	CreatedAt time.Time
	UpdatedAt time.Time `gorm:"index"`
	Messages  []Message `gorm:"constraint:OnDelete:CASCADE"`
}

func NewChatID() (string, error) {
	return gonanoid.New(chatIDLength)
}

package models

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	ProviderEmail = "email"
	ProviderAdmin = "admin"
)

// User rows are hard-deleted so a freed email can be registered again.
type User struct {
	ID           uint      `gorm:"primaryKey"`
	Email        string    `gorm:"uniqueIndex;size:120;not null"`
	Name         *string   `gorm:"size:80"`
	PasswordHash string    `gorm:"size:255"`
	AvatarURL    string    `gorm:"size:500"`
	Provider     string    `gorm:"size:20;not null"`
	IsAdmin      bool      `gorm:"not null"`
	CreatedAt    time.Time `gorm:"index"`
	UpdatedAt    time.Time
	Chats        []Chat `gorm:"constraint:OnDelete:CASCADE"`
}

func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword is always false for accounts created without a password.
func (u *User) CheckPassword(password string) bool {
	if u.PasswordHash == "" {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// SetName stores a trimmed name, or NULL when it is blank.
func (u *User) SetName(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		u.Name = nil
		return
	}
	u.Name = &name
}

func (u *User) DisplayName() string {
	if u.Name != nil {
		return *u.Name
	}
	return ""
}

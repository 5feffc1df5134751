package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is one persisted turn. Seq keeps the transcript order stable even
// when several rows share a timestamp.
type Message struct {
	ID        string `gorm:"primaryKey;size:64"`
	ChatID    string `gorm:"size:64;not null;index"`
	Seq       int    `gorm:"not null;default:0"`
	Role      string `gorm:"size:20;not null"`
	Content   string `gorm:"type:text;not null"`
	Parts     string `gorm:"type:text"` // raw JSON of the client parts
	CreatedAt time.Time
}

// UIPart is the subset of a client message part the server inspects.
type UIPart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// UIMessage mirrors the chat client's message shape. Parts are kept as raw
// JSON so file or tool parts round-trip untouched.
type UIMessage struct {
	ID        string          `json:"id"`
	Role      string          `json:"role"`
	Content   string          `json:"content,omitempty"`
	Parts     json.RawMessage `json:"parts,omitempty"`
	CreatedAt *time.Time      `json:"created_at,omitempty"`
}

// TextContent joins the text parts. Without parts it falls back to Content.
func (m UIMessage) TextContent() string {
	if len(m.Parts) == 0 || string(m.Parts) == "null" {
		return m.Content
	}
	var parts []UIPart
	if err := json.Unmarshal(m.Parts, &parts); err != nil {
		return m.Content
	}
	var b strings.Builder
	for _, p := range parts {
		if p.Type == "text" {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// NormalizedRole maps unknown roles to user.
func NormalizedRole(role string) string {
	switch r := strings.ToLower(strings.TrimSpace(role)); r {
	case RoleAssistant, RoleSystem:
		return r
	default:
		return RoleUser
	}
}

// MessageFromUI builds a row for chatID. A missing id gets a fresh uuid.
func MessageFromUI(chatID string, seq int, m UIMessage) Message {
	id := strings.TrimSpace(m.ID)
	if id == "" {
		id = uuid.NewString()
	}
	var parts string
	if len(m.Parts) > 0 && string(m.Parts) != "null" {
		parts = string(m.Parts)
	}
	return Message{
		ID:      id,
		ChatID:  chatID,
		Seq:     seq,
		Role:    NormalizedRole(m.Role),
		Content: m.TextContent(),
		Parts:   parts,
	}
}

// TextMessage builds a UI message holding a single text part.
func TextMessage(id, role, text string) UIMessage {
	parts, _ := json.Marshal([]UIPart{{Type: "text", Text: text}})
	return UIMessage{ID: id, Role: role, Content: text, Parts: parts}
}

// ToUI converts a row back to the client shape.
func (m Message) ToUI() UIMessage {
	ui := UIMessage{ID: m.ID, Role: m.Role, Content: m.Content}
	if m.Parts != "" {
		ui.Parts = json.RawMessage(m.Parts)
	}
	created := m.CreatedAt
	ui.CreatedAt = &created
	return ui
}

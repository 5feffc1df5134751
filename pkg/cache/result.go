package cache

import (
	"strings"
	"time"
)

// Status describes how a generated text ended.
type Status int

const (
	StatusCompleted Status = iota
	StatusCanceled
	StatusFailed
)

type result struct {
	Text   string
	Status Status
}

// SetResult caches generated text only when it completed with content.
// Canceled, failed and blank results are dropped so a retry hits the model.
func (c *Cache) SetResult(key, text string, status Status, ttl time.Duration) {
	if status != StatusCompleted || strings.TrimSpace(text) == "" {
		return
	}
	c.Set(key, result{Text: text, Status: status}, ttl)
}

// GetResult returns cached text stored by SetResult. Plain strings stored
// with Set are accepted too.
func (c *Cache) GetResult(key string) (string, bool) {
	v, ok := c.Get(key)
	if !ok {
		return "", false
	}
	switch r := v.(type) {
	case result:
		return r.Text, r.Text != ""
	case string:
		return r, strings.TrimSpace(r) != ""
	default:
		return "", false
	}
}

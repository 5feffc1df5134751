package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"DemoHub/models"

	"github.com/openai/openai-go"
	"google.golang.org/api/googleapi"
)

var (
	ErrModelNotFound = errors.New("model not found")
	ErrBuiltinModel  = errors.New("builtin models cannot be deleted")
	ErrLLMDisabled   = errors.New("llm is disabled via config")
	ErrEmptyReply    = errors.New("model returned an empty reply")
)

// ChatMessage is one conversation turn handed to a provider.
type ChatMessage struct {
	Role string
	Text string
}

// CompletionRequest describes one model call.
type CompletionRequest struct {
	Model    models.ModelInfo
	System   string
	Messages []ChatMessage
	// MaxTokens and Temperature use the provider default when zero.
	MaxTokens   int
	Temperature float64
}

// Provider talks to one family of model endpoints.
type Provider interface {
	Generate(ctx context.Context, req CompletionRequest) (string, error)
	// Stream calls onDelta for every text chunk and returns the full text.
	Stream(ctx context.Context, req CompletionRequest, onDelta func(string)) (string, error)
}

// HistoryFromUI turns client messages into provider turns, skipping empty ones.
func HistoryFromUI(msgs []models.UIMessage) []ChatMessage {
	out := make([]ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		text := m.TextContent()
		if strings.TrimSpace(text) == "" {
			continue
		}
		out = append(out, ChatMessage{Role: models.NormalizedRole(m.Role), Text: text})
	}
	return out
}

// HistoryFromRows does the same for persisted messages.
func HistoryFromRows(rows []models.Message) []ChatMessage {
	out := make([]ChatMessage, 0, len(rows))
	for _, m := range rows {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		out = append(out, ChatMessage{Role: models.NormalizedRole(m.Role), Text: m.Content})
	}
	return out
}

func isRetriable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var oerr *openai.Error
	if errors.As(err, &oerr) {
		return oerr.StatusCode == http.StatusTooManyRequests || oerr.StatusCode >= 500
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusTooManyRequests || gerr.Code >= 500
	}
	e := strings.ToLower(err.Error())
	for _, s := range []string{"status 503", "status 429", "unavailable", "resource_exhausted", "quota", "overloaded"} {
		if strings.Contains(e, s) {
			return true
		}
	}
	return false
}

func sleepWithContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

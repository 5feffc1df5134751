package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"DemoHub/pkg/cache"
	utils "DemoHub/pkg/utills"
)

const (
	titleMaxRunes  = 20
	titleMaxTokens = 32
	titleTemp      = 0.3
)

// TitleService names a chat after its first question using a small model.
type TitleService struct {
	gw        *Gateway
	modelName string
	cache     *cache.Cache
	ttl       time.Duration
	log       *slog.Logger
}

func NewTitleService(gw *Gateway, modelName string, c *cache.Cache, ttl time.Duration, log *slog.Logger) *TitleService {
	return &TitleService{
		gw:        gw,
		modelName: modelName,
		cache:     c,
		ttl:       ttl,
		log:       log.With(slog.String("component", "title")),
	}
}

// Generate never fails: without a usable title model it returns text itself,
// shortened when the gateway is disabled.
func (s *TitleService) Generate(ctx context.Context, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return text
	}
	if !s.gw.Enabled() {
		return cleanTitle(text)
	}
	key := "title:" + cache.KeyFromStrings(s.modelName, text)
	if t, ok := s.cache.GetResult(key); ok {
		return t
	}

	model, err := s.gw.Registry().FindByName(ctx, s.modelName)
	if err != nil {
		return text
	}
	out, err := s.gw.Generate(ctx, CompletionRequest{
		Model:       model,
		Messages:    []ChatMessage{{Role: "user", Text: titlePrompt(text)}},
		MaxTokens:   titleMaxTokens,
		Temperature: titleTemp,
	})
	if err != nil {
		s.log.Warn("title generation failed", slog.Any("err", err))
		return text
	}
	title := cleanTitle(out)
	if title == "" {
		return text
	}
	s.cache.SetResult(key, title, cache.StatusCompleted, s.ttl)
	return title
}

func titlePrompt(text string) string {
	return fmt.Sprintf("你是一个标题生成器。请根据用户的提问，生成一个简洁、不超过20个字的中文聊天标题。只输出标题，不要任何其他内容。用户的提问是：%s", text)
}

// cleanTitle strips quotes and extra lines models like to add.
func cleanTitle(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = strings.Trim(s, " \t\"'“”《》「」")
	return utils.TruncateRunes(strings.TrimSpace(s), titleMaxRunes)
}

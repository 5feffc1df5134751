package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"DemoHub/models"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GeminiProvider calls Google's Gemini API through the genai SDK.
type GeminiProvider struct{}

func NewGeminiProvider() *GeminiProvider {
	return &GeminiProvider{}
}

// session opens a client and a chat session whose history is every turn but
// the last. The caller must close the returned client.
func (p *GeminiProvider) session(ctx context.Context, req CompletionRequest) (*genai.Client, *genai.ChatSession, string, error) {
	if len(req.Messages) == 0 {
		return nil, nil, "", errors.New("gemini: no messages")
	}
	opts := []option.ClientOption{option.WithAPIKey(req.Model.APIKey)}
	if base := strings.TrimSpace(req.Model.BaseURL); base != "" {
		opts = append(opts, option.WithEndpoint(base))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, nil, "", fmt.Errorf("create gemini client: %w", err)
	}

	gm := client.GenerativeModel(req.Model.ID)
	if req.Temperature > 0 {
		gm.SetTemperature(float32(req.Temperature))
	}
	if req.MaxTokens > 0 {
		gm.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	system, history, last := geminiHistory(req)
	if system != "" {
		gm.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}
	cs := gm.StartChat()
	cs.History = history
	return client, cs, last, nil
}

// geminiHistory folds system turns into the instruction and maps assistant
// turns to the "model" role.
func geminiHistory(req CompletionRequest) (string, []*genai.Content, string) {
	var system []string
	if s := strings.TrimSpace(req.System); s != "" {
		system = append(system, s)
	}
	var turns []ChatMessage
	for _, m := range req.Messages {
		if m.Role == models.RoleSystem {
			system = append(system, m.Text)
			continue
		}
		turns = append(turns, m)
	}
	if len(turns) == 0 {
		return strings.Join(system, "\n\n"), nil, ""
	}
	history := make([]*genai.Content, 0, len(turns)-1)
	for _, m := range turns[:len(turns)-1] {
		role := "user"
		if m.Role == models.RoleAssistant {
			role = "model"
		}
		history = append(history, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(m.Text)}})
	}
	return strings.Join(system, "\n\n"), history, turns[len(turns)-1].Text
}

func (p *GeminiProvider) Generate(ctx context.Context, req CompletionRequest) (string, error) {
	client, cs, last, err := p.session(ctx, req)
	if err != nil {
		return "", err
	}
	defer client.Close()

	resp, err := cs.SendMessage(ctx, genai.Text(last))
	if err != nil {
		return "", fmt.Errorf("gemini generate %s: %w", req.Model.ID, err)
	}
	return responseText(resp), nil
}

func (p *GeminiProvider) Stream(ctx context.Context, req CompletionRequest, onDelta func(string)) (string, error) {
	client, cs, last, err := p.session(ctx, req)
	if err != nil {
		return "", err
	}
	defer client.Close()

	var full strings.Builder
	iter := cs.SendMessageStream(ctx, genai.Text(last))
	for {
		resp, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return full.String(), fmt.Errorf("gemini stream %s: %w", req.Model.ID, err)
		}
		if txt := responseText(resp); txt != "" {
			full.WriteString(txt)
			if onDelta != nil {
				onDelta(txt)
			}
		}
	}
	return full.String(), nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
	}
	return b.String()
}

package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"DemoHub/models"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIProvider calls any OpenAI-compatible chat completions endpoint. The
// model's BaseURL and APIKey pick the gateway, its ID is sent as the model.
type OpenAIProvider struct {
	HTTPClient *http.Client
}

func NewOpenAIProvider() *OpenAIProvider {
	return &OpenAIProvider{}
}

func (p *OpenAIProvider) client(m models.ModelInfo) openai.Client {
	opts := []option.RequestOption{
		option.WithAPIKey(m.APIKey),
		// the gateway retries at its own level
		option.WithMaxRetries(0),
	}
	if base := strings.TrimSpace(m.BaseURL); base != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(base, "/")+"/"))
	}
	if p.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(p.HTTPClient))
	}
	return openai.NewClient(opts...)
}

func (p *OpenAIProvider) params(req CompletionRequest) openai.ChatCompletionNewParams {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if strings.TrimSpace(req.System) != "" {
		msgs = append(msgs, openai.SystemMessage(req.System))
	}
	for _, m := range req.Messages {
		switch m.Role {
		case models.RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(m.Text))
		case models.RoleSystem:
			msgs = append(msgs, openai.SystemMessage(m.Text))
		default:
			msgs = append(msgs, openai.UserMessage(m.Text))
		}
	}
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(req.Model.ID),
		Messages: msgs,
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	return params
}

func (p *OpenAIProvider) Generate(ctx context.Context, req CompletionRequest) (string, error) {
	client := p.client(req.Model)
	resp, err := client.Chat.Completions.New(ctx, p.params(req))
	if err != nil {
		return "", fmt.Errorf("openai generate %s: %w", req.Model.ID, err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyReply
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *OpenAIProvider) Stream(ctx context.Context, req CompletionRequest, onDelta func(string)) (string, error) {
	client := p.client(req.Model)
	stream := client.Chat.Completions.NewStreaming(ctx, p.params(req))
	defer stream.Close()

	var full strings.Builder
	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		full.WriteString(delta)
		if onDelta != nil {
			onDelta(delta)
		}
	}
	if err := stream.Err(); err != nil {
		return full.String(), fmt.Errorf("openai stream %s: %w", req.Model.ID, err)
	}
	return full.String(), nil
}

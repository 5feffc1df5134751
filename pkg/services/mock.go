package services

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// LocalProvider answers without any network call. It backs the gateway when
// LLM_ENABLED is off so the chat pages stay usable in development.
type LocalProvider struct {
	ChunkDelay time.Duration
}

func NewLocalProvider() *LocalProvider {
	return &LocalProvider{ChunkDelay: 40 * time.Millisecond}
}

func (p *LocalProvider) Generate(ctx context.Context, req CompletionRequest) (string, error) {
	var last string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			last = strings.TrimSpace(req.Messages[i].Text)
			break
		}
	}
	if last == "" {
		last = "your question"
	}
	b := &strings.Builder{}
	fmt.Fprintf(b, "Local reply for: %s\n\n", truncate(last, 80))
	fmt.Fprintln(b, "The model gateway is disabled on this server, so this answer is canned.")
	fmt.Fprintf(b, "- Model: %s\n", req.Model.Name)
	fmt.Fprintf(b, "- Turns in context: %d\n", len(req.Messages))
	fmt.Fprintln(b, "\nSet LLM_ENABLED=true and AI_GATEWAY_API_KEY to talk to a real model.")
	return b.String(), nil
}

func (p *LocalProvider) Stream(ctx context.Context, req CompletionRequest, onDelta func(string)) (string, error) {
	full, _ := p.Generate(ctx, req)
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	var sent strings.Builder
	runes := []rune(full)
	i := 0
	for i < len(runes) {
		if ctx.Err() != nil {
			return sent.String(), ctx.Err()
		}
		step := 16 + r.Intn(32)
		if i+step > len(runes) {
			step = len(runes) - i
		}
		part := string(runes[i : i+step])
		sent.WriteString(part)
		if onDelta != nil {
			onDelta(part)
		}
		i += step
		if p.ChunkDelay > 0 {
			sleepWithContext(ctx, p.ChunkDelay)
		}
	}
	return sent.String(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

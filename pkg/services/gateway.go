package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"DemoHub/models"
)

// Gateway resolves a model from the registry and forwards the call to the
// provider for its kind. Retriable upstream errors get one more attempt.
type Gateway struct {
	registry   *Registry
	providers  map[string]Provider
	local      Provider
	enabled    bool
	log        *slog.Logger
	retryDelay time.Duration
}

func NewGateway(reg *Registry, enabled bool, log *slog.Logger) *Gateway {
	return &Gateway{
		registry: reg,
		providers: map[string]Provider{
			models.ProviderOpenAI: NewOpenAIProvider(),
			models.ProviderGemini: NewGeminiProvider(),
		},
		local:      NewLocalProvider(),
		enabled:    enabled,
		log:        log.With(slog.String("component", "gateway")),
		retryDelay: 2 * time.Second,
	}
}

// WithProvider swaps the provider for kind.
func (g *Gateway) WithProvider(kind string, p Provider) *Gateway {
	g.providers[kind] = p
	return g
}

// WithLocal swaps the provider used while the gateway is disabled.
func (g *Gateway) WithLocal(p Provider) *Gateway {
	g.local = p
	return g
}

func (g *Gateway) WithRetryDelay(d time.Duration) *Gateway {
	g.retryDelay = d
	return g
}

func (g *Gateway) Registry() *Registry { return g.registry }

// Enabled is false when replies come from the local provider.
func (g *Gateway) Enabled() bool { return g.enabled }

// Resolve returns the model for id, or the default model for an empty id.
func (g *Gateway) Resolve(ctx context.Context, id string) (models.ModelInfo, error) {
	return g.registry.Get(ctx, id)
}

func (g *Gateway) provider(m models.ModelInfo) (Provider, error) {
	if !g.enabled {
		return g.local, nil
	}
	kind := m.Provider
	if kind == "" {
		kind = models.ProviderOpenAI
	}
	p, ok := g.providers[kind]
	if !ok {
		return nil, fmt.Errorf("no provider for %q", kind)
	}
	return p, nil
}

// Generate returns the whole reply in one piece.
func (g *Gateway) Generate(ctx context.Context, req CompletionRequest) (string, error) {
	if len(req.Messages) == 0 {
		return "", fmt.Errorf("generate: no messages")
	}
	p, err := g.provider(req.Model)
	if err != nil {
		return "", err
	}
	text, err := p.Generate(ctx, req)
	if err != nil && isRetriable(err) {
		g.log.Warn("retrying generate", slog.String("model", req.Model.ID), slog.Any("err", err))
		sleepWithContext(ctx, g.retryDelay)
		text, err = p.Generate(ctx, req)
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyReply
	}
	return text, nil
}

// Stream forwards chunks to onDelta. A retry only happens when nothing was
// forwarded yet, so the client never sees a chunk twice.
func (g *Gateway) Stream(ctx context.Context, req CompletionRequest, onDelta func(string)) (string, error) {
	if len(req.Messages) == 0 {
		return "", fmt.Errorf("stream: no messages")
	}
	p, err := g.provider(req.Model)
	if err != nil {
		return "", err
	}
	sent := false
	forward := func(s string) {
		sent = true
		if onDelta != nil {
			onDelta(s)
		}
	}

	start := time.Now()
	text, err := p.Stream(ctx, req, forward)
	if err != nil && !sent && isRetriable(err) {
		g.log.Warn("retrying stream", slog.String("model", req.Model.ID), slog.Any("err", err))
		sleepWithContext(ctx, g.retryDelay)
		text, err = p.Stream(ctx, req, forward)
	}
	if err != nil {
		g.log.Error("stream failed", slog.String("model", req.Model.ID), slog.Any("err", err))
		return text, err
	}
	g.log.Info("stream done",
		slog.String("model", req.Model.ID),
		slog.Int("chars", len(text)),
		slog.Duration("took", time.Since(start)))
	return text, nil
}

package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"google.golang.org/genai"

	"travelrag/internal/domain"
)

// Gemini completes prompts with the Gemini GenerateContent API.
type Gemini struct {
	client   *genai.Client
	settings Settings
	logger   arbor.ILogger
}

// NewGemini creates a Gemini completer.
func NewGemini(ctx context.Context, s Settings, logger arbor.ILogger) (*Gemini, error) {
	if s.APIKey == "" {
		return nil, errors.New("gemini llm: missing API key")
	}
	if s.Model == "" {
		s.Model = "gemini-2.5-flash"
	}
	cc := &genai.ClientConfig{
		APIKey:  s.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if s.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: s.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}
	return &Gemini{client: client, settings: s, logger: logger}, nil
}

func (g *Gemini) Name() string { return "gemini:" + g.settings.Model }

// Complete sends prompt as a single user turn.
func (g *Gemini) Complete(ctx context.Context, prompt string) (domain.Completion, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(g.settings.Temperature)),
	}
	if g.settings.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(g.settings.MaxTokens)
	}

	ctx, cancel := context.WithTimeout(ctx, g.settings.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.settings.Model, genai.Text(prompt), cfg)
	if err != nil {
		g.logger.Error().Err(err).Str("model", g.settings.Model).Msg("Gemini completion failed")
		return domain.Completion{}, fmt.Errorf("gemini generate: %w", err)
	}
	text := resp.Text()
	g.logger.Debug().
		Str("model", g.settings.Model).
		Int("response_length", len(text)).
		Dur("duration", time.Since(start)).
		Msg("Gemini completion finished")
	return domain.Completion{Text: text, Raw: resp}, nil
}

// Package llm provides single-shot completers over the supported model APIs.
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"travelrag/internal/config"
	"travelrag/internal/domain"
)

// Settings are the provider-independent knobs of a completer.
type Settings struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

func settingsFrom(cfg config.LLMConfig) Settings {
	s := Settings{
		APIKey:      config.Secret(cfg.APIKeyEnv),
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     time.Duration(cfg.TimeoutSecs) * time.Second,
	}
	if s.Timeout <= 0 {
		s.Timeout = 2 * time.Minute
	}
	return s
}

// New builds the completer named by cfg.Type.
func New(ctx context.Context, cfg config.LLMConfig, logger arbor.ILogger) (domain.Completer, error) {
	s := settingsFrom(cfg)
	var (
		c   domain.Completer
		err error
	)
	switch cfg.Type {
	case "openai", "":
		c, err = NewOpenAI(s, logger)
	case "claude":
		c, err = NewClaude(s, logger)
	case "gemini":
		c, err = NewGemini(ctx, s, logger)
	default:
		return nil, fmt.Errorf("unknown llm: %s", cfg.Type)
	}
	if err != nil {
		return nil, err
	}
	logger.Debug().
		Str("llm", c.Name()).
		Float64("temperature", s.Temperature).
		Int("max_tokens", s.MaxTokens).
		Msg("Completer initialized")
	return c, nil
}

// Text runs prompt and returns the completion text, falling back to the
// string form of the raw response when the provider returned no text.
func Text(ctx context.Context, c domain.Completer, prompt string) (string, error) {
	out, err := c.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	if out.Text != "" {
		return out.Text, nil
	}
	return fmt.Sprint(out.Raw), nil
}

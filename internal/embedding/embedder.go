// Package embedding selects the configured text embedder.
package embedding

import (
	"context"
	"fmt"
	"time"

	"travelrag/internal/config"
	"travelrag/internal/domain"
	"travelrag/internal/embedding/gemini"
	"travelrag/internal/embedding/hashing"
	"travelrag/internal/embedding/openai"
)

// New builds the embedder named by cfg.Type.
func New(ctx context.Context, cfg config.EmbedderConfig) (domain.Embedder, error) {
	switch cfg.Type {
	case "hashing", "":
		return hashing.NewEmbedder(cfg.Dimension), nil
	case "openai":
		client, err := openai.NewClient(openai.Config{
			BaseURL:   cfg.BaseURL,
			APIKey:    config.Secret(cfg.APIKeyEnv),
			Model:     cfg.Model,
			Dimension: cfg.Dimension,
			Timeout:   time.Duration(cfg.TimeoutSecs) * time.Second,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	case "gemini":
		client, err := gemini.NewClient(ctx, gemini.Config{
			BaseURL:   cfg.BaseURL,
			APIKey:    config.Secret(cfg.APIKeyEnv),
			Model:     cfg.Model,
			Dimension: cfg.Dimension,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Type)
	}
}

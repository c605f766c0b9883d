package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"

	"travelrag/internal/domain"
)

// Claude completes prompts with the Anthropic Messages API.
type Claude struct {
	client   anthropic.Client
	settings Settings
	logger   arbor.ILogger
}

// NewClaude creates an Anthropic completer.
func NewClaude(s Settings, logger arbor.ILogger) (*Claude, error) {
	if s.APIKey == "" {
		return nil, errors.New("claude llm: missing API key")
	}
	if s.Model == "" {
		s.Model = "claude-sonnet-4-20250514"
	}
	if s.MaxTokens <= 0 {
		s.MaxTokens = 2048
	}
	opts := []option.RequestOption{
		option.WithAPIKey(s.APIKey),
		option.WithHTTPClient(&http.Client{Timeout: s.Timeout}),
		option.WithMaxRetries(0),
	}
	if s.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(s.BaseURL))
	}
	return &Claude{client: anthropic.NewClient(opts...), settings: s, logger: logger}, nil
}

func (c *Claude) Name() string { return "claude:" + c.settings.Model }

// Complete sends prompt as a single user message and joins the text blocks of the reply.
func (c *Claude) Complete(ctx context.Context, prompt string) (domain.Completion, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.settings.Model),
		MaxTokens: int64(c.settings.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if c.settings.Temperature > 0 {
		params.Temperature = anthropic.Float(c.settings.Temperature)
	}

	start := time.Now()
	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		c.logger.Error().Err(err).Str("model", c.settings.Model).Msg("Claude completion failed")
		return domain.Completion{}, fmt.Errorf("claude messages: %w", err)
	}
	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	c.logger.Debug().
		Str("model", c.settings.Model).
		Int("response_length", text.Len()).
		Dur("duration", time.Since(start)).
		Msg("Claude completion finished")
	return domain.Completion{Text: text.String(), Raw: resp.RawJSON()}, nil
}

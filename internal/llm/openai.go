package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/ternarybob/arbor"

	"travelrag/internal/domain"
)

// OpenAI completes prompts with the Chat Completions API.
type OpenAI struct {
	client   openai.Client
	settings Settings
	logger   arbor.ILogger
}

// NewOpenAI creates an OpenAI chat completer.
func NewOpenAI(s Settings, logger arbor.ILogger) (*OpenAI, error) {
	if s.APIKey == "" {
		return nil, errors.New("openai llm: missing API key")
	}
	if s.Model == "" {
		s.Model = "gpt-4"
	}
	opts := []option.RequestOption{
		option.WithAPIKey(s.APIKey),
		option.WithHTTPClient(&http.Client{Timeout: s.Timeout}),
		option.WithMaxRetries(0),
	}
	if s.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(s.BaseURL))
	}
	return &OpenAI{client: openai.NewClient(opts...), settings: s, logger: logger}, nil
}

func (o *OpenAI) Name() string { return "openai:" + o.settings.Model }

// Complete sends prompt as a single user message.
func (o *OpenAI) Complete(ctx context.Context, prompt string) (domain.Completion, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.settings.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(o.settings.Temperature),
	}
	if o.settings.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(o.settings.MaxTokens))
	}

	start := time.Now()
	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		o.logger.Error().Err(err).Str("model", o.settings.Model).Msg("OpenAI completion failed")
		return domain.Completion{}, fmt.Errorf("openai chat: %w", err)
	}
	text := ""
	if len(resp.Choices) > 0 {
		text = resp.Choices[0].Message.Content
	}
	o.logger.Debug().
		Str("model", o.settings.Model).
		Int("response_length", len(text)).
		Dur("duration", time.Since(start)).
		Msg("OpenAI completion finished")
	return domain.Completion{Text: text, Raw: resp.RawJSON()}, nil
}

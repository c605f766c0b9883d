package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"travelrag/internal/config"
	"travelrag/internal/domain"
)

type stubCompleter struct {
	out domain.Completion
	err error
}

func (s stubCompleter) Name() string { return "stub" }

func (s stubCompleter) Complete(context.Context, string) (domain.Completion, error) {
	return s.out, s.err
}

func TestTextPrefersCompletionText(t *testing.T) {
	got, err := Text(context.Background(), stubCompleter{out: domain.Completion{Text: "Day 1", Raw: "ignored"}}, "p")
	require.NoError(t, err)
	assert.Equal(t, "Day 1", got)
}

func TestTextFallsBackToRaw(t *testing.T) {
	raw := struct{ Answer string }{Answer: "Day 1"}
	got, err := Text(context.Background(), stubCompleter{out: domain.Completion{Raw: raw}}, "p")
	require.NoError(t, err)
	assert.Equal(t, "{Day 1}", got)
}

func TestTextPropagatesErrors(t *testing.T) {
	_, err := Text(context.Background(), stubCompleter{err: errors.New("quota")}, "p")
	assert.EqualError(t, err, "quota")
}

func TestOpenAIComplete(t *testing.T) {
	var gotPrompt, gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotModel = req.Model
		gotPrompt = req.Messages[0].Content
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Visit the Louvre."}}],
			"usage":{"prompt_tokens":1,"completion_tokens":1,"total_tokens":2}}`))
	}))
	defer srv.Close()

	c, err := NewOpenAI(Settings{APIKey: "k", BaseURL: srv.URL, Model: "gpt-4", Timeout: 5 * time.Second}, arbor.NewLogger())
	require.NoError(t, err)
	out, err := c.Complete(context.Background(), "Plan Paris")
	require.NoError(t, err)
	assert.Equal(t, "Visit the Louvre.", out.Text)
	assert.Equal(t, "Plan Paris", gotPrompt)
	assert.Equal(t, "gpt-4", gotModel)
	assert.Equal(t, "openai:gpt-4", c.Name())
}

func TestOpenAICompleteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	c, err := NewOpenAI(Settings{APIKey: "k", BaseURL: srv.URL, Timeout: 5 * time.Second}, arbor.NewLogger())
	require.NoError(t, err)
	_, err = c.Complete(context.Background(), "x")
	assert.Error(t, err)
}

func TestClaudeComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"m1","type":"message","role":"assistant","model":"claude-sonnet-4-20250514",
			"content":[{"type":"text","text":"Once upon "},{"type":"text","text":"a trip."}],
			"stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":2}}`))
	}))
	defer srv.Close()

	c, err := NewClaude(Settings{APIKey: "k", BaseURL: srv.URL, Timeout: 5 * time.Second}, arbor.NewLogger())
	require.NoError(t, err)
	out, err := c.Complete(context.Background(), "Tell a story")
	require.NoError(t, err)
	assert.Equal(t, "Once upon a trip.", out.Text)
}

func TestGeminiComplete(t *testing.T) {
	var gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/models/gemini-2.5-flash:generateContent"), r.URL.Path)
		assert.Equal(t, "k", r.Header.Get("x-goog-api-key"))
		var req struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if len(req.Contents) > 0 && len(req.Contents[0].Parts) > 0 {
			gotPrompt = req.Contents[0].Parts[0].Text
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Day 1: "},{"text":"Fushimi Inari."}]},
			"finishReason":"STOP"}],"usageMetadata":{"promptTokenCount":1,"candidatesTokenCount":2,"totalTokenCount":3}}`))
	}))
	defer srv.Close()

	c, err := NewGemini(context.Background(), Settings{APIKey: "k", BaseURL: srv.URL, Timeout: 5 * time.Second}, arbor.NewLogger())
	require.NoError(t, err)
	out, err := c.Complete(context.Background(), "Plan Kyoto")
	require.NoError(t, err)
	assert.Equal(t, "Day 1: Fushimi Inari.", out.Text)
	assert.NotNil(t, out.Raw)
	assert.Equal(t, "Plan Kyoto", gotPrompt)
	assert.Equal(t, "gemini:gemini-2.5-flash", c.Name())
}

func TestGeminiCompleteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`))
	}))
	defer srv.Close()

	c, err := NewGemini(context.Background(), Settings{APIKey: "k", BaseURL: srv.URL, Timeout: 5 * time.Second}, arbor.NewLogger())
	require.NoError(t, err)
	_, err = c.Complete(context.Background(), "x")
	assert.ErrorContains(t, err, "gemini generate")
}

func TestNewGeminiRequiresKey(t *testing.T) {
	_, err := NewGemini(context.Background(), Settings{}, arbor.NewLogger())
	assert.Error(t, err)
}

func TestNewRequiresKeyAndKnownType(t *testing.T) {
	t.Setenv("TRAVELRAG_TEST_EMPTY", "")
	_, err := New(context.Background(), config.LLMConfig{Type: "openai", Model: "gpt-4", APIKeyEnv: "TRAVELRAG_TEST_EMPTY"}, arbor.NewLogger())
	assert.Error(t, err)

	_, err = New(context.Background(), config.LLMConfig{Type: "llama", Model: "x", APIKeyEnv: "X"}, arbor.NewLogger())
	assert.Error(t, err)

	t.Setenv("TRAVELRAG_TEST_KEY", "k")
	c, err := New(context.Background(), config.LLMConfig{Type: "claude", Model: "claude-x", APIKeyEnv: "TRAVELRAG_TEST_KEY"}, arbor.NewLogger())
	require.NoError(t, err)
	assert.Equal(t, "claude:claude-x", c.Name())
}

package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// Client embeds text with the Gemini embeddings API.
type Client struct {
	client    *genai.Client
	model     string
	dimension int
}

// Config configures the Gemini embeddings client.
type Config struct {
	// BaseURL overrides the Gemini API endpoint.
	BaseURL   string
	APIKey    string
	Model     string
	Dimension int
}

// NewClient creates a Gemini embeddings client.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini embedder: missing API key")
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-004"
	}
	if cfg.Dimension <= 0 {
		cfg.Dimension = 768
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Client{client: client, model: cfg.Model, dimension: cfg.Dimension}, nil
}

// Name returns the identifier of this embedder implementation.
func (c *Client) Name() string { return "gemini:" + c.model }

// Dimension returns the dimensionality of the produced embedding vectors.
func (c *Client) Dimension() int { return c.dimension }

// Embed returns an embedding vector for the given text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch returns one embedding per input text, in input order.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, errors.New("gemini embedder: no input")
	}
	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}
	dim := int32(c.dimension)
	resp, err := c.client.Models.EmbedContent(ctx, c.model, contents, &genai.EmbedContentConfig{
		OutputDimensionality: &dim,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini embeddings failed: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini embeddings: got %d vectors for %d inputs", len(resp.Embeddings), len(texts))
	}
	out := make([][]float32, len(texts))
	for i, e := range resp.Embeddings {
		if e == nil || len(e.Values) != c.dimension {
			return nil, fmt.Errorf("gemini embeddings: vector %d does not have %d dimensions", i, c.dimension)
		}
		out[i] = e.Values
	}
	return out, nil
}

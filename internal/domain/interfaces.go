package domain

import "context"

// Document is a unit of indexed travel text.
type Document struct {
	ID       string         `msgpack:"id"`
	Text     string         `msgpack:"text"`
	Metadata map[string]any `msgpack:"metadata"`
}

// SearchHit pairs a stored document with its L2 distance to a query.
type SearchHit struct {
	Document Document
	Distance float64
}

// Status tags the outcome of a lookup so callers can branch on it
// instead of matching message strings.
type Status int

const (
	StatusOK Status = iota
	StatusEmpty
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusEmpty:
		return "empty"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Embedder converts free text into a fixed-length vector.
// Dimension is known up front and must not change for the embedder's lifetime.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Completion is the raw result of a single language model call.
type Completion struct {
	Text string
	// Raw is the provider response, used when Text is empty.
	Raw any
}

// Completer runs a single prompt against a language model.
type Completer interface {
	Name() string
	Complete(ctx context.Context, prompt string) (Completion, error)
}

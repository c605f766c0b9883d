// Package narrative turns retrieved travel context into itineraries and stories.
package narrative

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"travelrag/internal/domain"
	"travelrag/internal/llm"
	"travelrag/internal/rag"
)

// NoContext replaces the context block when retrieval finds nothing.
const NoContext = "No relevant documents found for your query."

// Kind selects the narrative style.
type Kind int

const (
	Itinerary Kind = iota
	Story
)

func (k Kind) String() string {
	if k == Story {
		return "story"
	}
	return "itinerary"
}

// ParseKind maps "itinerary" or "story" to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "itinerary", "plan", "":
		return Itinerary, nil
	case "story":
		return Story, nil
	default:
		return 0, fmt.Errorf("unknown narrative kind: %s", s)
	}
}

// Request describes the trip to write about. Dates are passed through as given.
type Request struct {
	Kind        Kind
	Origin      string
	Destination string
	StartDate   string
	EndDate     string
	Purpose     string
}

// Retriever looks up context documents.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) (rag.Retrieval, error)
}

// Generator builds a prompt from retrieved context and runs it once.
type Generator struct {
	retriever Retriever
	completer domain.Completer
	k         int
	logger    arbor.ILogger
}

// NewGenerator creates a Generator retrieving k documents per request; k <= 0
// leaves the choice to the retriever.
func NewGenerator(retriever Retriever, completer domain.Completer, k int, logger arbor.ILogger) *Generator {
	return &Generator{retriever: retriever, completer: completer, k: k, logger: logger}
}

// Query returns the retrieval query used for req.
func Query(req Request) string {
	if req.Kind == Story {
		return fmt.Sprintf("Best places to visit in %s for %s", req.Destination, req.Purpose)
	}
	return fmt.Sprintf("Best travel itinerary for %s", req.Destination)
}

// Prompt renders the model prompt for req around the retrieved info text.
func Prompt(req Request, info string) string {
	var opening string
	if req.Kind == Story {
		opening = "Create a compelling travel story about visiting"
	} else {
		opening = "Create a detailed travel itinerary for"
	}
	return fmt.Sprintf("%s %s from %s (%s - %s).\nPurpose: %s\n\nAdditional Travel Information:\n%s",
		opening, req.Destination, req.Origin, req.StartDate, req.EndDate, req.Purpose, info)
}

// ContextText joins retrieved document texts with a single space, in retrieval order.
func ContextText(r rag.Retrieval) string {
	if r.Status != domain.StatusOK || len(r.Hits) == 0 {
		return NoContext
	}
	return strings.Join(r.Texts(), " ")
}

// Generate retrieves context for req, prompts the model once and returns its text.
func (g *Generator) Generate(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.Destination) == "" {
		return "", errors.New("destination is required")
	}
	query := Query(req)
	retrieved, err := g.retriever.Retrieve(ctx, query, g.k)
	if err != nil {
		return "", fmt.Errorf("retrieve context: %w", err)
	}
	g.logger.Info().
		Str("kind", req.Kind.String()).
		Str("destination", req.Destination).
		Str("retrieval", retrieved.Status.String()).
		Int("documents", len(retrieved.Hits)).
		Msg("Generating narrative")

	out, err := llm.Text(ctx, g.completer, Prompt(req, ContextText(retrieved)))
	if err != nil {
		return "", fmt.Errorf("generate %s: %w", req.Kind, err)
	}
	return out, nil
}

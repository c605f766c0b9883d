package flights

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ternarybob/arbor"

	"travelrag/internal/domain"
)

// AirlineNamer turns a carrier code into a display name.
type AirlineNamer interface {
	AirlineName(ctx context.Context, code string) string
}

// CodeNamer returns codes unchanged.
type CodeNamer struct{}

func (CodeNamer) AirlineName(_ context.Context, code string) string { return code }

// LLMNamer asks a language model for airline names and remembers the answers.
type LLMNamer struct {
	completer domain.Completer
	logger    arbor.ILogger

	mu    sync.Mutex
	names map[string]string
}

// NewLLMNamer creates an LLMNamer over completer.
func NewLLMNamer(completer domain.Completer, logger arbor.ILogger) *LLMNamer {
	return &LLMNamer{completer: completer, logger: logger, names: make(map[string]string)}
}

// AirlineName returns the model's answer, or code when the call fails or is empty.
func (n *LLMNamer) AirlineName(ctx context.Context, code string) string {
	if code == "" {
		return code
	}
	n.mu.Lock()
	name, ok := n.names[code]
	n.mu.Unlock()
	if ok {
		return name
	}

	prompt := fmt.Sprintf("Please provide only the full name for the airline '%s'.", code)
	out, err := n.completer.Complete(ctx, prompt)
	if err != nil {
		n.logger.Warn().Err(err).Str("code", code).Msg("Airline name lookup failed")
		return code
	}
	name = strings.TrimSpace(out.Text)
	if name == "" {
		return code
	}

	n.mu.Lock()
	n.names[code] = name
	n.mu.Unlock()
	return name
}

package travel

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
)

// Wikipedia reads page summaries from the Wikipedia REST API.
type Wikipedia struct {
	baseURL string
	c       *client
}

// NewWikipedia creates a client for baseURL, e.g. https://en.wikipedia.org/api/rest_v1.
func NewWikipedia(baseURL string, timeout time.Duration, rps float64, logger arbor.ILogger) *Wikipedia {
	return &Wikipedia{baseURL: baseURL, c: newClient(timeout, rps, logger)}
}

type wikiSummary struct {
	Extract string `json:"extract"`
}

// Summary returns the page extract for destination. Spaces in the title become underscores.
func (w *Wikipedia) Summary(ctx context.Context, destination string) Report {
	title := strings.ReplaceAll(strings.TrimSpace(destination), " ", "_")
	if title == "" {
		return empty(noWikiData)
	}
	var s wikiSummary
	if err := w.c.getJSON(ctx, join(w.baseURL, "page", "summary", url.PathEscape(title)), nil, &s); err != nil {
		w.c.logger.Warn().Err(err).Str("destination", destination).Msg("Wikipedia summary unavailable")
		return failed(noWikiData, err)
	}
	if strings.TrimSpace(s.Extract) == "" {
		return empty(noWikiData)
	}
	return okText(s.Extract)
}

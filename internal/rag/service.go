// Package rag owns the retrieval index: it embeds destination text, keeps the
// index and its document store in sync with durable storage, and answers
// nearest-neighbour queries.
package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ternarybob/arbor"

	"travelrag/internal/domain"
	"travelrag/internal/indexstore"
	"travelrag/internal/vectorindex"
)

// MetaDestination is the metadata key holding the destination a document was indexed under.
const MetaDestination = "destination"

// ErrEmbedderMismatch is returned at startup when the persisted index was
// built by a different embedder and the policy forbids discarding it.
var ErrEmbedderMismatch = errors.New("persisted index was built by a different embedder")

// Store persists index snapshots.
type Store interface {
	Save(ctx context.Context, snap vectorindex.Snapshot) error
	Load(ctx context.Context) (vectorindex.Snapshot, error)
}

// Fetcher produces the text indexed for a destination.
type Fetcher interface {
	Fetch(ctx context.Context, destination string) string
}

// Digester condenses fetched text for display.
type Digester interface {
	Summary(text string, n int) string
}

// Options configures a Service.
type Options struct {
	Policy   vectorindex.Policy
	DefaultK int
	// Fetcher and Digester are only needed by IndexDestination.
	Fetcher  Fetcher
	Digester Digester
	// DigestSentences bounds the digest returned by IndexDestination.
	DigestSentences int
}

// Retrieval is the tagged result of a query. Status is Empty when nothing has
// been indexed yet, never a silent empty slice.
type Retrieval struct {
	Status domain.Status
	Hits   []domain.SearchHit
}

// Texts returns the hit texts in retrieval order.
func (r Retrieval) Texts() []string {
	out := make([]string, len(r.Hits))
	for i, h := range r.Hits {
		out[i] = h.Document.Text
	}
	return out
}

// Indexed describes a completed IndexDestination call.
type Indexed struct {
	vectorindex.AddResult
	Destination string
	Text        string
	Digest      string
}

// Service is the single owner of the process's index.
type Service struct {
	mu       sync.Mutex
	embedder domain.Embedder
	store    Store
	index    *vectorindex.Index
	opts     Options
	logger   arbor.ILogger
}

// NewService loads the persisted index, if any, and checks it was built by embedder.
// A mismatch discards the persisted index under PolicyRebuild and fails under PolicyReject.
func NewService(ctx context.Context, embedder domain.Embedder, store Store, opts Options, logger arbor.ILogger) (*Service, error) {
	if opts.DefaultK <= 0 {
		opts.DefaultK = 2
	}
	if opts.DigestSentences <= 0 {
		opts.DigestSentences = 3
	}
	s := &Service{
		embedder: embedder,
		store:    store,
		index:    vectorindex.New(opts.Policy),
		opts:     opts,
		logger:   logger,
	}

	snap, err := store.Load(ctx)
	switch {
	case errors.Is(err, indexstore.ErrNotFound):
		logger.Info().Str("embedder", embedder.Name()).Msg("No persisted index, starting empty")
		return s, nil
	case err != nil:
		return nil, err
	}

	if len(snap.IDs) > 0 && (snap.Embedder != embedder.Name() || snap.Dimension != embedder.Dimension()) {
		if opts.Policy == vectorindex.PolicyReject {
			return nil, fmt.Errorf("%w: index has %s/%d, configured %s/%d", ErrEmbedderMismatch,
				snap.Embedder, snap.Dimension, embedder.Name(), embedder.Dimension())
		}
		logger.Warn().
			Str("index_embedder", snap.Embedder).
			Int("index_dimension", snap.Dimension).
			Str("embedder", embedder.Name()).
			Int("dimension", embedder.Dimension()).
			Int("discarded", len(snap.IDs)).
			Msg("Persisted index was built by a different embedder, discarding it")
		if err := store.Save(ctx, s.index.Snapshot(embedder.Name())); err != nil {
			return nil, err
		}
		return s, nil
	}

	idx, err := vectorindex.Restore(snap, opts.Policy)
	if err != nil {
		return nil, fmt.Errorf("restore index: %w", err)
	}
	s.index = idx
	logger.Info().Int("documents", idx.Len()).Int("dimension", idx.Dimension()).Msg("Index loaded")
	return s, nil
}

// Len returns the number of indexed documents.
func (s *Service) Len() int { return s.index.Len() }

// Dimension returns the current index dimension.
func (s *Service) Dimension() int { return s.index.Dimension() }

// DefaultK is the k used when callers pass zero.
func (s *Service) DefaultK() int { return s.opts.DefaultK }

// Index embeds text, appends it under destination and persists the whole index.
func (s *Service) Index(ctx context.Context, text, destination string) (vectorindex.AddResult, error) {
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return vectorindex.AddResult{}, fmt.Errorf("embed document: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The live index only changes once the new state is persisted.
	next := s.index.Clone()
	res, err := next.Add(vec, text, map[string]any{MetaDestination: destination})
	if err != nil {
		return vectorindex.AddResult{}, err
	}
	if err := s.store.Save(ctx, next.Snapshot(s.embedder.Name())); err != nil {
		s.logger.Error().Err(err).Str("destination", destination).Msg("Failed to persist index, document not added")
		return vectorindex.AddResult{}, err
	}
	s.index = next
	if res.Rebuilt {
		s.logger.Warn().
			Int("discarded", res.Discarded).
			Int("dimension", len(vec)).
			Msg("Embedding dimension changed, index reinitialized")
	}
	s.logger.Info().
		Str("destination", destination).
		Str("doc_id", res.Document.ID).
		Int("documents", s.index.Len()).
		Msg("Document indexed")
	return res, nil
}

// IndexDestination fetches travel text for destination and indexes it.
func (s *Service) IndexDestination(ctx context.Context, destination string) (Indexed, error) {
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return Indexed{}, errors.New("destination is required")
	}
	if s.opts.Fetcher == nil {
		return Indexed{}, errors.New("no travel fetcher configured")
	}
	s.logger.Info().Str("destination", destination).Msg("Fetching travel data")
	text := s.opts.Fetcher.Fetch(ctx, destination)

	res, err := s.Index(ctx, text, destination)
	if err != nil {
		return Indexed{}, err
	}
	out := Indexed{AddResult: res, Destination: destination, Text: text}
	if s.opts.Digester != nil {
		out.Digest = s.opts.Digester.Summary(text, s.opts.DigestSentences)
	}
	return out, nil
}

// Retrieve returns up to k documents nearest to query, reading the most
// recently persisted index. k <= 0 uses the default.
func (s *Service) Retrieve(ctx context.Context, query string, k int) (Retrieval, error) {
	if k <= 0 {
		k = s.opts.DefaultK
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.reload(ctx); err != nil {
		return Retrieval{Status: domain.StatusFailed}, err
	}
	if s.index.Len() == 0 {
		s.logger.Info().Str("query", query).Msg("Index is empty, nothing to retrieve")
		return Retrieval{Status: domain.StatusEmpty}, nil
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return Retrieval{Status: domain.StatusFailed}, fmt.Errorf("embed query: %w", err)
	}
	hits, err := s.index.Search(vec, k)
	if err != nil {
		return Retrieval{Status: domain.StatusFailed}, err
	}
	if len(hits) == 0 {
		return Retrieval{Status: domain.StatusEmpty}, nil
	}
	s.logger.Debug().Str("query", query).Int("k", k).Int("hits", len(hits)).Msg("Retrieved documents")
	return Retrieval{Status: domain.StatusOK, Hits: hits}, nil
}

// reload replaces the in-memory index with the persisted one. A store with
// nothing saved leaves an empty index.
func (s *Service) reload(ctx context.Context) error {
	snap, err := s.store.Load(ctx)
	if errors.Is(err, indexstore.ErrNotFound) {
		s.index = vectorindex.New(s.opts.Policy)
		return nil
	}
	if err != nil {
		return err
	}
	if len(snap.IDs) > 0 && snap.Embedder != s.embedder.Name() {
		return fmt.Errorf("%w: index has %s, configured %s", ErrEmbedderMismatch, snap.Embedder, s.embedder.Name())
	}
	idx, err := vectorindex.Restore(snap, s.opts.Policy)
	if err != nil {
		return fmt.Errorf("restore index: %w", err)
	}
	s.index = idx
	return nil
}

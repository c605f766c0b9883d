// Package vectorindex is a flat, exact L2 vector index paired with the
// document store that holds the text behind each vector.
package vectorindex

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"travelrag/internal/domain"
)

// ErrDimensionMismatch is returned when a vector's length differs from the index dimension.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// MetaDocID is the metadata key recording a document's own identifier.
const MetaDocID = "doc_id"

// Policy decides what Add does with a vector whose length differs from a non-empty index.
type Policy int

const (
	// PolicyRebuild discards every stored vector and document and starts over.
	PolicyRebuild Policy = iota
	// PolicyReject refuses the vector with ErrDimensionMismatch.
	PolicyReject
)

// ParsePolicy maps the config spelling of a policy to its value.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "rebuild", "":
		return PolicyRebuild, nil
	case "reject":
		return PolicyReject, nil
	default:
		return 0, fmt.Errorf("unknown dimension policy: %s", s)
	}
}

func (p Policy) String() string {
	if p == PolicyReject {
		return "reject"
	}
	return "rebuild"
}

// AddResult describes what Add did.
type AddResult struct {
	Document domain.Document
	// Rebuilt is set when existing contents were discarded for a new dimension.
	Rebuilt bool
	// Discarded is the number of documents dropped by a rebuild.
	Discarded int
}

// Index holds vectors in insertion order with a position to ID mapping and
// the document store keyed by the same IDs.
type Index struct {
	mu        sync.RWMutex
	policy    Policy
	dimension int
	vectors   [][]float32
	ids       map[int]string
	docs      map[string]domain.Document
}

// New creates an empty index with no dimension yet.
func New(policy Policy) *Index {
	return &Index{
		policy: policy,
		ids:    make(map[int]string),
		docs:   make(map[string]domain.Document),
	}
}

// Dimension returns the length shared by every stored vector, or 0 before the first Add.
func (x *Index) Dimension() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.dimension
}

// Len returns the number of stored vectors.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.vectors)
}

// Policy returns the dimension-change policy.
func (x *Index) Policy() Policy { return x.policy }

// Clone returns an independent copy of the index.
func (x *Index) Clone() *Index {
	x.mu.RLock()
	defer x.mu.RUnlock()

	c := New(x.policy)
	c.dimension = x.dimension
	c.vectors = make([][]float32, len(x.vectors))
	for pos, v := range x.vectors {
		c.vectors[pos] = append([]float32(nil), v...)
	}
	for pos, id := range x.ids {
		c.ids[pos] = id
	}
	for id, d := range x.docs {
		c.docs[id] = d
	}
	return c
}

// Reset drops all contents and sets a new dimension.
func (x *Index) Reset(dimension int) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.reset(dimension)
}

func (x *Index) reset(dimension int) {
	x.dimension = dimension
	x.vectors = nil
	x.ids = make(map[int]string)
	x.docs = make(map[string]domain.Document)
}

// Add appends vec and stores text as a new document. The document ID is the
// vector's position as a decimal string; metadata gains a doc_id entry.
// An empty index adopts len(vec) as its dimension. A non-empty index with a
// different dimension is rebuilt or rejected according to the policy.
func (x *Index) Add(vec []float32, text string, metadata map[string]any) (AddResult, error) {
	if len(vec) == 0 {
		return AddResult{}, errors.New("cannot index an empty vector")
	}
	x.mu.Lock()
	defer x.mu.Unlock()

	var res AddResult
	switch {
	case len(x.vectors) == 0:
		if x.dimension != len(vec) {
			x.reset(len(vec))
		}
	case len(vec) != x.dimension:
		if x.policy == PolicyReject {
			return AddResult{}, fmt.Errorf("%w: index has %d, got %d", ErrDimensionMismatch, x.dimension, len(vec))
		}
		res.Rebuilt = true
		res.Discarded = len(x.docs)
		x.reset(len(vec))
	}

	pos := len(x.vectors)
	id := strconv.Itoa(pos)
	meta := make(map[string]any, len(metadata)+1)
	for k, v := range metadata {
		meta[k] = v
	}
	meta[MetaDocID] = id

	stored := make([]float32, len(vec))
	copy(stored, vec)
	doc := domain.Document{ID: id, Text: text, Metadata: meta}

	x.vectors = append(x.vectors, stored)
	x.ids[pos] = id
	x.docs[id] = doc

	res.Document = doc
	return res, nil
}

// Document looks up a stored document by ID.
func (x *Index) Document(id string) (domain.Document, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	d, ok := x.docs[id]
	return d, ok
}

// Search returns up to k documents nearest to query by L2 distance, nearest first.
// Equal distances keep insertion order.
func (x *Index) Search(query []float32, k int) ([]domain.SearchHit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	x.mu.RLock()
	defer x.mu.RUnlock()
	if len(x.vectors) == 0 {
		return nil, nil
	}
	if len(query) != x.dimension {
		return nil, fmt.Errorf("%w: index has %d, query has %d", ErrDimensionMismatch, x.dimension, len(query))
	}

	type scored struct {
		pos  int
		dist float64
	}
	scores := make([]scored, len(x.vectors))
	for i, v := range x.vectors {
		d, err := L2Distance(query, v)
		if err != nil {
			return nil, err
		}
		scores[i] = scored{pos: i, dist: d}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].dist < scores[j].dist })
	if k > len(scores) {
		k = len(scores)
	}

	hits := make([]domain.SearchHit, 0, k)
	for _, s := range scores[:k] {
		doc := x.docs[x.ids[s.pos]]
		hits = append(hits, domain.SearchHit{Document: doc, Distance: s.dist})
	}
	return hits, nil
}

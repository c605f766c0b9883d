package vectorindex

import (
	"fmt"
	"strconv"

	"travelrag/internal/domain"
)

// Snapshot is the serializable form of an Index. Vectors and IDs are parallel
// slices in position order.
type Snapshot struct {
	Embedder  string            `msgpack:"embedder"`
	Dimension int               `msgpack:"dimension"`
	Vectors   [][]float32       `msgpack:"vectors"`
	IDs       []string          `msgpack:"ids"`
	Documents []domain.Document `msgpack:"documents"`
}

// Snapshot copies the index contents. embedder names the provider that produced the vectors.
func (x *Index) Snapshot(embedder string) Snapshot {
	x.mu.RLock()
	defer x.mu.RUnlock()

	s := Snapshot{
		Embedder:  embedder,
		Dimension: x.dimension,
		Vectors:   make([][]float32, len(x.vectors)),
		IDs:       make([]string, len(x.vectors)),
		Documents: make([]domain.Document, 0, len(x.docs)),
	}
	for pos, v := range x.vectors {
		s.Vectors[pos] = append([]float32(nil), v...)
		id := x.ids[pos]
		s.IDs[pos] = id
		s.Documents = append(s.Documents, x.docs[id])
	}
	return s
}

// Restore rebuilds an index from a snapshot, checking that every vector has the
// snapshot dimension and that IDs and documents match one to one.
func Restore(s Snapshot, policy Policy) (*Index, error) {
	if len(s.Vectors) != len(s.IDs) {
		return nil, fmt.Errorf("snapshot has %d vectors but %d ids", len(s.Vectors), len(s.IDs))
	}
	if len(s.Documents) != len(s.IDs) {
		return nil, fmt.Errorf("snapshot has %d ids but %d documents", len(s.IDs), len(s.Documents))
	}

	x := New(policy)
	x.dimension = s.Dimension
	docs := make(map[string]domain.Document, len(s.Documents))
	for _, d := range s.Documents {
		if _, dup := docs[d.ID]; dup {
			return nil, fmt.Errorf("snapshot has duplicate document %q", d.ID)
		}
		docs[d.ID] = d
	}
	for pos, v := range s.Vectors {
		if len(v) != s.Dimension {
			return nil, fmt.Errorf("%w: snapshot vector %d has %d, index has %d", ErrDimensionMismatch, pos, len(v), s.Dimension)
		}
		id := s.IDs[pos]
		if id != strconv.Itoa(pos) {
			return nil, fmt.Errorf("snapshot id %q at position %d is out of sequence", id, pos)
		}
		d, ok := docs[id]
		if !ok {
			return nil, fmt.Errorf("snapshot id %q has no document", id)
		}
		x.vectors = append(x.vectors, append([]float32(nil), v...))
		x.ids[pos] = id
		x.docs[id] = d
	}
	return x, nil
}

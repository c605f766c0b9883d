// Package indexstore persists vector index snapshots in a BadgerDB directory.
package indexstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/vmihailenco/msgpack/v5"

	"travelrag/internal/domain"
	"travelrag/internal/vectorindex"
)

// ErrNotFound is returned by Load when nothing has been saved yet.
var ErrNotFound = errors.New("indexstore: no index has been saved")

const (
	metaKey   = "meta"
	entryPref = "entry/"
)

type meta struct {
	Embedder   string    `msgpack:"embedder"`
	Dimension  int       `msgpack:"dimension"`
	Count      int       `msgpack:"count"`
	Generation uint64    `msgpack:"generation"`
	SavedAt    time.Time `msgpack:"saved_at"`
}

type entry struct {
	ID       string          `msgpack:"id"`
	Vector   []float32       `msgpack:"vector"`
	Document domain.Document `msgpack:"document"`
}

// Options configures the store.
type Options struct {
	// Dir is the directory holding the database files. Required unless InMemory.
	Dir string
	// InMemory keeps everything in memory; used by tests.
	InMemory bool
}

// Store saves and loads whole index snapshots.
type Store struct {
	mu     sync.Mutex
	db     *badger.DB
	logger arbor.ILogger
}

// Open opens (or creates) the store.
func Open(opts Options, logger arbor.ILogger) (*Store, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("indexstore: Dir is required for on-disk mode")
	}
	dbOpts := badger.DefaultOptions(opts.Dir).WithLogger(badgerLogger{logger: logger})
	if opts.InMemory {
		dbOpts = dbOpts.WithInMemory(true)
	}
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open index store at %q: %w", opts.Dir, err)
	}
	logger.Debug().Str("path", opts.Dir).Bool("in_memory", opts.InMemory).Msg("Index store opened")
	return &Store{db: db, logger: logger}, nil
}

// Save replaces whatever was stored before with snap. Entries are written
// under a fresh generation in batches; the meta key switches to that
// generation in one small transaction, and older generations are deleted
// afterwards. Readers always see either the old or the new snapshot.
func (s *Store) Save(_ context.Context, snap vectorindex.Snapshot) error {
	if len(snap.Vectors) != len(snap.IDs) || len(snap.Documents) != len(snap.IDs) {
		return fmt.Errorf("indexstore: inconsistent snapshot (%d vectors, %d ids, %d documents)",
			len(snap.Vectors), len(snap.IDs), len(snap.Documents))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, err := s.currentGeneration()
	if err != nil {
		return fmt.Errorf("save index: %w", err)
	}
	if err := s.deleteStale(prev); err != nil {
		return fmt.Errorf("save index: %w", err)
	}
	gen := prev + 1

	wb := s.db.NewWriteBatch()
	for pos, id := range snap.IDs {
		val, err := msgpack.Marshal(entry{ID: id, Vector: snap.Vectors[pos], Document: snap.Documents[pos]})
		if err != nil {
			wb.Cancel()
			return fmt.Errorf("encode entry %s: %w", id, err)
		}
		if err := wb.Set(entryKey(gen, pos), val); err != nil {
			wb.Cancel()
			return fmt.Errorf("save index: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("save index: %w", err)
	}

	m, err := msgpack.Marshal(meta{
		Embedder:   snap.Embedder,
		Dimension:  snap.Dimension,
		Count:      len(snap.IDs),
		Generation: gen,
		SavedAt:    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode index meta: %w", err)
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(metaKey), m)
	}); err != nil {
		return fmt.Errorf("save index: %w", err)
	}

	if err := s.deleteStale(gen); err != nil {
		s.logger.Warn().Err(err).Int64("generation", int64(gen)).Msg("Failed to delete previous index generations")
	}
	s.logger.Debug().
		Int("documents", len(snap.IDs)).
		Int("dimension", snap.Dimension).
		Int64("generation", int64(gen)).
		Msg("Index saved")
	return nil
}

// Load returns the most recently saved snapshot, or ErrNotFound.
func (s *Store) Load(_ context.Context) (vectorindex.Snapshot, error) {
	var snap vectorindex.Snapshot
	err := s.db.View(func(txn *badger.Txn) error {
		m, err := readMeta(txn)
		if err != nil {
			return err
		}
		snap.Embedder = m.Embedder
		snap.Dimension = m.Dimension
		snap.Vectors = make([][]float32, 0, m.Count)
		snap.IDs = make([]string, 0, m.Count)
		snap.Documents = make([]domain.Document, 0, m.Count)

		prefix := generationPrefix(m.Generation)
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = prefix
		it := txn.NewIterator(iterOpts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			raw, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			var e entry
			if err := msgpack.Unmarshal(raw, &e); err != nil {
				return fmt.Errorf("decode entry %s: %w", it.Item().Key(), err)
			}
			snap.Vectors = append(snap.Vectors, e.Vector)
			snap.IDs = append(snap.IDs, e.ID)
			snap.Documents = append(snap.Documents, e.Document)
		}
		if len(snap.IDs) != m.Count {
			return fmt.Errorf("index meta lists %d entries, found %d", m.Count, len(snap.IDs))
		}
		return nil
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return vectorindex.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return vectorindex.Snapshot{}, fmt.Errorf("load index: %w", err)
	}
	return snap, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func readMeta(txn *badger.Txn) (meta, error) {
	var m meta
	item, err := txn.Get([]byte(metaKey))
	if err != nil {
		return m, err
	}
	raw, err := item.ValueCopy(nil)
	if err != nil {
		return m, err
	}
	if err := msgpack.Unmarshal(raw, &m); err != nil {
		return m, fmt.Errorf("decode index meta: %w", err)
	}
	return m, nil
}

// currentGeneration returns the generation named by the meta key, 0 if nothing is saved.
func (s *Store) currentGeneration() (uint64, error) {
	var gen uint64
	err := s.db.View(func(txn *badger.Txn) error {
		m, err := readMeta(txn)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		gen = m.Generation
		return nil
	})
	return gen, err
}

// deleteStale removes every entry outside generation keep, including leftovers
// of saves that failed before switching the meta key.
func (s *Store) deleteStale(keep uint64) error {
	var stale [][]byte
	live := generationPrefix(keep)
	err := s.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.PrefetchValues = false
		iterOpts.Prefix = []byte(entryPref)
		it := txn.NewIterator(iterOpts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().Key()
			if !bytes.HasPrefix(key, live) {
				stale = append(stale, it.Item().KeyCopy(nil))
			}
		}
		return nil
	})
	if err != nil || len(stale) == 0 {
		return err
	}

	wb := s.db.NewWriteBatch()
	for _, k := range stale {
		if err := wb.Delete(k); err != nil {
			wb.Cancel()
			return err
		}
	}
	return wb.Flush()
}

func generationPrefix(gen uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d/", entryPref, gen))
}

// entryKey zero-pads the position so lexicographic order is insertion order.
func entryKey(gen uint64, pos int) []byte {
	return []byte(fmt.Sprintf("%s%020d/%010d", entryPref, gen, pos))
}

// badgerLogger routes badger's warnings and errors to arbor and drops the rest.
type badgerLogger struct {
	logger arbor.ILogger
}

func (l badgerLogger) Errorf(f string, v ...interface{}) {
	l.logger.Error().Msgf("[badger] "+f, v...)
}

func (l badgerLogger) Warningf(f string, v ...interface{}) {
	l.logger.Warn().Msgf("[badger] "+f, v...)
}

func (badgerLogger) Infof(string, ...interface{})  {}
func (badgerLogger) Debugf(string, ...interface{}) {}

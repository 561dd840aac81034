// Package badgergraph backs the Graph AbstractType with an embedded
// BadgerDB key-value store, edges keyed by "src\x00dst" -> weight.
// Grounded on jinterlante1206-AleutianLocal's
// services/trace/storage/badger/badger.go Config/Open shape (in-memory vs.
// persistent mode, SyncWrites, a slog-backed logger adapter).
package badgergraph

import (
	"encoding/binary"
	"fmt"
	"log/slog"

	badger "github.com/dgraph-io/badger/v4"
)

// Config mirrors the teacher pack's badger storage Config: a path (or
// in-memory mode), sync-write durability, and a logger.
type Config struct {
	Path       string
	InMemory   bool
	SyncWrites bool
	Logger     *slog.Logger
	Directed   bool
}

// DefaultConfig returns a persistent Config rooted at path.
func DefaultConfig(path string) Config {
	return Config{Path: path, SyncWrites: true, Logger: slog.Default()}
}

// InMemoryConfig returns a Config for a throwaway in-memory database,
// used by the demo binary and tests.
func InMemoryConfig(directed bool) Config {
	return Config{InMemory: true, Logger: slog.Default(), Directed: directed}
}

// badgerLogger adapts a *slog.Logger to badger's internal Logger
// interface (Errorf/Warningf/Infof/Debugf).
type badgerLogger struct{ l *slog.Logger }

func (b badgerLogger) Errorf(format string, args ...any)   { b.l.Error(fmt.Sprintf(format, args...)) }
func (b badgerLogger) Warningf(format string, args ...any) { b.l.Warn(fmt.Sprintf(format, args...)) }
func (b badgerLogger) Infof(format string, args ...any)    { b.l.Info(fmt.Sprintf(format, args...)) }
func (b badgerLogger) Debugf(format string, args ...any)   { b.l.Debug(fmt.Sprintf(format, args...)) }

// Graph is a Graph AbstractType implementation backed by BadgerDB.
type Graph struct {
	db       *badger.DB
	Directed bool
}

// Open starts (or creates) the BadgerDB database described by cfg.
func Open(cfg Config) (*Graph, error) {
	opts := badger.DefaultOptions(cfg.Path)
	opts = opts.WithInMemory(cfg.InMemory).WithSyncWrites(cfg.SyncWrites)
	if cfg.Logger != nil {
		opts = opts.WithLogger(badgerLogger{l: cfg.Logger})
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badgergraph: opening database: %w", err)
	}
	return &Graph{db: db, Directed: cfg.Directed}, nil
}

// Close releases the underlying BadgerDB handle.
func (g *Graph) Close() error { return g.db.Close() }

func edgeKey(src, dst int) []byte {
	key := make([]byte, 9)
	binary.BigEndian.PutUint32(key[0:4], uint32(src))
	key[4] = 0
	binary.BigEndian.PutUint32(key[5:9], uint32(dst))
	return key
}

func decodeEdgeKey(key []byte) (src, dst int) {
	return int(binary.BigEndian.Uint32(key[0:4])), int(binary.BigEndian.Uint32(key[5:9]))
}

func encodeWeight(w float64) []byte {
	bits := make([]byte, 8)
	binary.BigEndian.PutUint64(bits, uint64(int64(w*1e6)))
	return bits
}

func decodeWeight(b []byte) float64 {
	return float64(int64(binary.BigEndian.Uint64(b))) / 1e6
}

// AddEdge stores a weighted edge src->dst (and dst->src when undirected).
func (g *Graph) AddEdge(src, dst int, weight float64) error {
	return g.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(edgeKey(src, dst), encodeWeight(weight)); err != nil {
			return err
		}
		if !g.Directed {
			return txn.Set(edgeKey(dst, src), encodeWeight(weight))
		}
		return nil
	})
}

// addRawEdge stores exactly one src->dst row without mirroring the
// reverse direction, used when copying from a source that already
// stores both directions explicitly.
func (g *Graph) addRawEdge(src, dst int, weight float64) error {
	return g.db.Update(func(txn *badger.Txn) error {
		return txn.Set(edgeKey(src, dst), encodeWeight(weight))
	})
}

// Edges returns every stored (src, dst, weight) triple.
func (g *Graph) Edges() ([][3]float64, error) {
	var out [][3]float64
	err := g.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			src, dst := decodeEdgeKey(item.KeyCopy(nil))
			err := item.Value(func(val []byte) error {
				out = append(out, [3]float64{float64(src), float64(dst), decodeWeight(val)})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return out, err
}

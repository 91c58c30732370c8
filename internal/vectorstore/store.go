// Package vectorstore persists (vector, text, metadata) tuples in a local
// BadgerDB index. Collections are logical partitions named per owning user;
// records written under one collection are never visible to lookups against
// another.
package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

// Record is one stored vector plus the chunk text it came from and its
// provenance metadata, kept for retrieval-time citation.
type Record struct {
	ID       string            `json:"id"`
	Vector   []float32         `json:"vector"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// SearchHit pairs a record with its similarity score.
type SearchHit struct {
	Record Record  `json:"record"`
	Score  float32 `json:"score"`
}

// Store wraps a BadgerDB instance rooted at a base directory.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

// badgerLoggerAdapter adapts slog.Logger to badger.Logger.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// Open opens (creating if needed) the vector index under dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create vector dir failed: %w", err)
	}
	return open(badger.DefaultOptions(dir))
}

// OpenInMemory opens a throwaway in-memory index, used by tests.
func OpenInMemory() (*Store, error) {
	return open(badger.DefaultOptions("").WithInMemory(true))
}

func open(opts badger.Options) (*Store, error) {
	logger := slog.Default().With("component", "vectorstore")
	opts.Logger = &badgerLoggerAdapter{logger: logger}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open vector index failed: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// UserCollection derives the collection name isolating one user's vectors.
func UserCollection(ownerID uint) string {
	return fmt.Sprintf("user_%d_knowledge", ownerID)
}

// Upsert writes all records into the named collection, creating the
// collection on first use. The write is a single transaction: if Upsert
// returns an error, none of the records were committed.
func (s *Store) Upsert(ctx context.Context, collection string, records []Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if collection == "" {
		return fmt.Errorf("collection name is empty")
	}
	if len(records) == 0 {
		return nil
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(makeCollectionKey(collection), []byte{1}); err != nil {
			return err
		}
		for _, rec := range records {
			if rec.ID == "" {
				return fmt.Errorf("record without id")
			}
			val, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			if err := txn.Set(makeRecordKey(collection, rec.ID), val); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("upsert %d records into %s failed: %w", len(records), collection, err)
	}

	s.logger.Debug("upserted records", "collection", collection, "count", len(records))
	return nil
}

// HasCollection reports whether the collection has been created.
func (s *Store) HasCollection(ctx context.Context, collection string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(makeCollectionKey(collection))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	return found, err
}

// Count returns the number of records stored under the collection.
func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeRecordPrefix(collection)
		opts.PrefetchValues = false
		iter := txn.NewIterator(opts)
		defer iter.Close()
		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// Search scans the collection and returns up to topK records whose cosine
// similarity to vector is at least minScore, best first. Lookups never leave
// the collection's key prefix.
func (s *Store) Search(ctx context.Context, collection string, vector []float32, topK int, minScore float32) ([]SearchHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var hits []SearchHit

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeRecordPrefix(collection)
		iter := txn.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var rec Record
			err := iter.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				// One corrupt value must not take down the whole
				// collection's retrieval.
				s.logger.Warn("skip unreadable record",
					"collection", collection,
					"key", string(iter.Item().KeyCopy(nil)),
					"err", err)
				continue
			}
			if len(rec.Vector) == 0 {
				continue
			}
			score := cosineSimilarity(vector, rec.Vector)
			if score >= minScore {
				hits = append(hits, SearchHit{Record: rec, Score: score})
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("search collection %s failed: %w", collection, err)
	}

	slices.SortFunc(hits, func(a, b SearchHit) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})
	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA <= 0 || normB <= 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

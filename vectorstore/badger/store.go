// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package badger

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/vectorstore"
)

// ChunkStore implements vectorstore.Store on top of BadgerDB. Similarity
// queries scan every chunk and rank by cosine similarity, which is adequate
// for single-process corpora up to tens of thousands of chunks.
type ChunkStore struct {
	backend  *Backend
	embedder vectorstore.Embedder
	logger   *slog.Logger
}

var _ vectorstore.Store = (*ChunkStore)(nil)

// Option configures a ChunkStore.
type Option func(*ChunkStore) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *ChunkStore) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// Open opens a chunk store backed by a BadgerDB database at path.
// The embedder is used to vectorize chunks on add and query text on search.
func Open(path string, embedder vectorstore.Embedder, opts ...Option) (vectorstore.Store, error) {
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, err
	}
	return newStore(backend, embedder, opts...)
}

func newStore(backend *Backend, embedder vectorstore.Embedder, opts ...Option) (vectorstore.Store, error) {
	if embedder == nil {
		backend.Close()
		return nil, vectorstore.ErrEmbedderRequired
	}

	s := &ChunkStore{
		backend:  backend,
		embedder: embedder,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			backend.Close()
			return nil, err
		}
	}
	s.logger = s.logger.With("store", "badger")

	return s, nil
}

// AddChunks embeds and persists the given chunks in a single transaction.
// Chunks that already carry a vector are stored as-is.
func (s *ChunkStore) AddChunks(ctx context.Context, chunks []core.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if s.backend.IsClosed() {
		return vectorstore.ErrStoreClosed
	}

	for i := range chunks {
		if err := core.ValidateChunk(&chunks[i]); err != nil {
			return err
		}
	}

	// Embed only the chunks that do not carry a vector yet.
	var missing []int
	for i := range chunks {
		if len(chunks[i].Vector) == 0 {
			missing = append(missing, i)
		}
	}
	if len(missing) > 0 {
		texts := make([]string, len(missing))
		for i, idx := range missing {
			texts[i] = chunks[idx].Text
		}
		vectors, err := s.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return fmt.Errorf("embedding chunks: %w", err)
		}
		if len(vectors) != len(missing) {
			return fmt.Errorf("embedding result mismatch. expected %d, received %d", len(missing), len(vectors))
		}
		for i, idx := range missing {
			chunks[idx].Vector = vectors[i]
		}
	}

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		for i := range chunks {
			key := makeChunkKey(chunks[i].DocumentID, chunks[i].ChunkIndex)
			if err := tx.Set(key, vectorstore.MarshalChunk(&chunks[i])); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return err
	}

	s.logger.Debug("chunks stored", "chunks", len(chunks), "documentID", chunks[0].DocumentID)
	return nil
}

// Query embeds text and returns up to k chunks ranked by cosine similarity,
// restricted by the filter. Blank text skips similarity ranking and returns
// matching chunks in key order with zero scores, which callers use as a
// metadata probe.
func (s *ChunkStore) Query(ctx context.Context, text string, k int, filter vectorstore.Filter) ([]core.ScoredChunk, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive", vectorstore.ErrInvalidQuery)
	}
	if s.backend.IsClosed() {
		return nil, vectorstore.ErrStoreClosed
	}

	var queryVector []float32
	ranked := strings.TrimSpace(text) != ""
	if ranked {
		var err error
		queryVector, err = s.embedder.EmbedText(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding query: %w", err)
		}
	}

	var results []core.ScoredChunk
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = scanPrefixFor(filter)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var chunk *core.Chunk
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = vectorstore.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			if chunk == nil || !filter.Matches(chunk) {
				continue
			}

			var score float32
			if ranked {
				score = cosineSimilarity(queryVector, chunk.Vector)
			}
			results = append(results, core.ScoredChunk{Chunk: *chunk, Score: score})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	if ranked {
		slices.SortStableFunc(results, func(a, b core.ScoredChunk) int {
			if a.Score > b.Score {
				return -1
			}
			if a.Score < b.Score {
				return 1
			}
			return 0
		})
	}

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// DeleteWhere removes every chunk matching the filter.
func (s *ChunkStore) DeleteWhere(ctx context.Context, filter vectorstore.Filter) (int, error) {
	if filter.IsZero() {
		return 0, vectorstore.ErrEmptyFilter
	}
	if s.backend.IsClosed() {
		return 0, vectorstore.ErrStoreClosed
	}

	// With only a document ID set, keys alone decide membership and values
	// never need decoding.
	keysOnly := filter.Type == "" && filter.HasStructuredData == nil

	deleted := 0
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = scanPrefixFor(filter)
		opts.PrefetchValues = !keysOnly
		iter := tx.NewIterator(opts)

		var keys [][]byte
		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()
			if !keysOnly {
				var chunk *core.Chunk
				err := item.Value(func(val []byte) error {
					var err error
					chunk, err = vectorstore.UnmarshalChunk(val)
					return err
				})
				if err != nil {
					iter.Close()
					return err
				}
				if !filter.Matches(chunk) {
					continue
				}
			}
			keys = append(keys, item.KeyCopy(nil))
		}
		iter.Close()

		for _, key := range keys {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		deleted = len(keys)
		return tx.Commit()
	}, true)
	if err != nil {
		return 0, err
	}

	return deleted, nil
}

// DocumentIDs returns the distinct document IDs present in the store, in
// first-seen key order.
func (s *ChunkStore) DocumentIDs(ctx context.Context) ([]string, error) {
	if s.backend.IsClosed() {
		return nil, vectorstore.ErrStoreClosed
	}

	seen := make(map[string]bool)
	var ids []string

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeScanPrefix()
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			id := documentIDFromKey(iter.Item().Key())
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	return ids, nil
}

// Count returns the number of stored chunks.
func (s *ChunkStore) Count(ctx context.Context) (int, error) {
	if s.backend.IsClosed() {
		return 0, vectorstore.ErrStoreClosed
	}

	count := 0
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeScanPrefix()
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Close closes the underlying database.
func (s *ChunkStore) Close() error {
	return s.backend.Close()
}

// scanPrefixFor narrows iteration to one document when the filter names one.
func scanPrefixFor(filter vectorstore.Filter) []byte {
	if filter.DocumentID != "" {
		return makeDocumentPrefix(filter.DocumentID)
	}
	return makeScanPrefix()
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched or zero-magnitude vectors score zero.
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
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

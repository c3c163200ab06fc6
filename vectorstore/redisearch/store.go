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


// Package redisearch provides a vectorstore.Store backed by Redis with the
// RediSearch module. Chunks live in hashes under a shared key prefix and an
// HNSW index serves approximate nearest neighbour queries, so it scales past
// the brute-force scan of the badger backend and can be shared by several
// processes.
package redisearch

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"

	"github.com/redis/go-redis/v9"

	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/vectorstore"
)

// Hash field names. The schema in ensureIndex must stay in sync.
const (
	fieldDocumentID    = "document_id"
	fieldChunkIndex    = "chunk_index"
	fieldTotalChunks   = "total_chunks"
	fieldContent       = "content"
	fieldVector        = "vector"
	fieldFilename      = "filename"
	fieldDocType       = "doc_type"
	fieldSource        = "source"
	fieldUploadedAt    = "uploaded_at"
	fieldTags          = "tags"
	fieldHasStructured = "has_structured_data"
)

const (
	// scanPageSize bounds FT.SEARCH pages during deletes and ID listings.
	scanPageSize = 1000

	defaultDim       = 768
	defaultIndexName = "corpus-chunks"
	defaultKeyPrefix = "chunk:"
)

// Config holds the Redis connection and index settings.
type Config struct {
	Addr      string
	Password  string
	DB        int
	IndexName string
	KeyPrefix string
	// VectorDim must match the embedder output. The HNSW index is created
	// with this dimension and rejects vectors of any other length.
	VectorDim int
}

// DefaultConfig returns settings for a local Redis Stack instance.
func DefaultConfig() Config {
	return Config{
		Addr:      "localhost:6379",
		IndexName: defaultIndexName,
		KeyPrefix: defaultKeyPrefix,
		VectorDim: defaultDim,
	}
}

// ChunkStore implements vectorstore.Store on Redis with RediSearch.
type ChunkStore struct {
	client   *redis.Client
	embedder vectorstore.Embedder
	cfg      Config
	logger   *slog.Logger
	closed   atomic.Bool
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

// Open connects to Redis, verifies the connection and creates the vector
// index when it does not exist yet.
func Open(ctx context.Context, cfg Config, embedder vectorstore.Embedder, opts ...Option) (vectorstore.Store, error) {
	if embedder == nil {
		return nil, vectorstore.ErrEmbedderRequired
	}
	if cfg.IndexName == "" {
		cfg.IndexName = defaultIndexName
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = defaultKeyPrefix
	}
	if cfg.VectorDim <= 0 {
		cfg.VectorDim = defaultDim
	}

	// RESP2 keeps FT.SEARCH replies in the flat array form parseReply
	// understands.
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		Protocol: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Addr, err)
	}

	s := &ChunkStore{
		client:   client,
		embedder: embedder,
		cfg:      cfg,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			client.Close()
			return nil, err
		}
	}
	s.logger = s.logger.With("store", "redisearch", "index", cfg.IndexName)

	if err := s.ensureIndex(ctx); err != nil {
		client.Close()
		return nil, err
	}

	return s, nil
}

func (s *ChunkStore) ensureIndex(ctx context.Context) error {
	if err := s.client.Do(ctx, "FT.INFO", s.cfg.IndexName).Err(); err == nil {
		return nil
	}

	err := s.client.Do(ctx, "FT.CREATE", s.cfg.IndexName,
		"ON", "HASH",
		"PREFIX", "1", s.cfg.KeyPrefix,
		"SCHEMA",
		fieldVector, "VECTOR", "HNSW", "6",
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(s.cfg.VectorDim),
		"DISTANCE_METRIC", "COSINE",
		fieldContent, "TEXT",
		fieldDocumentID, "TAG",
		fieldDocType, "TAG",
		fieldHasStructured, "TAG",
		fieldChunkIndex, "NUMERIC", "SORTABLE",
		fieldUploadedAt, "NUMERIC",
	).Err()
	if err != nil {
		return fmt.Errorf("creating index %s: %w", s.cfg.IndexName, err)
	}

	s.logger.Info("vector index created", "dim", s.cfg.VectorDim)
	return nil
}

// AddChunks embeds and persists the given chunks with a single pipeline.
func (s *ChunkStore) AddChunks(ctx context.Context, chunks []core.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if s.closed.Load() {
		return vectorstore.ErrStoreClosed
	}

	for i := range chunks {
		if err := core.ValidateChunk(&chunks[i]); err != nil {
			return err
		}
	}

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

	for i := range chunks {
		if len(chunks[i].Vector) != s.cfg.VectorDim {
			return fmt.Errorf("%w: chunk %d has dim %d, index expects %d",
				vectorstore.ErrDimensionMismatch, i, len(chunks[i].Vector), s.cfg.VectorDim)
		}
	}

	pipe := s.client.Pipeline()
	for i := range chunks {
		c := &chunks[i]
		key := chunkKey(s.cfg.KeyPrefix, c.DocumentID, c.ChunkIndex)
		pipe.HSet(ctx, key,
			fieldDocumentID, c.DocumentID,
			fieldChunkIndex, c.ChunkIndex,
			fieldTotalChunks, c.TotalChunks,
			fieldContent, c.Text,
			fieldVector, encodeVector(c.Vector),
			fieldFilename, c.Filename,
			fieldDocType, string(c.Type),
			fieldSource, c.Source,
			fieldUploadedAt, c.UploadedAt.UnixMicro(),
			fieldTags, joinTags(c.Tags),
			fieldHasStructured, strconv.FormatBool(c.HasStructuredData),
		)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("storing chunks: %w", err)
	}

	s.logger.Debug("chunks stored", "chunks", len(chunks), "documentID", chunks[0].DocumentID)
	return nil
}

// DeleteWhere removes every chunk matching the filter. Matching keys are
// found through the index page by page and deleted in between searches.
func (s *ChunkStore) DeleteWhere(ctx context.Context, filter vectorstore.Filter) (int, error) {
	if filter.IsZero() {
		return 0, vectorstore.ErrEmptyFilter
	}
	if s.closed.Load() {
		return 0, vectorstore.ErrStoreClosed
	}

	query := queryForFilter(filter)
	deleted := 0
	for {
		reply, err := s.client.Do(ctx, "FT.SEARCH", s.cfg.IndexName, query,
			"NOCONTENT",
			"LIMIT", "0", strconv.Itoa(scanPageSize),
		).Result()
		if err != nil {
			return deleted, fmt.Errorf("finding chunks to delete: %w", err)
		}

		keys := parseKeys(reply)
		if len(keys) == 0 {
			return deleted, nil
		}

		if err := s.client.Del(ctx, keys...).Err(); err != nil {
			return deleted, fmt.Errorf("deleting chunks: %w", err)
		}
		deleted += len(keys)

		if len(keys) < scanPageSize {
			return deleted, nil
		}
	}
}

// DocumentIDs returns the distinct document IDs present in the store.
func (s *ChunkStore) DocumentIDs(ctx context.Context) ([]string, error) {
	if s.closed.Load() {
		return nil, vectorstore.ErrStoreClosed
	}

	seen := make(map[string]bool)
	var ids []string

	for offset := 0; ; offset += scanPageSize {
		reply, err := s.client.Do(ctx, "FT.SEARCH", s.cfg.IndexName, "*",
			"RETURN", "1", fieldDocumentID,
			"LIMIT", strconv.Itoa(offset), strconv.Itoa(scanPageSize),
		).Result()
		if err != nil {
			return nil, fmt.Errorf("listing document ids: %w", err)
		}

		page, err := parseReply(reply)
		if err != nil {
			return nil, err
		}
		for _, doc := range page {
			id := doc.fields[fieldDocumentID]
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}

		if len(page) < scanPageSize {
			return ids, nil
		}
	}
}

// Count returns the number of stored chunks.
func (s *ChunkStore) Count(ctx context.Context) (int, error) {
	if s.closed.Load() {
		return 0, vectorstore.ErrStoreClosed
	}

	// LIMIT 0 0 returns only the total match count.
	reply, err := s.client.Do(ctx, "FT.SEARCH", s.cfg.IndexName, "*",
		"LIMIT", "0", "0",
	).Result()
	if err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}

	values, ok := reply.([]interface{})
	if !ok || len(values) == 0 {
		return 0, fmt.Errorf("unexpected count reply format")
	}
	total, ok := values[0].(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected count reply format")
	}
	return int(total), nil
}

// Close releases the Redis connection. The index and its data stay behind
// for the next open.
func (s *ChunkStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.client.Close()
}

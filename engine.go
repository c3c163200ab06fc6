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


package corpus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/poiesic/corpus/ai"
	"github.com/poiesic/corpus/ai/openai"
	"github.com/poiesic/corpus/chunker"
	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/index"
	"github.com/poiesic/corpus/parser"
	"github.com/poiesic/corpus/scheduler"
	"github.com/poiesic/corpus/vectorstore"
	"github.com/poiesic/corpus/vectorstore/badger"
	"github.com/poiesic/corpus/vectorstore/redisearch"
)

// Engine construction errors.
var (
	ErrNoStorage          = errors.New("no storage backend configured")
	ErrConflictingStorage = errors.New("multiple storage backends configured")
)

// Engine ties the document index, the batch scheduler, the parser registry
// and the AI provider together behind one lifecycle. It is the entry point
// for embedding applications; the cmd/corpus CLI is a thin wrapper around it.
type Engine struct {
	store     vectorstore.Store
	index     *index.Index
	scheduler *scheduler.Scheduler
	parsers   *parser.Registry
	provider  ai.AIProvider
	logger    *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	dataDir      string
	inMemory     bool
	redis        *redisearch.Config
	aiConfig     *ai.Config
	provider     ai.AIProvider
	parsers      *parser.Registry
	pools        []scheduler.PoolSpec
	chunkSet     bool
	chunkSize    int
	chunkOverlap int
	taskTimeout  time.Duration
	idGen        core.IDGenerator
	registerer   prometheus.Registerer
	logger       *slog.Logger
}

// WithDataDir stores chunks in a BadgerDB directory at the given path.
func WithDataDir(dir string) EngineOption {
	return func(o *engineOptions) {
		o.dataDir = dir
	}
}

// WithInMemory stores chunks in a BadgerDB instance that never touches disk.
// Everything is lost when the engine closes.
func WithInMemory() EngineOption {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// WithRedis stores chunks in Redis with a RediSearch HNSW index.
func WithRedis(cfg redisearch.Config) EngineOption {
	return func(o *engineOptions) {
		o.redis = &cfg
	}
}

// WithAIConfig sets the configuration for the default OpenAI-compatible
// provider. Ignored when WithProvider is used.
func WithAIConfig(cfg *ai.Config) EngineOption {
	return func(o *engineOptions) {
		o.aiConfig = cfg
	}
}

// WithProvider supplies a ready AI provider instead of building one from
// configuration. The engine takes ownership and closes it on Close.
func WithProvider(provider ai.AIProvider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithParsers replaces the default parser registry.
func WithParsers(parsers *parser.Registry) EngineOption {
	return func(o *engineOptions) {
		o.parsers = parsers
	}
}

// WithPools replaces the built-in specialist pool table.
func WithPools(specs []scheduler.PoolSpec) EngineOption {
	return func(o *engineOptions) {
		o.pools = specs
	}
}

// WithChunking sets the chunk size and overlap used when splitting documents.
func WithChunking(size, overlap int) EngineOption {
	return func(o *engineOptions) {
		o.chunkSet = true
		o.chunkSize = size
		o.chunkOverlap = overlap
	}
}

// WithTaskTimeout bounds each external call an ingestion task makes.
func WithTaskTimeout(timeout time.Duration) EngineOption {
	return func(o *engineOptions) {
		o.taskTimeout = timeout
	}
}

// WithIDGenerator sets the generator used for document and task IDs.
func WithIDGenerator(gen core.IDGenerator) EngineOption {
	return func(o *engineOptions) {
		o.idGen = gen
	}
}

// WithMetricsRegisterer enables Prometheus instrumentation on the given
// registerer. Metrics are disabled when this option is absent.
func WithMetricsRegisterer(reg prometheus.Registerer) EngineOption {
	return func(o *engineOptions) {
		o.registerer = reg
	}
}

// WithLogger sets the logger shared by all engine components.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// New builds an Engine. Exactly one storage backend must be selected with
// WithDataDir, WithInMemory or WithRedis. On startup the metadata cache is
// rebuilt from the store, so documents ingested by earlier runs stay
// listable and retrievable.
func New(opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	logger := options.logger

	selected := 0
	if options.dataDir != "" {
		selected++
	}
	if options.inMemory {
		selected++
	}
	if options.redis != nil {
		selected++
	}
	if selected == 0 {
		return nil, ErrNoStorage
	}
	if selected > 1 {
		return nil, ErrConflictingStorage
	}

	// Validate the cheap pieces before opening anything.
	var registry *scheduler.Registry
	if options.pools != nil {
		var err error
		registry, err = scheduler.NewRegistry(options.pools)
		if err != nil {
			return nil, fmt.Errorf("building pool registry: %w", err)
		}
	}

	var split *chunker.Chunker
	if options.chunkSet {
		var err error
		split, err = chunker.New(
			chunker.WithChunkSize(options.chunkSize),
			chunker.WithOverlap(options.chunkOverlap),
		)
		if err != nil {
			return nil, fmt.Errorf("creating chunker: %w", err)
		}
	}

	// Create AI provider with configured settings
	provider := options.provider
	if provider == nil {
		aiConfig := options.aiConfig
		if aiConfig == nil {
			aiConfig = ai.DefaultConfig()
		}
		var err error
		provider, err = openai.NewProvider(aiConfig)
		if err != nil {
			return nil, fmt.Errorf("creating AI provider: %w", err)
		}
	}

	// Open the vector store
	var (
		store vectorstore.Store
		err   error
	)
	switch {
	case options.redis != nil:
		store, err = redisearch.Open(context.Background(), *options.redis,
			provider.Embedder(), redisearch.WithLogger(logger))
	case options.inMemory:
		store, err = badger.OpenMemory(provider.Embedder(), badger.WithLogger(logger))
	default:
		store, err = badger.Open(options.dataDir, provider.Embedder(), badger.WithLogger(logger))
	}
	if err != nil {
		provider.Close()
		return nil, fmt.Errorf("opening vector store: %w", err)
	}

	// Create the document index
	indexOpts := []index.Option{index.WithLogger(logger)}
	if split != nil {
		indexOpts = append(indexOpts, index.WithChunker(split))
	}
	if options.idGen != nil {
		indexOpts = append(indexOpts, index.WithIDGenerator(options.idGen))
	}
	idx, err := index.New(store, indexOpts...)
	if err != nil {
		store.Close()
		provider.Close()
		return nil, fmt.Errorf("creating document index: %w", err)
	}

	// Rebuild the metadata cache from persisted chunks
	if _, err := idx.RebuildFromStore(context.Background()); err != nil {
		store.Close()
		provider.Close()
		return nil, fmt.Errorf("rebuilding metadata cache: %w", err)
	}

	parsers := options.parsers
	if parsers == nil {
		parsers = parser.NewRegistry(parser.WithLogger(logger))
	}

	// Create the batch scheduler
	schedOpts := []scheduler.Option{
		scheduler.WithParsers(parsers),
		scheduler.WithExtractor(provider.PropertyExtractor()),
		scheduler.WithLogger(logger),
	}
	if registry != nil {
		schedOpts = append(schedOpts, scheduler.WithRegistry(registry))
	}
	if options.taskTimeout > 0 {
		schedOpts = append(schedOpts, scheduler.WithTaskTimeout(options.taskTimeout))
	}
	if options.idGen != nil {
		schedOpts = append(schedOpts, scheduler.WithIDGenerator(options.idGen))
	}
	if options.registerer != nil {
		schedOpts = append(schedOpts, scheduler.WithMetrics(scheduler.NewMetrics(options.registerer)))
	}
	sched, err := scheduler.New(idx, schedOpts...)
	if err != nil {
		store.Close()
		provider.Close()
		return nil, fmt.Errorf("creating scheduler: %w", err)
	}

	return &Engine{
		store:     store,
		index:     idx,
		scheduler: sched,
		parsers:   parsers,
		provider:  provider,
		logger:    logger,
	}, nil
}

// Close releases the worker pools, the AI provider and the vector store.
func (e *Engine) Close() error {
	e.scheduler.Release()

	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
	}
	if err := e.store.Close(); err != nil {
		e.logger.Error("error closing vector store", "err", err)
		return err
	}
	return nil
}

// Parsers returns the parser registry so callers can register parsers for
// binary formats (PDF, Office documents). Register parsers before ingesting.
func (e *Engine) Parsers() *parser.Registry {
	return e.parsers
}

// IngestBatch processes a batch of files in parallel across the specialist
// pools and reports per-task and per-pool outcomes.
func (e *Engine) IngestBatch(ctx context.Context, files []scheduler.FileInput) (*scheduler.BatchResult, error) {
	return e.scheduler.IngestBatch(ctx, files)
}

// IngestFile runs the single-file pipeline: parse, extract properties and
// index. The stored document carries source "file_upload". Extraction
// failures degrade to a document without structured data.
func (e *Engine) IngestFile(ctx context.Context, filename string, content []byte) (string, error) {
	fileType, _ := parser.DetectType(filename)

	parsed, err := e.parsers.Parse(ctx, filename, content)
	if err != nil {
		return "", fmt.Errorf("parsing file: %w", err)
	}
	text := parsed.Text()
	if strings.TrimSpace(text) == "" {
		return "", scheduler.ErrNoTextContent
	}

	var properties *core.PropertyData
	if extractor := e.provider.PropertyExtractor(); extractor != nil {
		properties, err = extractor.ExtractProperties(ctx, text)
		if err != nil {
			e.logger.Warn("property extraction failed", "filename", filename, "err", err)
			properties = nil
		}
	}

	return e.index.Store(ctx, index.StoreRequest{
		Content:    text,
		Filename:   filename,
		Type:       fileType,
		Source:     "file_upload",
		Tags:       []string{"uploaded", "processed"},
		FileSize:   int64(len(content)),
		Properties: properties,
	})
}

// Store chunks, embeds and indexes pre-extracted text as a document.
func (e *Engine) Store(ctx context.Context, req index.StoreRequest) (string, error) {
	return e.index.Store(ctx, req)
}

// Search returns the chunks most similar to the query.
func (e *Engine) Search(ctx context.Context, query string, limit int, includeStructured bool) ([]core.SearchHit, error) {
	return e.index.Search(ctx, query, limit, includeStructured)
}

// GetByID reconstructs a document from its stored chunks.
func (e *Engine) GetByID(ctx context.Context, documentID string) (*core.Document, error) {
	return e.index.GetByID(ctx, documentID)
}

// GetAll reconstructs every document in the store.
func (e *Engine) GetAll(ctx context.Context) ([]core.Document, error) {
	return e.index.GetAll(ctx)
}

// Meta returns the cached metadata for a document.
func (e *Engine) Meta(documentID string) (*core.DocumentMeta, bool) {
	return e.index.Meta(documentID)
}

// Metas lists the cached metadata of all documents, oldest first.
func (e *Engine) Metas() []core.DocumentMeta {
	return e.index.Metas()
}

// Stats summarizes the indexed documents.
func (e *Engine) Stats() core.IndexStats {
	return e.index.Stats()
}

// DeleteByID removes one document.
func (e *Engine) DeleteByID(ctx context.Context, documentID string) error {
	return e.index.DeleteByID(ctx, documentID)
}

// DeleteByIDs removes several documents, reporting per-document outcomes.
func (e *Engine) DeleteByIDs(ctx context.Context, documentIDs []string) (*index.BulkDeleteResult, error) {
	return e.index.DeleteByIDs(ctx, documentIDs)
}

// DeleteWhere removes every document matching the filter.
func (e *Engine) DeleteWhere(ctx context.Context, filter index.DeleteFilter) (*index.BulkDeleteResult, error) {
	return e.index.DeleteWhere(ctx, filter)
}

// ClearAll removes every document and returns how many were removed.
func (e *Engine) ClearAll(ctx context.Context) (int, error) {
	return e.index.ClearAll(ctx)
}

// CleanupOrphans removes chunks whose document is no longer in the cache.
func (e *Engine) CleanupOrphans(ctx context.Context) ([]string, error) {
	return e.index.CleanupOrphans(ctx)
}

// RebuildFromStore rebuilds the metadata cache from persisted chunks.
func (e *Engine) RebuildFromStore(ctx context.Context) (int, error) {
	return e.index.RebuildFromStore(ctx)
}

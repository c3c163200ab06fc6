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


package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/poiesic/corpus/chunker"
	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/vectorstore"
)

const (
	// defaultSearchLimit is used when a caller passes a non-positive limit.
	defaultSearchLimit = 5

	// probeLimit is the per-document chunk probe size for content
	// reconstruction. No single document is expected to exceed it.
	probeLimit = 1000

	// defaultConcurrency bounds parallel per-document store probes.
	defaultConcurrency = 8
)

// Index maintains the in-memory metadata cache and drives the chunker and
// vector store for every document operation.
type Index struct {
	store       vectorstore.Store
	splitter    *chunker.Chunker
	newID       core.IDGenerator
	concurrency int
	logger      *slog.Logger

	mu   sync.RWMutex
	docs map[string]*core.DocumentMeta
}

// Option configures an Index.
type Option func(*Index) error

// WithChunker sets a custom text chunker.
// Default uses chunker.New() with its standard size and overlap.
func WithChunker(c *chunker.Chunker) Option {
	return func(idx *Index) error {
		if c == nil {
			return errors.New("chunker cannot be nil")
		}
		idx.splitter = c
		return nil
	}
}

// WithIDGenerator sets the document ID source.
// Default is core.NewUUID.
func WithIDGenerator(gen core.IDGenerator) Option {
	return func(idx *Index) error {
		if gen == nil {
			return errors.New("id generator cannot be nil")
		}
		idx.newID = gen
		return nil
	}
}

// WithConcurrency bounds how many documents are probed in parallel during
// GetAll and RebuildFromStore.
// Default is 8.
func WithConcurrency(n int) Option {
	return func(idx *Index) error {
		if n < 1 {
			return fmt.Errorf("concurrency must be positive, got %d", n)
		}
		idx.concurrency = n
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(idx *Index) error {
		if logger == nil {
			logger = slog.Default()
		}
		idx.logger = logger
		return nil
	}
}

// New creates an Index over the given store with an empty metadata cache.
// Call RebuildFromStore afterwards to adopt documents from a previous run.
func New(store vectorstore.Store, opts ...Option) (*Index, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}

	splitter, err := chunker.New()
	if err != nil {
		return nil, err
	}

	idx := &Index{
		store:       store,
		splitter:    splitter,
		newID:       core.NewUUID,
		concurrency: defaultConcurrency,
		logger:      slog.Default(),
		docs:        make(map[string]*core.DocumentMeta),
	}

	for _, opt := range opts {
		if err := opt(idx); err != nil {
			return nil, err
		}
	}
	idx.logger = idx.logger.With("component", "index")

	return idx, nil
}

// StoreRequest describes one document to ingest.
type StoreRequest struct {
	// Content is the full extracted text of the document.
	Content string

	// Filename is the original file name, kept for display and filtering.
	Filename string

	// Type is the document format. Empty defaults to txt.
	Type core.DocumentType

	// Source records the ingestion path, for example "file_upload" or
	// "parallel_upload".
	Source string

	// Tags are free-form labels attached to the document and all its chunks.
	Tags []string

	// FileSize is the original file size in bytes. Zero defaults to the
	// content length.
	FileSize int64

	// Properties holds extracted structured data, nil when extraction was
	// skipped or found nothing.
	Properties *core.PropertyData
}

// Store chunks the content, persists the chunks with their embeddings, and
// caches the document metadata. The cache is only updated after the store
// accepted every chunk.
func (idx *Index) Store(ctx context.Context, req StoreRequest) (string, error) {
	if strings.TrimSpace(req.Content) == "" {
		return "", core.ErrEmptyContent
	}
	if strings.TrimSpace(req.Filename) == "" {
		return "", core.ErrEmptyFilename
	}
	docType := req.Type
	if docType == "" {
		docType = core.DocumentTypeTXT
	}
	if !docType.Valid() {
		return "", core.ErrInvalidDocumentType
	}

	pieces, err := idx.splitter.Split(req.Content)
	if err != nil {
		return "", fmt.Errorf("splitting content: %w", err)
	}
	if len(pieces) == 0 {
		return "", core.ErrEmptyContent
	}

	docID := idx.newID()
	uploadedAt := time.Now().UTC()
	tags := slices.Clone(req.Tags)
	hasStructured := req.Properties != nil

	chunks := make([]core.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = core.Chunk{
			DocumentID:        docID,
			ChunkIndex:        i,
			TotalChunks:       len(pieces),
			Text:              piece,
			Filename:          req.Filename,
			Type:              docType,
			Source:            req.Source,
			UploadedAt:        uploadedAt,
			Tags:              tags,
			HasStructuredData: hasStructured,
		}
	}

	if err := idx.store.AddChunks(ctx, chunks); err != nil {
		return "", fmt.Errorf("storing chunks: %w", err)
	}

	size := req.FileSize
	if size == 0 {
		size = int64(len(req.Content))
	}

	idx.mu.Lock()
	idx.docs[docID] = &core.DocumentMeta{
		DocumentID:        docID,
		Filename:          req.Filename,
		Type:              docType,
		UploadedAt:        uploadedAt,
		FileSize:          size,
		Source:            req.Source,
		Tags:              tags,
		HasStructuredData: hasStructured,
		Properties:        req.Properties,
	}
	idx.mu.Unlock()

	idx.logger.Info("document stored",
		"documentID", docID,
		"filename", req.Filename,
		"chunks", len(pieces))
	return docID, nil
}

// Search runs a similarity query and attaches cached document metadata to
// each hit. Chunks whose document has no cache entry are dropped. When
// includeStructured is false, chunks from documents with structured data are
// excluded from the search entirely.
func (idx *Index) Search(ctx context.Context, query string, limit int, includeStructured bool) ([]core.SearchHit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	var filter vectorstore.Filter
	if !includeStructured {
		plain := false
		filter.HasStructuredData = &plain
	}

	scored, err := idx.store.Query(ctx, query, limit, filter)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	hits := make([]core.SearchHit, 0, len(scored))
	for _, sc := range scored {
		meta, ok := idx.docs[sc.DocumentID]
		if !ok {
			idx.logger.Debug("dropping hit without cached metadata", "documentID", sc.DocumentID)
			continue
		}
		hits = append(hits, core.SearchHit{
			DocumentID:        sc.DocumentID,
			Filename:          meta.Filename,
			Type:              meta.Type,
			Content:           sc.Text,
			Score:             sc.Score,
			ChunkIndex:        sc.ChunkIndex,
			TotalChunks:       sc.TotalChunks,
			Source:            meta.Source,
			UploadedAt:        meta.UploadedAt,
			Tags:              slices.Clone(meta.Tags),
			HasStructuredData: meta.HasStructuredData,
		})
	}
	return hits, nil
}

// GetByID reconstructs a document from its stored chunks, joined in chunk
// order. The store is authoritative here so documents survive cache loss.
func (idx *Index) GetByID(ctx context.Context, documentID string) (*core.Document, error) {
	if documentID == "" {
		return nil, core.ErrEmptyDocumentID
	}

	scored, err := idx.store.Query(ctx, " ", probeLimit, vectorstore.Filter{DocumentID: documentID})
	if err != nil {
		return nil, fmt.Errorf("loading chunks: %w", err)
	}
	if len(scored) == 0 {
		return nil, ErrDocumentNotFound
	}

	slices.SortFunc(scored, func(a, b core.ScoredChunk) int {
		return a.ChunkIndex - b.ChunkIndex
	})

	parts := make([]string, len(scored))
	for i, sc := range scored {
		parts[i] = sc.Text
	}

	first := scored[0].Chunk
	doc := &core.Document{
		DocumentID: documentID,
		Filename:   first.Filename,
		Type:       first.Type,
		Content:    strings.Join(parts, "\n"),
		ChunkCount: len(scored),
		Source:     first.Source,
		UploadedAt: first.UploadedAt,
		Tags:       slices.Clone(first.Tags),
	}

	// Cached metadata wins over the denormalized chunk copies when present.
	idx.mu.RLock()
	if meta, ok := idx.docs[documentID]; ok {
		doc.Filename = meta.Filename
		doc.Type = meta.Type
		doc.Source = meta.Source
		doc.UploadedAt = meta.UploadedAt
		doc.Tags = slices.Clone(meta.Tags)
	}
	idx.mu.RUnlock()

	return doc, nil
}

// GetAll reconstructs every document in the store, probing documents in
// parallel. Documents deleted while the listing runs are skipped.
func (idx *Index) GetAll(ctx context.Context) ([]core.Document, error) {
	ids, err := idx.store.DocumentIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	docs := make([]*core.Document, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			doc, err := idx.GetByID(gctx, id)
			if err != nil {
				if errors.Is(err, ErrDocumentNotFound) {
					return nil
				}
				return err
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]core.Document, 0, len(ids))
	for _, doc := range docs {
		if doc != nil {
			out = append(out, *doc)
		}
	}
	return out, nil
}

// Meta returns a copy of the cached metadata record for a document.
func (idx *Index) Meta(documentID string) (*core.DocumentMeta, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	meta, ok := idx.docs[documentID]
	if !ok {
		return nil, false
	}
	clone := *meta
	clone.Tags = slices.Clone(meta.Tags)
	return &clone, true
}

// Metas returns a snapshot of every cached metadata record, ordered by upload
// time, then document ID for a stable listing.
func (idx *Index) Metas() []core.DocumentMeta {
	idx.mu.RLock()
	metas := make([]core.DocumentMeta, 0, len(idx.docs))
	for _, meta := range idx.docs {
		clone := *meta
		clone.Tags = slices.Clone(meta.Tags)
		metas = append(metas, clone)
	}
	idx.mu.RUnlock()

	slices.SortFunc(metas, func(a, b core.DocumentMeta) int {
		if !a.UploadedAt.Equal(b.UploadedAt) {
			if a.UploadedAt.Before(b.UploadedAt) {
				return -1
			}
			return 1
		}
		return strings.Compare(a.DocumentID, b.DocumentID)
	})
	return metas
}

// Stats summarizes the metadata cache. It never touches the store.
func (idx *Index) Stats() core.IndexStats {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	stats := core.IndexStats{
		DocumentsByType: make(map[core.DocumentType]int),
	}
	for _, meta := range idx.docs {
		stats.TotalDocuments++
		stats.TotalSizeBytes += meta.FileSize
		stats.DocumentsByType[meta.Type]++
		if meta.HasStructuredData {
			stats.WithStructuredData++
		} else {
			stats.WithoutStructuredData++
		}
	}
	return stats
}

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
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/vectorstore"
)

// RebuildFromStore replaces the metadata cache with records reconstructed
// from the chunks in the store. One chunk per document is probed; documents
// deleted while the rebuild runs are skipped. Extracted properties are not
// persisted with chunks and cannot be recovered here.
func (idx *Index) RebuildFromStore(ctx context.Context) (int, error) {
	ids, err := idx.store.DocumentIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing documents: %w", err)
	}

	rebuilt := make([]*core.DocumentMeta, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			scored, err := idx.store.Query(gctx, " ", 1, vectorstore.Filter{DocumentID: id})
			if err != nil {
				return fmt.Errorf("probing document %s: %w", id, err)
			}
			if len(scored) == 0 {
				return nil
			}
			rebuilt[i] = metaFromChunk(id, &scored[0].Chunk)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	docs := make(map[string]*core.DocumentMeta, len(ids))
	for _, meta := range rebuilt {
		if meta != nil {
			docs[meta.DocumentID] = meta
		}
	}

	idx.mu.Lock()
	idx.docs = docs
	idx.mu.Unlock()

	idx.logger.Info("metadata cache rebuilt", "documents", len(docs))
	return len(docs), nil
}

// metaFromChunk reconstructs a metadata record from one denormalized chunk.
// Fields older stores may not have carried fall back to safe defaults. The
// original file size is not stored with chunks, so it rebuilds as zero.
func metaFromChunk(documentID string, chunk *core.Chunk) *core.DocumentMeta {
	filename := chunk.Filename
	if filename == "" {
		filename = "Unknown"
	}
	docType := chunk.Type
	if docType == "" {
		docType = core.DocumentTypeTXT
	}
	source := chunk.Source
	if source == "" {
		source = "unknown"
	}

	return &core.DocumentMeta{
		DocumentID:        documentID,
		Filename:          filename,
		Type:              docType,
		UploadedAt:        chunk.UploadedAt,
		Source:            source,
		Tags:              slices.Clone(chunk.Tags),
		HasStructuredData: chunk.HasStructuredData,
	}
}

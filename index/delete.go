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
	"slices"
	"time"

	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/vectorstore"
)

// DeleteByID removes a document from the cache and its chunks from the store.
// The cache is authoritative for existence: unknown IDs fail with
// ErrDocumentNotFound before the store is touched. The cache entry is removed
// even when the store delete fails afterwards, so a failed delete leaves
// orphaned chunks for CleanupOrphans rather than a half-visible document.
func (idx *Index) DeleteByID(ctx context.Context, documentID string) error {
	if documentID == "" {
		return core.ErrEmptyDocumentID
	}

	idx.mu.Lock()
	_, ok := idx.docs[documentID]
	if !ok {
		idx.mu.Unlock()
		return ErrDocumentNotFound
	}
	delete(idx.docs, documentID)
	idx.mu.Unlock()

	if _, err := idx.store.DeleteWhere(ctx, vectorstore.Filter{DocumentID: documentID}); err != nil {
		return fmt.Errorf("deleting chunks for %s: %w", documentID, err)
	}

	idx.logger.Info("document deleted", "documentID", documentID)
	return nil
}

// FailedDelete records one document that could not be deleted in a bulk
// operation.
type FailedDelete struct {
	DocumentID string
	Reason     string
}

// BulkDeleteResult summarizes a multi-document delete.
type BulkDeleteResult struct {
	Requested int
	Deleted   []string
	Failed    []FailedDelete
	Success   bool
	Message   string
}

// DeleteByIDs deletes each document in turn and reports per-ID outcomes
// rather than stopping at the first failure.
func (idx *Index) DeleteByIDs(ctx context.Context, documentIDs []string) (*BulkDeleteResult, error) {
	if len(documentIDs) == 0 {
		return nil, ErrNoDocumentIDs
	}

	result := &BulkDeleteResult{Requested: len(documentIDs)}
	for _, id := range documentIDs {
		if err := idx.DeleteByID(ctx, id); err != nil {
			result.Failed = append(result.Failed, FailedDelete{DocumentID: id, Reason: err.Error()})
			continue
		}
		result.Deleted = append(result.Deleted, id)
	}

	result.Success = len(result.Failed) == 0
	result.Message = fmt.Sprintf("Successfully deleted %d out of %d documents",
		len(result.Deleted), result.Requested)
	return result, nil
}

// DeleteFilter selects documents by cached metadata. Zero-valued fields are
// ignored; set fields must all match.
type DeleteFilter struct {
	// Filename matches exactly.
	Filename string

	// Type matches the document format.
	Type core.DocumentType

	// Source matches the ingestion path.
	Source string

	// Tags matches documents carrying at least one of the listed tags.
	Tags []string

	// OlderThanDays matches documents uploaded strictly before now minus
	// the given number of days.
	OlderThanDays int
}

// IsZero reports whether no criteria are set.
func (f DeleteFilter) IsZero() bool {
	return f.Filename == "" && f.Type == "" && f.Source == "" &&
		len(f.Tags) == 0 && f.OlderThanDays == 0
}

func (f DeleteFilter) matches(meta *core.DocumentMeta, now time.Time) bool {
	if f.Filename != "" && meta.Filename != f.Filename {
		return false
	}
	if f.Type != "" && meta.Type != f.Type {
		return false
	}
	if f.Source != "" && meta.Source != f.Source {
		return false
	}
	if len(f.Tags) > 0 {
		any := false
		for _, tag := range f.Tags {
			if slices.Contains(meta.Tags, tag) {
				any = true
				break
			}
		}
		if !any {
			return false
		}
	}
	if f.OlderThanDays > 0 {
		cutoff := now.AddDate(0, 0, -f.OlderThanDays)
		if !meta.UploadedAt.Before(cutoff) {
			return false
		}
	}
	return true
}

// DeleteWhere deletes every cached document matching the filter. An empty
// filter is rejected; use ClearAll to wipe the index.
func (idx *Index) DeleteWhere(ctx context.Context, filter DeleteFilter) (*BulkDeleteResult, error) {
	if filter.IsZero() {
		return nil, ErrEmptyFilter
	}

	now := time.Now().UTC()
	idx.mu.RLock()
	var matched []string
	for id, meta := range idx.docs {
		if filter.matches(meta, now) {
			matched = append(matched, id)
		}
	}
	idx.mu.RUnlock()

	if len(matched) == 0 {
		return &BulkDeleteResult{
			Success: true,
			Message: "No documents matched the filter",
		}, nil
	}

	slices.Sort(matched)
	return idx.DeleteByIDs(ctx, matched)
}

// ClearAll removes every document from the store and resets the cache. It
// works from the store's document listing so orphaned chunks are cleared too.
func (idx *Index) ClearAll(ctx context.Context) (int, error) {
	ids, err := idx.store.DocumentIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing documents: %w", err)
	}

	var errs []error
	deleted := 0
	for _, id := range ids {
		if _, err := idx.store.DeleteWhere(ctx, vectorstore.Filter{DocumentID: id}); err != nil {
			errs = append(errs, fmt.Errorf("deleting chunks for %s: %w", id, err))
			continue
		}
		deleted++
	}

	idx.mu.Lock()
	idx.docs = make(map[string]*core.DocumentMeta)
	idx.mu.Unlock()

	if len(errs) > 0 {
		return deleted, errors.Join(errs...)
	}
	idx.logger.Info("index cleared", "documents", deleted)
	return deleted, nil
}

// CleanupOrphans deletes chunks whose document has no cache entry. Orphans
// accumulate when a delete removes the cache entry but the store delete
// fails, or when the cache was rebuilt from a partial store.
func (idx *Index) CleanupOrphans(ctx context.Context) ([]string, error) {
	ids, err := idx.store.DocumentIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	idx.mu.RLock()
	var orphans []string
	for _, id := range ids {
		if _, ok := idx.docs[id]; !ok {
			orphans = append(orphans, id)
		}
	}
	idx.mu.RUnlock()

	if len(orphans) == 0 {
		return nil, nil
	}

	var errs []error
	cleaned := make([]string, 0, len(orphans))
	for _, id := range orphans {
		if _, err := idx.store.DeleteWhere(ctx, vectorstore.Filter{DocumentID: id}); err != nil {
			errs = append(errs, fmt.Errorf("deleting orphaned chunks for %s: %w", id, err))
			continue
		}
		cleaned = append(cleaned, id)
	}

	if len(errs) > 0 {
		return cleaned, errors.Join(errs...)
	}
	if len(cleaned) > 0 {
		idx.logger.Info("orphaned chunks cleaned", "documents", len(cleaned))
	}
	return cleaned, nil
}

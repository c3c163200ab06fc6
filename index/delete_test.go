package index

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/vectorstore"
)

func TestDeleteByID(t *testing.T) {
	idx, store := newTestIndex(t)
	ctx := context.Background()

	docID, err := idx.Store(ctx, StoreRequest{Content: "short lived", Filename: "tmp.txt"})
	require.NoError(t, err)

	require.NoError(t, idx.DeleteByID(ctx, docID))

	_, ok := idx.Meta(docID)
	assert.False(t, ok)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	_, err = idx.GetByID(ctx, docID)
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestDeleteByID_NotFound(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	err := idx.DeleteByID(ctx, "no-such-doc")
	assert.ErrorIs(t, err, ErrDocumentNotFound)

	err = idx.DeleteByID(ctx, "")
	assert.ErrorIs(t, err, core.ErrEmptyDocumentID)
}

func TestDeleteByIDs(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	first, err := idx.Store(ctx, StoreRequest{Content: "first body", Filename: "1.txt"})
	require.NoError(t, err)
	second, err := idx.Store(ctx, StoreRequest{Content: "second body", Filename: "2.txt"})
	require.NoError(t, err)

	result, err := idx.DeleteByIDs(ctx, []string{first, "ghost", second})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Requested)
	assert.ElementsMatch(t, []string{first, second}, result.Deleted)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "ghost", result.Failed[0].DocumentID)
	assert.Contains(t, result.Failed[0].Reason, "not found")
	assert.False(t, result.Success)
	assert.Equal(t, "Successfully deleted 2 out of 3 documents", result.Message)
}

func TestDeleteByIDs_AllSucceed(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	docID, err := idx.Store(ctx, StoreRequest{Content: "only one", Filename: "only.txt"})
	require.NoError(t, err)

	result, err := idx.DeleteByIDs(ctx, []string{docID})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "Successfully deleted 1 out of 1 documents", result.Message)
}

func TestDeleteByIDs_Empty(t *testing.T) {
	idx, _ := newTestIndex(t)

	_, err := idx.DeleteByIDs(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoDocumentIDs)
}

func TestDeleteFilterMatches(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	meta := &core.DocumentMeta{
		DocumentID: "doc-1",
		Filename:   "report.pdf",
		Type:       core.DocumentTypePDF,
		UploadedAt: now.AddDate(0, 0, -10),
		Source:     "file_upload",
		Tags:       []string{"uploaded", "q2"},
	}

	tests := []struct {
		name   string
		filter DeleteFilter
		want   bool
	}{
		{"filename match", DeleteFilter{Filename: "report.pdf"}, true},
		{"filename mismatch", DeleteFilter{Filename: "other.pdf"}, false},
		{"type match", DeleteFilter{Type: core.DocumentTypePDF}, true},
		{"type mismatch", DeleteFilter{Type: core.DocumentTypeTXT}, false},
		{"source match", DeleteFilter{Source: "file_upload"}, true},
		{"source mismatch", DeleteFilter{Source: "parallel_upload"}, false},
		{"any tag matches", DeleteFilter{Tags: []string{"missing", "q2"}}, true},
		{"no tag matches", DeleteFilter{Tags: []string{"missing"}}, false},
		{"older than matches", DeleteFilter{OlderThanDays: 5}, true},
		{"older than misses recent", DeleteFilter{OlderThanDays: 30}, false},
		{"combined all match", DeleteFilter{Filename: "report.pdf", Type: core.DocumentTypePDF, OlderThanDays: 5}, true},
		{"combined one misses", DeleteFilter{Filename: "report.pdf", Type: core.DocumentTypeTXT}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.matches(meta, now))
		})
	}
}

func TestDeleteFilterIsZero(t *testing.T) {
	assert.True(t, DeleteFilter{}.IsZero())
	assert.False(t, DeleteFilter{Filename: "a"}.IsZero())
	assert.False(t, DeleteFilter{Type: core.DocumentTypeTXT}.IsZero())
	assert.False(t, DeleteFilter{Source: "x"}.IsZero())
	assert.False(t, DeleteFilter{Tags: []string{"t"}}.IsZero())
	assert.False(t, DeleteFilter{OlderThanDays: 1}.IsZero())
}

func TestDeleteWhere(t *testing.T) {
	idx, store := newTestIndex(t)
	ctx := context.Background()

	keepID, err := idx.Store(ctx, StoreRequest{
		Content: "keep this", Filename: "keep.txt", Source: "file_upload",
	})
	require.NoError(t, err)

	batchA, err := idx.Store(ctx, StoreRequest{
		Content: "batch item one", Filename: "a.txt", Source: "parallel_upload",
		Tags: []string{"parallel_processed"},
	})
	require.NoError(t, err)
	batchB, err := idx.Store(ctx, StoreRequest{
		Content: "batch item two", Filename: "b.txt", Source: "parallel_upload",
		Tags: []string{"parallel_processed"},
	})
	require.NoError(t, err)

	result, err := idx.DeleteWhere(ctx, DeleteFilter{Source: "parallel_upload"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.Requested)
	assert.ElementsMatch(t, []string{batchA, batchB}, result.Deleted)

	_, ok := idx.Meta(keepID)
	assert.True(t, ok)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDeleteWhere_NoMatch(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	_, err := idx.Store(ctx, StoreRequest{Content: "untouched", Filename: "u.txt"})
	require.NoError(t, err)

	result, err := idx.DeleteWhere(ctx, DeleteFilter{Filename: "nothing.txt"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "No documents matched the filter", result.Message)
	assert.Empty(t, result.Deleted)
	assert.Equal(t, 1, idx.Stats().TotalDocuments)
}

func TestDeleteWhere_EmptyFilter(t *testing.T) {
	idx, _ := newTestIndex(t)

	_, err := idx.DeleteWhere(context.Background(), DeleteFilter{})
	assert.ErrorIs(t, err, ErrEmptyFilter)
}

func TestClearAll(t *testing.T) {
	idx, store := newTestIndex(t)
	ctx := context.Background()

	for _, name := range []string{"x.txt", "y.txt", "z.txt"} {
		_, err := idx.Store(ctx, StoreRequest{Content: "content of " + name, Filename: name})
		require.NoError(t, err)
	}

	deleted, err := idx.ClearAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)
	assert.Equal(t, 0, idx.Stats().TotalDocuments)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestClearAll_Empty(t *testing.T) {
	idx, _ := newTestIndex(t)

	deleted, err := idx.ClearAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, deleted)
}

func TestCleanupOrphans(t *testing.T) {
	idx, store := newTestIndex(t)
	ctx := context.Background()

	cachedID, err := idx.Store(ctx, StoreRequest{Content: "cached doc", Filename: "c.txt"})
	require.NoError(t, err)

	// Write chunks the index never saw, simulating leftovers from a failed
	// delete or a previous process.
	orphan := core.Chunk{
		DocumentID:  "orphan-doc",
		ChunkIndex:  0,
		TotalChunks: 1,
		Text:        "stray chunk",
		Filename:    "stray.txt",
		Type:        core.DocumentTypeTXT,
		UploadedAt:  time.Now().UTC(),
	}
	require.NoError(t, store.AddChunks(ctx, []core.Chunk{orphan}))

	cleaned, err := idx.CleanupOrphans(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"orphan-doc"}, cleaned)

	ids, err := store.DocumentIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{cachedID}, ids)
}

func TestCleanupOrphans_None(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	_, err := idx.Store(ctx, StoreRequest{Content: "all accounted for", Filename: "ok.txt"})
	require.NoError(t, err)

	cleaned, err := idx.CleanupOrphans(ctx)
	require.NoError(t, err)
	assert.Empty(t, cleaned)
}

func TestDeleteByID_KeepsOtherDocuments(t *testing.T) {
	idx, store := newTestIndex(t)
	ctx := context.Background()

	doomed, err := idx.Store(ctx, StoreRequest{Content: "doomed text", Filename: "d.txt"})
	require.NoError(t, err)
	survivor, err := idx.Store(ctx, StoreRequest{Content: "surviving text", Filename: "s.txt"})
	require.NoError(t, err)

	require.NoError(t, idx.DeleteByID(ctx, doomed))

	scored, err := store.Query(ctx, " ", 10, vectorstore.Filter{})
	require.NoError(t, err)
	require.Len(t, scored, 1)
	assert.Equal(t, survivor, scored[0].DocumentID)
}

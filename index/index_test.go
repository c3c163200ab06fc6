package index

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/corpus/ai/mock"
	"github.com/poiesic/corpus/chunker"
	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/vectorstore"
	"github.com/poiesic/corpus/vectorstore/badger"
)

// axisVector maps keyword families onto orthogonal axes so similarity
// rankings in tests are exact rather than hash-dependent.
func axisVector(text string) []float32 {
	vec := make([]float32, 3)
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "logistics"):
		vec[0] = 1
	case strings.Contains(lower, "office"):
		vec[1] = 1
	default:
		vec[2] = 1
	}
	return vec
}

func axisEmbedder() *mock.MockEmbedder {
	emb := mock.NewMockEmbedder()
	emb.EmbedTextFunc = func(_ context.Context, text string) ([]float32, error) {
		return axisVector(text), nil
	}
	emb.EmbedTextsFunc = func(_ context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i, t := range texts {
			out[i] = axisVector(t)
		}
		return out, nil
	}
	return emb
}

func openTestStore(t *testing.T) vectorstore.Store {
	t.Helper()

	store, err := badger.OpenMemory(axisEmbedder())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newTestIndex(t *testing.T, opts ...Option) (*Index, vectorstore.Store) {
	t.Helper()

	store := openTestStore(t)
	idx, err := New(store, opts...)
	require.NoError(t, err)
	return idx, store
}

func TestNew_RequiresStore(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrStoreRequired)
}

func TestNew_OptionErrors(t *testing.T) {
	store := openTestStore(t)

	_, err := New(store, WithConcurrency(0))
	assert.Error(t, err)

	_, err = New(store, WithChunker(nil))
	assert.Error(t, err)

	_, err = New(store, WithIDGenerator(nil))
	assert.Error(t, err)
}

func TestStore_Validation(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	_, err := idx.Store(ctx, StoreRequest{Content: "   ", Filename: "a.txt"})
	assert.ErrorIs(t, err, core.ErrEmptyContent)

	_, err = idx.Store(ctx, StoreRequest{Content: "hello", Filename: ""})
	assert.ErrorIs(t, err, core.ErrEmptyFilename)

	_, err = idx.Store(ctx, StoreRequest{Content: "hello", Filename: "a.zip", Type: core.DocumentType("zip")})
	assert.ErrorIs(t, err, core.ErrInvalidDocumentType)
}

func TestStore_Defaults(t *testing.T) {
	idx, _ := newTestIndex(t)

	docID, err := idx.Store(context.Background(), StoreRequest{
		Content:  "plain note about nothing",
		Filename: "note",
	})
	require.NoError(t, err)
	require.NotEmpty(t, docID)

	meta, ok := idx.Meta(docID)
	require.True(t, ok)
	assert.Equal(t, core.DocumentTypeTXT, meta.Type)
	assert.Equal(t, int64(len("plain note about nothing")), meta.FileSize)
	assert.False(t, meta.HasStructuredData)
	assert.Nil(t, meta.Properties)
	assert.False(t, meta.UploadedAt.IsZero())
}

func TestStoreAndGetByID(t *testing.T) {
	idx, store := newTestIndex(t)
	ctx := context.Background()

	docID, err := idx.Store(ctx, StoreRequest{
		Content:  "logistics hub near the port",
		Filename: "hub.txt",
		Type:     core.DocumentTypeTXT,
		Source:   "file_upload",
		Tags:     []string{"uploaded", "processed"},
		FileSize: 4096,
	})
	require.NoError(t, err)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	doc, err := idx.GetByID(ctx, docID)
	require.NoError(t, err)
	assert.Equal(t, docID, doc.DocumentID)
	assert.Equal(t, "hub.txt", doc.Filename)
	assert.Equal(t, core.DocumentTypeTXT, doc.Type)
	assert.Equal(t, "logistics hub near the port", doc.Content)
	assert.Equal(t, 1, doc.ChunkCount)
	assert.Equal(t, "file_upload", doc.Source)
	assert.Equal(t, []string{"uploaded", "processed"}, doc.Tags)
}

func TestStore_MultiChunk(t *testing.T) {
	small, err := chunker.New(chunker.WithChunkSize(40), chunker.WithOverlap(0))
	require.NoError(t, err)

	idx, store := newTestIndex(t, WithChunker(small))
	ctx := context.Background()

	content := "first paragraph about the logistics site\n\n" +
		"second paragraph describing the tenant\n\n" +
		"third paragraph with lease details"
	docID, err := idx.Store(ctx, StoreRequest{Content: content, Filename: "multi.txt"})
	require.NoError(t, err)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Greater(t, count, 1)

	doc, err := idx.GetByID(ctx, docID)
	require.NoError(t, err)
	assert.Equal(t, count, doc.ChunkCount)

	// Chunks come back joined in original order.
	first := strings.Index(doc.Content, "first paragraph")
	second := strings.Index(doc.Content, "second paragraph")
	third := strings.Index(doc.Content, "third paragraph")
	assert.GreaterOrEqual(t, first, 0)
	assert.Greater(t, second, first)
	assert.Greater(t, third, second)
}

func TestGetByID_NotFound(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	_, err := idx.GetByID(ctx, "missing-doc")
	assert.ErrorIs(t, err, ErrDocumentNotFound)

	_, err = idx.GetByID(ctx, "")
	assert.ErrorIs(t, err, core.ErrEmptyDocumentID)
}

func TestSearch(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	logID, err := idx.Store(ctx, StoreRequest{
		Content:  "logistics warehouse with cross docking",
		Filename: "warehouse.pdf",
		Type:     core.DocumentTypePDF,
		Source:   "file_upload",
		Tags:     []string{"uploaded"},
	})
	require.NoError(t, err)

	_, err = idx.Store(ctx, StoreRequest{
		Content:  "office tower in the city center",
		Filename: "tower.txt",
	})
	require.NoError(t, err)

	hits, err := idx.Search(ctx, "logistics space wanted", 5, true)
	require.NoError(t, err)
	require.NotEmpty(t, hits)

	top := hits[0]
	assert.Equal(t, logID, top.DocumentID)
	assert.Equal(t, "warehouse.pdf", top.Filename)
	assert.Equal(t, core.DocumentTypePDF, top.Type)
	assert.Equal(t, "logistics warehouse with cross docking", top.Content)
	assert.Equal(t, "file_upload", top.Source)
	assert.Equal(t, []string{"uploaded"}, top.Tags)
	assert.InDelta(t, 1.0, top.Score, 0.001)
	assert.Equal(t, 0, top.ChunkIndex)
	assert.Equal(t, 1, top.TotalChunks)
}

func TestSearch_EmptyQuery(t *testing.T) {
	idx, _ := newTestIndex(t)

	_, err := idx.Search(context.Background(), "   ", 5, true)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestSearch_DefaultLimit(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		_, err := idx.Store(ctx, StoreRequest{
			Content:  fmt.Sprintf("logistics facility number %d", i),
			Filename: fmt.Sprintf("f%d.txt", i),
		})
		require.NoError(t, err)
	}

	hits, err := idx.Search(ctx, "logistics", 0, true)
	require.NoError(t, err)
	assert.Len(t, hits, 5)
}

func TestSearch_StructuredDataFilter(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	plainID, err := idx.Store(ctx, StoreRequest{
		Content:  "logistics memo without attributes",
		Filename: "memo.txt",
	})
	require.NoError(t, err)

	richID, err := idx.Store(ctx, StoreRequest{
		Content:    "logistics teaser with attributes",
		Filename:   "teaser.pdf",
		Type:       core.DocumentTypePDF,
		Properties: &core.PropertyData{Kind: core.PropertyLogistics},
	})
	require.NoError(t, err)

	hits, err := idx.Search(ctx, "logistics", 10, false)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, plainID, hits[0].DocumentID)
	assert.False(t, hits[0].HasStructuredData)

	hits, err = idx.Search(ctx, "logistics", 10, true)
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	ids := []string{hits[0].DocumentID, hits[1].DocumentID}
	assert.ElementsMatch(t, []string{plainID, richID}, ids)
}

func TestSearch_DropsUncachedHits(t *testing.T) {
	idx, store := newTestIndex(t)
	ctx := context.Background()

	_, err := idx.Store(ctx, StoreRequest{
		Content:  "logistics chunk in shared store",
		Filename: "shared.txt",
	})
	require.NoError(t, err)

	// A second index over the same store starts with an empty cache, so the
	// stored chunks rank but carry no metadata and are dropped.
	fresh, err := New(store)
	require.NoError(t, err)

	hits, err := fresh.Search(ctx, "logistics", 5, true)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestGetAll(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	want := map[string]string{}
	for i := 0; i < 3; i++ {
		name := fmt.Sprintf("doc%d.txt", i)
		content := fmt.Sprintf("document number %d body", i)
		id, err := idx.Store(ctx, StoreRequest{Content: content, Filename: name})
		require.NoError(t, err)
		want[id] = content
	}

	docs, err := idx.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 3)

	for _, doc := range docs {
		content, ok := want[doc.DocumentID]
		require.True(t, ok, "unexpected document %s", doc.DocumentID)
		assert.Equal(t, content, doc.Content)
	}
}

func TestGetAll_Empty(t *testing.T) {
	idx, _ := newTestIndex(t)

	docs, err := idx.GetAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestStats(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	_, err := idx.Store(ctx, StoreRequest{
		Content: "first text", Filename: "a.txt", FileSize: 100,
	})
	require.NoError(t, err)
	_, err = idx.Store(ctx, StoreRequest{
		Content: "second text", Filename: "b.txt", FileSize: 200,
	})
	require.NoError(t, err)
	_, err = idx.Store(ctx, StoreRequest{
		Content: "slide deck", Filename: "c.pptx", Type: core.DocumentTypePPTX, FileSize: 300,
		Properties: &core.PropertyData{Kind: core.PropertyOffice},
	})
	require.NoError(t, err)

	stats := idx.Stats()
	assert.Equal(t, 3, stats.TotalDocuments)
	assert.Equal(t, int64(600), stats.TotalSizeBytes)
	assert.Equal(t, 2, stats.DocumentsByType[core.DocumentTypeTXT])
	assert.Equal(t, 1, stats.DocumentsByType[core.DocumentTypePPTX])
	assert.Equal(t, 1, stats.WithStructuredData)
	assert.Equal(t, 2, stats.WithoutStructuredData)
}

func TestStats_Empty(t *testing.T) {
	idx, _ := newTestIndex(t)

	stats := idx.Stats()
	assert.Equal(t, 0, stats.TotalDocuments)
	assert.Equal(t, int64(0), stats.TotalSizeBytes)
	assert.Empty(t, stats.DocumentsByType)
}

func TestMeta_ReturnsCopy(t *testing.T) {
	idx, _ := newTestIndex(t)

	docID, err := idx.Store(context.Background(), StoreRequest{
		Content: "tagged text", Filename: "t.txt", Tags: []string{"one"},
	})
	require.NoError(t, err)

	meta, ok := idx.Meta(docID)
	require.True(t, ok)
	meta.Tags[0] = "mutated"
	meta.Filename = "changed"

	again, ok := idx.Meta(docID)
	require.True(t, ok)
	assert.Equal(t, []string{"one"}, again.Tags)
	assert.Equal(t, "t.txt", again.Filename)

	_, ok = idx.Meta("missing")
	assert.False(t, ok)
}

func TestMetas_Ordering(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := idx.Store(ctx, StoreRequest{
			Content:  fmt.Sprintf("entry %d", i),
			Filename: fmt.Sprintf("m%d.txt", i),
		})
		require.NoError(t, err)
		ids = append(ids, id)
		time.Sleep(time.Millisecond)
	}

	metas := idx.Metas()
	require.Len(t, metas, 3)
	for i, meta := range metas {
		assert.Equal(t, ids[i], meta.DocumentID)
	}
}

func TestStore_CustomIDGenerator(t *testing.T) {
	next := 0
	gen := func() string {
		next++
		return fmt.Sprintf("doc-%03d", next)
	}

	idx, _ := newTestIndex(t, WithIDGenerator(gen))

	id, err := idx.Store(context.Background(), StoreRequest{
		Content: "generated id", Filename: "g.txt",
	})
	require.NoError(t, err)
	assert.Equal(t, "doc-001", id)
}

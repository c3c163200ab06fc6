package vectorstore

import (
	"context"

	"github.com/poiesic/corpus/core"
)

// Filter narrows queries and deletions by chunk metadata.
// Zero-valued fields are ignored; a zero Filter matches every chunk.
type Filter struct {
	// DocumentID restricts to chunks of one document.
	DocumentID string
	// Type restricts to chunks of one document type.
	Type core.DocumentType
	// HasStructuredData restricts on the structured-data flag when non-nil.
	HasStructuredData *bool
}

// Matches reports whether the chunk satisfies every set field.
func (f Filter) Matches(c *core.Chunk) bool {
	if f.DocumentID != "" && c.DocumentID != f.DocumentID {
		return false
	}
	if f.Type != "" && c.Type != f.Type {
		return false
	}
	if f.HasStructuredData != nil && c.HasStructuredData != *f.HasStructuredData {
		return false
	}
	return true
}

// IsZero reports whether no filter fields are set.
func (f Filter) IsZero() bool {
	return f.DocumentID == "" && f.Type == "" && f.HasStructuredData == nil
}

// Embedder generates embedding vectors for text. It mirrors the ai package's
// embedder so any provider can back a store without importing it.
type Embedder interface {
	// EmbedText generates an embedding vector for a single text.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates embedding vectors for multiple texts.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Store persists document chunks with embeddings and answers similarity
// queries over them. The store owns embedding generation: chunks are embedded
// during AddChunks and query text is embedded during Query.
// Implementations must be thread-safe and support concurrent access.
type Store interface {
	// AddChunks embeds and persists the given chunks atomically.
	// Chunks that already carry a vector are stored as-is.
	AddChunks(ctx context.Context, chunks []core.Chunk) error

	// Query embeds text and returns up to k chunks ranked by cosine
	// similarity (highest first), restricted by the filter.
	Query(ctx context.Context, text string, k int, filter Filter) ([]core.ScoredChunk, error)

	// DeleteWhere removes every chunk matching the filter and returns the
	// number of chunks removed. A zero filter is rejected with
	// ErrEmptyFilter; use ClearAll-style flows through DocumentIDs instead.
	DeleteWhere(ctx context.Context, filter Filter) (int, error)

	// DocumentIDs returns the distinct document IDs present in the store.
	DocumentIDs(ctx context.Context) ([]string, error)

	// Count returns the number of stored chunks.
	Count(ctx context.Context) (int, error)

	// Close closes the store and releases resources.
	Close() error
}

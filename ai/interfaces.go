package ai

import (
	"context"

	"github.com/poiesic/corpus/core"
)

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// PropertyExtractor extracts structured commercial property attributes from
// document text. Implementations must be thread-safe for concurrent use.
type PropertyExtractor interface {
	// ExtractProperties analyzes text and pulls out the property attributes it
	// mentions: names, areas, prices, lease terms, indexation and so on.
	// Returns nil without error when the text contains no property data.
	// Returns an error if the extraction itself fails.
	ExtractProperties(ctx context.Context, text string) (*core.PropertyData, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates and manages Embedder and PropertyExtractor instances,
// ensuring they share configuration and resources appropriately.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// PropertyExtractor returns the property extraction service.
	// The returned PropertyExtractor is safe for concurrent use.
	PropertyExtractor() PropertyExtractor

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}

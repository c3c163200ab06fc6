// Package chunker splits document text into overlapping chunks sized for
// embedding. Splitting is recursive on paragraph, line, and word boundaries
// so chunks break at natural seams where possible.
package chunker

import (
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

const (
	// DefaultChunkSize is the target chunk length in characters.
	DefaultChunkSize = 1000
	// DefaultOverlap is the number of characters shared between
	// consecutive chunks.
	DefaultOverlap = 200
)

// Chunker splits text into overlapping chunks.
type Chunker struct {
	chunkSize int
	overlap   int
	splitter  textsplitter.RecursiveCharacter
}

// Option configures a Chunker.
type Option func(*Chunker) error

// WithChunkSize sets the target chunk length in characters.
// Default is DefaultChunkSize.
func WithChunkSize(size int) Option {
	return func(c *Chunker) error {
		if size <= 0 {
			return ErrInvalidChunkSize
		}
		c.chunkSize = size
		return nil
	}
}

// WithOverlap sets the overlap between consecutive chunks in characters.
// Default is DefaultOverlap. The overlap must be smaller than the chunk size.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) error {
		if overlap < 0 {
			return ErrInvalidOverlap
		}
		c.overlap = overlap
		return nil
	}
}

// New creates a Chunker.
func New(opts ...Option) (*Chunker, error) {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if c.overlap >= c.chunkSize {
		return nil, ErrInvalidOverlap
	}

	c.splitter = textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(c.chunkSize),
		textsplitter.WithChunkOverlap(c.overlap),
	)

	return c, nil
}

// ChunkSize returns the configured chunk length.
func (c *Chunker) ChunkSize() int { return c.chunkSize }

// Overlap returns the configured overlap length.
func (c *Chunker) Overlap() int { return c.overlap }

// Split breaks text into chunks. Empty or whitespace-only input yields no
// chunks and no error; every returned chunk contains non-whitespace text.
func (c *Chunker) Split(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	pieces, err := c.splitter.SplitText(text)
	if err != nil {
		return nil, err
	}

	chunks := make([]string, 0, len(pieces))
	for _, piece := range pieces {
		if strings.TrimSpace(piece) == "" {
			continue
		}
		chunks = append(chunks, piece)
	}

	return chunks, nil
}

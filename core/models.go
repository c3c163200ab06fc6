package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// DocumentType identifies the file format of an ingested document.
type DocumentType string

const (
	DocumentTypePDF  DocumentType = "pdf"
	DocumentTypeDOCX DocumentType = "docx"
	DocumentTypePPTX DocumentType = "pptx"
	DocumentTypeXLSX DocumentType = "xlsx"
	DocumentTypeCSV  DocumentType = "csv"
	DocumentTypeTXT  DocumentType = "txt"
	DocumentTypeRTF  DocumentType = "rtf"
	DocumentTypeODT  DocumentType = "odt"
)

// DocumentTypes lists every valid document type.
var DocumentTypes = []DocumentType{
	DocumentTypePDF,
	DocumentTypeDOCX,
	DocumentTypePPTX,
	DocumentTypeXLSX,
	DocumentTypeCSV,
	DocumentTypeTXT,
	DocumentTypeRTF,
	DocumentTypeODT,
}

// ParseDocumentType converts a string to a DocumentType.
// Matching is case-insensitive; unknown values return ErrInvalidDocumentType.
func ParseDocumentType(s string) (DocumentType, error) {
	t := DocumentType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", ErrInvalidDocumentType
	}
	return t, nil
}

// Valid reports whether t is a known document type.
func (t DocumentType) Valid() bool {
	for _, known := range DocumentTypes {
		if t == known {
			return true
		}
	}
	return false
}

// IDGenerator produces unique identifiers for documents, tasks, and batches.
// Injecting the generator keeps ID assignment reproducible in tests.
type IDGenerator func() string

// NewUUID is the default IDGenerator. It returns a random version 4 UUID.
func NewUUID() string {
	return uuid.NewString()
}

// DocumentMeta is the in-memory metadata record for one ingested document.
// It is a rebuildable projection of the chunk metadata held by the vector
// store. Properties lives only in this record and is not persisted; after a
// rebuild only HasStructuredData survives.
type DocumentMeta struct {
	DocumentID        string
	Filename          string
	Type              DocumentType
	UploadedAt        time.Time
	FileSize          int64
	Source            string
	Tags              []string
	HasStructuredData bool
	Properties        *PropertyData // populated when extraction succeeded
}

// Chunk is the persisted unit of document content. Each chunk carries a copy
// of its parent document's metadata so the store can answer point queries and
// rebuilds without a second lookup.
type Chunk struct {
	DocumentID        string
	ChunkIndex        int
	TotalChunks       int
	Text              string
	Vector            []float32 // embedding, populated by the store on add
	Filename          string
	Type              DocumentType
	Source            string
	UploadedAt        time.Time
	Tags              []string
	HasStructuredData bool
}

// ScoredChunk is a chunk returned from similarity search with its relevance score.
type ScoredChunk struct {
	Chunk
	Score float32
}

// Document is a full document reconstructed from its stored chunks.
type Document struct {
	DocumentID string
	Filename   string
	Type       DocumentType
	Content    string
	ChunkCount int
	Source     string
	UploadedAt time.Time
	Tags       []string
}

// SearchHit is a matching chunk with document metadata attached from the
// in-memory cache.
type SearchHit struct {
	DocumentID        string
	Filename          string
	Type              DocumentType
	Content           string
	Score             float32
	ChunkIndex        int
	TotalChunks       int
	Source            string
	UploadedAt        time.Time
	Tags              []string
	HasStructuredData bool
}

// IndexStats summarizes the in-memory metadata cache.
type IndexStats struct {
	TotalDocuments        int
	TotalSizeBytes        int64
	DocumentsByType       map[DocumentType]int
	WithStructuredData    int
	WithoutStructuredData int
}

// Package parser turns uploaded files into text content for indexing.
//
// Binary formats (PDF, Office documents) are parsed by external
// collaborators registered on a Registry; the package ships built-in parsers
// for plain text and CSV only. File extensions route both parser lookup and
// document-type detection.
package parser

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/poiesic/corpus/core"
)

// Parser extracts content from one file format.
type Parser interface {
	Parse(ctx context.Context, filename string, data []byte) (*ParsedContent, error)
}

// DetectType maps a filename to its document type by extension. The boolean
// result reports whether the extension was recognized; unrecognized files
// fall back to plain text, matching how the ingestion pipeline routes them.
func DetectType(filename string) (core.DocumentType, bool) {
	switch normalizeExt(filename) {
	case "pdf":
		return core.DocumentTypePDF, true
	case "docx", "doc":
		return core.DocumentTypeDOCX, true
	case "pptx", "ppt":
		return core.DocumentTypePPTX, true
	case "xlsx", "xls":
		return core.DocumentTypeXLSX, true
	case "csv", "tsv":
		return core.DocumentTypeCSV, true
	case "txt", "text", "log", "md", "markdown":
		return core.DocumentTypeTXT, true
	case "rtf":
		return core.DocumentTypeRTF, true
	case "odt", "ods", "odp":
		return core.DocumentTypeODT, true
	}
	return core.DocumentTypeTXT, false
}

// Registry maps file extensions to parsers.
type Registry struct {
	mu      sync.RWMutex
	parsers map[string]Parser
	logger  *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry creates a registry with the built-in text and CSV parsers
// registered. Parsers for binary formats are registered by the caller.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		parsers: make(map[string]Parser),
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	text := &TextParser{}
	for _, ext := range []string{"txt", "text", "log", "md", "markdown"} {
		r.parsers[ext] = text
	}

	csv := &CSVParser{}
	r.parsers["csv"] = csv
	r.parsers["tsv"] = csv

	return r
}

// Register associates a parser with a file extension. The extension may be
// given with or without the leading dot. Registering on an extension that
// already has a parser replaces it.
func (r *Registry) Register(ext string, p Parser) {
	if p == nil {
		return
	}
	cleaned := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	if cleaned == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsers[cleaned] = p
	r.logger.Debug("parser registered", "ext", cleaned)
}

// Lookup returns the parser registered for the file's extension.
func (r *Registry) Lookup(filename string) (Parser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.parsers[normalizeExt(filename)]
	return p, ok
}

// Extensions returns the sorted set of extensions with a registered parser.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]string, 0, len(r.parsers))
	for ext := range r.parsers {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}

// Parse parses the file with the parser registered for its extension.
// Files without a registered parser return ErrUnsupportedFormat.
func (r *Registry) Parse(ctx context.Context, filename string, data []byte) (*ParsedContent, error) {
	p, ok := r.Lookup(filename)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, normalizeExt(filename))
	}
	return p.Parse(ctx, filename, data)
}

func normalizeExt(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}

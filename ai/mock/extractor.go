package mock

import (
	"context"
	"strings"

	"github.com/poiesic/corpus/core"
)

// MockPropertyExtractor is a test double for ai.PropertyExtractor.
// It allows custom behavior injection via function fields.
type MockPropertyExtractor struct {
	// ExtractPropertiesFunc is called by ExtractProperties if set.
	// If nil, uses default keyword-based behavior.
	ExtractPropertiesFunc func(ctx context.Context, text string) (*core.PropertyData, error)

	callCount int
}

// NewMockPropertyExtractor creates a mock property extractor with default behavior.
// Note: Returns concrete type to allow test assertions via GetMockExtractor().
func NewMockPropertyExtractor() *MockPropertyExtractor {
	return &MockPropertyExtractor{}
}

// ExtractProperties returns simple mock property data derived from the text.
// Default behavior: text mentioning a property keyword yields data with the
// matching asset class, anything else yields nil as if no data was found.
func (m *MockPropertyExtractor) ExtractProperties(ctx context.Context, text string) (*core.PropertyData, error) {
	m.callCount++

	if m.ExtractPropertiesFunc != nil {
		return m.ExtractPropertiesFunc(ctx, text)
	}

	lower := strings.ToLower(text)

	kinds := []core.PropertyKind{
		core.PropertyLogistics,
		core.PropertyIndustrial,
		core.PropertyOffice,
		core.PropertyRetail,
		core.PropertyResidential,
	}
	for _, kind := range kinds {
		if !strings.Contains(lower, string(kind)) {
			continue
		}

		data := &core.PropertyData{Kind: kind}
		if words := strings.Fields(text); len(words) > 0 {
			name := words
			if len(name) > 3 {
				name = name[:3]
			}
			data.PropertyName = strings.Join(name, " ")
		}
		return data, nil
	}

	// No property keywords, treat as a document without property data.
	return nil, nil
}

// CallCount returns the number of times ExtractProperties was called.
func (m *MockPropertyExtractor) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockPropertyExtractor) Reset() {
	m.callCount = 0
	m.ExtractPropertiesFunc = nil
}

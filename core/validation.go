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


package core

import (
	"fmt"
	"time"
)

// ValidateDocumentMeta validates a DocumentMeta according to domain rules.
//
// Validation rules:
//   - DocumentID must not be empty
//   - Filename must not be empty
//   - Type must be a known document type
//   - UploadedAt must not be in the future
//
// NOT validated (optional by design):
//   - Properties (nil unless extraction succeeded)
//   - Tags and Source (may be empty)
func ValidateDocumentMeta(meta *DocumentMeta) error {
	if meta == nil {
		return fmt.Errorf("%w: metadata is nil", ErrInvalidDocumentMeta)
	}

	if meta.DocumentID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocumentMeta, ErrEmptyDocumentID)
	}

	if meta.Filename == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocumentMeta, ErrEmptyFilename)
	}

	if !meta.Type.Valid() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidDocumentMeta, ErrInvalidDocumentType, meta.Type)
	}

	if !IsValidTimestamp(meta.UploadedAt) {
		return fmt.Errorf("%w: %w", ErrInvalidDocumentMeta, ErrInvalidTimestamp)
	}

	return nil
}

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - DocumentID must not be empty
//   - Text must not be empty
//   - ChunkIndex must lie in [0, TotalChunks)
//   - Type must be a known document type
//
// NOT validated (populated by the store):
//   - Vector (empty until the store embeds the chunk)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.DocumentID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyDocumentID)
	}

	if chunk.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyContent)
	}

	if chunk.ChunkIndex < 0 || chunk.ChunkIndex >= chunk.TotalChunks {
		return fmt.Errorf("%w: %w: index %d of %d", ErrInvalidChunk, ErrInvalidChunkIndex, chunk.ChunkIndex, chunk.TotalChunks)
	}

	if !chunk.Type.Valid() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidChunk, ErrInvalidDocumentType, chunk.Type)
	}

	return nil
}

// IsValidTimestamp checks if a timestamp is valid (not in the future).
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now())
}

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

import "errors"

// Domain validation errors
var (
	// ErrInvalidDocumentMeta indicates a DocumentMeta failed validation.
	ErrInvalidDocumentMeta = errors.New("invalid document metadata")

	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrInvalidDocumentType indicates an unknown document type value.
	ErrInvalidDocumentType = errors.New("invalid document type")

	// ErrEmptyContent indicates document content is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrEmptyFilename indicates the filename is empty.
	ErrEmptyFilename = errors.New("filename cannot be empty")

	// ErrEmptyDocumentID indicates the document ID is empty.
	ErrEmptyDocumentID = errors.New("document id cannot be empty")

	// ErrInvalidTimestamp indicates a timestamp is in the future.
	ErrInvalidTimestamp = errors.New("timestamp cannot be in the future")

	// ErrInvalidChunkIndex indicates a chunk index outside [0, TotalChunks).
	ErrInvalidChunkIndex = errors.New("chunk index out of range")
)

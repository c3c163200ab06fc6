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


package vectorstore

import "errors"

var (
	// ErrNotFound indicates that no chunk matched the request.
	ErrNotFound = errors.New("chunk not found")

	// ErrStoreClosed indicates that the store has been closed.
	ErrStoreClosed = errors.New("store is closed")

	// ErrEmptyFilter indicates a deletion was attempted with no filter set.
	ErrEmptyFilter = errors.New("filter must set at least one field")

	// ErrInvalidQuery indicates invalid query parameters.
	ErrInvalidQuery = errors.New("invalid query parameters")

	// ErrEmbedderRequired is returned when a store is constructed without
	// an embedder.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrSerializationFailed indicates a chunk could not be encoded or
	// decoded.
	ErrSerializationFailed = errors.New("serialization failed")

	// ErrDimensionMismatch indicates an embedding's dimensionality differs
	// from the store's configured dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

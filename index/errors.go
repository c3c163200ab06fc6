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


package index

import "errors"

var (
	// ErrStoreRequired is returned when an Index is created without a store.
	ErrStoreRequired = errors.New("vector store is required")

	// ErrDocumentNotFound is returned when the requested document does not exist.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrEmptyQuery is returned when a search query is empty or whitespace.
	ErrEmptyQuery = errors.New("search query cannot be empty")

	// ErrEmptyFilter is returned when a delete filter matches everything.
	ErrEmptyFilter = errors.New("delete filter cannot be empty")

	// ErrNoDocumentIDs is returned when a bulk delete receives no IDs.
	ErrNoDocumentIDs = errors.New("no document IDs provided")
)

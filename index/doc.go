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


// Package index maintains the document metadata cache over a vector store.
//
// An Index pairs two layers with different lifetimes. The vector store holds
// the durable truth: every chunk with its embedding and a denormalized copy
// of its document's metadata. The in-memory cache holds one DocumentMeta
// record per document for fast listing, stats and metadata attachment on
// search results.
//
// # Cache Semantics
//
// The cache is a rebuildable projection, never the source of truth. Store
// writes chunks first and inserts the cache record only after the store
// accepted them, so a crash can leave chunks without a cache entry but never
// the reverse. RebuildFromStore reconstructs the cache from chunk metadata at
// startup; CleanupOrphans removes chunks whose document no longer has a cache
// entry.
//
// Extracted property data is the one exception to rebuildability: it lives
// only in the cache. After a restart the HasStructuredData flag survives via
// the chunk metadata while the property payload itself is gone.
//
// # Deletion
//
// DeleteByID treats the cache as authoritative for existence and removes the
// cache entry before the store delete. If the store delete then fails the
// error is reported, the document stays logically deleted, and the leftover
// chunks are reclaimed by the next CleanupOrphans run.
//
// # Thread Safety
//
// All methods are safe for concurrent use. The cache is guarded by an
// RWMutex; store operations rely on the store's own guarantees.
package index

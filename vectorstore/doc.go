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


// Package vectorstore defines the embedding store abstraction used by the
// document index.
//
// A Store persists document chunks together with their embedding vectors and
// the denormalized document metadata each chunk carries. The chunk metadata
// held by the store is the single source of truth for what documents exist;
// the index's in-memory cache is a projection rebuilt from it.
//
// # Constructor Return Type Pattern
//
// Public constructors return the Store interface so backends stay
// interchangeable:
//
//	store, err := badger.Open(path, embedder)  // returns vectorstore.Store
//
// Two backends ship with the engine:
//
//   - badger: embedded BadgerDB with brute-force cosine ranking, suited to
//     single-process deployments and tests (in-memory mode)
//   - redisearch: RediSearch HNSW index over Redis hashes, suited to
//     deployments with an external Redis stack
//
// # Thread Safety
//
// All Store implementations must be thread-safe and support concurrent
// access from multiple goroutines.
package vectorstore

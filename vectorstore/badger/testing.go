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


package badger

import (
	"github.com/poiesic/corpus/vectorstore"
)

// OpenMemory opens a chunk store backed by an in-memory BadgerDB instance.
// Nothing is written to disk. Intended for tests and ephemeral workloads.
func OpenMemory(embedder vectorstore.Embedder, opts ...Option) (vectorstore.Store, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, err
	}
	return newStore(backend, embedder, opts...)
}

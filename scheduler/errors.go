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


package scheduler

import "errors"

var (
	// ErrIndexRequired indicates the scheduler was created without an index.
	ErrIndexRequired = errors.New("document index is required")

	// ErrEmptyBatch indicates IngestBatch was called with no files.
	ErrEmptyBatch = errors.New("batch contains no files")

	// ErrNoPools indicates a registry was built from an empty pool table.
	ErrNoPools = errors.New("registry needs at least one pool")

	// ErrNoFallbackPool indicates no pool claims unmatched extensions.
	ErrNoFallbackPool = errors.New("registry needs a fallback pool")

	// ErrSchedulerReleased indicates the scheduler's pools were released.
	ErrSchedulerReleased = errors.New("scheduler has been released")
)

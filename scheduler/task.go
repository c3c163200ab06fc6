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

import (
	"time"

	"github.com/poiesic/corpus/core"
)

// TaskStatus tracks one file through the pipeline:
// pending -> assigned -> processing -> completed | failed.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskAssigned   TaskStatus = "assigned"
	TaskProcessing TaskStatus = "processing"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

// BatchStatus tracks a whole batch. A batch only ends up failed when task
// creation itself cannot proceed; task-level failures leave it completed.
type BatchStatus string

const (
	BatchPending    BatchStatus = "pending"
	BatchAssigned   BatchStatus = "assigned"
	BatchProcessing BatchStatus = "processing"
	BatchCompleted  BatchStatus = "completed"
	BatchFailed     BatchStatus = "failed"
)

// FileInput is one raw file submitted for batch ingestion.
type FileInput struct {
	Filename string
	Content  []byte
}

// task is the per-file state inside a running batch. Each task is mutated
// only by the worker goroutine executing it; the batch aggregates after all
// workers finished.
type task struct {
	id       string
	filename string
	content  []byte
	fileType core.DocumentType
	pool     PoolSpec
	slot     string
	status   TaskStatus

	started  time.Time
	finished time.Time
	err      error

	documentID string
	properties *core.PropertyData
}

func (t *task) fail(err error) {
	t.status = TaskFailed
	t.err = err
	t.finished = time.Now().UTC()
}

func (t *task) complete(documentID string, properties *core.PropertyData) {
	t.status = TaskCompleted
	t.documentID = documentID
	t.properties = properties
	t.finished = time.Now().UTC()
}

// seconds returns the task's processing duration in seconds, zero until the
// task finished.
func (t *task) seconds() float64 {
	if t.started.IsZero() || t.finished.IsZero() {
		return 0
	}
	return t.finished.Sub(t.started).Seconds()
}

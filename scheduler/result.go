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
	"fmt"
	"math"
	"time"

	"github.com/poiesic/corpus/core"
)

// TaskResult is the reported outcome of one file.
type TaskResult struct {
	Filename   string
	FileType   core.DocumentType
	FileSize   int64
	Success    bool
	DocumentID string
	Pool       string
	PoolName   string
	Slot       string
	Seconds    float64
	Properties *core.PropertyData
	Error      string
}

// PoolStats aggregates task outcomes for one pool. Processing time sums over
// successful tasks only.
type PoolStats struct {
	TotalTasks      int
	SuccessfulTasks int
	FailedTasks     int
	TotalSeconds    float64
	AverageSeconds  float64
	SuccessRate     float64
}

// Performance carries the batch's observability metrics. None of them feed
// back into scheduling decisions.
type Performance struct {
	FilesPerSecond        float64
	AverageSecondsPerFile float64

	// ParallelEfficiency compares the sum of individual task durations
	// against wall-clock time, capped at 100.
	ParallelEfficiency float64

	// Utilization maps every registered pool to the share of its worker
	// slots that ran at least one task, in percent.
	Utilization map[string]float64
}

// BatchResult is the full report for one ingested batch. Results preserve
// submission order.
type BatchResult struct {
	Status          BatchStatus
	TotalFiles      int
	Successful      int
	Failed          int
	SuccessRate     float64
	DocumentsStored int
	StartedAt       time.Time
	FinishedAt      time.Time
	Duration        time.Duration
	Results         []TaskResult
	Assignments     map[string]string
	PoolStats       map[string]PoolStats
	Performance     Performance
	Errors          []string
}

func newBatchResult(registry *Registry, tasks []*task, started, finished time.Time) *BatchResult {
	result := &BatchResult{
		Status:      BatchCompleted,
		TotalFiles:  len(tasks),
		StartedAt:   started,
		FinishedAt:  finished,
		Duration:    finished.Sub(started),
		Results:     make([]TaskResult, 0, len(tasks)),
		Assignments: make(map[string]string, len(tasks)),
		PoolStats:   make(map[string]PoolStats),
	}

	var sequentialSeconds float64
	usedSlots := make(map[string]map[string]struct{})

	for _, t := range tasks {
		tr := TaskResult{
			Filename: t.filename,
			FileType: t.fileType,
			FileSize: int64(len(t.content)),
			Pool:     t.pool.Name,
			PoolName: t.pool.DisplayName,
			Slot:     t.slot,
			Seconds:  round2(t.seconds()),
		}

		stats := result.PoolStats[t.pool.Name]
		stats.TotalTasks++

		if t.status == TaskCompleted {
			tr.Success = true
			tr.DocumentID = t.documentID
			tr.Properties = t.properties

			result.Successful++
			if t.documentID != "" {
				result.DocumentsStored++
			}
			stats.SuccessfulTasks++
			stats.TotalSeconds += t.seconds()
			sequentialSeconds += t.seconds()
		} else {
			tr.Error = t.err.Error()
			result.Failed++
			stats.FailedTasks++
			result.Errors = append(result.Errors,
				fmt.Sprintf("task %s (%s) failed: %v", t.id, t.filename, t.err))
		}

		result.PoolStats[t.pool.Name] = stats
		result.Results = append(result.Results, tr)
		result.Assignments[t.filename] = t.pool.Name

		slots := usedSlots[t.pool.Name]
		if slots == nil {
			slots = make(map[string]struct{})
			usedSlots[t.pool.Name] = slots
		}
		slots[t.slot] = struct{}{}
	}

	if result.TotalFiles > 0 {
		result.SuccessRate = round2(float64(result.Successful) / float64(result.TotalFiles) * 100)
	}

	for name, stats := range result.PoolStats {
		if stats.SuccessfulTasks > 0 {
			stats.AverageSeconds = round2(stats.TotalSeconds / float64(stats.SuccessfulTasks))
		}
		stats.TotalSeconds = round2(stats.TotalSeconds)
		stats.SuccessRate = round2(float64(stats.SuccessfulTasks) / float64(stats.TotalTasks) * 100)
		result.PoolStats[name] = stats
	}

	result.Performance = performance(registry, result, sequentialSeconds, usedSlots)
	return result
}

func performance(registry *Registry, result *BatchResult, sequentialSeconds float64, usedSlots map[string]map[string]struct{}) Performance {
	wall := result.Duration.Seconds()
	perf := Performance{
		Utilization: make(map[string]float64, len(registry.Specs())),
	}

	if wall > 0 {
		perf.FilesPerSecond = round2(float64(result.TotalFiles) / wall)
	}
	if result.TotalFiles > 0 {
		perf.AverageSecondsPerFile = round2(wall / float64(result.TotalFiles))
	}

	switch {
	case result.TotalFiles <= 1:
		perf.ParallelEfficiency = 100
	case wall > 0 && sequentialSeconds > 0:
		perf.ParallelEfficiency = round2(math.Min(sequentialSeconds/wall*100, 100))
	}

	for _, spec := range registry.Specs() {
		used := len(usedSlots[spec.Name])
		perf.Utilization[spec.Name] = round2(float64(used) / float64(spec.Workers) * 100)
	}

	return perf
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

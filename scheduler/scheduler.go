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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/corpus/ai"
	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/index"
	"github.com/poiesic/corpus/parser"
)

// defaultTaskTimeout bounds each external call a task makes (parse, extract,
// store) so one hung file cannot hold a worker slot forever.
const defaultTaskTimeout = 60 * time.Second

// ErrNoTextContent is the defined task failure for files whose parser
// produced no usable text.
var ErrNoTextContent = errors.New("no text content extracted from file")

// Scheduler routes batches of files to per-category worker pools, runs the
// ingestion pipeline for each file, and aggregates the outcomes. One task's
// failure never aborts the others.
type Scheduler struct {
	index       *index.Index
	registry    *Registry
	parsers     *parser.Registry
	extractor   ai.PropertyExtractor
	metrics     *Metrics
	taskTimeout time.Duration
	newID       core.IDGenerator
	logger      *slog.Logger

	mu       sync.Mutex
	pools    map[string]*ants.Pool
	released bool
}

// Option configures a Scheduler.
type Option func(*Scheduler) error

// WithRegistry sets the pool table.
// Default is DefaultRegistry().
func WithRegistry(registry *Registry) Option {
	return func(s *Scheduler) error {
		if registry == nil {
			return errors.New("registry cannot be nil")
		}
		s.registry = registry
		return nil
	}
}

// WithParsers sets the parser registry used to extract text.
// Default is parser.NewRegistry() with the built-in parsers.
func WithParsers(parsers *parser.Registry) Option {
	return func(s *Scheduler) error {
		if parsers == nil {
			return errors.New("parser registry cannot be nil")
		}
		s.parsers = parsers
		return nil
	}
}

// WithExtractor sets the structured-data extractor applied to each file's
// text. A nil extractor disables extraction; extraction failures degrade to
// storing the document without structured data.
func WithExtractor(extractor ai.PropertyExtractor) Option {
	return func(s *Scheduler) error {
		s.extractor = extractor
		return nil
	}
}

// WithMetrics sets the Prometheus collectors. A nil value disables
// instrumentation, which is also the default.
func WithMetrics(metrics *Metrics) Option {
	return func(s *Scheduler) error {
		s.metrics = metrics
		return nil
	}
}

// WithTaskTimeout bounds each external call a task makes.
// Default is 60 seconds.
func WithTaskTimeout(timeout time.Duration) Option {
	return func(s *Scheduler) error {
		if timeout <= 0 {
			return fmt.Errorf("task timeout must be positive, got %v", timeout)
		}
		s.taskTimeout = timeout
		return nil
	}
}

// WithIDGenerator sets the task ID source.
// Default is core.NewUUID.
func WithIDGenerator(gen core.IDGenerator) Option {
	return func(s *Scheduler) error {
		if gen == nil {
			return errors.New("id generator cannot be nil")
		}
		s.newID = gen
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// New creates a Scheduler over the given index, with one worker pool per
// registry entry sized to that entry's worker count.
func New(idx *index.Index, opts ...Option) (*Scheduler, error) {
	if idx == nil {
		return nil, ErrIndexRequired
	}

	s := &Scheduler{
		index:       idx,
		registry:    DefaultRegistry(),
		parsers:     parser.NewRegistry(),
		taskTimeout: defaultTaskTimeout,
		newID:       core.NewUUID,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "scheduler")

	s.pools = make(map[string]*ants.Pool, len(s.registry.Specs()))
	for _, spec := range s.registry.Specs() {
		pool, err := ants.NewPool(spec.Workers)
		if err != nil {
			s.Release()
			return nil, fmt.Errorf("creating pool %s: %w", spec.Name, err)
		}
		s.pools[spec.Name] = pool
	}

	return s, nil
}

// IngestBatch processes a batch of files and returns the full report. Every
// submitted file appears in the report exactly once, in submission order; the
// batch itself only errors on structural problems like an empty file list.
func (s *Scheduler) IngestBatch(ctx context.Context, files []FileInput) (*BatchResult, error) {
	if len(files) == 0 {
		return nil, ErrEmptyBatch
	}

	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return nil, ErrSchedulerReleased
	}
	pools := s.pools
	s.mu.Unlock()

	started := time.Now().UTC()

	// Initialize: one task per file, routed to its pool by extension.
	tasks := make([]*task, len(files))
	for i, file := range files {
		fileType, _ := parser.DetectType(file.Filename)
		tasks[i] = &task{
			id:       s.newID(),
			filename: file.Filename,
			content:  file.Content,
			fileType: fileType,
			pool:     s.registry.Resolve(file.Filename),
			status:   TaskPending,
		}
	}

	// Assign: round-robin slot ids within each pool. Slots exist for
	// reporting and utilization; the pools themselves bound concurrency.
	next := make(map[string]int)
	byPool := make(map[string][]*task)
	for _, t := range tasks {
		n := next[t.pool.Name]
		next[t.pool.Name] = n + 1
		t.slot = fmt.Sprintf("%s-%d", t.pool.Name, n%t.pool.Workers)
		t.status = TaskAssigned
		byPool[t.pool.Name] = append(byPool[t.pool.Name], t)
	}

	s.logger.Info("batch started", "files", len(tasks), "pools", len(byPool))

	// Execute: one submitter per pool so a saturated pool only delays its
	// own category, never another pool's submissions.
	var wg sync.WaitGroup
	wg.Add(len(tasks))
	for name, group := range byPool {
		pool := pools[name]
		go func() {
			for _, t := range group {
				err := pool.Submit(func() {
					defer wg.Done()
					s.runTask(ctx, t)
				})
				if err != nil {
					t.fail(fmt.Errorf("submitting to pool %s: %w", t.pool.Name, err))
					wg.Done()
				}
			}
		}()
	}
	wg.Wait()

	finished := time.Now().UTC()
	result := newBatchResult(s.registry, tasks, started, finished)

	for _, t := range tasks {
		s.metrics.recordTask(t.pool.Name, t.status, t.seconds())
	}
	s.metrics.recordBatch(result)

	s.logger.Info("batch completed",
		"files", result.TotalFiles,
		"successful", result.Successful,
		"failed", result.Failed,
		"duration", result.Duration)
	return result, nil
}

// runTask executes the per-file pipeline: parse, optionally extract
// structured data, store. Every failure is recorded on the task.
func (s *Scheduler) runTask(ctx context.Context, t *task) {
	t.status = TaskProcessing
	t.started = time.Now().UTC()

	logger := s.logger.With("task", t.id, "filename", t.filename, "pool", t.pool.Name, "slot", t.slot)

	parseCtx, cancel := context.WithTimeout(ctx, s.taskTimeout)
	content, err := s.parsers.Parse(parseCtx, t.filename, t.content)
	cancel()
	if err != nil {
		t.fail(fmt.Errorf("parsing file: %w", err))
		logger.Warn("task failed", "err", t.err)
		return
	}

	text := content.Text()
	if text == "" {
		t.fail(ErrNoTextContent)
		logger.Warn("task failed", "err", t.err)
		return
	}

	var properties *core.PropertyData
	if s.extractor != nil {
		extractCtx, cancel := context.WithTimeout(ctx, s.taskTimeout)
		properties, err = s.extractor.ExtractProperties(extractCtx, text)
		cancel()
		if err != nil {
			// The document is still stored, only without structured data.
			logger.Warn("property extraction failed", "err", err)
			properties = nil
		}
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.taskTimeout)
	documentID, err := s.index.Store(storeCtx, index.StoreRequest{
		Content:    text,
		Filename:   t.filename,
		Type:       t.fileType,
		Source:     "parallel_upload",
		Tags:       []string{"parallel_processed", t.pool.Name},
		FileSize:   int64(len(t.content)),
		Properties: properties,
	})
	cancel()
	if err != nil {
		t.fail(fmt.Errorf("storing document: %w", err))
		logger.Warn("task failed", "err", t.err)
		return
	}

	t.complete(documentID, properties)
	logger.Debug("task completed", "documentID", documentID, "seconds", t.seconds())
}

// Release shuts down the worker pools. The scheduler cannot be used after.
func (s *Scheduler) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return
	}
	s.released = true
	for _, pool := range s.pools {
		pool.Release()
	}
}

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
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for batch ingestion. A nil
// *Metrics disables instrumentation; every record method tolerates it.
type Metrics struct {
	TasksTotal      *prometheus.CounterVec
	TaskDuration    *prometheus.HistogramVec
	BatchesTotal    prometheus.Counter
	BatchDuration   prometheus.Histogram
	DocumentsStored prometheus.Counter
}

// NewMetrics creates and registers the ingestion collectors. A nil registerer
// uses the default Prometheus registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		TasksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_tasks_total",
				Help: "Total ingestion tasks by pool and final status.",
			},
			[]string{"pool", "status"},
		),
		TaskDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ingest_task_duration_seconds",
				Help:    "Per-task processing time in seconds.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"pool"},
		),
		BatchesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "ingest_batches_total",
				Help: "Total ingestion batches processed.",
			},
		),
		BatchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ingest_batch_duration_seconds",
				Help:    "Wall-clock batch duration in seconds.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
		),
		DocumentsStored: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "ingest_documents_stored_total",
				Help: "Total documents stored through batch ingestion.",
			},
		),
	}

	reg.MustRegister(
		m.TasksTotal,
		m.TaskDuration,
		m.BatchesTotal,
		m.BatchDuration,
		m.DocumentsStored,
	)

	return m
}

func (m *Metrics) recordTask(pool string, status TaskStatus, seconds float64) {
	if m == nil {
		return
	}
	m.TasksTotal.WithLabelValues(pool, string(status)).Inc()
	m.TaskDuration.WithLabelValues(pool).Observe(seconds)
}

func (m *Metrics) recordBatch(result *BatchResult) {
	if m == nil {
		return
	}
	m.BatchesTotal.Inc()
	m.BatchDuration.Observe(result.Duration.Seconds())
	m.DocumentsStored.Add(float64(result.DocumentsStored))
}

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


// Package config loads and validates the corpus CLI configuration from YAML
// files with environment-variable overrides. It provides typed structs for
// every subsystem (Storage, Redis, AI, Chunking, Scheduler, Logging, Metrics).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backend identifiers.
const (
	BackendBadger     = "badger"
	BackendRedisearch = "redisearch"
)

// Config is the top-level application configuration.
type Config struct {
	Storage   StorageConfig   `yaml:"storage"`
	Redis     RedisConfig     `yaml:"redis"`
	AI        AIConfig        `yaml:"ai"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// StorageConfig selects and configures the vector store backend.
type StorageConfig struct {
	// Backend is either "badger" (embedded, default) or "redisearch".
	Backend string `yaml:"backend"`
	// DataDir is the BadgerDB directory. Ignored by the redisearch backend.
	DataDir string `yaml:"dataDir"`
	// InMemory opens BadgerDB without touching disk. Badger only.
	InMemory bool `yaml:"inMemory"`
}

// RedisConfig holds connection and index settings for the redisearch backend.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	IndexName string `yaml:"indexName"`
	VectorDim int    `yaml:"vectorDim"`
}

// AIConfig holds the OpenAI-compatible service endpoints and models.
type AIConfig struct {
	EmbeddingHost  string `yaml:"embeddingHost"`
	EmbeddingModel string `yaml:"embeddingModel"`
	ExtractorHost  string `yaml:"extractorHost"`
	ExtractorModel string `yaml:"extractorModel"`
	MaxAttempts    int    `yaml:"maxAttempts"`
}

// ChunkingConfig controls how document text is split before embedding.
type ChunkingConfig struct {
	ChunkSize int `yaml:"chunkSize"`
	Overlap   int `yaml:"overlap"`
}

// SchedulerConfig controls batch ingestion.
type SchedulerConfig struct {
	// PoolsFile points to a YAML pool table. Empty means the built-in table.
	PoolsFile string `yaml:"poolsFile"`
	// TaskTimeout bounds each external call a task makes (parse, extract,
	// embed and store).
	TaskTimeout time.Duration `yaml:"taskTimeout"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with sensible defaults for any
// missing values. Load does not validate; call Validate before using the
// result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// Default returns a Config with defaults for a local setup: embedded BadgerDB
// storage and Ollama-style AI services on localhost.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend: BackendBadger,
			DataDir: "corpus.db",
		},
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			IndexName: "corpus-chunks",
			VectorDim: 768,
		},
		AI: AIConfig{
			EmbeddingHost:  "http://localhost:11434/v1",
			EmbeddingModel: "embeddinggemma",
			ExtractorHost:  "http://localhost:11434/v1",
			ExtractorModel: "qwen2.5:3b",
			MaxAttempts:    3,
		},
		Chunking: ChunkingConfig{
			ChunkSize: 1000,
			Overlap:   200,
		},
		Scheduler: SchedulerConfig{
			TaskTimeout: 60 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9090",
		},
	}
}

// applyEnvOverrides reads CORPUS_* environment variables and overrides the
// corresponding config fields. Values that fail to parse are ignored.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CORPUS_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("CORPUS_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("CORPUS_IN_MEMORY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Storage.InMemory = b
		}
	}
	if v := os.Getenv("CORPUS_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("CORPUS_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("CORPUS_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Redis.DB = db
		}
	}
	if v := os.Getenv("CORPUS_REDIS_INDEX"); v != "" {
		cfg.Redis.IndexName = v
	}
	if v := os.Getenv("CORPUS_EMBEDDING_HOST"); v != "" {
		cfg.AI.EmbeddingHost = v
	}
	if v := os.Getenv("CORPUS_EMBEDDING_MODEL"); v != "" {
		cfg.AI.EmbeddingModel = v
	}
	if v := os.Getenv("CORPUS_EXTRACTOR_HOST"); v != "" {
		cfg.AI.ExtractorHost = v
	}
	if v := os.Getenv("CORPUS_EXTRACTOR_MODEL"); v != "" {
		cfg.AI.ExtractorModel = v
	}
	if v := os.Getenv("CORPUS_CHUNK_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Chunking.ChunkSize = n
		}
	}
	if v := os.Getenv("CORPUS_CHUNK_OVERLAP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Chunking.Overlap = n
		}
	}
	if v := os.Getenv("CORPUS_POOLS_FILE"); v != "" {
		cfg.Scheduler.PoolsFile = v
	}
	if v := os.Getenv("CORPUS_TASK_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Scheduler.TaskTimeout = d
		}
	}
	if v := os.Getenv("CORPUS_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CORPUS_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("CORPUS_METRICS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Metrics.Enabled = b
		}
	}
	if v := os.Getenv("CORPUS_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
}

// Validate checks that the configuration is consistent and complete enough to
// start the engine.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendBadger:
		if !c.Storage.InMemory && c.Storage.DataDir == "" {
			return errors.New("config: storage.dataDir is required for the badger backend")
		}
	case BackendRedisearch:
		if c.Storage.InMemory {
			return errors.New("config: storage.inMemory only applies to the badger backend")
		}
		if c.Redis.Addr == "" {
			return errors.New("config: redis.addr is required for the redisearch backend")
		}
		if c.Redis.VectorDim < 1 {
			return errors.New("config: redis.vectorDim must be at least 1")
		}
	default:
		return fmt.Errorf("config: unknown storage backend %q (want %s or %s)",
			c.Storage.Backend, BackendBadger, BackendRedisearch)
	}

	if c.AI.EmbeddingHost == "" {
		return errors.New("config: ai.embeddingHost is required")
	}
	if c.AI.EmbeddingModel == "" {
		return errors.New("config: ai.embeddingModel is required")
	}
	if c.AI.ExtractorHost == "" {
		return errors.New("config: ai.extractorHost is required")
	}
	if c.AI.ExtractorModel == "" {
		return errors.New("config: ai.extractorModel is required")
	}
	if c.AI.MaxAttempts < 1 {
		return errors.New("config: ai.maxAttempts must be at least 1")
	}

	if c.Chunking.ChunkSize < 1 {
		return errors.New("config: chunking.chunkSize must be at least 1")
	}
	if c.Chunking.Overlap < 0 {
		return errors.New("config: chunking.overlap cannot be negative")
	}
	if c.Chunking.Overlap >= c.Chunking.ChunkSize {
		return errors.New("config: chunking.overlap must be smaller than chunking.chunkSize")
	}

	if c.Scheduler.TaskTimeout <= 0 {
		return errors.New("config: scheduler.taskTimeout must be positive")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: invalid logging.level %q (want debug, info, warn or error)", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: invalid logging.format %q (want text or json)", c.Logging.Format)
	}

	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return errors.New("config: metrics.addr is required when metrics are enabled")
	}
	return nil
}

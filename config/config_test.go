package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, BackendBadger, cfg.Storage.Backend)
	assert.Equal(t, "corpus.db", cfg.Storage.DataDir)
	assert.False(t, cfg.Storage.InMemory)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "corpus-chunks", cfg.Redis.IndexName)
	assert.Equal(t, 768, cfg.Redis.VectorDim)
	assert.Equal(t, "http://localhost:11434/v1", cfg.AI.EmbeddingHost)
	assert.Equal(t, "embeddinggemma", cfg.AI.EmbeddingModel)
	assert.Equal(t, "qwen2.5:3b", cfg.AI.ExtractorModel)
	assert.Equal(t, 3, cfg.AI.MaxAttempts)
	assert.Equal(t, 1000, cfg.Chunking.ChunkSize)
	assert.Equal(t, 200, cfg.Chunking.Overlap)
	assert.Empty(t, cfg.Scheduler.PoolsFile)
	assert.Equal(t, 60*time.Second, cfg.Scheduler.TaskTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":9090", cfg.Metrics.Addr)

	require.NoError(t, cfg.Validate())
}

func TestLoad_File(t *testing.T) {
	path := writeConfigFile(t, `
storage:
  backend: redisearch
redis:
  addr: redis.internal:6380
  db: 2
ai:
  embeddingModel: nomic-embed-text
chunking:
  chunkSize: 500
  overlap: 50
scheduler:
  poolsFile: pools.yaml
  taskTimeout: 90s
logging:
  level: debug
  format: json
metrics:
  enabled: true
  addr: ":2112"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, BackendRedisearch, cfg.Storage.Backend)
	assert.Equal(t, "redis.internal:6380", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, "nomic-embed-text", cfg.AI.EmbeddingModel)
	assert.Equal(t, 500, cfg.Chunking.ChunkSize)
	assert.Equal(t, 50, cfg.Chunking.Overlap)
	assert.Equal(t, "pools.yaml", cfg.Scheduler.PoolsFile)
	assert.Equal(t, 90*time.Second, cfg.Scheduler.TaskTimeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":2112", cfg.Metrics.Addr)

	// Fields the file does not mention keep their defaults.
	assert.Equal(t, "corpus-chunks", cfg.Redis.IndexName)
	assert.Equal(t, 768, cfg.Redis.VectorDim)
	assert.Equal(t, "http://localhost:11434/v1", cfg.AI.EmbeddingHost)
	assert.Equal(t, 3, cfg.AI.MaxAttempts)

	require.NoError(t, cfg.Validate())
}

func TestLoad_FileMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestLoad_FileInvalid(t *testing.T) {
	path := writeConfigFile(t, "storage: [not, a, mapping]")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config file")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CORPUS_BACKEND", BackendRedisearch)
	t.Setenv("CORPUS_REDIS_ADDR", "env-redis:7000")
	t.Setenv("CORPUS_REDIS_DB", "5")
	t.Setenv("CORPUS_EMBEDDING_MODEL", "env-model")
	t.Setenv("CORPUS_CHUNK_SIZE", "256")
	t.Setenv("CORPUS_TASK_TIMEOUT", "2m")
	t.Setenv("CORPUS_LOG_LEVEL", "warn")
	t.Setenv("CORPUS_METRICS_ENABLED", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, BackendRedisearch, cfg.Storage.Backend)
	assert.Equal(t, "env-redis:7000", cfg.Redis.Addr)
	assert.Equal(t, 5, cfg.Redis.DB)
	assert.Equal(t, "env-model", cfg.AI.EmbeddingModel)
	assert.Equal(t, 256, cfg.Chunking.ChunkSize)
	assert.Equal(t, 2*time.Minute, cfg.Scheduler.TaskTimeout)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoad_EnvBeatsFile(t *testing.T) {
	path := writeConfigFile(t, "redis:\n  addr: file-redis:6379\n")
	t.Setenv("CORPUS_REDIS_ADDR", "env-redis:6379")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-redis:6379", cfg.Redis.Addr)
}

func TestLoad_EnvIgnoresBadValues(t *testing.T) {
	t.Setenv("CORPUS_REDIS_DB", "not-a-number")
	t.Setenv("CORPUS_IN_MEMORY", "definitely")
	t.Setenv("CORPUS_TASK_TIMEOUT", "soon")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Redis.DB)
	assert.False(t, cfg.Storage.InMemory)
	assert.Equal(t, 60*time.Second, cfg.Scheduler.TaskTimeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name: "in-memory badger needs no data dir",
			mutate: func(c *Config) {
				c.Storage.DataDir = ""
				c.Storage.InMemory = true
			},
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Storage.Backend = "postgres" },
			wantErr: "unknown storage backend",
		},
		{
			name: "badger needs a data dir",
			mutate: func(c *Config) {
				c.Storage.DataDir = ""
			},
			wantErr: "storage.dataDir is required",
		},
		{
			name: "redisearch needs an addr",
			mutate: func(c *Config) {
				c.Storage.Backend = BackendRedisearch
				c.Redis.Addr = ""
			},
			wantErr: "redis.addr is required",
		},
		{
			name: "redisearch rejects in-memory",
			mutate: func(c *Config) {
				c.Storage.Backend = BackendRedisearch
				c.Storage.InMemory = true
			},
			wantErr: "only applies to the badger backend",
		},
		{
			name: "redisearch needs a vector dimension",
			mutate: func(c *Config) {
				c.Storage.Backend = BackendRedisearch
				c.Redis.VectorDim = 0
			},
			wantErr: "redis.vectorDim",
		},
		{
			name:    "embedding host required",
			mutate:  func(c *Config) { c.AI.EmbeddingHost = "" },
			wantErr: "ai.embeddingHost is required",
		},
		{
			name:    "embedding model required",
			mutate:  func(c *Config) { c.AI.EmbeddingModel = "" },
			wantErr: "ai.embeddingModel is required",
		},
		{
			name:    "extractor host required",
			mutate:  func(c *Config) { c.AI.ExtractorHost = "" },
			wantErr: "ai.extractorHost is required",
		},
		{
			name:    "extractor model required",
			mutate:  func(c *Config) { c.AI.ExtractorModel = "" },
			wantErr: "ai.extractorModel is required",
		},
		{
			name:    "max attempts at least one",
			mutate:  func(c *Config) { c.AI.MaxAttempts = 0 },
			wantErr: "ai.maxAttempts",
		},
		{
			name:    "chunk size at least one",
			mutate:  func(c *Config) { c.Chunking.ChunkSize = 0 },
			wantErr: "chunking.chunkSize",
		},
		{
			name:    "overlap not negative",
			mutate:  func(c *Config) { c.Chunking.Overlap = -1 },
			wantErr: "chunking.overlap cannot be negative",
		},
		{
			name: "overlap smaller than chunk size",
			mutate: func(c *Config) {
				c.Chunking.ChunkSize = 100
				c.Chunking.Overlap = 100
			},
			wantErr: "smaller than chunking.chunkSize",
		},
		{
			name:    "task timeout positive",
			mutate:  func(c *Config) { c.Scheduler.TaskTimeout = 0 },
			wantErr: "scheduler.taskTimeout",
		},
		{
			name:    "log level known",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "logging.level",
		},
		{
			name:    "log format known",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "logging.format",
		},
		{
			name: "metrics addr required when enabled",
			mutate: func(c *Config) {
				c.Metrics.Enabled = true
				c.Metrics.Addr = ""
			},
			wantErr: "metrics.addr",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

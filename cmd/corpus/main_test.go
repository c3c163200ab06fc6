package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/corpus/config"
	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/index"
	"github.com/poiesic/corpus/scheduler"
)

func TestGlobalFlags(t *testing.T) {
	app := newApp()

	findString := func(name string) *cli.StringFlag {
		for _, flag := range app.Flags {
			if f, ok := flag.(*cli.StringFlag); ok && f.Name == name {
				return f
			}
		}
		return nil
	}

	t.Run("log-level defaults to info with alias l", func(t *testing.T) {
		f := findString("log-level")
		require.NotNil(t, f)
		assert.Equal(t, "info", f.Value)
		assert.Equal(t, []string{"l"}, f.Aliases)
	})

	t.Run("db has alias d and no default", func(t *testing.T) {
		f := findString("db")
		require.NotNil(t, f)
		assert.Empty(t, f.Value)
		assert.Equal(t, []string{"d"}, f.Aliases)
	})

	t.Run("storage flags are optional", func(t *testing.T) {
		for _, name := range []string{"db", "redis-addr", "config", "pools"} {
			f := findString(name)
			require.NotNil(t, f, name)
			assert.False(t, f.Required, name)
		}
	})

	t.Run("search limit defaults to 5 with alias n", func(t *testing.T) {
		var search *cli.Command
		for _, cmd := range app.Commands {
			if cmd.Name == "search" {
				search = cmd
				break
			}
		}
		require.NotNil(t, search)

		var limitFlag *cli.IntFlag
		var structuredFlag *cli.BoolFlag
		for _, flag := range search.Flags {
			switch f := flag.(type) {
			case *cli.IntFlag:
				if f.Name == "limit" {
					limitFlag = f
				}
			case *cli.BoolFlag:
				if f.Name == "include-structured" {
					structuredFlag = f
				}
			}
		}
		require.NotNil(t, limitFlag)
		assert.Equal(t, 5, limitFlag.Value)
		assert.Equal(t, []string{"n"}, limitFlag.Aliases)
		require.NotNil(t, structuredFlag)
		assert.True(t, structuredFlag.Value)
	})
}

func TestSetupLogger(t *testing.T) {
	newTestApp := func() *cli.App {
		return &cli.App{
			Name:   "test",
			Flags:  globalFlags(),
			Before: setupLogger,
			Action: func(c *cli.Context) error {
				return nil
			},
		}
	}

	t.Run("valid log levels", func(t *testing.T) {
		testCases := []struct {
			input    string
			expected slog.Level
		}{
			{"debug", slog.LevelDebug},
			{"info", slog.LevelInfo},
			{"warn", slog.LevelWarn},
			{"error", slog.LevelError},
		}

		for _, tc := range testCases {
			t.Run(tc.input, func(t *testing.T) {
				err := newTestApp().Run([]string{"test", "--log-level", tc.input})
				require.NoError(t, err)
			})
		}
	})

	t.Run("case insensitive log levels", func(t *testing.T) {
		for _, tc := range []string{"DEBUG", "Info", "WaRn", "ERROR"} {
			t.Run(tc, func(t *testing.T) {
				err := newTestApp().Run([]string{"test", "--log-level", tc})
				require.NoError(t, err)
			})
		}
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		err := newTestApp().Run([]string{"test", "--log-level", "invalid"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
		assert.Contains(t, err.Error(), "invalid")
	})

	t.Run("config file level applies when flag is unset", func(t *testing.T) {
		path := writeFile(t, "corpus.yaml", "logging:\n  level: verbose\n")
		err := newTestApp().Run([]string{"test", "--config", path})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "verbose")
	})

	t.Run("flag overrides config file level", func(t *testing.T) {
		path := writeFile(t, "corpus.yaml", "logging:\n  level: verbose\n")
		err := newTestApp().Run([]string{"test", "--config", path, "--log-level", "debug"})
		require.NoError(t, err)
	})

	t.Run("json format is accepted", func(t *testing.T) {
		path := writeFile(t, "corpus.yaml", "logging:\n  format: json\n")
		err := newTestApp().Run([]string{"test", "--config", path})
		require.NoError(t, err)
	})
}

func TestResolveConfig(t *testing.T) {
	resolve := func(t *testing.T, args ...string) (*config.Config, error) {
		t.Helper()
		var cfg *config.Config
		var resolveErr error
		app := &cli.App{
			Name:  "test",
			Flags: globalFlags(),
			Action: func(c *cli.Context) error {
				cfg, resolveErr = resolveConfig(c)
				return nil
			},
		}
		require.NoError(t, app.Run(append([]string{"test"}, args...)))
		return cfg, resolveErr
	}

	t.Run("defaults", func(t *testing.T) {
		cfg, err := resolve(t)
		require.NoError(t, err)
		assert.Equal(t, config.BackendBadger, cfg.Storage.Backend)
		assert.Equal(t, "corpus.db", cfg.Storage.DataDir)
		assert.Equal(t, "info", cfg.Logging.Level)
	})

	t.Run("db flag sets the badger data directory", func(t *testing.T) {
		cfg, err := resolve(t, "--db", "/tmp/corpus-test")
		require.NoError(t, err)
		assert.Equal(t, config.BackendBadger, cfg.Storage.Backend)
		assert.Equal(t, "/tmp/corpus-test", cfg.Storage.DataDir)
	})

	t.Run("redis-addr selects the redisearch backend", func(t *testing.T) {
		cfg, err := resolve(t, "--redis-addr", "redis:6379")
		require.NoError(t, err)
		assert.Equal(t, config.BackendRedisearch, cfg.Storage.Backend)
		assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	})

	t.Run("in-memory flag", func(t *testing.T) {
		cfg, err := resolve(t, "--in-memory")
		require.NoError(t, err)
		assert.True(t, cfg.Storage.InMemory)
	})

	t.Run("metrics-addr enables metrics", func(t *testing.T) {
		cfg, err := resolve(t, "--metrics-addr", ":2112")
		require.NoError(t, err)
		assert.True(t, cfg.Metrics.Enabled)
		assert.Equal(t, ":2112", cfg.Metrics.Addr)
	})

	t.Run("task-timeout flag", func(t *testing.T) {
		cfg, err := resolve(t, "--task-timeout", "90s")
		require.NoError(t, err)
		assert.Equal(t, 90*time.Second, cfg.Scheduler.TaskTimeout)
	})

	t.Run("flag beats config file", func(t *testing.T) {
		path := writeFile(t, "corpus.yaml", "ai:\n  embeddingModel: from-file\n")
		cfg, err := resolve(t, "--config", path, "--embedding-model", "from-flag")
		require.NoError(t, err)
		assert.Equal(t, "from-flag", cfg.AI.EmbeddingModel)
	})

	t.Run("config file applies when flag is unset", func(t *testing.T) {
		path := writeFile(t, "corpus.yaml", "ai:\n  embeddingModel: from-file\n")
		cfg, err := resolve(t, "--config", path)
		require.NoError(t, err)
		assert.Equal(t, "from-file", cfg.AI.EmbeddingModel)
	})

	t.Run("invalid config is rejected", func(t *testing.T) {
		path := writeFile(t, "corpus.yaml", "chunking:\n  chunkSize: 100\n  overlap: 100\n")
		_, err := resolve(t, "--config", path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "chunking.overlap")
	})
}

func TestCommandValidation(t *testing.T) {
	testCases := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"ingest requires files", []string{"ingest"}, "at least one file is required"},
		{"add requires exactly one file", []string{"add"}, "exactly one file is required"},
		{"search requires a query", []string{"search"}, "a search query is required"},
		{"get requires a document ID", []string{"get"}, "exactly one document ID is required"},
		{"delete requires document IDs", []string{"delete"}, "at least one document ID is required"},
		{"delete-where rejects unknown types", []string{"delete-where", "--type", "mp3"}, "invalid document type"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := newApp().Run(append([]string{"corpus"}, tc.args...))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestPrintBatchResult(t *testing.T) {
	result := &scheduler.BatchResult{
		Status:          scheduler.BatchCompleted,
		TotalFiles:      3,
		Successful:      2,
		Failed:          1,
		SuccessRate:     66.67,
		DocumentsStored: 2,
		Duration:        1500 * time.Millisecond,
		Results: []scheduler.TaskResult{
			{Filename: "report.txt", FileType: core.DocumentTypeTXT, Slot: "general-0", Seconds: 0.42, Success: true, DocumentID: "doc-1"},
			{Filename: "figures.csv", FileType: core.DocumentTypeCSV, Slot: "data-1", Seconds: 0.38, Success: true, DocumentID: "doc-2"},
			{Filename: "broken.pdf", FileType: core.DocumentTypePDF, Slot: "documents-0", Error: "no text content"},
		},
		PoolStats: map[string]scheduler.PoolStats{
			"general":   {TotalTasks: 1, SuccessfulTasks: 1, TotalSeconds: 0.42, AverageSeconds: 0.42, SuccessRate: 100},
			"data":      {TotalTasks: 1, SuccessfulTasks: 1, TotalSeconds: 0.38, AverageSeconds: 0.38, SuccessRate: 100},
			"documents": {TotalTasks: 1, FailedTasks: 1},
		},
		Performance: scheduler.Performance{
			FilesPerSecond:        2,
			AverageSecondsPerFile: 0.5,
			ParallelEfficiency:    53.33,
			Utilization: map[string]float64{
				"general":   50,
				"data":      25,
				"documents": 25,
				"code":      0,
			},
		},
	}

	var buf bytes.Buffer
	printBatchResult(&buf, result)
	out := buf.String()

	assert.Contains(t, out, "Batch completed: 3 files, 2 ok, 1 failed")
	assert.Contains(t, out, "Documents stored: 2")
	assert.Contains(t, out, "report.txt")
	assert.Contains(t, out, "doc-1")
	assert.Contains(t, out, "no text content")
	assert.Contains(t, out, "Pool statistics:")
	assert.Contains(t, out, "Parallel efficiency: 53.3%")

	t.Run("idle pools are omitted from utilization", func(t *testing.T) {
		assert.Contains(t, out, "data 25.0%")
		assert.NotContains(t, out, "code 0")
	})
}

func TestPrintMetas(t *testing.T) {
	t.Run("empty index", func(t *testing.T) {
		var buf bytes.Buffer
		printMetas(&buf, nil)
		assert.Contains(t, buf.String(), "No documents indexed")
	})

	t.Run("lists documents", func(t *testing.T) {
		metas := []core.DocumentMeta{
			{
				DocumentID:        "doc-1",
				Filename:          "report.txt",
				Type:              core.DocumentTypeTXT,
				FileSize:          2048,
				UploadedAt:        time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC),
				Source:            "file_upload",
				HasStructuredData: true,
			},
		}

		var buf bytes.Buffer
		printMetas(&buf, metas)
		out := buf.String()
		assert.Contains(t, out, "1 documents")
		assert.Contains(t, out, "report.txt")
		assert.Contains(t, out, "2025-03-14 09:30")
		assert.Contains(t, out, "structured")
	})
}

func TestPrintStats(t *testing.T) {
	stats := core.IndexStats{
		TotalDocuments:        4,
		TotalSizeBytes:        8192,
		WithStructuredData:    1,
		WithoutStructuredData: 3,
		DocumentsByType: map[core.DocumentType]int{
			core.DocumentTypeTXT: 3,
			core.DocumentTypeCSV: 1,
		},
	}

	var buf bytes.Buffer
	printStats(&buf, stats)
	out := buf.String()
	assert.Contains(t, out, "Documents:          4")
	assert.Contains(t, out, "8192 bytes")
	assert.Contains(t, out, "csv")
	assert.Contains(t, out, "txt")
}

func TestPrintBulkDelete(t *testing.T) {
	result := &index.BulkDeleteResult{
		Requested: 2,
		Deleted:   []string{"doc-1"},
		Failed:    []index.FailedDelete{{DocumentID: "doc-2", Reason: "document not found"}},
		Message:   "Successfully deleted 1 out of 2 documents",
	}

	var buf bytes.Buffer
	printBulkDelete(&buf, result)
	out := buf.String()
	assert.Contains(t, out, "Successfully deleted 1 out of 2 documents")
	assert.Contains(t, out, "deleted doc-1")
	assert.Contains(t, out, "failed  doc-2: document not found")
}

func TestSnippet(t *testing.T) {
	t.Run("short text passes through", func(t *testing.T) {
		assert.Equal(t, "hello world", snippet("hello   world", 120))
	})

	t.Run("long text is truncated", func(t *testing.T) {
		long := snippet(string(bytes.Repeat([]byte("a"), 200)), 120)
		assert.Len(t, long, 123)
		assert.True(t, len(long) < 200)
	})
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestMain(m *testing.M) {
	code := m.Run()
	os.Exit(code)
}

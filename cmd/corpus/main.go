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


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/corpus"
	"github.com/poiesic/corpus/ai"
	"github.com/poiesic/corpus/config"
	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/index"
	"github.com/poiesic/corpus/scheduler"
	"github.com/poiesic/corpus/vectorstore/redisearch"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:   "corpus",
		Usage:  "Concurrent document ingestion and retrieval engine",
		Flags:  globalFlags(),
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Process files in parallel across the specialist pools",
				ArgsUsage: "<file>...",
				Action:    ingestCommand,
			},
			{
				Name:      "add",
				Usage:     "Ingest a single file",
				ArgsUsage: "<file>",
				Action:    addCommand,
			},
			{
				Name:      "search",
				Usage:     "Search indexed documents by semantic similarity",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of hits",
						Value:   5,
					},
					&cli.BoolFlag{
						Name:  "include-structured",
						Usage: "Include documents with structured property data",
						Value: true,
					},
				},
			},
			{
				Name:      "get",
				Usage:     "Print a document reconstructed from its chunks",
				ArgsUsage: "<document-id>",
				Action:    getCommand,
			},
			{
				Name:   "list",
				Usage:  "List indexed documents",
				Action: listCommand,
			},
			{
				Name:      "delete",
				Usage:     "Delete documents by ID",
				ArgsUsage: "<document-id>...",
				Action:    deleteCommand,
			},
			{
				Name:   "delete-where",
				Usage:  "Delete documents matching metadata filters",
				Action: deleteWhereCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "filename",
						Usage: "Match this exact filename",
					},
					&cli.StringFlag{
						Name:  "type",
						Usage: "Match this document type",
					},
					&cli.StringFlag{
						Name:  "source",
						Usage: "Match this ingestion source",
					},
					&cli.StringSliceFlag{
						Name:  "tag",
						Usage: "Match documents carrying this tag (repeatable)",
					},
					&cli.IntFlag{
						Name:  "older-than-days",
						Usage: "Match documents uploaded more than N days ago",
					},
				},
			},
			{
				Name:   "stats",
				Usage:  "Show index statistics",
				Action: statsCommand,
			},
			{
				Name:   "cleanup",
				Usage:  "Remove stored chunks for documents missing from the metadata cache",
				Action: cleanupCommand,
			},
			{
				Name:   "rebuild",
				Usage:  "Rebuild the metadata cache from the vector store",
				Action: rebuildCommand,
			},
			{
				Name:   "clear",
				Usage:  "Remove every document from the index",
				Action: clearCommand,
			},
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "config",
			Usage: "Path to YAML configuration file",
		},
		&cli.StringFlag{
			Name:    "db",
			Aliases: []string{"d"},
			Usage:   "Path to BadgerDB database directory",
		},
		&cli.BoolFlag{
			Name:  "in-memory",
			Usage: "Keep all data in memory (lost on exit)",
		},
		&cli.StringFlag{
			Name:  "redis-addr",
			Usage: "Redis address; selects the RediSearch backend",
		},
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
		},
		&cli.StringFlag{
			Name:  "extractor-host",
			Usage: "Property extraction service host URL",
		},
		&cli.StringFlag{
			Name:  "extractor-model",
			Usage: "Property extraction model name",
		},
		&cli.StringFlag{
			Name:  "pools",
			Usage: "Path to a YAML specialist pool table",
		},
		&cli.DurationFlag{
			Name:  "task-timeout",
			Usage: "Timeout for each external call an ingestion task makes",
		},
		&cli.StringFlag{
			Name:  "metrics-addr",
			Usage: "Serve Prometheus metrics on this address",
		},
		&cli.StringFlag{
			Name:    "log-level",
			Aliases: []string{"l"},
			Usage:   "Set logging level (debug, info, warn, error)",
			Value:   "info",
		},
	}
}

func setupLogger(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	levelStr := cfg.Logging.Level
	if c.IsSet("log-level") {
		levelStr = c.String("log-level")
	}

	var level slog.Level
	switch strings.ToLower(levelStr) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))

	return nil
}

// resolveConfig loads the configuration file and applies command-line flag
// overrides on top of it. Flags win over both the file and the environment.
func resolveConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	if c.IsSet("db") {
		cfg.Storage.Backend = config.BackendBadger
		cfg.Storage.DataDir = c.String("db")
	}
	if c.IsSet("in-memory") {
		cfg.Storage.Backend = config.BackendBadger
		cfg.Storage.InMemory = c.Bool("in-memory")
	}
	if c.IsSet("redis-addr") {
		cfg.Storage.Backend = config.BackendRedisearch
		cfg.Redis.Addr = c.String("redis-addr")
	}
	if c.IsSet("embedding-host") {
		cfg.AI.EmbeddingHost = c.String("embedding-host")
	}
	if c.IsSet("embedding-model") {
		cfg.AI.EmbeddingModel = c.String("embedding-model")
	}
	if c.IsSet("extractor-host") {
		cfg.AI.ExtractorHost = c.String("extractor-host")
	}
	if c.IsSet("extractor-model") {
		cfg.AI.ExtractorModel = c.String("extractor-model")
	}
	if c.IsSet("pools") {
		cfg.Scheduler.PoolsFile = c.String("pools")
	}
	if c.IsSet("task-timeout") {
		cfg.Scheduler.TaskTimeout = c.Duration("task-timeout")
	}
	if c.IsSet("metrics-addr") {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = c.String("metrics-addr")
	}
	if c.IsSet("log-level") {
		cfg.Logging.Level = c.String("log-level")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openEngine builds an Engine from the resolved configuration and starts the
// metrics endpoint when one is configured. The caller closes the engine.
func openEngine(c *cli.Context) (*corpus.Engine, error) {
	cfg, err := resolveConfig(c)
	if err != nil {
		return nil, err
	}

	opts := []corpus.EngineOption{
		corpus.WithAIConfig(ai.NewConfig(
			ai.WithEmbeddingHost(cfg.AI.EmbeddingHost),
			ai.WithEmbeddingModel(cfg.AI.EmbeddingModel),
			ai.WithExtractorHost(cfg.AI.ExtractorHost),
			ai.WithExtractorModel(cfg.AI.ExtractorModel),
			ai.WithMaxAttempts(cfg.AI.MaxAttempts),
		)),
		corpus.WithChunking(cfg.Chunking.ChunkSize, cfg.Chunking.Overlap),
		corpus.WithTaskTimeout(cfg.Scheduler.TaskTimeout),
	}

	switch cfg.Storage.Backend {
	case config.BackendRedisearch:
		rcfg := redisearch.DefaultConfig()
		rcfg.Addr = cfg.Redis.Addr
		rcfg.Password = cfg.Redis.Password
		rcfg.DB = cfg.Redis.DB
		rcfg.IndexName = cfg.Redis.IndexName
		rcfg.VectorDim = cfg.Redis.VectorDim
		opts = append(opts, corpus.WithRedis(rcfg))
	default:
		if cfg.Storage.InMemory {
			opts = append(opts, corpus.WithInMemory())
		} else {
			opts = append(opts, corpus.WithDataDir(cfg.Storage.DataDir))
		}
	}

	if cfg.Scheduler.PoolsFile != "" {
		registry, err := scheduler.LoadRegistry(cfg.Scheduler.PoolsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load pool table: %w", err)
		}
		opts = append(opts, corpus.WithPools(registry.Specs()))
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, corpus.WithMetricsRegisterer(prometheus.DefaultRegisterer))
	}

	engine, err := corpus.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open engine: %w", err)
	}

	if cfg.Metrics.Enabled {
		startMetricsServer(cfg.Metrics.Addr)
	}
	return engine, nil
}

// startMetricsServer serves the default Prometheus registry for the lifetime
// of the process.
func startMetricsServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("metrics server listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server error", "err", err)
		}
	}()
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one file is required")
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	files := make([]scheduler.FileInput, 0, c.NArg())
	for _, path := range c.Args().Slice() {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		files = append(files, scheduler.FileInput{
			Filename: filepath.Base(path),
			Content:  content,
		})
	}

	result, err := engine.IngestBatch(context.Background(), files)
	if err != nil {
		return fmt.Errorf("batch ingestion failed: %w", err)
	}

	printBatchResult(os.Stdout, result)
	return nil
}

func addCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one file is required")
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	path := c.Args().First()
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	docID, err := engine.IngestFile(context.Background(), filepath.Base(path), content)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Printf("Stored document %s (%s)\n", docID, filepath.Base(path))
	if meta, ok := engine.Meta(docID); ok && meta.Properties != nil {
		fmt.Println("Extracted properties:")
		printProperties(os.Stdout, meta.Properties)
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("a search query is required")
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	hits, err := engine.Search(context.Background(), query, c.Int("limit"), c.Bool("include-structured"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	printSearchHits(os.Stdout, query, hits)
	return nil
}

func getCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one document ID is required")
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	docID := c.Args().First()
	doc, err := engine.GetByID(context.Background(), docID)
	if err != nil {
		return err
	}

	meta, _ := engine.Meta(docID)
	printDocument(os.Stdout, doc, meta)
	return nil
}

func listCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	printMetas(os.Stdout, engine.Metas())
	return nil
}

func deleteCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one document ID is required")
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	result, err := engine.DeleteByIDs(context.Background(), c.Args().Slice())
	if err != nil {
		return fmt.Errorf("deletion failed: %w", err)
	}

	printBulkDelete(os.Stdout, result)
	if !result.Success {
		return fmt.Errorf("failed to delete %d of %d documents", len(result.Failed), result.Requested)
	}
	return nil
}

func deleteWhereCommand(c *cli.Context) error {
	filter := index.DeleteFilter{
		Filename:      c.String("filename"),
		Source:        c.String("source"),
		Tags:          c.StringSlice("tag"),
		OlderThanDays: c.Int("older-than-days"),
	}
	if v := c.String("type"); v != "" {
		docType, err := core.ParseDocumentType(v)
		if err != nil {
			return fmt.Errorf("invalid document type %q", v)
		}
		filter.Type = docType
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	result, err := engine.DeleteWhere(context.Background(), filter)
	if err != nil {
		return fmt.Errorf("deletion failed: %w", err)
	}

	printBulkDelete(os.Stdout, result)
	if !result.Success {
		return fmt.Errorf("failed to delete %d of %d documents", len(result.Failed), result.Requested)
	}
	return nil
}

func statsCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	printStats(os.Stdout, engine.Stats())
	return nil
}

func cleanupCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	orphans, err := engine.CleanupOrphans(context.Background())
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}

	if len(orphans) == 0 {
		fmt.Println("No orphaned chunks found")
		return nil
	}
	fmt.Printf("Removed chunks for %d orphaned documents\n", len(orphans))
	for _, id := range orphans {
		fmt.Printf("  %s\n", id)
	}
	return nil
}

func rebuildCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	count, err := engine.RebuildFromStore(context.Background())
	if err != nil {
		return fmt.Errorf("rebuild failed: %w", err)
	}

	fmt.Printf("Rebuilt metadata for %d documents\n", count)
	return nil
}

func clearCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	count, err := engine.ClearAll(context.Background())
	if err != nil {
		return fmt.Errorf("clear failed: %w", err)
	}

	fmt.Printf("Removed %d documents\n", count)
	return nil
}

// Copyright 2025 ChattyDevs
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
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/chattydevs/core/ai"
	"github.com/chattydevs/core/ai/gemini"
	"github.com/chattydevs/core/ai/openai"
	"github.com/chattydevs/core/chunker"
	"github.com/chattydevs/core/config"
	"github.com/chattydevs/core/crawler"
	"github.com/chattydevs/core/httpapi"
	"github.com/chattydevs/core/ingestion"
	"github.com/chattydevs/core/store"
	badgerstore "github.com/chattydevs/core/store/badger"
	"github.com/chattydevs/core/store/qdrant"
	"github.com/chattydevs/core/tokenizer"
)

func main() {
	app := &cli.App{
		Name:  "chattydevs",
		Usage: "Document ingestion service for multi-tenant retrieval indexes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP ingestion service",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "addr",
						Usage:   "Listen address",
						EnvVars: []string{"LISTEN_ADDR"},
					},
				},
			},
			{
				Name:   "ingest",
				Usage:  "Crawl a site and index it for a project",
				Action: ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "project",
						Aliases:  []string{"p"},
						Usage:    "Project identifier",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "url",
						Usage:    "Start URL for the crawl",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "max-pages",
						Usage: "Maximum number of pages to crawl",
						Value: httpapi.DefaultMaxPages,
					},
					&cli.IntFlag{
						Name:  "chunk-tokens",
						Usage: "Token limit per chunk",
						Value: httpapi.DefaultChunkTokenSize,
					},
				},
			},
			{
				Name:   "delete",
				Usage:  "Delete every vector of a project",
				Action: deleteCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "project",
						Aliases:  []string{"p"},
						Usage:    "Project identifier",
						Required: true,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func serveCommand(c *cli.Context) error {
	cfg := config.Load()
	if addr := c.String("addr"); addr != "" {
		cfg.ListenAddr = addr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	deps, cleanup, err := buildPipelines(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	server, err := httpapi.NewServer(
		deps.crawler, deps.chunker, deps.upserter, deps.deleter,
		cfg.InternalToken,
		httpapi.WithEnvironment(cfg.AppEnv),
	)
	if err != nil {
		return err
	}
	defer server.Release()

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe(cfg.ListenAddr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		slog.Info("shutting down")
		return server.Shutdown(context.Background())
	}
}

func ingestCommand(c *cli.Context) error {
	cfg := config.Load()
	cfg.InternalToken = "cli" // not serving HTTP; token not used
	if err := cfg.Validate(); err != nil {
		return err
	}

	deps, cleanup, err := buildPipelines(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := context.Background()
	pages, err := deps.crawler.Crawl(ctx, c.String("url"), c.Int("max-pages"))
	if err != nil {
		return err
	}

	indexed := 0
	for _, page := range pages {
		chunks := deps.chunker.Split(page.Text, c.Int("chunk-tokens"))
		if len(chunks) == 0 {
			continue
		}
		count, err := deps.upserter.Upsert(ctx, c.String("project"), page.URL, chunks)
		indexed += count
		if err != nil {
			return fmt.Errorf("indexed %d chunks before failure: %w", indexed, err)
		}
	}

	fmt.Printf("crawled %d pages, indexed %d chunks\n", len(pages), indexed)
	return nil
}

func deleteCommand(c *cli.Context) error {
	cfg := config.Load()
	cfg.InternalToken = "cli"
	if err := cfg.Validate(); err != nil {
		return err
	}

	deps, cleanup, err := buildPipelines(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	count, err := deps.deleter.DeleteProject(context.Background(), c.String("project"))
	if err != nil {
		return err
	}

	fmt.Printf("deleted %d vectors\n", count)
	return nil
}

// pipelines bundles everything the HTTP server and CLI commands share.
type pipelines struct {
	crawler  *crawler.Crawler
	chunker  *chunker.Chunker
	upserter *ingestion.Upserter
	deleter  *ingestion.Deleter
}

func buildPipelines(cfg config.Config) (*pipelines, func(), error) {
	vectorStore, cleanup, err := buildStore(cfg)
	if err != nil {
		return nil, nil, err
	}

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	tok, err := tokenizer.New(tokenizer.DefaultEncoding)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	upserter, err := ingestion.NewUpserter(embedder, vectorStore,
		ingestion.WithBatchSize(cfg.UpsertBatchSize))
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	deleter, err := ingestion.NewDeleter(vectorStore,
		ingestion.WithScrollPageSize(cfg.ScrollLimit))
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	return &pipelines{
		crawler: crawler.New(
			crawler.WithTimeout(cfg.CrawlTimeout),
			crawler.WithUserAgent(cfg.CrawlUserAgent),
		),
		chunker: chunker.New(tok,
			chunker.WithMinChunkChars(cfg.MinChunkCharLen)),
		upserter: upserter,
		deleter:  deleter,
	}, cleanup, nil
}

func buildStore(cfg config.Config) (store.VectorStore, func(), error) {
	switch cfg.StoreBackend {
	case config.StoreBadger:
		s, err := badgerstore.Open(cfg.StorePath, false)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	default:
		client, err := qdrant.NewClient(qdrant.Config{
			URL:        cfg.QdrantURL,
			APIKey:     cfg.QdrantAPIKey,
			Collection: cfg.QdrantCollection,
			Timeout:    cfg.QdrantTimeout,
		})
		if err != nil {
			return nil, nil, err
		}
		return client, func() {}, nil
	}
}

func buildEmbedder(cfg config.Config) (ai.Embedder, error) {
	switch cfg.Embedder {
	case config.EmbedderOpenAI:
		return openai.NewEmbedder(openai.Config{
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIEmbedModel,
		})
	default:
		return gemini.NewEmbedder(gemini.Config{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.GeminiModel,
			Timeout: cfg.GeminiTimeout,
		})
	}
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
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

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

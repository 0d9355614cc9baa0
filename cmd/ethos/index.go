// Copyright 2026 © The Ethos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/jllopis/ethos/pkg/config"
	"github.com/jllopis/ethos/pkg/index"
	"github.com/jllopis/ethos/pkg/index/mock"
	"github.com/jllopis/ethos/pkg/index/ollama"
	"github.com/jllopis/ethos/pkg/index/qdrant"
	"github.com/jllopis/ethos/pkg/registry"
	"github.com/jllopis/ethos/pkg/resilience"
)

const mockEmbedderDimension = 768

func runIndex(ctx context.Context, global globalFlags, cfg *config.Config, args []string) {
	if len(args) == 0 {
		fatal(errors.New("usage: ethos index <build|suggest|info>"))
	}

	ctx, cancel := context.WithTimeout(ctx, global.Timeout)
	defer cancel()

	switch args[0] {
	case "build":
		ensureNoArgs(args[1:])
		indexer, store, err := newIndexer(cfg)
		if err != nil {
			fatal(err)
		}
		defer func() { _ = store.Close() }()
		reg := loadStore(ctx, cfg).Current()
		indexed, err := indexer.Sync(ctx, reg)
		if err != nil {
			fatal(err)
		}
		if global.JSON {
			printJSON(map[string]any{"indexed": indexed, "collection": indexer.Collection()})
			return
		}
		fmt.Printf("indexed %d personas into %s\n", indexed, indexer.Collection())
	case "suggest":
		cmd := flag.NewFlagSet("index suggest", flag.ContinueOnError)
		limit := cmd.Int("limit", 5, "Maximum suggestions")
		if err := cmd.Parse(args[1:]); err != nil {
			fatal(err)
		}
		if cmd.NArg() < 1 {
			fatal(errors.New("usage: ethos index suggest <text> [--limit N]"))
		}
		store := loadStore(ctx, cfg)
		suggester := newSuggester(cfg, store.Current)
		results, err := suggester.Suggest(ctx, cmd.Arg(0), *limit)
		if err != nil {
			fatal(err)
		}
		if global.JSON {
			printJSON(results)
			return
		}
		writer := newTabWriter()
		writeRow(writer, "PERSONA", "SCORE", "SUMMARY")
		for _, s := range results {
			writeRow(writer, s.Persona, fmt.Sprintf("%.3f", s.Score), truncateMessage(s.Summary, 80))
		}
		_ = writer.Flush()
	case "info":
		ensureNoArgs(args[1:])
		result := map[string]any{
			"enabled":    cfg.Index.Enabled,
			"qdrant":     cfg.Index.QdrantAddr,
			"collection": cfg.Index.Collection,
			"embedder":   cfg.Index.Embedder,
		}
		if cfg.Index.Enabled {
			if store, err := qdrant.New(cfg.Index.QdrantAddr); err == nil {
				result["healthy"] = store.Healthy(ctx)
				if info, err := store.CollectionInfo(ctx, cfg.Index.Collection); err == nil {
					result["collection_info"] = info
				}
				_ = store.Close()
			} else {
				result["healthy"] = false
			}
		}
		if global.JSON {
			printJSON(result)
			return
		}
		fmt.Printf("enabled: %t\n", cfg.Index.Enabled)
		fmt.Printf("qdrant: %s\n", cfg.Index.QdrantAddr)
		fmt.Printf("collection: %s\n", cfg.Index.Collection)
		fmt.Printf("embedder: %s\n", cfg.Index.Embedder)
		if healthy, ok := result["healthy"]; ok {
			fmt.Printf("healthy: %t\n", healthy)
		}
	default:
		fatal(fmt.Errorf("unknown index command %q", args[0]))
	}
}

func newEmbedder(cfg *config.Config) (index.Embedder, error) {
	switch cfg.Index.Embedder {
	case "", "ollama":
		return ollama.NewEmbedder(cfg.Index.EmbedderBaseURL, cfg.Index.EmbedderModel), nil
	case "mock":
		return mock.NewEmbedder(mockEmbedderDimension), nil
	default:
		return nil, fmt.Errorf("unknown embedder %q, want ollama or mock", cfg.Index.Embedder)
	}
}

func newIndexer(cfg *config.Config) (*index.Indexer, *qdrant.Store, error) {
	if !cfg.Index.Enabled {
		return nil, nil, errors.New("index is disabled; set index.enabled=true")
	}
	embedder, err := newEmbedder(cfg)
	if err != nil {
		return nil, nil, err
	}
	store, err := qdrant.New(cfg.Index.QdrantAddr)
	if err != nil {
		return nil, nil, err
	}
	indexer := index.NewIndexer(store, embedder,
		index.WithCollection(cfg.Index.Collection),
		index.WithTimeout(time.Duration(cfg.Index.TimeoutSeconds)*time.Second),
		index.WithBreaker(resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name:             "qdrant",
			FailureThreshold: 3,
			Timeout:          10 * time.Second,
		})))
	return indexer, store, nil
}

// newSuggester returns the vector indexer degraded onto the lexical
// fallback, or the lexical suggester alone when the index is disabled
// or misconfigured.
func newSuggester(cfg *config.Config, current func() *registry.Registry) index.Suggester {
	lexical := index.NewLexical(current)
	if !cfg.Index.Enabled {
		return lexical
	}
	indexer, _, err := newIndexer(cfg)
	if err != nil {
		return lexical
	}
	return index.NewDegrading(indexer, lexical)
}

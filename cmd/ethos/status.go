// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/jllopis/ethos/pkg/catalog"
	"github.com/jllopis/ethos/pkg/config"
	"github.com/jllopis/ethos/pkg/index/qdrant"
)

type statusResult struct {
	Version         string   `json:"version"`
	CorpusRoots     []string `json:"corpus_roots"`
	Personas        int      `json:"personas"`
	InvalidDocs     int      `json:"invalid_docs"`
	Shadowed        int      `json:"shadowed"`
	CatalogPath     string   `json:"catalog_path"`
	CatalogOK       bool     `json:"catalog_ok"`
	CatalogPersonas int      `json:"catalog_personas,omitempty"`
	CatalogError    string   `json:"catalog_error,omitempty"`
	ServeAddr       string   `json:"serve_addr"`
	ServeReachable  bool     `json:"serve_reachable"`
	IndexEnabled    bool     `json:"index_enabled"`
	QdrantAddr      string   `json:"qdrant_addr,omitempty"`
	QdrantHealthy   bool     `json:"qdrant_healthy,omitempty"`
	EmbedderURL     string   `json:"embedder_url,omitempty"`
	EmbedderUp      bool     `json:"embedder_up,omitempty"`
	CorpusError     string   `json:"corpus_error,omitempty"`
}

func runStatus(ctx context.Context, global globalFlags, cfg *config.Config) {
	ctx, cancel := context.WithTimeout(ctx, global.Timeout)
	defer cancel()

	result := statusResult{
		Version:      version,
		CorpusRoots:  cfg.Corpus.Roots,
		CatalogPath:  cfg.Catalog.Path,
		ServeAddr:    cfg.Serve.Addr,
		IndexEnabled: cfg.Index.Enabled,
	}

	res, err := newResolver(cfg).Resolve()
	if err != nil {
		result.CorpusError = err.Error()
	} else {
		result.Personas = len(res.Personas)
		result.InvalidDocs = len(res.Invalid)
		result.Shadowed = len(res.Shadowed)
	}

	if cat, err := catalog.Open(cfg.Catalog.Path); err != nil {
		result.CatalogError = err.Error()
	} else {
		stats, err := cat.Stats(ctx)
		if err != nil {
			result.CatalogError = err.Error()
		} else {
			result.CatalogOK = true
			result.CatalogPersonas = stats.Personas
		}
		_ = cat.Close()
	}

	result.ServeReachable = checkTCP(cfg.Serve.Addr)

	if cfg.Index.Enabled {
		result.QdrantAddr = cfg.Index.QdrantAddr
		result.EmbedderURL = cfg.Index.EmbedderBaseURL
		if store, err := qdrant.New(cfg.Index.QdrantAddr); err == nil {
			result.QdrantHealthy = store.Healthy(ctx)
			_ = store.Close()
		}
		result.EmbedderUp = checkHTTP(cfg.Index.EmbedderBaseURL)
	}

	if global.JSON {
		printJSON(result)
		return
	}

	fmt.Printf("ethos: %s\n", result.Version)
	if result.CorpusError != "" {
		fmt.Printf("corpus: ERROR %s\n", result.CorpusError)
	} else {
		fmt.Printf("corpus: %d personas (%d invalid, %d shadowed) from %v\n",
			result.Personas, result.InvalidDocs, result.Shadowed, result.CorpusRoots)
	}
	if result.CatalogOK {
		fmt.Printf("catalog: %s (%d personas)\n", result.CatalogPath, result.CatalogPersonas)
	} else {
		fmt.Printf("catalog: %s (error: %s)\n", result.CatalogPath, result.CatalogError)
	}
	fmt.Printf("serve: %s (reachable=%t)\n", result.ServeAddr, result.ServeReachable)
	if result.IndexEnabled {
		fmt.Printf("qdrant: %s (healthy=%t)\n", result.QdrantAddr, result.QdrantHealthy)
		fmt.Printf("embedder: %s (reachable=%t)\n", result.EmbedderURL, result.EmbedderUp)
	} else {
		fmt.Println("index: disabled")
	}
}

// Copyright 2026 © The Ethos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jllopis/ethos/pkg/catalog"
	"github.com/jllopis/ethos/pkg/config"
	"github.com/jllopis/ethos/pkg/corpus"
	"github.com/jllopis/ethos/pkg/health"
	"github.com/jllopis/ethos/pkg/index/qdrant"
	"github.com/jllopis/ethos/pkg/lint"
	"github.com/jllopis/ethos/pkg/mcp"
	"github.com/jllopis/ethos/pkg/registry"
	"github.com/jllopis/ethos/pkg/serve"
	"github.com/jllopis/ethos/pkg/telemetry"
)

func runServe(ctx context.Context, global globalFlags, cfg *config.Config, args []string) {
	cmd := flag.NewFlagSet("serve", flag.ContinueOnError)
	httpAddr := cmd.String("http", cfg.Serve.Addr, "HTTP listen address")
	mcpMode := cmd.String("mcp", defaultMCPMode(cfg), "Expose the registry over MCP: stdio or http")
	watch := cmd.Bool("watch", cfg.Registry.Watch, "Reload the registry when corpus files change")
	if err := cmd.Parse(args); err != nil {
		fatal(err)
	}

	logger := telemetry.ConfigureSlog(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitWithConfig("ethos", version, telemetry.Config{
			Exporter:           cfg.Telemetry.Exporter,
			OTLPEndpoint:       cfg.Telemetry.OTLPEndpoint,
			OTLPInsecure:       true,
			OTLPTimeoutSeconds: cfg.Telemetry.OTLPTimeoutSeconds,
			SampleRatio:        cfg.Telemetry.SampleRatio,
		})
		if err != nil {
			fatal(err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(shutdownCtx)
		}()
	}

	metrics := processMetrics()

	store := registry.NewStore(newResolver(cfg), registry.WithLogger(logger))
	if err := store.Load(ctx); err != nil {
		metrics.RecordCorpusLoad(ctx, "failed", 0)
		fatal(err)
	}
	metrics.RecordCorpusLoad(ctx, "ok", store.Current().Len())

	// Reloads happen behind the corpus watcher; count them through the
	// store's own event feed.
	events, cancelEvents := store.Subscribe()
	defer cancelEvents()
	go func() {
		for event := range events {
			switch event.Type {
			case registry.EventLoaded, registry.EventReloaded:
				personas, _ := event.Payload["personas"].(int)
				metrics.RecordCorpusLoad(ctx, "ok", personas)
			case registry.EventReloadFailed:
				metrics.RecordCorpusLoad(ctx, "failed", 0)
			}
		}
	}()

	if *watch {
		watcher, err := corpus.NewWatcher(watchPaths(cfg), func(ctx context.Context) {
			if err := store.Reload(ctx); err != nil {
				logger.Warn("registry reload failed", "error", err)
			}
		},
			corpus.WithDebounce(time.Duration(cfg.Registry.DebounceMillis)*time.Millisecond),
			corpus.WithWatcherLogger(logger))
		if err != nil {
			fatal(err)
		}
		if err := watcher.Start(ctx); err != nil {
			fatal(err)
		}
		defer watcher.Stop()

		// Hot-reload ethos.yaml too: log level and format changes apply
		// without a restart, replaying the --profile/--set overlay.
		if cfgPath := configPathFromArgs(global.ConfigArgs); cfgPath != "" {
			reloader, err := config.NewReloader(cfgPath, global.ConfigArgs,
				config.WithReloadLogger(logger))
			if err != nil {
				fatal(err)
			}
			reloader.OnChange(func(next *config.Config) {
				telemetry.ConfigureSlog(os.Stderr, next.Log.Level, next.Log.Format)
			})
			reloader.Start(ctx)
			defer reloader.Stop()
		}
	}

	suggester := suggestTimer{
		next:       newSuggester(cfg, store.Current),
		metrics:    metrics,
		collection: cfg.Index.Collection,
	}

	srv := serve.New(store,
		serve.WithSuggester(suggester),
		serve.WithHealthProvider(healthProvider(cfg, store)),
		serve.WithAuthToken(cfg.Serve.AuthToken),
		serve.WithVersion(version),
		serve.WithServerLogger(logger),
		serve.WithMetrics(metrics))

	if *mcpMode != "" {
		mcpServer := mcp.NewServer(store, version,
			mcp.WithSuggester(suggester),
			mcp.WithLintResolver(newResolver(cfg)),
			mcp.WithLinter(serveLinter(ctx, global, cfg)))
		switch *mcpMode {
		case "stdio":
			// Stdio MCP owns the process; the HTTP API is not started.
			logger.Info("serving MCP over stdio")
			if err := mcpServer.ServeStdio(); err != nil {
				fatal(err)
			}
			return
		case "http":
			go func() {
				logger.Info("serving MCP over http", "addr", cfg.MCP.Addr)
				if err := mcpServer.ServeHTTP(cfg.MCP.Addr); err != nil {
					logger.Error("mcp server stopped", "error", err)
				}
			}()
		default:
			fatal(fmt.Errorf("unknown --mcp mode %q, want stdio or http", *mcpMode))
		}
	}

	httpServer := &http.Server{
		Addr:              *httpAddr,
		Handler:           srv,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	displayAddr := *httpAddr
	if strings.HasPrefix(displayAddr, ":") {
		displayAddr = "localhost" + displayAddr
	}
	fmt.Printf("ethos API listening on http://%s\n", displayAddr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fatal(err)
	}
}

func defaultMCPMode(cfg *config.Config) string {
	if !cfg.MCP.Enabled {
		return ""
	}
	return cfg.MCP.Transport
}

func watchPaths(cfg *config.Config) []string {
	paths := make([]string, 0, len(cfg.Corpus.Roots)+len(cfg.Corpus.Bundles))
	paths = append(paths, cfg.Corpus.Roots...)
	paths = append(paths, cfg.Corpus.Bundles...)
	return paths
}

func serveLinter(ctx context.Context, global globalFlags, cfg *config.Config) *lint.Linter {
	opts, err := lintOptions(ctx, global, cfg)
	if err != nil {
		fatal(err)
	}
	return lint.New(opts...)
}

// healthProvider wires the component checks behind /healthz and
// 'ethos status'. The corpus check reports on the current snapshot;
// catalog and qdrant checks probe their backends on each call.
func healthProvider(cfg *config.Config, store *registry.Store) *health.Provider {
	provider := health.NewProvider()

	provider.Register("corpus", health.CheckerFunc(func(_ context.Context) health.Result {
		reg := store.Current()
		result := health.Result{Component: "corpus", LastCheck: time.Now().UTC()}
		if reg == nil || reg.Len() == 0 {
			result.Status = health.StatusDegraded
			result.Message = "no personas loaded"
			return result
		}
		result.Status = health.StatusHealthy
		result.Message = fmt.Sprintf("%d personas, fingerprint %s", reg.Len(), reg.Fingerprint())
		return result
	}))

	provider.Register("catalog", health.CheckerFunc(func(ctx context.Context) health.Result {
		result := health.Result{Component: "catalog", LastCheck: time.Now().UTC()}
		cat, err := catalog.Open(cfg.Catalog.Path)
		if err != nil {
			result.Status = health.StatusUnhealthy
			result.Message = err.Error()
			return result
		}
		defer func() { _ = cat.Close() }()
		if _, err := cat.Stats(ctx); err != nil {
			result.Status = health.StatusUnhealthy
			result.Message = err.Error()
			return result
		}
		result.Status = health.StatusHealthy
		return result
	}))

	if cfg.Index.Enabled {
		provider.Register("qdrant", health.CheckerFunc(func(ctx context.Context) health.Result {
			result := health.Result{Component: "qdrant", LastCheck: time.Now().UTC()}
			qs, err := qdrant.New(cfg.Index.QdrantAddr)
			if err != nil {
				result.Status = health.StatusUnhealthy
				result.Message = err.Error()
				return result
			}
			defer func() { _ = qs.Close() }()
			if !qs.Healthy(ctx) {
				result.Status = health.StatusDegraded
				result.Message = "qdrant not responding; suggest degrades to lexical"
				return result
			}
			result.Status = health.StatusHealthy
			return result
		}))
	}

	return provider
}

// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/jllopis/ethos/pkg/catalog"
	"github.com/jllopis/ethos/pkg/config"
)

func runCatalog(ctx context.Context, global globalFlags, cfg *config.Config, args []string) {
	if len(args) == 0 {
		fatal(errors.New("usage: ethos catalog <sync|stats|search>"))
	}

	ctx, cancel := context.WithTimeout(ctx, global.Timeout)
	defer cancel()

	cat, err := catalog.Open(cfg.Catalog.Path)
	if err != nil {
		NewStoreError(err, cfg.Catalog.Path).PrintError(global.JSON)
		os.Exit(1)
	}
	defer func() { _ = cat.Close() }()

	switch args[0] {
	case "sync":
		ensureNoArgs(args[1:])
		store := loadStore(ctx, cfg)
		result, err := cat.Sync(ctx, store.Current())
		if err != nil {
			fatal(err)
		}
		processMetrics().RecordCatalogSync(ctx, result.Upserted, result.Deleted, result.Unchanged)
		if global.JSON {
			printJSON(result)
			return
		}
		fmt.Printf("synced: %d upserted, %d deleted, %d unchanged\n",
			result.Upserted, result.Deleted, result.Unchanged)
	case "stats":
		ensureNoArgs(args[1:])
		stats, err := cat.Stats(ctx)
		if err != nil {
			fatal(err)
		}
		if global.JSON {
			printJSON(stats)
			return
		}
		fmt.Printf("personas: %d\n", stats.Personas)
		fmt.Printf("delegations: %d\n", stats.Delegations)
		writer := newTabWriter()
		writeRow(writer, "SOURCE", "PERSONAS")
		for source, count := range stats.BySource {
			writeRow(writer, source, fmt.Sprintf("%d", count))
		}
		_ = writer.Flush()
	case "search":
		cmd := flag.NewFlagSet("catalog search", flag.ContinueOnError)
		limit := cmd.Int("limit", 20, "Maximum results")
		if err := cmd.Parse(args[1:]); err != nil {
			fatal(err)
		}
		if cmd.NArg() < 1 {
			fatal(errors.New("usage: ethos catalog search <text> [--limit N]"))
		}
		page, err := cat.Search(ctx, cmd.Arg(0), *limit)
		if err != nil {
			fatal(err)
		}
		if global.JSON {
			printJSON(page)
			return
		}
		writer := newTabWriter()
		writeRow(writer, "NAME", "MODEL", "SOURCE", "DESCRIPTION")
		for _, p := range page.Personas {
			writeRow(writer, p.Name, p.Model, p.SourceName, truncateMessage(p.Summary, 80))
		}
		_ = writer.Flush()
		if page.NextPageToken != "" {
			fmt.Printf("next_page_token=%s\n", page.NextPageToken)
		}
	default:
		fatal(fmt.Errorf("unknown catalog command %q", args[0]))
	}
}

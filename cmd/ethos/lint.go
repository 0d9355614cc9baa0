// Copyright 2026 © The Ethos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/jllopis/ethos/pkg/config"
	"github.com/jllopis/ethos/pkg/corpus"
	"github.com/jllopis/ethos/pkg/inventory"
	"github.com/jllopis/ethos/pkg/lint"
	"github.com/jllopis/ethos/pkg/mcp/pool"
)

type lintReport struct {
	Findings []lint.Finding        `json:"findings"`
	Counts   map[lint.Severity]int `json:"counts"`
	Personas int                   `json:"personas"`
}

func runLint(ctx context.Context, global globalFlags, cfg *config.Config, args []string) {
	cmd := flag.NewFlagSet("lint", flag.ContinueOnError)
	var corpusDirs multiFlag
	cmd.Var(&corpusDirs, "corpus", "Corpus directory to lint (repeatable, overrides config)")
	strict := cmd.Bool("strict", false, "Fail assembly on same-source duplicate ids")
	if err := cmd.Parse(args); err != nil {
		fatal(err)
	}

	resolver := lintResolver(cfg, corpusDirs, *strict)
	res, err := resolver.Resolve()
	if err != nil {
		fatal(err)
	}

	opts, err := lintOptions(ctx, global, cfg)
	if err != nil {
		fatal(err)
	}
	findings := lint.New(opts...).Run(res)

	report := lintReport{
		Findings: findings,
		Counts:   lint.CountBySeverity(findings),
		Personas: len(res.Personas),
	}
	processMetrics().RecordLintFindings(ctx, severityCounts(report.Counts))

	if global.JSON {
		printJSON(report)
	} else {
		writer := newTabWriter()
		writeRow(writer, "SEVERITY", "RULE", "PERSONA", "MESSAGE")
		for _, f := range findings {
			writeRow(writer, string(f.Severity), f.Rule, f.Persona, f.Message)
		}
		_ = writer.Flush()
		fmt.Printf("\n%d personas, %d error(s), %d warning(s), %d info\n",
			report.Personas,
			report.Counts[lint.SeverityError],
			report.Counts[lint.SeverityWarn],
			report.Counts[lint.SeverityInfo])
	}

	if lint.HasErrors(findings) {
		os.Exit(1)
	}
}

func lintResolver(cfg *config.Config, dirs []string, strict bool) *corpus.Resolver {
	var opts []corpus.ResolverOption
	if strict || cfg.Corpus.Strict {
		opts = append(opts, corpus.WithStrict())
	}
	if len(dirs) == 0 {
		return corpus.NewResolver(corpusSources(cfg), opts...)
	}
	sources := make([]corpus.Source, 0, len(dirs))
	for _, dir := range dirs {
		sources = append(sources, corpus.NewDirSource(dir, dir))
	}
	return corpus.NewResolver(sources, opts...)
}

// lintOptions maps the lint config section onto linter options and
// assembles the tool inventory from static config plus any reachable
// MCP servers. MCP failures degrade to the static set rather than
// aborting the run.
func lintOptions(ctx context.Context, global globalFlags, cfg *config.Config) ([]lint.Option, error) {
	var opts []lint.Option
	for rule, severity := range cfg.Lint.Severity {
		parsed, err := parseSeverity(severity)
		if err != nil {
			return nil, fmt.Errorf("lint.severity[%s]: %w", rule, err)
		}
		opts = append(opts, lint.WithSeverityOverride(rule, parsed))
	}
	if len(cfg.Lint.Disabled) > 0 {
		opts = append(opts, lint.WithDisabledRules(cfg.Lint.Disabled...))
	}

	inv := inventory.New(inventory.WithStaticTools(cfg.Inventory.StaticTools))
	if len(cfg.MCP.Servers) > 0 {
		tools, err := collectMCPTools(ctx, global, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: mcp tool collection incomplete: %v\n", err)
		}
		inv.Add(tools...)
	}
	if inv.Len() > 0 {
		opts = append(opts, lint.WithToolChecker(inv))
	}
	return opts, nil
}

func collectMCPTools(ctx context.Context, global globalFlags, cfg *config.Config) ([]string, error) {
	p := pool.New()
	defer func() { _ = p.Close() }()

	for name, srv := range cfg.MCP.Servers {
		transport := strings.ToLower(strings.TrimSpace(srv.Transport))
		var err error
		switch transport {
		case "", "stdio":
			err = p.Register(pool.ServerConfig{
				Name:    name,
				Type:    pool.ServerTypeStdio,
				Command: srv.Command,
				Args:    srv.Args,
				Env:     srv.Env,
			})
		case "http":
			err = p.RegisterHTTP(name, srv.URL)
		default:
			err = fmt.Errorf("mcp server %q has unsupported transport %q", name, srv.Transport)
		}
		if err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, global.Timeout)
	defer cancel()
	return p.CollectTools(ctx)
}

func parseSeverity(value string) (lint.Severity, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "error":
		return lint.SeverityError, nil
	case "warn", "warning":
		return lint.SeverityWarn, nil
	case "info":
		return lint.SeverityInfo, nil
	default:
		return "", fmt.Errorf("unknown severity %q, want error, warn or info", value)
	}
}

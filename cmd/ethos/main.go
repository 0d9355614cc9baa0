package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/jllopis/ethos/pkg/config"
	"github.com/jllopis/ethos/pkg/corpus"
	"github.com/jllopis/ethos/pkg/registry"
)

const version = "dev"

type globalFlags struct {
	ConfigArgs []string
	Timeout    time.Duration
	JSON       bool
	Help       bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	global, args, err := parseGlobalFlags(os.Args[1:])
	if err != nil {
		fatal(err)
	}
	if global.Help || len(args) == 0 {
		printUsage()
		return
	}

	cfg, cfgArgs, err := loadConfig(global)
	if err != nil {
		NewConfigError(err, configPathFromArgs(global.ConfigArgs)).PrintError(global.JSON)
		os.Exit(1)
	}
	// Keep the resolved overlay so long-running commands can reload with
	// the same --config/--profile/--set arguments.
	global.ConfigArgs = cfgArgs

	cmd := args[0]
	sub := ""
	if len(args) > 1 {
		sub = args[1]
	}

	switch cmd {
	case "status":
		ensureNoArgs(args[1:])
		runStatus(ctx, global, cfg)
	case "list":
		runList(ctx, global, cfg, args[1:])
	case "show":
		runShow(ctx, global, cfg, args[1:])
	case "lint":
		runLint(ctx, global, cfg, args[1:])
	case "graph":
		runGraph(ctx, global, cfg, args[1:])
	case "catalog":
		runCatalog(ctx, global, cfg, args[1:])
	case "index":
		runIndex(ctx, global, cfg, args[1:])
	case "serve":
		runServe(ctx, global, cfg, args[1:])
	case "bundle":
		runBundle(global, args[1:])
	case "init":
		runInit(global, args[1:])
	case "new":
		runNew(global, args[1:])
	case "web":
		runWeb(ctx, global, cfg, args[1:])
	case "help":
		printUsage()
	case "version":
		printVersion()
	default:
		if sub == "" {
			fatal(fmt.Errorf("unknown command %q", cmd))
		}
		fatal(fmt.Errorf("unknown command %q %q", cmd, sub))
	}
}

func parseGlobalFlags(args []string) (globalFlags, []string, error) {
	flags := globalFlags{
		Timeout: 30 * time.Second,
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return flags, args[i+1:], nil
		}
		if !strings.HasPrefix(arg, "-") {
			return flags, args[i:], nil
		}
		switch {
		case arg == "-h" || arg == "--help":
			flags.Help = true
			return flags, nil, nil
		case arg == "--json":
			flags.JSON = true
		case arg == "--config":
			if i+1 >= len(args) {
				return flags, nil, fmt.Errorf("missing value for --config")
			}
			flags.ConfigArgs = append(flags.ConfigArgs, arg, args[i+1])
			i++
		case strings.HasPrefix(arg, "--config="):
			flags.ConfigArgs = append(flags.ConfigArgs, "--config", strings.TrimPrefix(arg, "--config="))
		case arg == "--profile":
			if i+1 >= len(args) {
				return flags, nil, fmt.Errorf("missing value for --profile")
			}
			flags.ConfigArgs = append(flags.ConfigArgs, arg, args[i+1])
			i++
		case strings.HasPrefix(arg, "--profile="):
			flags.ConfigArgs = append(flags.ConfigArgs, "--profile", strings.TrimPrefix(arg, "--profile="))
		case arg == "--set":
			if i+1 >= len(args) {
				return flags, nil, fmt.Errorf("missing value for --set")
			}
			flags.ConfigArgs = append(flags.ConfigArgs, arg, args[i+1])
			i++
		case strings.HasPrefix(arg, "--set="):
			flags.ConfigArgs = append(flags.ConfigArgs, "--set", strings.TrimPrefix(arg, "--set="))
		case arg == "--timeout":
			if i+1 >= len(args) {
				return flags, nil, fmt.Errorf("missing value for --timeout")
			}
			value, err := time.ParseDuration(args[i+1])
			if err != nil {
				return flags, nil, fmt.Errorf("invalid --timeout: %w", err)
			}
			flags.Timeout = value
			i++
		case strings.HasPrefix(arg, "--timeout="):
			value, err := time.ParseDuration(strings.TrimPrefix(arg, "--timeout="))
			if err != nil {
				return flags, nil, fmt.Errorf("invalid --timeout: %w", err)
			}
			flags.Timeout = value
		default:
			return flags, nil, fmt.Errorf("unknown global flag %q", arg)
		}
	}
	return flags, nil, nil
}

// loadConfig loads configuration honoring --config/--profile/--set. When
// no --config was given, the nearest ethos.yaml found walking up from
// the working directory is used, so commands work from anywhere inside
// a corpus checkout. The second return value is the resolved argument
// list, --config included, suitable for replaying the same load later.
func loadConfig(global globalFlags) (*config.Config, []string, error) {
	args := global.ConfigArgs
	if configPathFromArgs(args) == "" {
		if root, err := corpus.FindRoot("."); err == nil && root != "" {
			if path := corpus.ConfigPath(root); path != "" {
				args = append([]string{"--config", path}, args...)
			}
		}
	}
	cfg, err := config.LoadWithCLI(args)
	return cfg, args, err
}

func configPathFromArgs(args []string) string {
	for i := 0; i < len(args); i++ {
		if args[i] == "--config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// corpusSources builds the source chain from configuration: roots in
// precedence order, then bundles.
func corpusSources(cfg *config.Config) []corpus.Source {
	sources := make([]corpus.Source, 0, len(cfg.Corpus.Roots)+len(cfg.Corpus.Bundles))
	for _, root := range cfg.Corpus.Roots {
		sources = append(sources, corpus.NewDirSource(root, root))
	}
	for _, path := range cfg.Corpus.Bundles {
		sources = append(sources, corpus.NewBundleSource(path, path))
	}
	return sources
}

func newResolver(cfg *config.Config) *corpus.Resolver {
	var opts []corpus.ResolverOption
	if cfg.Corpus.Strict {
		opts = append(opts, corpus.WithStrict())
	}
	return corpus.NewResolver(corpusSources(cfg), opts...)
}

func loadStore(ctx context.Context, cfg *config.Config) *registry.Store {
	store := registry.NewStore(newResolver(cfg))
	if err := store.Load(ctx); err != nil {
		fatal(err)
	}
	return store
}

func checkTCP(addr string) bool {
	if strings.TrimSpace(addr) == "" {
		return false
	}
	conn, err := net.DialTimeout("tcp", addr, 500*time.Millisecond)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

func checkHTTP(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := parsed.Host
	if host == "" {
		host = parsed.Path
	}
	if host == "" {
		return false
	}
	if !strings.Contains(host, ":") {
		if parsed.Scheme == "https" {
			host += ":443"
		} else {
			host += ":80"
		}
	}
	return checkTCP(host)
}

func printJSON(value any) {
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		fatal(err)
	}
	fmt.Println(string(payload))
}

func newTabWriter() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
}

func writeRow(writer *tabwriter.Writer, cols ...string) {
	for i, col := range cols {
		cols[i] = normalizeCell(col)
	}
	fmt.Fprintln(writer, strings.Join(cols, "\t"))
}

func normalizeCell(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "-"
	}
	return strings.Join(strings.Fields(value), " ")
}

func truncateMessage(value string, limit int) string {
	value = normalizeCell(value)
	if limit <= 0 || len(value) <= limit {
		return value
	}
	if limit <= 3 {
		return value[:limit]
	}
	return value[:limit-3] + "..."
}

func joinTools(tools []string) string {
	if len(tools) == 0 {
		return "*"
	}
	return strings.Join(tools, ",")
}

func printVersion() {
	fmt.Println(version)
}

func printUsage() {
	fmt.Println(`ethos - persona corpus registry and toolchain

Usage:
  ethos [global flags] <command> [args]

Global flags:
  --config <path>      Path to ethos.yaml (default: nearest upward)
  --profile <name>     Config profile overlay (ethos.<name>.yaml)
  --set key=value      Override config (repeatable)
  --timeout <dur>      Operation timeout (default 30s)
  --json               JSON output

Commands:
  status
  list [--tool <name>] [--q <text>]
  show <id> [--format md|json|html]
  lint [--corpus <dir>] [--strict]
  graph [--output mermaid|dot|json|yaml] [--focus <id>]
  catalog sync
  catalog stats
  catalog search <text> [--limit N]
  index build
  index suggest <text> [--limit N]
  index info
  serve [--http <addr>] [--mcp stdio|http] [--watch]
  bundle pack <dir> <out>
  bundle unpack <file> <dir>
  init <dir> [--name <corpus-name>]
  new <archetype> <id> [--dir <dir>]
  web [--addr <addr>]`)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func ensureNoArgs(args []string) {
	if len(args) > 0 {
		fatal(fmt.Errorf("unexpected args: %v", args))
	}
}

type multiFlag []string

func (m *multiFlag) String() string {
	return strings.Join(*m, ",")
}

func (m *multiFlag) Set(value string) error {
	*m = append(*m, value)
	return nil
}

func getenv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

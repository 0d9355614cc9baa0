// Package config loads ethos configuration from YAML files, profile
// overlays, ETHOS_ environment variables and --set CLI overrides, in
// that order of precedence.
package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Log       LogConfig       `koanf:"log"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Corpus    CorpusConfig    `koanf:"corpus"`
	Registry  RegistryConfig  `koanf:"registry"`
	Lint      LintConfig      `koanf:"lint"`
	Catalog   CatalogConfig   `koanf:"catalog"`
	Index     IndexConfig     `koanf:"index"`
	Serve     ServeConfig     `koanf:"serve"`
	MCP       MCPConfig       `koanf:"mcp"`
	Inventory InventoryConfig `koanf:"inventory"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json, text
}

type TelemetryConfig struct {
	Enabled            bool    `koanf:"enabled"`
	Exporter           string  `koanf:"exporter"` // stdout, otlp, none
	OTLPEndpoint       string  `koanf:"otlp_endpoint"`
	OTLPTimeoutSeconds int     `koanf:"otlp_timeout_seconds"`
	SampleRatio        float64 `koanf:"sample_ratio"`
}

type CorpusConfig struct {
	// Roots are directories scanned for persona documents, in
	// precedence order. The first source to define an id wins.
	Roots []string `koanf:"roots"`

	// Bundles are packed multi-document files appended after Roots.
	Bundles []string `koanf:"bundles"`

	// Strict turns same-source duplicate ids into load failures.
	Strict bool `koanf:"strict"`
}

type RegistryConfig struct {
	// Watch reloads the registry when corpus files change.
	Watch          bool `koanf:"watch"`
	DebounceMillis int  `koanf:"debounce_millis"`
}

type LintConfig struct {
	// Severity maps rule id to error, warn or info.
	Severity map[string]string `koanf:"severity"`
	Disabled []string          `koanf:"disabled"`
}

type CatalogConfig struct {
	Path string `koanf:"path"`
}

type IndexConfig struct {
	Enabled         bool   `koanf:"enabled"`
	QdrantAddr      string `koanf:"qdrant_addr"`
	Collection      string `koanf:"collection"`
	Embedder        string `koanf:"embedder"` // ollama, mock
	EmbedderBaseURL string `koanf:"embedder_base_url"`
	EmbedderModel   string `koanf:"embedder_model"`
	TimeoutSeconds  int    `koanf:"timeout_seconds"`
}

type ServeConfig struct {
	Addr      string `koanf:"addr"`
	AuthToken string `koanf:"auth_token"`
}

// MCPServerConfig describes an upstream MCP server polled for the tool
// inventory.
type MCPServerConfig struct {
	Transport string            `koanf:"transport"` // stdio, http
	Command   string            `koanf:"command"`
	Args      []string          `koanf:"args"`
	URL       string            `koanf:"url"`
	Env       map[string]string `koanf:"env"`
}

type MCPConfig struct {
	// Enabled exposes the registry itself as an MCP server.
	Enabled   bool   `koanf:"enabled"`
	Transport string `koanf:"transport"` // stdio, http
	Addr      string `koanf:"addr"`

	// Servers are upstream MCP servers whose tools feed the inventory.
	Servers map[string]MCPServerConfig `koanf:"servers"`
}

type InventoryConfig struct {
	// StaticTools are always treated as known, glob patterns allowed.
	StaticTools []string `koanf:"static_tools"`
}

// Global k instance
var k = koanf.New(".")

func setDefaults() {
	k.Set("log.level", "info")
	k.Set("log.format", "text")

	k.Set("telemetry.enabled", false)
	k.Set("telemetry.exporter", "stdout")
	k.Set("telemetry.otlp_timeout_seconds", 10)
	k.Set("telemetry.sample_ratio", 1.0)

	k.Set("corpus.roots", []string{"personas"})
	k.Set("corpus.strict", false)

	k.Set("registry.watch", false)
	k.Set("registry.debounce_millis", 500)

	k.Set("catalog.path", ".ethos/catalog.db")

	k.Set("index.enabled", false)
	k.Set("index.qdrant_addr", "localhost:6334")
	k.Set("index.collection", "ethos-personas")
	k.Set("index.embedder", "ollama")
	k.Set("index.embedder_base_url", "http://localhost:11434")
	k.Set("index.embedder_model", "nomic-embed-text")
	k.Set("index.timeout_seconds", 30)

	k.Set("serve.addr", ":7430")

	k.Set("mcp.enabled", false)
	k.Set("mcp.transport", "stdio")
	k.Set("mcp.addr", ":7431")
}

func Load(path string) (*Config, error) {
	return LoadWithProfile(path, "")
}

// LoadWithProfile loads the base config file and, when profile is not
// empty, overlays config.<profile>.yaml from the same directory if it
// exists. Environment variables apply on top of both.
func LoadWithProfile(path, profile string) (*Config, error) {
	setDefaults()

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
		if profile != "" {
			if profilePath := profileVariant(path, profile); profilePath != "" {
				// Missing profile files fall back to base silently.
				_ = k.Load(file.Provider(profilePath), yaml.Parser())
			}
		}
	}

	// ETHOS_LOG_LEVEL -> log.level
	if err := k.Load(env.Provider("ETHOS_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "ETHOS_")), "_", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadWithCLI loads configuration honoring --config, --profile and
// --set key=value arguments. --set applies last and wins over file and
// environment values.
func LoadWithCLI(args []string) (*Config, error) {
	path, profile, sets, err := parseCLIOverrides(args)
	if err != nil {
		return nil, err
	}

	cfg, err := LoadWithProfile(path, profile)
	if err != nil {
		return nil, err
	}
	if len(sets) == 0 {
		return cfg, nil
	}

	for key, value := range sets {
		k.Set(key, value)
	}
	var out Config
	if err := k.Unmarshal("", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func parseCLIOverrides(args []string) (path, profile string, sets map[string]any, err error) {
	sets = make(map[string]any)
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--config":
			if i+1 >= len(args) {
				return "", "", nil, fmt.Errorf("--config requires a value")
			}
			i++
			path = args[i]
		case "--profile":
			if i+1 >= len(args) {
				return "", "", nil, fmt.Errorf("--profile requires a value")
			}
			i++
			profile = args[i]
		case "--set":
			if i+1 >= len(args) {
				return "", "", nil, fmt.Errorf("--set requires key=value")
			}
			i++
			key, value, ok := strings.Cut(args[i], "=")
			if !ok || key == "" {
				return "", "", nil, fmt.Errorf("invalid --set %q, want key=value", args[i])
			}
			sets[key] = coerceValue(value)
		}
	}
	return path, profile, sets, nil
}

// coerceValue interprets JSON literals so --set can carry booleans,
// numbers and structured values; everything else stays a string.
func coerceValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	return raw
}

func profileVariant(path, profile string) string {
	dot := strings.LastIndex(path, ".")
	if dot < 0 {
		return path + "." + profile
	}
	return path[:dot] + "." + profile + path[dot:]
}

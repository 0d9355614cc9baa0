package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/knadh/koanf/v2"
)

func resetKoanf(t *testing.T) {
	t.Helper()
	k = koanf.New(".")
}

func TestLoadWithCLIOverrides(t *testing.T) {
	resetKoanf(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "ethos.yaml")
	content := []byte(`
log:
  level: info
index:
  embedder: ollama
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := os.Setenv("ETHOS_INDEX_EMBEDDER", "mock"); err != nil {
		t.Fatalf("set env: %v", err)
	}
	defer os.Unsetenv("ETHOS_INDEX_EMBEDDER")

	cfg, err := LoadWithCLI([]string{
		"--config", path,
		"--set", "index.embedder=ollama",
		"--set", "corpus.strict=true",
		"--set", "index.timeout_seconds=12",
		`--set`, `mcp.servers={"demo":{"transport":"http","url":"http://localhost:8080"}}`,
	})
	if err != nil {
		t.Fatalf("LoadWithCLI failed: %v", err)
	}
	if cfg.Index.Embedder != "ollama" {
		t.Fatalf("expected cli override embedder, got %s", cfg.Index.Embedder)
	}
	if cfg.Corpus.Strict != true {
		t.Fatalf("expected corpus.strict=true")
	}
	if cfg.Index.TimeoutSeconds != 12 {
		t.Fatalf("expected index timeout override")
	}
	server, ok := cfg.MCP.Servers["demo"]
	if !ok {
		t.Fatalf("expected demo MCP server override")
	}
	if server.URL != "http://localhost:8080" {
		t.Fatalf("unexpected MCP server url: %s", server.URL)
	}
}

func TestParseCLIOverridesErrors(t *testing.T) {
	resetKoanf(t)
	if _, _, _, err := parseCLIOverrides([]string{"--config"}); err == nil {
		t.Fatalf("expected error for missing --config value")
	}
	if _, _, _, err := parseCLIOverrides([]string{"--set"}); err == nil {
		t.Fatalf("expected error for missing --set value")
	}
	if _, _, _, err := parseCLIOverrides([]string{"--set", "invalid"}); err == nil {
		t.Fatalf("expected error for invalid --set value")
	}
	if _, _, _, err := parseCLIOverrides([]string{"--profile"}); err == nil {
		t.Fatalf("expected error for missing --profile value")
	}
}

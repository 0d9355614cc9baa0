package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	resetKoanf(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Log.Level != "info" {
		t.Errorf("expected default log level info, got %s", cfg.Log.Level)
	}
	if len(cfg.Corpus.Roots) != 1 || cfg.Corpus.Roots[0] != "personas" {
		t.Errorf("expected default corpus root, got %v", cfg.Corpus.Roots)
	}
	if cfg.Index.QdrantAddr != "localhost:6334" {
		t.Errorf("expected default qdrant addr, got %s", cfg.Index.QdrantAddr)
	}
	if cfg.Index.EmbedderModel != "nomic-embed-text" {
		t.Errorf("expected default embedder model, got %s", cfg.Index.EmbedderModel)
	}
	if cfg.Serve.Addr != ":7430" {
		t.Errorf("expected default serve addr, got %s", cfg.Serve.Addr)
	}
	if cfg.Registry.DebounceMillis != 500 {
		t.Errorf("expected default debounce, got %d", cfg.Registry.DebounceMillis)
	}
}

func TestLoadEnv(t *testing.T) {
	resetKoanf(t)
	os.Setenv("ETHOS_LOG_LEVEL", "debug")
	defer os.Unsetenv("ETHOS_LOG_LEVEL")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("expected log level debug from env, got %s", cfg.Log.Level)
	}
}

func TestLoadFile(t *testing.T) {
	resetKoanf(t)
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "ethos.yaml")
	content := `
corpus:
  roots:
    - personas
    - shared/personas
  strict: true
lint:
  severity:
    content/injection-heuristic: error
  disabled:
    - doc/file-name-match
serve:
  addr: ":9000"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.Corpus.Roots) != 2 || !cfg.Corpus.Strict {
		t.Errorf("corpus section: %+v", cfg.Corpus)
	}
	if cfg.Lint.Severity["content/injection-heuristic"] != "error" {
		t.Errorf("lint severity: %+v", cfg.Lint.Severity)
	}
	if len(cfg.Lint.Disabled) != 1 {
		t.Errorf("lint disabled: %+v", cfg.Lint.Disabled)
	}
	if cfg.Serve.Addr != ":9000" {
		t.Errorf("serve addr: %s", cfg.Serve.Addr)
	}
}

func TestLoadWithProfile(t *testing.T) {
	tmpDir := t.TempDir()

	baseConfig := `
log:
  level: "info"
corpus:
  strict: false
serve:
  addr: ":7430"
`
	basePath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(basePath, []byte(baseConfig), 0644); err != nil {
		t.Fatalf("failed to write base config: %v", err)
	}

	devConfig := `
log:
  level: "debug"
`
	devPath := filepath.Join(tmpDir, "config.dev.yaml")
	if err := os.WriteFile(devPath, []byte(devConfig), 0644); err != nil {
		t.Fatalf("failed to write dev config: %v", err)
	}

	prodConfig := `
log:
  level: "warn"
corpus:
  strict: true
`
	prodPath := filepath.Join(tmpDir, "config.prod.yaml")
	if err := os.WriteFile(prodPath, []byte(prodConfig), 0644); err != nil {
		t.Fatalf("failed to write prod config: %v", err)
	}

	tests := []struct {
		name         string
		profile      string
		wantLogLevel string
		wantStrict   bool
		wantAddr     string // inherited from base when not overridden
	}{
		{
			name:         "no profile - base only",
			profile:      "",
			wantLogLevel: "info",
			wantStrict:   false,
			wantAddr:     ":7430",
		},
		{
			name:         "dev profile",
			profile:      "dev",
			wantLogLevel: "debug",
			wantStrict:   false,
			wantAddr:     ":7430",
		},
		{
			name:         "prod profile",
			profile:      "prod",
			wantLogLevel: "warn",
			wantStrict:   true,
			wantAddr:     ":7430",
		},
		{
			name:         "nonexistent profile - falls back to base",
			profile:      "staging",
			wantLogLevel: "info",
			wantStrict:   false,
			wantAddr:     ":7430",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resetKoanf(t)
			cfg, err := LoadWithProfile(basePath, tc.profile)
			if err != nil {
				t.Fatalf("LoadWithProfile failed: %v", err)
			}
			if cfg.Log.Level != tc.wantLogLevel {
				t.Errorf("log level: got %s, want %s", cfg.Log.Level, tc.wantLogLevel)
			}
			if cfg.Corpus.Strict != tc.wantStrict {
				t.Errorf("strict: got %v, want %v", cfg.Corpus.Strict, tc.wantStrict)
			}
			if cfg.Serve.Addr != tc.wantAddr {
				t.Errorf("addr: got %s, want %s", cfg.Serve.Addr, tc.wantAddr)
			}
		})
	}
}

// SPDX-License-Identifier: Apache-2.0

package main

import (
	"reflect"
	"testing"
	"time"
)

func TestParseGlobalFlagsDefaults(t *testing.T) {
	flags, args, err := parseGlobalFlags(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if flags.Timeout != 30*time.Second {
		t.Errorf("default timeout: got %v", flags.Timeout)
	}
	if flags.JSON || flags.Help {
		t.Error("json/help should default to false")
	}
	if len(args) != 0 {
		t.Errorf("unexpected args: %v", args)
	}
}

func TestParseGlobalFlags(t *testing.T) {
	cases := []struct {
		name       string
		input      []string
		wantJSON   bool
		wantConfig []string
		wantRest   []string
		wantErr    bool
	}{
		{
			name:     "json flag",
			input:    []string{"--json", "status"},
			wantJSON: true,
			wantRest: []string{"status"},
		},
		{
			name:       "config with value",
			input:      []string{"--config", "ethos.yaml", "list"},
			wantConfig: []string{"--config", "ethos.yaml"},
			wantRest:   []string{"list"},
		},
		{
			name:       "config equals form",
			input:      []string{"--config=ethos.yaml", "list"},
			wantConfig: []string{"--config", "ethos.yaml"},
			wantRest:   []string{"list"},
		},
		{
			name:       "set override",
			input:      []string{"--set", "corpus.strict=true", "lint"},
			wantConfig: []string{"--set", "corpus.strict=true"},
			wantRest:   []string{"lint"},
		},
		{
			name:     "double dash terminates",
			input:    []string{"--json", "--", "--not-a-flag"},
			wantJSON: true,
			wantRest: []string{"--not-a-flag"},
		},
		{
			name:     "first non-flag stops parsing",
			input:    []string{"list", "--tool", "Read"},
			wantRest: []string{"list", "--tool", "Read"},
		},
		{
			name:    "missing config value",
			input:   []string{"--config"},
			wantErr: true,
		},
		{
			name:    "unknown flag",
			input:   []string{"--verbose"},
			wantErr: true,
		},
		{
			name:    "bad timeout",
			input:   []string{"--timeout", "soon"},
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			flags, rest, err := parseGlobalFlags(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if flags.JSON != tc.wantJSON {
				t.Errorf("JSON: got %v, want %v", flags.JSON, tc.wantJSON)
			}
			if !reflect.DeepEqual(flags.ConfigArgs, tc.wantConfig) &&
				!(len(flags.ConfigArgs) == 0 && len(tc.wantConfig) == 0) {
				t.Errorf("ConfigArgs: got %v, want %v", flags.ConfigArgs, tc.wantConfig)
			}
			if !reflect.DeepEqual(rest, tc.wantRest) &&
				!(len(rest) == 0 && len(tc.wantRest) == 0) {
				t.Errorf("rest: got %v, want %v", rest, tc.wantRest)
			}
		})
	}
}

func TestParseGlobalFlagsTimeout(t *testing.T) {
	flags, _, err := parseGlobalFlags([]string{"--timeout", "5s", "status"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if flags.Timeout != 5*time.Second {
		t.Errorf("timeout: got %v", flags.Timeout)
	}

	flags, _, err = parseGlobalFlags([]string{"--timeout=2m", "status"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if flags.Timeout != 2*time.Minute {
		t.Errorf("timeout equals form: got %v", flags.Timeout)
	}
}

func TestConfigPathFromArgs(t *testing.T) {
	if got := configPathFromArgs([]string{"--config", "a.yaml"}); got != "a.yaml" {
		t.Errorf("got %q", got)
	}
	if got := configPathFromArgs([]string{"--set", "k=v"}); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestNormalizeCell(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"", "-"},
		{"  ", "-"},
		{"hello", "hello"},
		{"  a   b\nc  ", "a b c"},
	}
	for _, tc := range cases {
		if got := normalizeCell(tc.input); got != tc.want {
			t.Errorf("normalizeCell(%q): got %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestTruncateMessage(t *testing.T) {
	if got := truncateMessage("short", 80); got != "short" {
		t.Errorf("got %q", got)
	}
	got := truncateMessage("abcdefghij", 8)
	if got != "abcde..." {
		t.Errorf("got %q", got)
	}
	if got := truncateMessage("abcdef", 0); got != "abcdef" {
		t.Errorf("zero limit: got %q", got)
	}
}

func TestJoinTools(t *testing.T) {
	if got := joinTools(nil); got != "*" {
		t.Errorf("nil tools: got %q", got)
	}
	if got := joinTools([]string{"Read", "Grep"}); got != "Read,Grep" {
		t.Errorf("got %q", got)
	}
}

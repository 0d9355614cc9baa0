// SPDX-License-Identifier: Apache-2.0
package errors

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	cause := errors.New("network timeout")
	ee := New(CodeTimeout, "embedder call timed out", cause)

	if ee.Code != CodeTimeout {
		t.Errorf("expected CodeTimeout, got %v", ee.Code)
	}
	if ee.Message != "embedder call timed out" {
		t.Errorf("expected message 'embedder call timed out', got %q", ee.Message)
	}
	if ee.Err != cause {
		t.Errorf("expected cause to be preserved")
	}
	if !errors.Is(ee, cause) {
		t.Errorf("expected errors.Is to work with wrapped error")
	}
}

func TestWithContext(t *testing.T) {
	ee := New(CodeParseError, "bad frontmatter", nil)
	ee.WithContext("path", "personas/code-reviewer.md").
		WithContext("segment", 2)

	if ee.Context["path"] != "personas/code-reviewer.md" {
		t.Errorf("expected context path to be set")
	}
	if ee.Context["segment"] == nil {
		t.Errorf("expected context segment to be set")
	}
}

func TestWithAttribute(t *testing.T) {
	ee := New(CodeIndexError, "upsert failed", nil)
	ee.WithAttribute("persona", "code-reviewer").
		WithAttribute("retry_count", "3")

	if ee.Attributes["persona"] != "code-reviewer" {
		t.Errorf("expected attribute persona")
	}
	if ee.Attributes["retry_count"] != "3" {
		t.Errorf("expected attribute retry_count")
	}
}

func TestWithRecoverable(t *testing.T) {
	ee := New(CodeEmbedderError, "network error", nil)
	if ee.Recoverable {
		t.Errorf("expected recoverable to be false by default")
	}

	ee.WithRecoverable(true)
	if !ee.Recoverable {
		t.Errorf("expected recoverable to be true after WithRecoverable")
	}
}

func TestError(t *testing.T) {
	tests := []struct {
		name     string
		ee       *EthosError
		expected string
	}{
		{
			name:     "with cause",
			ee:       New(CodeTimeout, "operation timed out", errors.New("deadline exceeded")),
			expected: "[TIMEOUT] operation timed out: deadline exceeded",
		},
		{
			name:     "without cause",
			ee:       New(CodeNotFound, "persona not found", nil),
			expected: "[NOT_FOUND] persona not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.ee.Error()
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestAsEthosError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorCode
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: "",
		},
		{
			name:     "already EthosError",
			err:      New(CodeParseError, "failed", nil),
			expected: CodeParseError,
		},
		{
			name:     "generic error",
			err:      errors.New("generic error"),
			expected: CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ee := AsEthosError(tt.err)
			if tt.expected == "" {
				if ee != nil {
					t.Errorf("expected nil for nil error")
				}
			} else {
				if ee == nil {
					t.Errorf("expected non-nil EthosError")
				} else if ee.Code != tt.expected {
					t.Errorf("expected %v, got %v", tt.expected, ee.Code)
				}
			}
		})
	}
}

func TestMarshalJSON(t *testing.T) {
	ee := New(CodeStoreError, "sync failed", errors.New("disk full"))
	ee.WithContext("personas", 42).
		WithAttribute("retry_count", "1").
		WithRecoverable(true)

	data, err := json.Marshal(ee)
	if err != nil {
		t.Fatalf("unexpected error marshaling: %v", err)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("unexpected error unmarshaling: %v", err)
	}

	if result["code"] != "STORE_ERROR" {
		t.Errorf("expected code 'STORE_ERROR', got %v", result["code"])
	}
	if result["recoverable"] != true {
		t.Errorf("expected recoverable true")
	}
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		expected int
	}{
		{CodeNotFound, 404},
		{CodeUnauthorized, 401},
		{CodeInvalidInput, 400},
		{CodeInvalidDocument, 400},
		{CodeParseError, 400},
		{CodeDuplicatePersona, 409},
		{CodeTimeout, 408},
		{CodeInternal, 500},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			ee := New(tt.code, "test", nil)
			if ee.StatusCode != tt.expected {
				t.Errorf("expected status %d, got %d", tt.expected, ee.StatusCode)
			}
		})
	}
}

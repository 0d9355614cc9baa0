// SPDX-License-Identifier: Apache-2.0

package main

import (
	"strings"
	"testing"

	"github.com/jllopis/ethos/pkg/errors"
)

func TestCLIErrorIncludesHint(t *testing.T) {
	cliErr := NewNotFoundError("persona", "ghost")
	msg := cliErr.Error()
	if !strings.Contains(msg, "'ghost' not found") {
		t.Errorf("message missing subject: %q", msg)
	}
	if !strings.Contains(msg, "Hint:") {
		t.Errorf("message missing hint: %q", msg)
	}
	if cliErr.EthosError.Code != errors.CodeNotFound {
		t.Errorf("code: got %s", cliErr.EthosError.Code)
	}
}

func TestWrapConnectionErrorRecoverable(t *testing.T) {
	cliErr := WrapConnectionError(errors.New(errors.CodeInternal, "dial", nil), "localhost:7430")
	if !cliErr.EthosError.Recoverable {
		t.Error("connection errors should be recoverable")
	}
	if !strings.Contains(cliErr.Hint, "localhost:7430") {
		t.Errorf("hint missing address: %q", cliErr.Hint)
	}
}

func TestFormatErrorCode(t *testing.T) {
	cases := map[errors.ErrorCode]string{
		errors.CodeNotFound:      "Not Found",
		errors.CodeStoreError:    "Catalog Error",
		errors.CodeEmbedderError: "Embedder Error",
		errors.ErrorCode("WAT"):  "WAT",
	}
	for code, want := range cases {
		if got := FormatErrorCode(code); got != want {
			t.Errorf("FormatErrorCode(%s): got %q, want %q", code, got, want)
		}
	}
}

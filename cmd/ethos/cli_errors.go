// Copyright 2026 © The Ethos Authors
// SPDX-License-Identifier: Apache-2.0

// Package main implements the ethos CLI.
package main

import (
	"fmt"
	"os"

	"github.com/jllopis/ethos/pkg/errors"
)

// CLIError wraps EthosError with CLI-specific formatting and hints.
type CLIError struct {
	*errors.EthosError
	Hint string
}

// NewCLIError creates a new CLI error.
func NewCLIError(ee *errors.EthosError, hint string) *CLIError {
	return &CLIError{
		EthosError: ee,
		Hint:       hint,
	}
}

// Error returns the formatted error message with hints.
func (e *CLIError) Error() string {
	if e.EthosError == nil {
		return "unknown error"
	}

	msg := e.EthosError.Error()
	if e.Hint != "" {
		msg += "\n  Hint: " + e.Hint
	}
	return msg
}

// PrintError prints the error with appropriate formatting.
func (e *CLIError) PrintError(json bool) {
	if json {
		fmt.Fprintf(os.Stderr, `{"error":{"code":"%s","message":"%s","hint":"%s"}}%s`,
			e.EthosError.Code,
			e.EthosError.Message,
			e.Hint,
			"\n")
		return
	}

	fmt.Fprintf(os.Stderr, "Error [%s]: %s\n", e.EthosError.Code, e.EthosError.Message)
	if e.Hint != "" {
		fmt.Fprintf(os.Stderr, "  Hint: %s\n", e.Hint)
	}
}

// WrapConnectionError wraps a connection error with CLI hints.
func WrapConnectionError(err error, addr string) *CLIError {
	ee := errors.New(errors.CodeInternal, "connection failed", err).
		WithContext("address", addr).
		WithRecoverable(true)
	return NewCLIError(ee, fmt.Sprintf("check if the server is running at %s", addr))
}

// WrapTimeoutError wraps a timeout error with CLI hints.
func WrapTimeoutError(err error, operation string) *CLIError {
	ee := errors.New(errors.CodeTimeout, operation+" timed out", err).
		WithContext("operation", operation).
		WithRecoverable(true)
	return NewCLIError(ee, "try increasing timeout with --timeout flag or check server health")
}

// NewNotFoundError creates a not found error with CLI hints.
func NewNotFoundError(resource, name string) *CLIError {
	ee := errors.New(errors.CodeNotFound, fmt.Sprintf("%s '%s' not found", resource, name), nil).
		WithContext("resource", resource).
		WithContext("name", name).
		WithRecoverable(false)
	return NewCLIError(ee, fmt.Sprintf("run 'ethos list' to see the known %ss", resource))
}

// NewInvalidArgumentError creates an invalid argument error with CLI hints.
func NewInvalidArgumentError(arg, reason string) *CLIError {
	ee := errors.New(errors.CodeInvalidInput, fmt.Sprintf("invalid argument: %s", reason), nil).
		WithContext("argument", arg).
		WithContext("reason", reason).
		WithRecoverable(false)
	return NewCLIError(ee, "run 'ethos help' for usage information")
}

// NewConfigError creates a configuration error with CLI hints.
func NewConfigError(err error, configPath string) *CLIError {
	ee := errors.New(errors.CodeInvalidInput, "configuration error", err).
		WithContext("config_path", configPath).
		WithRecoverable(false)

	hint := "check your configuration file syntax"
	if configPath != "" {
		hint = fmt.Sprintf("check %s for syntax errors", configPath)
	}
	return NewCLIError(ee, hint)
}

// NewStoreError creates a catalog storage error with CLI hints.
func NewStoreError(err error, path string) *CLIError {
	ee := errors.New(errors.CodeStoreError, "catalog error", err).
		WithContext("catalog_path", path).
		WithRecoverable(true)
	return NewCLIError(ee, "run 'ethos catalog sync' to rebuild the catalog")
}

// PrintSimpleError prints a simple error message (for non-EthosError cases).
func PrintSimpleError(err error, json bool) {
	if json {
		fmt.Fprintf(os.Stderr, `{"error":{"code":"UNKNOWN","message":"%s"}}%s`, err.Error(), "\n")
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
}

// FormatErrorCode returns a user-friendly name for error codes.
func FormatErrorCode(code errors.ErrorCode) string {
	switch code {
	case errors.CodeInternal:
		return "Internal Error"
	case errors.CodeInvalidInput:
		return "Invalid Input"
	case errors.CodeInvalidDocument:
		return "Invalid Document"
	case errors.CodeParseError:
		return "Parse Error"
	case errors.CodeNotFound:
		return "Not Found"
	case errors.CodeDuplicatePersona:
		return "Duplicate Persona"
	case errors.CodeStoreError:
		return "Catalog Error"
	case errors.CodeIndexError:
		return "Index Error"
	case errors.CodeEmbedderError:
		return "Embedder Error"
	case errors.CodeTimeout:
		return "Timeout"
	case errors.CodeUnauthorized:
		return "Unauthorized"
	default:
		return string(code)
	}
}

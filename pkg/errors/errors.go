// SPDX-License-Identifier: Apache-2.0
// Package errors provides typed error handling with rich context for Ethos.
package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode classifies Ethos errors for monitoring and recovery.
type ErrorCode string

const (
	// CodeInternal indicates an internal system error.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// CodeInvalidInput indicates the input was invalid.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeInvalidDocument indicates a persona document failed validation.
	CodeInvalidDocument ErrorCode = "INVALID_DOCUMENT"

	// CodeParseError indicates a document could not be parsed.
	CodeParseError ErrorCode = "PARSE_ERROR"

	// CodeNotFound indicates a resource was not found.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeDuplicatePersona indicates a persona id collision within one source.
	CodeDuplicatePersona ErrorCode = "DUPLICATE_PERSONA"

	// CodeStoreError indicates a catalog storage error.
	CodeStoreError ErrorCode = "STORE_ERROR"

	// CodeIndexError indicates a vector index error.
	CodeIndexError ErrorCode = "INDEX_ERROR"

	// CodeEmbedderError indicates an embedding provider error.
	CodeEmbedderError ErrorCode = "EMBEDDER_ERROR"

	// CodeTimeout indicates an operation exceeded its time limit.
	CodeTimeout ErrorCode = "TIMEOUT"

	// CodeContextLost indicates context was lost (e.g., cancelled mid-retry).
	CodeContextLost ErrorCode = "CONTEXT_LOST"

	// CodeUnauthorized indicates authorization failed.
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"
)

// EthosError is a typed error with rich context for observability.
// It implements the error interface and can be unwrapped with errors.As().
type EthosError struct {
	Code        ErrorCode
	Message     string
	Err         error
	Context     map[string]interface{}
	Attributes  map[string]string
	Recoverable bool
	StatusCode  int // For HTTP responses
}

// Error implements the error interface.
func (e *EthosError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements errors.Unwrap for error chain traversal.
func (e *EthosError) Unwrap() error {
	return e.Err
}

// MarshalJSON implements json.Marshaler for structured logging.
func (e *EthosError) MarshalJSON() ([]byte, error) {
	type Alias EthosError
	return json.Marshal(&struct {
		Message     string `json:"message"`
		Code        string `json:"code"`
		Err         string `json:"error,omitempty"`
		Recoverable bool   `json:"recoverable"`
		*Alias
	}{
		Message:     e.Error(),
		Code:        string(e.Code),
		Err:         fmt.Sprintf("%v", e.Err),
		Recoverable: e.Recoverable,
		Alias:       (*Alias)(e),
	})
}

// New creates a new EthosError with the given code, message, and cause.
func New(code ErrorCode, msg string, cause error) *EthosError {
	return &EthosError{
		Code:       code,
		Message:    msg,
		Err:        cause,
		Context:    make(map[string]interface{}),
		Attributes: make(map[string]string),
		StatusCode: codeToStatusCode(code),
	}
}

// WithContext adds a key-value pair to the error context.
// Returns the error for method chaining.
func (e *EthosError) WithContext(key string, value interface{}) *EthosError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithAttribute adds a string attribute for OTEL traces.
// Returns the error for method chaining.
func (e *EthosError) WithAttribute(key, value string) *EthosError {
	if e.Attributes == nil {
		e.Attributes = make(map[string]string)
	}
	e.Attributes[key] = value
	return e
}

// WithRecoverable sets whether the error can be recovered from.
// Returns the error for method chaining.
func (e *EthosError) WithRecoverable(recoverable bool) *EthosError {
	e.Recoverable = recoverable
	return e
}

// AsEthosError attempts to convert an error to an EthosError.
// Returns the error as EthosError if it is one, or wraps it otherwise.
func AsEthosError(err error) *EthosError {
	if err == nil {
		return nil
	}
	if ee, ok := err.(*EthosError); ok {
		return ee
	}
	return New(CodeInternal, "wrapped error", err)
}

// RecoverableString returns "true" or "false" as a string for observability.
func (e *EthosError) RecoverableString() string {
	if e.Recoverable {
		return "true"
	}
	return "false"
}

// codeToStatusCode maps error codes to HTTP status codes.
func codeToStatusCode(code ErrorCode) int {
	switch code {
	case CodeNotFound:
		return 404
	case CodeUnauthorized:
		return 401
	case CodeInvalidInput, CodeInvalidDocument, CodeParseError:
		return 400
	case CodeDuplicatePersona:
		return 409
	case CodeTimeout:
		return 408
	default:
		return 500
	}
}

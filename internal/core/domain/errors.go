package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown normaliser, store or provider type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrProviderUnavailable indicates an embedding or generation backend failed.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Generative answers are disabled without it.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorStoreUnavailable indicates the vector store is not configured.
	ErrVectorStoreUnavailable = errors.New("vector store unavailable")

	// ErrCollectionNotFound indicates the named collection does not exist.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrDimensionMismatch indicates a vector does not match its collection.
	ErrDimensionMismatch = errors.New("dimension mismatch")
)

// ValidationError reports a user input problem (empty query, empty batch).
type ValidationError struct {
	Field string
	Msg   string
}

// NewValidationError creates a ValidationError for field.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Msg: msg}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return e.Field + ": " + e.Msg
}

// Is makes ValidationError match ErrInvalidInput.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ParseError reports malformed content for a file's declared type.
type ParseError struct {
	Filename string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Filename, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ProviderError reports an embedding or generation backend failure.
type ProviderError struct {
	Provider string
	Op       string
	Err      error
}

// NewProviderError wraps err as a failure of provider during op.
func NewProviderError(provider, op string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Op: op, Err: err}
}

func (e *ProviderError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Is makes ProviderError match ErrProviderUnavailable.
func (e *ProviderError) Is(target error) bool {
	return target == ErrProviderUnavailable
}

// ConfigurationError reports missing or inconsistent settings.
// At startup it is fatal.
type ConfigurationError struct {
	Key string
	Msg string
}

// NewConfigurationError creates a ConfigurationError for key.
func NewConfigurationError(key, msg string) *ConfigurationError {
	return &ConfigurationError{Key: key, Msg: msg}
}

func (e *ConfigurationError) Error() string {
	if e.Key == "" {
		return "configuration: " + e.Msg
	}
	return fmt.Sprintf("configuration: %s %s", e.Key, e.Msg)
}

package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("query", "must not be empty")

	assert.Equal(t, "query: must not be empty", err.Error())
	assert.ErrorIs(t, err, ErrInvalidInput)

	wrapped := fmt.Errorf("chat: %w", err)
	var ve *ValidationError
	require.ErrorAs(t, wrapped, &ve)
	assert.Equal(t, "query", ve.Field)
}

func TestValidationError_NoField(t *testing.T) {
	err := &ValidationError{Msg: "no records to import"}
	assert.Equal(t, "no records to import", err.Error())
}

func TestParseError(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := &ParseError{Filename: "report.pdf", Err: cause}

	assert.Equal(t, "parse report.pdf: unexpected EOF", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrInvalidInput)
}

func TestProviderError(t *testing.T) {
	cause := errors.New("quota exceeded")

	t.Run("with provider", func(t *testing.T) {
		err := NewProviderError("openai", "embed", cause)
		assert.Equal(t, "openai embed: quota exceeded", err.Error())
		assert.ErrorIs(t, err, cause)
		assert.ErrorIs(t, err, ErrProviderUnavailable)
	})

	t.Run("without provider", func(t *testing.T) {
		err := NewProviderError("", "generate", cause)
		assert.Equal(t, "generate: quota exceeded", err.Error())
	})
}

func TestConfigurationError(t *testing.T) {
	assert.Equal(t, "configuration: vector.url is required",
		NewConfigurationError("vector.url", "is required").Error())
	assert.Equal(t, "configuration: bad",
		NewConfigurationError("", "bad").Error())
}

package domain

import (
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty", input: "", expected: ""},
		{name: "only whitespace", input: " \t\n\r ", expected: ""},
		{name: "already clean", input: "hello world", expected: "hello world"},
		{name: "leading and trailing", input: "  hello  ", expected: "hello"},
		{name: "mixed runs", input: "a \t\n b\n\n\nc", expected: "a b c"},
		{name: "non-breaking and unicode spaces", input: "a\u00a0\u2003b", expected: "a b"},
		{name: "unicode text kept", input: "Zażółć   gęślą\tjaźń", expected: "Zażółć gęślą jaźń"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanText(tt.input))
		})
	}
}

func TestCleanText_Properties(t *testing.T) {
	inputs := []string{
		"",
		"x",
		"   lots   of\tspace\n\nhere   ",
		"\n\nParis is the capital of France.\n",
		strings.Repeat("ab  \t", 200),
	}

	for _, in := range inputs {
		out := CleanText(in)

		assert.Equal(t, out, CleanText(out), "idempotent for %q", in)
		assert.NotContains(t, out, "  ")
		if out != "" {
			assert.False(t, unicode.IsSpace(rune(out[0])), "leading space in %q", out)
			assert.False(t, unicode.IsSpace(rune(out[len(out)-1])), "trailing space in %q", out)
		}
		for _, r := range out {
			if unicode.IsSpace(r) {
				assert.Equal(t, ' ', r)
			}
		}
	}
}

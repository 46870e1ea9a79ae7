package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragline/internal/core/domain"
)

func seedFAQ(t *testing.T) {
	t.Helper()
	in := `{"records": [
		{"id": "faq-1", "title": "Hours", "body": "The office opens at 9am on weekdays.", "url": "https://example.com/hours"},
		{"id": "faq-2", "title": "Parking", "body": "Visitors park in lot B behind the building."}
	]}`
	_, err := execute(t, in, "import", "-")
	require.NoError(t, err)
}

func TestAskCmd_Flags(t *testing.T) {
	for _, name := range []string{"top-k", "filter", "collection", "json", "mode"} {
		assert.NotNil(t, askCmd.Flags().Lookup(name), name)
	}
	assert.Equal(t, "5", askCmd.Flags().Lookup("top-k").DefValue)
}

func TestAskCmd_NoData(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "", "ask", "anything")
	require.NoError(t, err)
	assert.Contains(t, out, domain.NoDataMessage)
}

func TestAskCmd_Answer(t *testing.T) {
	setupTestServices(t)
	seedFAQ(t)

	out, err := execute(t, "", "ask", "--top-k", "1", "when", "does", "the", "office", "open")
	require.NoError(t, err)
	assert.Contains(t, out, "Based on 1 matched fragment")
	assert.Contains(t, out, "Sources:")
}

func TestAskCmd_JSON(t *testing.T) {
	setupTestServices(t)
	seedFAQ(t)

	out, err := execute(t, "", "ask", "--json", "parking")
	require.NoError(t, err)

	var answer domain.Answer
	require.NoError(t, json.Unmarshal([]byte(out), &answer))
	assert.NotEmpty(t, answer.Text)
	assert.NotEmpty(t, answer.Sources)
}

func TestAskCmd_GenerativeWithoutLLM(t *testing.T) {
	setupTestServices(t)
	seedFAQ(t)

	_, err := execute(t, "", "ask", "--mode", "generative", "parking")
	assert.Error(t, err)
}

func TestAskCmd_BadFilter(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "", "ask", "--filter", "nokey", "parking")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSearchCmd(t *testing.T) {
	setupTestServices(t)
	seedFAQ(t)

	t.Run("table", func(t *testing.T) {
		out, err := execute(t, "", "search", "parking")
		require.NoError(t, err)
		assert.Contains(t, out, "Results:")
		assert.Contains(t, out, "[1]")
	})

	t.Run("json", func(t *testing.T) {
		out, err := execute(t, "", "search", "--json", "-k", "2", "parking")
		require.NoError(t, err)

		var hits []hitJSON
		require.NoError(t, json.Unmarshal([]byte(out), &hits))
		require.Len(t, hits, 2)
		assert.Equal(t, 1, hits[0].Rank)
		assert.GreaterOrEqual(t, hits[0].Score, hits[1].Score)
	})

	t.Run("filter", func(t *testing.T) {
		out, err := execute(t, "", "search", "--json", "--filter", "source=Hours", "parking")
		require.NoError(t, err)

		var hits []hitJSON
		require.NoError(t, json.Unmarshal([]byte(out), &hits))
		require.Len(t, hits, 1)
		assert.Equal(t, "Hours", hits[0].Metadata["source"])
	})
}

func TestSearchCmd_Empty(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "", "search", "anything")
	require.NoError(t, err)
	assert.Contains(t, out, "No results found.")
}

func TestParseFilters(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		want    map[string]any
		wantErr bool
	}{
		{"none", nil, nil, false},
		{"single", []string{"file_type=pdf"}, map[string]any{"file_type": "pdf"}, false},
		{"value with equals", []string{"url=a=b"}, map[string]any{"url": "a=b"}, false},
		{"missing equals", []string{"pdf"}, nil, true},
		{"empty key", []string{"=pdf"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFilters(tt.pairs)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "a b c", snippet("a\n  b\tc", 10))
	assert.Equal(t, strings.Repeat("x", 5)+"...", snippet(strings.Repeat("x", 8), 5))
}

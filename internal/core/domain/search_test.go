package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampTopK(t *testing.T) {
	tests := []struct {
		requested int
		expected  int
	}{
		{requested: -5, expected: 1},
		{requested: 0, expected: 1},
		{requested: 1, expected: 1},
		{requested: 5, expected: 5},
		{requested: 10, expected: 10},
		{requested: 11, expected: 10},
		{requested: 50, expected: 10},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ClampTopK(tt.requested), "requested %d", tt.requested)
	}
}

func TestHit_MetaString(t *testing.T) {
	hit := Hit{Metadata: map[string]any{"title": "FAQ", "count": 3}}

	assert.Equal(t, "FAQ", hit.MetaString("title"))
	assert.Equal(t, "", hit.MetaString("count"))
	assert.Equal(t, "", hit.MetaString("missing"))
	assert.Equal(t, "", Hit{}.MetaString("title"))
}

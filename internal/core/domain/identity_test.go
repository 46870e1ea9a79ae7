package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointID(t *testing.T) {
	t.Run("deterministic across calls", func(t *testing.T) {
		assert.Equal(t, PointID("notes.txt", 0), PointID("notes.txt", 0))
	})

	t.Run("matches namespace uuid of source and ordinal", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			want := uuid.NewSHA1(uuid.NameSpaceDNS, []byte("notes.txt-"+string(rune('0'+i)))).String()
			assert.Equal(t, want, PointID("notes.txt", i))
		}
	})

	t.Run("distinct per ordinal and source", func(t *testing.T) {
		ids := map[string]bool{
			PointID("notes.txt", 0): true,
			PointID("notes.txt", 1): true,
			PointID("notes.txt", 2): true,
			PointID("other.txt", 0): true,
		}
		assert.Len(t, ids, 4)
	})

	t.Run("is a version 5 uuid", func(t *testing.T) {
		id, err := uuid.Parse(PointID("notes.txt", 0))
		require.NoError(t, err)
		assert.Equal(t, uuid.Version(5), id.Version())
	})
}

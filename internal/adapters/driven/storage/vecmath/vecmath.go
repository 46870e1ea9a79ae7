// Package vecmath holds the similarity and filter helpers shared by the
// in-process vector stores.
package vecmath

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/custodia-labs/ragline/internal/core/domain"
)

// Cosine returns the cosine similarity of a and b in [-1, 1].
// Zero vectors and length mismatches score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Matches reports whether every filter field equals the payload field.
// Values are compared by their printed form so 3 and 3.0 from JSON match.
func Matches(payload, filter map[string]any) bool {
	for k, want := range filter {
		got, ok := payload[k]
		if !ok {
			return false
		}
		if fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

// TopK sorts hits by descending score and keeps the first k.
func TopK(hits []domain.Hit, k int) []domain.Hit {
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if k >= 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// SplitPayload separates the text field from the rest of a payload.
func SplitPayload(payload map[string]any) (string, map[string]any) {
	meta := make(map[string]any, len(payload))
	var text string
	for k, v := range payload {
		if k == domain.MetaText {
			text, _ = v.(string)
			continue
		}
		meta[k] = v
	}
	return text, meta
}

// Encode serialises a vector as little-endian float32 bytes.
func Encode(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

// Decode parses little-endian float32 bytes.
func Decode(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, nil
}

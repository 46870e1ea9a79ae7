package domain

// Top-k bounds applied to every query regardless of what the caller asks for.
const (
	MinTopK     = 1
	MaxTopK     = 10
	DefaultTopK = 5
)

// DistanceCosine is the only distance metric collections are created with.
const DistanceCosine = "cosine"

// Query is a retrieval request.
type Query struct {
	// Text is the natural-language query. It is cleaned before embedding.
	Text string

	// TopK is the requested number of hits, clamped to [MinTopK, MaxTopK].
	TopK int

	// Filter restricts the search to payloads whose fields equal these values.
	Filter map[string]any

	// Collection overrides the default collection when set.
	Collection string
}

// Hit is a single retrieval result.
type Hit struct {
	// ID is the point identity.
	ID string

	// Text is the stored passage text.
	Text string

	// Metadata is the stored payload without the text field.
	Metadata map[string]any

	// Score is the similarity score (higher is closer).
	Score float64

	// Rank is the 1-based position in the result list.
	Rank int
}

// MetaString returns a string payload field, or "" when absent or not a string.
func (h Hit) MetaString(key string) string {
	if h.Metadata == nil {
		return ""
	}
	s, _ := h.Metadata[key].(string)
	return s
}

// CollectionInfo describes a named collection.
type CollectionInfo struct {
	Name      string
	Dimension int
	Metric    string
	Count     int
}

// ClampTopK bounds a requested result count to [MinTopK, MaxTopK].
func ClampTopK(k int) int {
	if k < MinTopK {
		return MinTopK
	}
	if k > MaxTopK {
		return MaxTopK
	}
	return k
}

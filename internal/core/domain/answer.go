package domain

// NoDataMessage is the answer returned when retrieval yields no hits.
const NoDataMessage = "I couldn't find any matching data. Try refining your question or uploading files or CMS records."

// Answer modes.
const (
	AnswerModeExtractive = "extractive"
	AnswerModeGenerative = "generative"
)

// Source is the display record for one cited hit.
type Source struct {
	ID       string `json:"id"`
	Label    string `json:"source"`
	FileType string `json:"file_type"`
	URL      string `json:"url,omitempty"`
}

// Answer is the user-facing reply to a query.
type Answer struct {
	Text    string   `json:"answer"`
	Sources []Source `json:"sources"`
	Mode    string   `json:"-"`
}

// IsValidAnswerMode reports whether mode names a known composer.
func IsValidAnswerMode(mode string) bool {
	return mode == AnswerModeExtractive || mode == AnswerModeGenerative
}

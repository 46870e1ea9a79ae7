package driven

// PromptStore supplies the templates the generative composer fills in.
// Edits to the backing source are picked up without a restart.
type PromptStore interface {
	// Load returns the current template for name. Known names fall back to
	// their built-in default when the source is missing or unreadable.
	Load(name string) (string, error)
}

// Prompt names.
const (
	// PromptAnswer instructs the model to answer from retrieved context only.
	// The template expects two %s placeholders: the query, then the context.
	PromptAnswer = "answer"
)

// DefaultAnswerPrompt is the built-in PromptAnswer template.
const DefaultAnswerPrompt = `You answer questions using only the context below.
If the context does not contain the answer, say that you could not find it in the provided documents.
Do not invent facts.

Question: %s

Context:
%s

Answer:`

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragline/internal/core/domain"
	"github.com/custodia-labs/ragline/internal/core/ports/driven"
	"github.com/custodia-labs/ragline/internal/logger"
)

// Answer composition limits.
const (
	// SnippetHits is how many hits are quoted or fed to the model.
	SnippetHits = 3
	// SnippetMaxRunes bounds each quoted snippet.
	SnippetMaxRunes = 300
	// SourceHits is how many hits are cited.
	SourceHits = 5

	// DefaultGenerationTimeout bounds one generative call.
	DefaultGenerationTimeout = 30 * time.Second
	// GenerationTemperature keeps answers close to the context.
	GenerationTemperature = 0.2
)

// AnswerSystemPrompt travels on the provider's system channel so an edited
// answer template cannot drop the grounding rule.
const AnswerSystemPrompt = "Answer strictly from the supplied context. " +
	"If it does not contain the answer, say so instead of guessing."

// DefaultAnswerPrompt is used when no prompt store is configured.
// The first %s is the query, the second the retrieved context.
const DefaultAnswerPrompt = driven.DefaultAnswerPrompt

// Composer turns ranked hits into an answer.
type Composer interface {
	// Compose builds the answer for query. Zero hits yield domain.NoDataMessage.
	Compose(ctx context.Context, query string, hits []domain.Hit) (*domain.Answer, error)
	// Mode returns the answer mode name.
	Mode() string
}

// LabelPolicy picks the human-readable label of a cited hit.
type LabelPolicy func(h domain.Hit, id, fileType string) string

// ExtractiveLabel prefers the title, then the source.
func ExtractiveLabel(h domain.Hit, id, fileType string) string {
	return firstNonEmpty(h.MetaString(domain.MetaTitle), h.MetaString(domain.MetaSource), genericLabel(id, fileType))
}

// GenerativeLabel prefers the title, then the filename, then the source.
func GenerativeLabel(h domain.Hit, id, fileType string) string {
	return firstNonEmpty(h.MetaString(domain.MetaTitle), h.MetaString(domain.MetaFilename),
		h.MetaString(domain.MetaSource), genericLabel(id, fileType))
}

func genericLabel(id, fileType string) string {
	return fileType + " " + id
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// BuildSources maps up to limit hits to citation records.
// A hit without an id gets a short random one. The file type defaults to "text".
func BuildSources(hits []domain.Hit, limit int, label LabelPolicy) []domain.Source {
	if limit > len(hits) {
		limit = len(hits)
	}
	sources := make([]domain.Source, 0, limit)
	for _, h := range hits[:limit] {
		id := metaID(h)
		fileType := h.MetaString(domain.MetaFileType)
		if fileType == "" {
			fileType = "text"
		}
		sources = append(sources, domain.Source{
			ID:       id,
			Label:    label(h, id, fileType),
			FileType: fileType,
			URL:      h.MetaString(domain.MetaURL),
		})
	}
	return sources
}

func metaID(h domain.Hit) string {
	if h.Metadata != nil {
		switch v := h.Metadata[domain.MetaID].(type) {
		case string:
			if v != "" {
				return v
			}
		case nil:
		default:
			return fmt.Sprint(v)
		}
	}
	return uuid.NewString()[:8]
}

func noData() *domain.Answer {
	return &domain.Answer{Text: domain.NoDataMessage, Sources: []domain.Source{}}
}

// ExtractiveComposer quotes the best hits verbatim.
type ExtractiveComposer struct{}

// Ensure ExtractiveComposer implements Composer.
var _ Composer = ExtractiveComposer{}

// NewExtractiveComposer creates an extractive composer.
func NewExtractiveComposer() ExtractiveComposer {
	return ExtractiveComposer{}
}

// Mode returns domain.AnswerModeExtractive.
func (ExtractiveComposer) Mode() string { return domain.AnswerModeExtractive }

// Compose writes a one-line summary followed by a bullet per top hit.
func (c ExtractiveComposer) Compose(_ context.Context, _ string, hits []domain.Hit) (*domain.Answer, error) {
	if len(hits) == 0 {
		return noData(), nil
	}

	lines := make([]string, 0, SnippetHits+1)
	lines = append(lines, summaryLine(len(hits)))
	for _, h := range topHits(hits, SnippetHits) {
		lines = append(lines, "• "+truncate(strings.TrimSpace(h.Text), SnippetMaxRunes))
	}

	return &domain.Answer{
		Text:    strings.Join(lines, "\n"),
		Sources: BuildSources(hits, SourceHits, ExtractiveLabel),
		Mode:    c.Mode(),
	}, nil
}

func summaryLine(n int) string {
	if n == 1 {
		return "Based on 1 matched fragment:"
	}
	return fmt.Sprintf("Based on %d matched fragments:", n)
}

// truncate cuts s to max runes and appends an ellipsis if anything was cut.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max]) + "…"
}

func topHits(hits []domain.Hit, n int) []domain.Hit {
	if len(hits) < n {
		return hits
	}
	return hits[:n]
}

// GenerativeComposer asks a language model to answer from the top hits.
type GenerativeComposer struct {
	llm     driven.LLMService
	prompts driven.PromptStore
	timeout time.Duration
}

// Ensure GenerativeComposer implements Composer.
var _ Composer = (*GenerativeComposer)(nil)

// NewGenerativeComposer creates a generative composer.
// prompts may be nil, in which case DefaultAnswerPrompt is used.
// A non-positive timeout means DefaultGenerationTimeout.
func NewGenerativeComposer(llm driven.LLMService, prompts driven.PromptStore, timeout time.Duration) *GenerativeComposer {
	if timeout <= 0 {
		timeout = DefaultGenerationTimeout
	}
	return &GenerativeComposer{llm: llm, prompts: prompts, timeout: timeout}
}

// Mode returns domain.AnswerModeGenerative.
func (c *GenerativeComposer) Mode() string { return domain.AnswerModeGenerative }

// BuildPrompt renders the answer prompt for query and the top hits.
func (c *GenerativeComposer) BuildPrompt(query string, hits []domain.Hit) string {
	parts := make([]string, 0, SnippetHits)
	for _, h := range topHits(hits, SnippetHits) {
		parts = append(parts, h.Text)
	}
	return fillPrompt(c.template(), query, strings.Join(parts, "\n"))
}

// fillPrompt puts query and the retrieved snippets into the two %s
// placeholders of tmpl. Nothing else in tmpl, nor in the inserted values,
// is interpreted.
func fillPrompt(tmpl, query, snippets string) string {
	parts := strings.SplitN(tmpl, "%s", 3)
	if len(parts) != 3 {
		return tmpl
	}
	return parts[0] + query + parts[1] + snippets + parts[2]
}

func (c *GenerativeComposer) template() string {
	if c.prompts == nil {
		return DefaultAnswerPrompt
	}
	tmpl, err := c.prompts.Load(driven.PromptAnswer)
	if err != nil || strings.Count(tmpl, "%s") != 2 {
		if err != nil {
			logger.Warn("Falling back to the built-in answer prompt: %v", err)
		} else {
			logger.Warn("Answer prompt must contain two %%s placeholders; using the built-in prompt")
		}
		return DefaultAnswerPrompt
	}
	return tmpl
}

// Compose generates an answer. A model failure fails the request;
// there is no extractive fallback.
func (c *GenerativeComposer) Compose(ctx context.Context, query string, hits []domain.Hit) (*domain.Answer, error) {
	if len(hits) == 0 {
		return noData(), nil
	}
	if c.llm == nil {
		return nil, domain.NewProviderError("", "generate", domain.ErrLLMUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	text, err := c.llm.Generate(ctx, c.BuildPrompt(query, hits), driven.GenerateOptions{
		System:      AnswerSystemPrompt,
		Temperature: GenerationTemperature,
	})
	if err != nil {
		// A timeout here is a provider failure, not a cancelled request.
		var pe *domain.ProviderError
		if errors.As(err, &pe) {
			return nil, err
		}
		return nil, domain.NewProviderError(c.llm.ModelName(), "generate", err)
	}

	return &domain.Answer{
		Text:    strings.TrimSpace(text),
		Sources: BuildSources(hits, SourceHits, GenerativeLabel),
		Mode:    c.Mode(),
	}, nil
}

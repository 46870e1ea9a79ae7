package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/ragline/internal/core/domain"
	"github.com/custodia-labs/ragline/internal/core/ports/driving"
	"github.com/custodia-labs/ragline/internal/logger"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// ChatService answers questions with a Retriever and a Composer per mode.
type ChatService struct {
	retriever   *Retriever
	composers   map[string]Composer
	defaultMode string
}

// NewChatService creates a chat service. The first composer's mode is the
// default unless defaultMode names another registered composer.
func NewChatService(retriever *Retriever, defaultMode string, composers ...Composer) *ChatService {
	s := &ChatService{
		retriever: retriever,
		composers: make(map[string]Composer, len(composers)),
	}
	for _, c := range composers {
		if c == nil {
			continue
		}
		if s.defaultMode == "" {
			s.defaultMode = c.Mode()
		}
		s.composers[c.Mode()] = c
	}
	if _, ok := s.composers[defaultMode]; ok {
		s.defaultMode = defaultMode
	}
	return s
}

// DefaultMode returns the answer mode used when a query names none.
func (s *ChatService) DefaultMode() string {
	return s.defaultMode
}

// Ask retrieves hits and composes them with the default composer.
func (s *ChatService) Ask(ctx context.Context, q domain.Query) (*domain.Answer, error) {
	return s.AskWithMode(ctx, q, "")
}

// AskWithMode is Ask with an explicit answer mode. An empty mode uses the default.
func (s *ChatService) AskWithMode(ctx context.Context, q domain.Query, mode string) (*domain.Answer, error) {
	logger.Section("Ask")

	if mode == "" {
		mode = s.defaultMode
	}
	composer, ok := s.composers[mode]
	if !ok {
		return nil, domain.NewValidationError("mode", fmt.Sprintf("unsupported answer mode %q", mode))
	}

	hits, err := s.retriever.Retrieve(ctx, q)
	if err != nil {
		return nil, err
	}

	answer, err := composer.Compose(ctx, domain.CleanText(q.Text), hits)
	if err != nil {
		return nil, err
	}
	logger.Debug("Answer (%s): %d sources", composer.Mode(), len(answer.Sources))
	return answer, nil
}

// Search returns the ranked hits without composing an answer.
func (s *ChatService) Search(ctx context.Context, q domain.Query) ([]domain.Hit, error) {
	logger.Section("Search")
	return s.retriever.Retrieve(ctx, q)
}

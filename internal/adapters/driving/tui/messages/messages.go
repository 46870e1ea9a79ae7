// Package messages defines Bubbletea message types for the TUI.
package messages

import (
	"github.com/custodia-labs/ragline/internal/core/domain"
)

// QuestionSubmitted asks the chat service a question.
type QuestionSubmitted struct {
	Query string
	Mode  string
}

// AnswerReceived carries the answer to a submitted question.
type AnswerReceived struct {
	Query  string
	Answer *domain.Answer
	Err    error
}

// StatsLoaded carries the collection size shown in the status bar.
type StatsLoaded struct {
	Info *domain.CollectionInfo
	Err  error
}

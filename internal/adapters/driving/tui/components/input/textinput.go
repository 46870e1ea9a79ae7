// Package input provides the question input component for the TUI.
package input

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/ragline/internal/adapters/driving/tui/styles"
)

// CharLimit bounds a question's length.
const CharLimit = 1000

// QuestionInput wraps a bubbles textinput with chat styling.
type QuestionInput struct {
	textinput textinput.Model
	styles    *styles.Styles
	width     int
}

// NewQuestionInput creates a focused question input.
func NewQuestionInput(s *styles.Styles) *QuestionInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Placeholder = "Ask a question..."
	ti.Prompt = "> "
	ti.Focus()
	ti.CharLimit = CharLimit
	ti.Width = 60

	return &QuestionInput{
		textinput: ti,
		styles:    s,
		width:     60,
	}
}

// Init starts the cursor blinking.
func (q *QuestionInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input messages.
func (q *QuestionInput) Update(msg tea.Msg) (*QuestionInput, tea.Cmd) {
	var cmd tea.Cmd
	q.textinput, cmd = q.textinput.Update(msg)
	return q, cmd
}

// View renders the framed input.
func (q *QuestionInput) View() string {
	return lipgloss.JoinVertical(lipgloss.Left, q.styles.InputField.Render(q.textinput.View()))
}

// Value returns the trimmed question.
func (q *QuestionInput) Value() string {
	return strings.TrimSpace(q.textinput.Value())
}

// SetValue sets the input value.
func (q *QuestionInput) SetValue(value string) {
	q.textinput.SetValue(value)
}

// Focus sets focus on the input.
func (q *QuestionInput) Focus() tea.Cmd {
	return q.textinput.Focus()
}

// Blur removes focus from the input.
func (q *QuestionInput) Blur() {
	q.textinput.Blur()
}

// Focused returns whether the input is focused.
func (q *QuestionInput) Focused() bool {
	return q.textinput.Focused()
}

// SetWidth sets the outer width, leaving room for the frame.
func (q *QuestionInput) SetWidth(width int) {
	q.width = width
	inner := width - 6
	if inner < 20 {
		inner = 20
	}
	q.textinput.Width = inner
}

// Height is the number of lines View occupies.
func (q *QuestionInput) Height() int {
	return lipgloss.Height(q.View())
}

// Reset clears the input.
func (q *QuestionInput) Reset() {
	q.textinput.Reset()
}

// Package status provides the status bar component for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/ragline/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ragline/internal/adapters/driving/tui/styles"
)

// State represents the current chat state for display.
type State string

const (
	StateReady    State = "ready"
	StateThinking State = "thinking"
	StateError    State = "error"
)

// Bar displays the answer mode, collection size and keybinding hints.
type Bar struct {
	styles   *styles.Styles
	keymap   *keymap.KeyMap
	state    State
	message  string
	mode     string
	passages int
	width    int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &Bar{
		styles:   s,
		keymap:   km,
		state:    StateReady,
		passages: -1,
		width:    80,
	}
}

// View renders the status bar.
func (b *Bar) View() string {
	left := b.renderLeft()
	right := b.renderRight()

	padding := b.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}
	return b.styles.StatusBar.Width(b.width).Render(left + strings.Repeat(" ", padding) + right)
}

func (b *Bar) renderLeft() string {
	var parts []string
	switch b.state {
	case StateThinking:
		parts = append(parts, b.styles.Warning.Render("Thinking..."))
	case StateError:
		msg := "Error"
		if b.message != "" {
			msg = "Error: " + b.message
		}
		parts = append(parts, b.styles.Error.Render(msg))
	default:
		parts = append(parts, b.styles.Success.Render("Ready"))
	}
	if b.mode != "" {
		parts = append(parts, b.styles.Muted.Render("mode: "+b.mode))
	}
	if b.passages >= 0 {
		parts = append(parts, b.styles.Muted.Render(fmt.Sprintf("%d passages", b.passages)))
	}
	return strings.Join(parts, b.styles.Muted.Render(" | "))
}

func (b *Bar) renderRight() string {
	return b.styles.Muted.Render(Hints(b.keymap.ShortHelp()))
}

// Hints formats bindings as "key: desc" pairs.
func Hints(bindings []key.Binding) string {
	hints := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		h := binding.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return strings.Join(hints, " | ")
}

// SetState sets the current state and clears any message.
func (b *Bar) SetState(state State) {
	b.state = state
	b.message = ""
}

// SetError switches to the error state with a message.
func (b *Bar) SetError(err error) {
	b.state = StateError
	b.message = err.Error()
}

// State returns the current state.
func (b *Bar) State() State { return b.state }

// Message returns the error message, if any.
func (b *Bar) Message() string { return b.message }

// SetMode sets the displayed answer mode.
func (b *Bar) SetMode(mode string) { b.mode = mode }

// SetPassages sets the displayed collection size. Negative hides it.
func (b *Bar) SetPassages(n int) { b.passages = n }

// SetWidth sets the status bar width.
func (b *Bar) SetWidth(width int) { b.width = width }

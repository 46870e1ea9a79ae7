package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/ragline/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/ragline/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/ragline/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ragline/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragline/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragline/internal/core/domain"
)

// turn is one question and its answer in the transcript.
type turn struct {
	query  string
	answer *domain.Answer
	err    error
}

// Option customises an App.
type Option func(*App)

// WithMode sets the initial answer mode. Empty uses the service default.
func WithMode(mode string) Option {
	return func(a *App) { a.mode = mode }
}

// WithTopK sets the number of passages retrieved per question.
func WithTopK(k int) Option {
	return func(a *App) { a.topK = k }
}

// App is the chat application following the Elm architecture.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap

	input    *input.QuestionInput
	viewport viewport.Model
	spinner  spinner.Model
	bar      *status.Bar

	turns    []turn
	mode     string
	topK     int
	pending  bool
	showHelp bool

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a chat application over the given ports.
func NewApp(ports *Ports, opts ...Option) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	a := &App{
		ports:    ports,
		ctx:      context.Background(),
		styles:   s,
		keymap:   km,
		input:    input.NewQuestionInput(s),
		viewport: viewport.New(80, 20),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		bar:      status.NewBar(s, km),
		topK:     domain.DefaultTopK,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.bar.SetMode(a.modeLabel())
	a.refresh()
	return a, nil
}

// WithContext sets the context used for service calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.input.Init(),
		tea.SetWindowTitle("ragline chat"),
		a.loadStats(),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case messages.QuestionSubmitted:
		a.pending = true
		a.bar.SetState(status.StateThinking)
		a.turns = append(a.turns, turn{query: msg.Query})
		a.refresh()
		return a, tea.Batch(a.ask(msg), a.spinner.Tick)

	case messages.AnswerReceived:
		a.pending = false
		if n := len(a.turns); n > 0 && a.turns[n-1].answer == nil && a.turns[n-1].err == nil {
			a.turns[n-1].answer = msg.Answer
			a.turns[n-1].err = msg.Err
		}
		if msg.Err != nil {
			a.bar.SetError(msg.Err)
		} else {
			a.bar.SetState(status.StateReady)
		}
		a.refresh()
		return a, a.loadStats()

	case messages.StatsLoaded:
		if msg.Err == nil && msg.Info != nil {
			a.bar.SetPassages(msg.Info.Count)
		}
		return a, nil

	case spinner.TickMsg:
		if !a.pending {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		a.refresh()
		return a, cmd
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := msg.String()
	switch {
	case keymap.Matches(k, a.keymap.Quit):
		return a, tea.Quit

	case keymap.Matches(k, a.keymap.Help):
		a.showHelp = !a.showHelp
		a.layout()
		return a, nil

	case keymap.Matches(k, a.keymap.ToggleMode):
		a.toggleMode()
		return a, nil

	case keymap.Matches(k, a.keymap.Clear):
		a.turns = nil
		a.refresh()
		return a, nil

	case keymap.Matches(k, a.keymap.ScrollUp), keymap.Matches(k, a.keymap.ScrollDown):
		var cmd tea.Cmd
		a.viewport, cmd = a.viewport.Update(msg)
		return a, cmd

	case keymap.Matches(k, a.keymap.Ask):
		q := a.input.Value()
		if q == "" || a.pending {
			return a, nil
		}
		a.input.Reset()
		mode := a.mode
		return a, func() tea.Msg {
			return messages.QuestionSubmitted{Query: q, Mode: mode}
		}
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Loading..."
	}
	parts := []string{
		a.styles.Title.Render("ragline"),
		a.viewport.View(),
		a.input.View(),
	}
	if a.showHelp {
		for _, group := range a.keymap.FullHelp() {
			parts = append(parts, a.styles.Muted.Render(status.Hints(group)))
		}
	}
	parts = append(parts, a.bar.View())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// SetDimensions resizes every component.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.input.SetWidth(width)
	a.bar.SetWidth(width)
	a.layout()
}

func (a *App) layout() {
	reserved := 1 + a.input.Height() + 1 // title, input, status bar
	if a.showHelp {
		reserved += len(a.keymap.FullHelp())
	}
	a.viewport.Width = max(20, a.width)
	a.viewport.Height = max(3, a.height-reserved)
	a.refresh()
}

// refresh re-renders the transcript and keeps it scrolled to the end.
func (a *App) refresh() {
	a.viewport.SetContent(a.renderTranscript())
	a.viewport.GotoBottom()
}

func (a *App) renderTranscript() string {
	if len(a.turns) == 0 {
		return a.styles.Muted.Render("Ask a question about the indexed documents.")
	}

	width := max(20, a.viewport.Width-2)
	var b strings.Builder
	for i, t := range a.turns {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(a.styles.Question.Render("> " + t.query))
		b.WriteString("\n")

		switch {
		case t.err != nil:
			b.WriteString(a.styles.Error.Render("Error: " + t.err.Error()))
			b.WriteString("\n")
		case t.answer == nil:
			b.WriteString(a.spinner.View() + " " + a.styles.Muted.Render("thinking"))
			b.WriteString("\n")
		default:
			b.WriteString(a.styles.Answer.Width(width).Render(t.answer.Text))
			b.WriteString("\n")
			for j, src := range t.answer.Sources {
				b.WriteString(a.styles.Source.Render(formatSource(j+1, src)))
				b.WriteString("\n")
			}
		}
	}
	return b.String()
}

func formatSource(n int, src domain.Source) string {
	line := fmt.Sprintf("[%d] %s", n, src.Label)
	if src.FileType != "" {
		line += " (" + src.FileType + ")"
	}
	if src.URL != "" {
		line += " " + src.URL
	}
	return line
}

func (a *App) toggleMode() {
	if a.modeLabel() == domain.AnswerModeGenerative {
		a.mode = domain.AnswerModeExtractive
	} else {
		a.mode = domain.AnswerModeGenerative
	}
	a.bar.SetMode(a.mode)
}

func (a *App) modeLabel() string {
	if a.mode != "" {
		return a.mode
	}
	if d, ok := a.ports.Chat.(interface{ DefaultMode() string }); ok {
		return d.DefaultMode()
	}
	return domain.AnswerModeExtractive
}

func (a *App) ask(q messages.QuestionSubmitted) tea.Cmd {
	ctx := a.ctx
	chat := a.ports.Chat
	query := domain.Query{Text: q.Query, TopK: a.topK}
	return func() tea.Msg {
		answer, err := chat.AskWithMode(ctx, query, q.Mode)
		return messages.AnswerReceived{Query: q.Query, Answer: answer, Err: err}
	}
}

func (a *App) loadStats() tea.Cmd {
	if a.ports.Collection == nil {
		return nil
	}
	ctx := a.ctx
	coll := a.ports.Collection
	return func() tea.Msg {
		info, err := coll.Stats(ctx)
		return messages.StatsLoaded{Info: info, Err: err}
	}
}

// Mode returns the answer mode used for the next question.
func (a *App) Mode() string { return a.modeLabel() }

// Pending reports whether a question is awaiting its answer.
func (a *App) Pending() bool { return a.pending }

// Ready reports whether the terminal size is known.
func (a *App) Ready() bool { return a.ready }

// Turns returns the number of questions asked.
func (a *App) Turns() int { return len(a.turns) }

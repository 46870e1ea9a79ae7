package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/ragline/internal/adapters/driving/tui"
	"github.com/custodia-labs/ragline/internal/app"
	"github.com/custodia-labs/ragline/internal/core/domain"
	"github.com/custodia-labs/ragline/internal/core/ports/driving"
)

var (
	chatMode string
	chatTopK int
	chatLine bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask questions interactively",
	Long: `Open an interactive chat over the indexed documents.

On a terminal this starts the full-screen chat. Controls:
  Enter   - Ask
  Ctrl+T  - Toggle extractive / generative answers
  Ctrl+L  - Clear the transcript
  PgUp/Dn - Scroll
  Esc     - Quit

When stdin is not a terminal, or with --line, each input line is a
question and answers are printed in plain text.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatMode, "mode", "m", "", "answer mode: extractive or generative (default from config)")
	chatCmd.Flags().IntVarP(&chatTopK, "top-k", "k", domain.DefaultTopK, "number of passages to retrieve")
	chatCmd.Flags().BoolVar(&chatLine, "line", false, "plain line mode even on a terminal")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	if chatMode != "" && !domain.IsValidAnswerMode(chatMode) {
		return domain.NewValidationError("mode", fmt.Sprintf("unknown answer mode %q", chatMode))
	}

	return withServices(cmd, func(ctx context.Context, _ *app.Container, svc *app.Services) error {
		if chatLine || !isTerminal(cmd.InOrStdin()) {
			return chatLines(ctx, cmd, svc.Chat)
		}

		a, err := tui.NewApp(&tui.Ports{Chat: svc.Chat, Collection: svc.Collection},
			tui.WithMode(chatMode), tui.WithTopK(chatTopK))
		if err != nil {
			return fmt.Errorf("failed to create TUI: %w", err)
		}
		a.WithContext(ctx)

		p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := p.Run(); err != nil && ctx.Err() == nil {
			return fmt.Errorf("TUI error: %w", err)
		}
		return nil
	})
}

// chatLines answers one question per input line until EOF.
func chatLines(ctx context.Context, cmd *cobra.Command, chat driving.ChatService) error {
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		q := strings.TrimSpace(scanner.Text())
		if q == "" {
			continue
		}
		answer, err := chat.AskWithMode(ctx, domain.Query{Text: q, TopK: chatTopK}, chatMode)
		if err != nil {
			cmd.PrintErrf("error: %v\n", err)
			continue
		}
		printAnswer(cmd, answer)
		cmd.Println()
	}
	return scanner.Err()
}

func isTerminal(in io.Reader) bool {
	f, ok := in.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

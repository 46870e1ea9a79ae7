package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragline/internal/app"
	"github.com/custodia-labs/ragline/internal/core/domain"
)

// queryFlags are shared by ask and search.
type queryFlags struct {
	topK       int
	filters    []string
	collection string
	json       bool
}

func (f *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.topK, "top-k", "k", domain.DefaultTopK, "number of passages to retrieve")
	cmd.Flags().StringArrayVar(&f.filters, "filter", nil, "payload equality filter key=value (repeatable)")
	cmd.Flags().StringVar(&f.collection, "collection", "", "collection to query (default from config)")
	cmd.Flags().BoolVar(&f.json, "json", false, "output as JSON")
}

func (f *queryFlags) query(text string) (domain.Query, error) {
	filter, err := parseFilters(f.filters)
	if err != nil {
		return domain.Query{}, err
	}
	return domain.Query{
		Text:       text,
		TopK:       f.topK,
		Filter:     filter,
		Collection: f.collection,
	}, nil
}

var (
	askFlags    queryFlags
	askMode     string
	searchFlags queryFlags
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question from the indexed documents",
	Long: `Retrieve the passages closest to the question and compose an answer.

Extractive mode returns the top passage; generative mode asks the
configured LLM to answer from the retrieved passages.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Show the ranked passages for a query",
	Long:  `Performs vector similarity search and prints the ranked passages without composing an answer.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	askFlags.register(askCmd)
	askCmd.Flags().StringVarP(&askMode, "mode", "m", "", "answer mode: extractive or generative (default from config)")
	searchFlags.register(searchCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(searchCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	query, err := askFlags.query(strings.Join(args, " "))
	if err != nil {
		return err
	}

	return withServices(cmd, func(ctx context.Context, _ *app.Container, svc *app.Services) error {
		answer, err := svc.Chat.AskWithMode(ctx, query, askMode)
		if err != nil {
			return err
		}
		if askFlags.json {
			return printJSON(cmd, answer)
		}
		printAnswer(cmd, answer)
		return nil
	})
}

func printAnswer(cmd *cobra.Command, answer *domain.Answer) {
	cmd.Println(answer.Text)
	if len(answer.Sources) == 0 {
		return
	}
	cmd.Println()
	cmd.Println("Sources:")
	for i, src := range answer.Sources {
		line := fmt.Sprintf("  [%d] %s", i+1, src.Label)
		if src.FileType != "" {
			line += " (" + src.FileType + ")"
		}
		if src.URL != "" {
			line += " " + src.URL
		}
		cmd.Println(line)
	}
}

// hitJSON is the --json form of a search hit.
type hitJSON struct {
	ID       string         `json:"id"`
	Rank     int            `json:"rank"`
	Score    float64        `json:"score"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	query, err := searchFlags.query(strings.Join(args, " "))
	if err != nil {
		return err
	}

	return withServices(cmd, func(ctx context.Context, _ *app.Container, svc *app.Services) error {
		hits, err := svc.Chat.Search(ctx, query)
		if err != nil {
			return err
		}
		if searchFlags.json {
			out := make([]hitJSON, len(hits))
			for i, h := range hits {
				out[i] = hitJSON{ID: h.ID, Rank: h.Rank, Score: h.Score, Text: h.Text, Metadata: h.Metadata}
			}
			return printJSON(cmd, out)
		}
		printHits(cmd, hits)
		return nil
	})
}

func printHits(cmd *cobra.Command, hits []domain.Hit) {
	if len(hits) == 0 {
		cmd.Println("No results found.")
		return
	}

	cmd.Println("Results:")
	cmd.Println()
	for _, h := range hits {
		label := h.MetaString(domain.MetaSource)
		if label == "" {
			label = h.ID
		}
		cmd.Printf("  [%d] %s (%.3f)\n", h.Rank, label, h.Score)
		cmd.Printf("      %s\n", snippet(h.Text, 160))
		cmd.Println()
	}
}

// snippet flattens whitespace and truncates to n runes.
func snippet(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[:n]) + "..."
}

// parseFilters turns key=value pairs into an equality filter.
func parseFilters(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	filter := make(map[string]any, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, domain.NewValidationError("filter", fmt.Sprintf("expected key=value, got %q", p))
		}
		filter[key] = value
	}
	return filter, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

package cli

import (
	"bufio"
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragline/internal/app"
	"github.com/custodia-labs/ragline/internal/core/domain"
)

var resetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every passage and recreate the collection",
	Args:  cobra.NoArgs,
	RunE:  runReset,
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the vector store and embedding model",
	Long: `Ensure the collection exists and report the embedding model and
collection size. Exits non-zero when the vector store is unreachable.`,
	Args: cobra.NoArgs,
	RunE: runHealth,
}

func init() {
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "skip the confirmation prompt")
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(healthCmd)
}

func runReset(cmd *cobra.Command, _ []string) error {
	if !resetYes {
		cmd.Print("This deletes every indexed passage. Continue? [y/N]: ")
		answer := strings.ToLower(readLine(bufio.NewReader(cmd.InOrStdin())))
		if answer != "y" && answer != "yes" {
			return errors.New("reset cancelled")
		}
	}

	return withServices(cmd, func(ctx context.Context, c *app.Container, svc *app.Services) error {
		if err := svc.Collection.Reset(ctx); err != nil {
			return err
		}
		cmd.Printf("Collection %q reset.\n", c.Config().Vector.Collection)
		return nil
	})
}

func runHealth(cmd *cobra.Command, _ []string) error {
	return withServices(cmd, func(ctx context.Context, c *app.Container, svc *app.Services) error {
		status, err := svc.Collection.Health(ctx)
		if err != nil {
			return err
		}
		info, err := svc.Collection.Stats(ctx)
		if err != nil && !errors.Is(err, domain.ErrCollectionNotFound) {
			return err
		}

		cmd.Printf("Status:          %s\n", status.Status)
		cmd.Printf("Vector backend:  %s\n", c.Config().Vector.Backend)
		cmd.Printf("Collection:      %s\n", status.Collection)
		cmd.Printf("Embedding model: %s\n", status.EmbeddingModel)
		if info != nil {
			cmd.Printf("Dimension:       %d\n", info.Dimension)
			cmd.Printf("Passages:        %d\n", info.Count)
		}
		return nil
	})
}

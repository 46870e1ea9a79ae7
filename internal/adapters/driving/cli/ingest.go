package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragline/internal/app"
	"github.com/custodia-labs/ragline/internal/core/domain"
)

var importCollection string

var ingestCmd = &cobra.Command{
	Use:   "ingest <path>...",
	Short: "Index local files and directories",
	Long: `Index files into the active collection. Directories are walked recursively
and hidden files are skipped. Each file is reported on its own line; a
file that fails does not stop the others.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

var importCmd = &cobra.Command{
	Use:   "import <file|->",
	Short: "Import CMS records from JSON",
	Long: `Import structured records from a JSON file, or from stdin with "-".

The input is either {"collection": "...", "records": [...]} or a bare array
of records. Each record has a body and optionally id, title, url and
file_type.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importCollection, "collection", "", "target collection (default from config)")
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(importCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	return withServices(cmd, func(ctx context.Context, _ *app.Container, svc *app.Services) error {
		var (
			total  int
			files  int
			failed int
		)
		for _, path := range args {
			report, err := svc.Ingest.IngestPath(ctx, path)
			if err != nil {
				return fmt.Errorf("ingest %s: %w", path, err)
			}
			printReport(cmd, report)
			total += report.Indexed
			files += len(report.Files)
			failed += len(report.Failed())
		}

		cmd.Printf("Indexed %d passages from %d files", total, files-failed)
		if failed > 0 {
			cmd.Printf(" (%d failed)", failed)
		}
		cmd.Println()

		if files > 0 && failed == files {
			return errors.New("no file could be indexed")
		}
		return nil
	})
}

func printReport(cmd *cobra.Command, report *domain.IngestReport) {
	for _, f := range report.Files {
		if f.Err != nil {
			cmd.Printf("  FAIL %s: %v\n", f.Filename, f.Err)
			continue
		}
		cmd.Printf("  ok   %s (%d passages)\n", f.Filename, f.Indexed)
	}
}

func runImport(cmd *cobra.Command, args []string) error {
	batch, err := readImport(cmd, args[0])
	if err != nil {
		return err
	}
	if importCollection != "" {
		batch.Collection = importCollection
	}

	return withServices(cmd, func(ctx context.Context, _ *app.Container, svc *app.Services) error {
		n, err := svc.Ingest.ImportCMS(ctx, batch)
		if err != nil {
			return err
		}
		cmd.Printf("Indexed %d passages from %d records\n", n, len(batch.Records))
		return nil
	})
}

// readImport decodes a CMS batch from a file, or stdin for "-".
func readImport(cmd *cobra.Command, name string) (domain.CMSImport, error) {
	var (
		data []byte
		err  error
	)
	if name == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return domain.CMSImport{}, fmt.Errorf("read %s: %w", name, err)
	}
	return decodeImport(data)
}

func decodeImport(data []byte) (domain.CMSImport, error) {
	var batch domain.CMSImport
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &batch.Records); err != nil {
			return batch, domain.NewValidationError("records", fmt.Sprintf("invalid JSON: %v", err))
		}
		return batch, nil
	}
	if err := json.Unmarshal(trimmed, &batch); err != nil {
		return batch, domain.NewValidationError("records", fmt.Sprintf("invalid JSON: %v", err))
	}
	return batch, nil
}

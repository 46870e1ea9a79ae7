package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragline/internal/app"
	"github.com/custodia-labs/ragline/internal/config"
	"github.com/custodia-labs/ragline/internal/core/domain"
)

type okValidator struct{}

func (okValidator) ValidateEmbedding(*domain.EmbeddingSettings) error { return nil }
func (okValidator) ValidateLLM(*domain.LLMSettings) error             { return nil }

// setupTestServices points every command at a sqlite store and config file
// in a temp dir. It returns the temp dir.
func setupTestServices(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	origContainer := newContainer
	origValidator := settingsValidator
	newContainer = func(*cobra.Command) (*app.Container, error) {
		cfg := config.Defaults()
		cfg.Vector.Path = filepath.Join(dir, "ragline.db")
		cfg.Storage.UploadDir = filepath.Join(dir, "uploads")
		return app.New(&cfg), nil
	}
	settingsValidator = okValidator{}
	cfgFile = filepath.Join(dir, "ragline.toml")

	t.Cleanup(func() {
		newContainer = origContainer
		settingsValidator = origValidator
		resetFlags()
	})
	return dir
}

// resetFlags restores flag variables between executions.
func resetFlags() {
	cfgFile = ""
	verbose = false
	logLevel = ""
	askFlags = queryFlags{topK: domain.DefaultTopK}
	searchFlags = queryFlags{topK: domain.DefaultTopK}
	askMode = ""
	importCollection = ""
	resetYes = false
	chatMode = ""
	chatTopK = domain.DefaultTopK
	chatLine = false
	watchSchedule = ""
	serveAddr = ""
	serveWatch = false
}

// execute runs the root command with args and stdin, returning stdout and stderr combined.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		askFlags = queryFlags{topK: domain.DefaultTopK}
		searchFlags = queryFlags{topK: domain.DefaultTopK}
		askMode = ""
		importCollection = ""
		resetYes = false
		chatMode = ""
		chatLine = false
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/ragline/internal/adapters/driven/ai"
	"github.com/custodia-labs/ragline/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ragline/internal/config"
	"github.com/custodia-labs/ragline/internal/core/domain"
	"github.com/custodia-labs/ragline/internal/core/ports/driven"
	"github.com/custodia-labs/ragline/internal/core/services"
)

// settingsValidator pings providers before saving them. Tests replace it.
var settingsValidator driven.AIConfigValidator = ai.NewConfigValidator()

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
	Long: `View and edit the ragline configuration file.

Keys use dot notation matching the file sections, for example
vector.backend or embedding.model. Environment variables still override
the file when ragline runs.`,
	RunE: runConfigList,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, _ := config.ResolvePath(cfgFile)
		cmd.Println(path)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every key set in the file",
	Args:  cobra.NoArgs,
	RunE:  runConfigList,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set one value",
	Long: `Set one value. Integers and true/false are stored typed; a value
containing commas is stored as a list.`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configModeCmd = &cobra.Command{
	Use:       "mode <extractive|generative>",
	Short:     "Set the default answer mode",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{domain.AnswerModeExtractive, domain.AnswerModeGenerative},
	RunE:      runConfigMode,
}

var configBackendCmd = &cobra.Command{
	Use:       "backend <qdrant|postgres|sqlite|memory>",
	Short:     "Set the vector store backend",
	Args:      cobra.ExactArgs(1),
	ValidArgs: domain.VectorBackends(),
	RunE:      runConfigBackend,
}

var configEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure the embedding provider",
	Long: `Choose the embedding provider and model interactively. The provider is
contacted before the settings are saved.

Changing the model changes the vector dimension: run 'ragline reset'
before indexing again.`,
	Args: cobra.NoArgs,
	RunE: runConfigEmbedding,
}

var configLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure the LLM provider for generative answers",
	Args:  cobra.NoArgs,
	RunE:  runConfigLLM,
}

func init() {
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configModeCmd)
	configCmd.AddCommand(configBackendCmd)
	configCmd.AddCommand(configEmbeddingCmd)
	configCmd.AddCommand(configLLMCmd)
	rootCmd.AddCommand(configCmd)
}

func openConfigStore() (*file.ConfigStore, error) {
	path, _ := config.ResolvePath(cfgFile)
	return file.NewConfigStore(path)
}

func openSettings() (*services.SettingsService, error) {
	store, err := openConfigStore()
	if err != nil {
		return nil, err
	}
	return services.NewSettingsService(store, settingsValidator), nil
}

func runConfigList(cmd *cobra.Command, _ []string) error {
	store, err := openConfigStore()
	if err != nil {
		return err
	}
	keys := store.Keys()
	if len(keys) == 0 {
		cmd.Printf("No settings in %s; defaults apply.\n", store.Path())
		return nil
	}
	for _, key := range keys {
		val, _ := store.Get(key)
		cmd.Printf("%s = %s\n", key, displayValue(key, val))
	}
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	store, err := openConfigStore()
	if err != nil {
		return err
	}
	val, ok := store.Get(args[0])
	if !ok {
		return fmt.Errorf("%s: %w", args[0], domain.ErrNotFound)
	}
	cmd.Println(displayValue(args[0], val))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	store, err := openConfigStore()
	if err != nil {
		return err
	}
	if err := store.Set(args[0], parseValue(args[1])); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}
	cmd.Printf("%s updated in %s\n", args[0], store.Path())
	return nil
}

func runConfigMode(cmd *cobra.Command, args []string) error {
	settings, err := openSettings()
	if err != nil {
		return err
	}
	if err := settings.SetAnswerMode(args[0]); err != nil {
		return err
	}
	cmd.Printf("Answer mode set to: %s\n", args[0])
	return nil
}

func runConfigBackend(cmd *cobra.Command, args []string) error {
	settings, err := openSettings()
	if err != nil {
		return err
	}
	if err := settings.SetVectorBackend(args[0]); err != nil {
		return err
	}
	cmd.Printf("Vector backend set to: %s\n", args[0])
	if args[0] == domain.VectorBackendQdrant || args[0] == domain.VectorBackendPostgres {
		cmd.Println("Set vector.url / vector.dsn before running ragline.")
	}
	return nil
}

func runConfigEmbedding(cmd *cobra.Command, _ []string) error {
	settings, err := openSettings()
	if err != nil {
		return err
	}
	reader := bufio.NewReader(cmd.InOrStdin())

	provider, model, apiKey, err := promptProvider(cmd, reader, "Embedding",
		domain.AllEmbeddingProviders(), domain.DefaultEmbeddingModels())
	if err != nil {
		return err
	}

	cmd.Print("Validating configuration... ")
	if err := settings.SetEmbeddingProvider(provider, model, apiKey); err != nil {
		cmd.Println("FAILED")
		return fmt.Errorf("embedding configuration failed: %w", err)
	}
	cmd.Println("OK")

	stored := settings.Embedding()
	cmd.Printf("Embedding provider configured: %s (%s, %d dimensions)\n",
		provider.Description(), stored.Model, stored.Dimensions)
	cmd.Println("Run 'ragline reset' if the collection was built with another model.")
	return nil
}

func runConfigLLM(cmd *cobra.Command, _ []string) error {
	settings, err := openSettings()
	if err != nil {
		return err
	}
	reader := bufio.NewReader(cmd.InOrStdin())

	provider, model, apiKey, err := promptProvider(cmd, reader, "LLM",
		domain.AllLLMProviders(), domain.DefaultLLMModels())
	if err != nil {
		return err
	}

	cmd.Print("Validating configuration... ")
	if err := settings.SetLLMProvider(provider, model, apiKey); err != nil {
		cmd.Println("FAILED")
		return fmt.Errorf("LLM configuration failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("LLM provider configured: %s (%s)\n", provider.Description(), settings.LLM().Model)
	cmd.Println("Run 'ragline config mode generative' to answer with it by default.")
	return nil
}

// promptProvider asks for a provider, a model and, when needed, an API key.
func promptProvider(
	cmd *cobra.Command,
	reader *bufio.Reader,
	kind string,
	providers []domain.AIProvider,
	defaults map[domain.AIProvider]string,
) (domain.AIProvider, string, string, error) {
	cmd.Printf("Select %s Provider\n", kind)
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(providers), 1)
	provider := providers[idx-1]

	defaultModel := defaults[provider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	var apiKey string
	if provider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword(cmd.InOrStdin(), reader)
		cmd.Println()
		if apiKey == "" {
			return "", "", "", errors.New("API key is required for this provider")
		}
	}
	return provider, model, apiKey, nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo when in is a terminal.
func readPassword(in io.Reader, reader *bufio.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(reader)
}

// parseValue types a command line value for the config file.
func parseValue(s string) any {
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if s == "true" || s == "false" {
		return s == "true"
	}
	if strings.Contains(s, ",") {
		parts := strings.Split(s, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return s
}

func displayValue(key string, val any) string {
	s := fmt.Sprint(val)
	if strings.HasSuffix(key, "api_key") || strings.HasSuffix(key, "secret_access_key") {
		return maskAPIKey(s)
	}
	return s
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

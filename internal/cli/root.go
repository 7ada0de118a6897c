package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/claimlens/internal/model"
)

// Version is set at build time
var Version = "dev"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "claimlens",
	Short: "ClaimLens - pre-submission medical claim verification",
	Long: `ClaimLens checks medical insurance claims before submission.

Each claim passes through an eligibility gate, a timely-filing gate,
deterministic coding rules, payer policy resolution and a clinical
adjudication by a completion model. The result is a verdict, a
confidence score, the coding flags raised and the policy the verdict
was grounded on.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("claimlens %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.claimlens/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	rootCmd.PersistentFlags().String("log-format", "", "log format: console or json")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig registers defaults, then reads the config file and CLAIMLENS_* environment
func initConfig() {
	if err := registerDefaults(viper.GetViper(), model.DefaultConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "Error registering defaults: %v\n", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(filepath.Join(home, ".claimlens"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// CLAIMLENS_LLM_API_KEY overrides llm.api_key
	viper.SetEnvPrefix("CLAIMLENS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.MergeInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// registerDefaults seeds v with every configuration key so environment
// overrides apply to keys absent from the config file
func registerDefaults(v *viper.Viper, defaults *model.Config) error {
	data, err := yaml.Marshal(defaults)
	if err != nil {
		return err
	}
	v.SetConfigType("yaml")
	if err := v.MergeConfig(bytes.NewReader(data)); err != nil {
		return err
	}

	// Keys marshalled with omitempty
	for _, key := range []string{
		"llm.api_key", "llm.base_url", "llm.api_version",
		"llm.http_proxy", "llm.https_proxy", "llm.no_proxy",
		"embedding.api_key", "embedding.base_url",
	} {
		v.SetDefault(key, "")
	}
	return nil
}

// loadConfig resolves the effective configuration from v
func loadConfig(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	applyEnvFallbacks(cfg)

	if v.GetBool("verbose") {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// applyEnvFallbacks fills credentials from the provider-standard variables
func applyEnvFallbacks(cfg *model.Config) {
	keyFor := func(provider string) string {
		switch strings.ToLower(provider) {
		case "openai":
			return os.Getenv("OPENAI_API_KEY")
		case "azure", "azure_openai":
			return os.Getenv("AZURE_OPENAI_API_KEY")
		case "anthropic", "claude":
			return os.Getenv("ANTHROPIC_API_KEY")
		}
		return ""
	}

	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = keyFor(cfg.LLM.Provider)
	}
	if cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = keyFor(cfg.Embedding.Provider)
	}

	if base := os.Getenv("OLLAMA_BASE_URL"); base != "" {
		if strings.EqualFold(cfg.LLM.Provider, "ollama") && cfg.LLM.BaseURL == "" {
			cfg.LLM.BaseURL = base
		}
		if strings.EqualFold(cfg.Embedding.Provider, "ollama") && cfg.Embedding.BaseURL == "" {
			cfg.Embedding.BaseURL = base
		}
	}
}

// newLogger builds the process logger from the log section
func newLogger(cfg model.LogConfig, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var w io.Writer = out
	if !strings.EqualFold(cfg.Format, "json") {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// setup loads the configuration and logger for a subcommand
func setup() (*model.Config, zerolog.Logger, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, newLogger(cfg.Log, os.Stderr), nil
}

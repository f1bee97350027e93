package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "bodhi",
	Short: "Two-pass prompting for language models",
	Long: `Bodhi wraps a chat model with a two-pass prompting strategy.

The first pass asks the model to analyze the prompt: intent, context,
safety concerns and what a good answer needs. The second pass feeds that
analysis back together with the original prompt to produce the final
answer. A medical domain with clinical templates is the default.

Examples:
  bodhi complete "I have had chest pain since this morning"
  bodhi complete --domain general --show-analysis "plan a 3 day trip to Kyoto"
  bodhi complete --file case.txt --watch
  bodhi analyze "what dose of ibuprofen is safe for a 20kg child?"
  bodhi templates --domain general`,
	SilenceUsage: true,
}

// Execute is called by main.main(). It runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.bodhi.yaml)")
	rootCmd.PersistentFlags().StringP("format", "f", "text", "output format (text, json, yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringP("domain", "d", "medical", "prompt domain (medical, general)")
	rootCmd.PersistentFlags().StringP("provider", "p", "ollama", "llm provider (ollama, openai, anthropic, gemini, echo)")
	rootCmd.PersistentFlags().String("color", "auto", "colorize section headers (auto, always, never)")

	_ = viper.BindPFlag("format", rootCmd.PersistentFlags().Lookup("format"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("domain", rootCmd.PersistentFlags().Lookup("domain"))
	_ = viper.BindPFlag("llm.provider", rootCmd.PersistentFlags().Lookup("provider"))
	_ = viper.BindPFlag("color", rootCmd.PersistentFlags().Lookup("color"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error finding home directory:", err)
			os.Exit(1)
		}

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigName(".bodhi")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("BODHI")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

// setDefaults registers the configuration defaults.
func setDefaults() {
	viper.SetDefault("format", "text")
	viper.SetDefault("verbose", false)
	viper.SetDefault("domain", "medical")
	viper.SetDefault("color", "auto")

	viper.SetDefault("llm.provider", "ollama")
	viper.SetDefault("llm.temperature", 0.7)
	viper.SetDefault("llm.max_tokens", 0)
	viper.SetDefault("llm.timeout", "0s")
	viper.SetDefault("llm.ollama.host", "http://localhost:11434")
	viper.SetDefault("llm.ollama.model", "llama3.2")
	viper.SetDefault("llm.openai.model", "gpt-4o-mini")
	viper.SetDefault("llm.anthropic.model", "claude-3-7-sonnet-20250219")
	viper.SetDefault("llm.gemini.model", "gemini-2.5-flash")
	viper.SetDefault("llm.gemini.backend", "gemini")

	viper.SetDefault("llm.circuit_breaker.enabled", false)
	viper.SetDefault("llm.circuit_breaker.max_failures", 5)
	viper.SetDefault("llm.circuit_breaker.timeout", "30s")
	viper.SetDefault("llm.circuit_breaker.interval", "60s")
	viper.SetDefault("llm.rate_limit.enabled", false)
	viper.SetDefault("llm.rate_limit.requests_per_second", 1.0)
	viper.SetDefault("llm.rate_limit.burst", 1)

	viper.SetDefault("tracing.enabled", false)
	viper.SetDefault("tracing.exporter", "stdout")
}

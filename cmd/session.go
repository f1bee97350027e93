package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/bimmerbailey/bodhi/internal/bodhi"
	"github.com/bimmerbailey/bodhi/internal/config"
	"github.com/bimmerbailey/bodhi/internal/output"
	"github.com/bimmerbailey/bodhi/internal/prompt"
	"github.com/bimmerbailey/bodhi/internal/provider"
	"github.com/bimmerbailey/bodhi/internal/tracer"
)

// errNoPrompt is returned when neither arguments, --file nor stdin supply
// a prompt.
var errNoPrompt = errors.New("no prompt given: pass it as an argument, with --file, or on stdin")

// session bundles what a generating command needs for one run.
type session struct {
	cfg      *config.Config
	provider *provider.Provider
	orch     *bodhi.Orchestrator
	logger   *slog.Logger
	shutdown func(context.Context) error
}

// newLogger builds the stderr logger. Every record carries the run id so
// the passes of one invocation can be correlated.
func newLogger() *slog.Logger {
	level := slog.LevelError
	if viper.GetBool("verbose") {
		level = slog.LevelInfo
	}
	if viper.GetBool("debug") {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})).With("run_id", uuid.NewString())
}

// loadConfig unmarshals and validates the viper state.
func loadConfig() (*config.Config, error) {
	cfg := &config.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// coreConfig resolves the domain and template overrides into a bodhi.Config.
func coreConfig(cfg *config.Config) (bodhi.Config, error) {
	domain, err := prompt.ParseDomain(cfg.Domain)
	if err != nil {
		return bodhi.Config{}, err
	}

	analysis, response, err := cfg.Templates.Resolve()
	if err != nil {
		return bodhi.Config{}, err
	}

	return bodhi.NewConfig(
		bodhi.WithDomain(domain),
		bodhi.WithAnalysisTemplate(analysis),
		bodhi.WithResponseTemplate(response),
	)
}

// newSession loads configuration, sets up tracing and connects to the
// configured provider.
func newSession(ctx context.Context, cmd *cobra.Command) (*session, error) {
	logger := newLogger()

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	coreCfg, err := coreConfig(cfg)
	if err != nil {
		return nil, err
	}

	shutdown, err := tracer.Setup(ctx, cfg.Tracing, cmd.ErrOrStderr())
	if err != nil {
		return nil, fmt.Errorf("failed to set up tracing: %w", err)
	}

	p, err := provider.New(ctx, cfg, logger)
	if err != nil {
		_ = shutdown(ctx)
		return nil, fmt.Errorf("failed to create LLM provider: %w\n\nTroubleshooting:\n- Ensure Ollama is running: ollama serve\n- Check provider config in ~/.bodhi.yaml\n- For cloud providers, verify API keys are set", err)
	}

	if err := p.Heartbeat(ctx); err != nil {
		_ = shutdown(ctx)
		if p.Name() == provider.Ollama {
			return nil, fmt.Errorf("cannot connect to Ollama at %s: %w\n\nStart Ollama with: ollama serve",
				cfg.LLM.Ollama.Host, err)
		}
		return nil, fmt.Errorf("LLM provider %s unavailable: %w", p.Name(), err)
	}

	available, err := p.ModelAvailable(ctx)
	if err != nil {
		_ = shutdown(ctx)
		return nil, fmt.Errorf("listing models for %s: %w", p.Name(), err)
	}
	if !available {
		_ = shutdown(ctx)
		return nil, fmt.Errorf("model %q is not available\n\nPull it with: ollama pull %s", p.Model(), p.Model())
	}

	orch, err := bodhi.New(p, coreCfg, logger)
	if err != nil {
		_ = shutdown(ctx)
		return nil, err
	}

	logger.Info("session ready", "provider", p.Name(), "model", p.Model(), "domain", coreCfg.Domain())

	return &session{
		cfg:      cfg,
		provider: p,
		orch:     orch,
		logger:   logger,
		shutdown: shutdown,
	}, nil
}

func (s *session) close(ctx context.Context) {
	if err := s.shutdown(context.WithoutCancel(ctx)); err != nil {
		s.logger.Warn("tracer shutdown failed", "error", err)
	}
}

// newWriter returns an output writer for the configured format and color mode.
func newWriter(cmd *cobra.Command, format string) *output.Writer {
	return output.New(cmd.OutOrStdout(), output.ParseFormat(format)).
		WithColor(output.ParseColorMode(viper.GetString("color")))
}

// readPrompt assembles the prompt from positional args and --file inputs.
// With neither, a non-terminal stdin is read.
func readPrompt(cmd *cobra.Command, args, files []string) (string, error) {
	var parts []string
	if len(args) > 0 {
		parts = append(parts, strings.Join(args, " "))
	}
	if len(files) > 0 {
		text, err := config.ReadCaseFiles(files)
		if err != nil {
			return "", err
		}
		parts = append(parts, text)
	}
	if len(parts) > 0 {
		return strings.Join(parts, "\n\n"), nil
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "", errNoPrompt
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(data), nil
}

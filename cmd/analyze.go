package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/bimmerbailey/bodhi/internal/bodhi"
	"github.com/bimmerbailey/bodhi/internal/llm"
	"github.com/bimmerbailey/bodhi/internal/output"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [prompt]",
	Short: "Run only the analysis pass",
	Long: `Run the first pass alone and print the model's analysis of the prompt.
This is the same request complete sends before answering.

With --dry-run the rendered messages are printed and no model is called.

Examples:
  bodhi analyze "I feel dizzy when I stand up"
  bodhi analyze --domain general --dry-run "compare two job offers"
  bodhi analyze --file case.txt --format yaml`,
	RunE: runAnalyze,
}

func init() {
	addAnalyzeFlags(analyzeCmd)
	rootCmd.AddCommand(analyzeCmd)
}

func addAnalyzeFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceP("file", "F", []string{}, "case file(s) to read the prompt from (repeatable, globs allowed)")
	cmd.Flags().Bool("dry-run", false, "print the analysis request without calling the model")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	files, _ := cmd.Flags().GetStringSlice("file")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	input, err := readPrompt(cmd, args, files)
	if err != nil {
		return err
	}

	if dryRun {
		return printAnalysisRequest(cmd, input)
	}

	s, err := newSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	analysis, err := s.orch.Analyze(ctx, input)
	if err != nil {
		return err
	}

	return newWriter(cmd, s.cfg.Format).WriteAnalysis(output.AnalysisOutput{
		Domain:   s.orch.Config().Domain(),
		Prompt:   input,
		Analysis: analysis,
	})
}

// printAnalysisRequest renders the Pass 1 messages without a provider.
func printAnalysisRequest(cmd *cobra.Command, input string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	coreCfg, err := coreConfig(cfg)
	if err != nil {
		return err
	}

	orch, err := bodhi.New(llm.Echo(), coreCfg, nil)
	if err != nil {
		return err
	}
	msgs, err := orch.AnalysisMessages(input)
	if err != nil {
		return err
	}
	return newWriter(cmd, cfg.Format).WriteMessages(msgs)
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/bimmerbailey/bodhi/internal/bodhi"
	"github.com/bimmerbailey/bodhi/internal/config"
	"github.com/bimmerbailey/bodhi/internal/watch"
)

var completeCmd = &cobra.Command{
	Use:   "complete [prompt]",
	Short: "Answer a prompt using two-pass prompting",
	Long: `Answer a prompt. By default the model is invoked twice: once to analyze
the prompt and once to answer it with that analysis in hand.

The prompt comes from the arguments, from one or more --file case files
(globs allowed), or from stdin when neither is given.

Examples:
  bodhi complete "my 4 year old has a fever of 39.5C"
  bodhi complete --single-pass "what is the capital of Peru?"
  bodhi complete --show-analysis --domain general "help me plan a garden"
  bodhi complete --file notes/*.txt --watch
  echo "write a SOAP note for ..." | bodhi complete --format json`,
	RunE: runComplete,
}

func init() {
	addCompleteFlags(completeCmd)
	rootCmd.AddCommand(completeCmd)
}

func addCompleteFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("single-pass", false, "skip the analysis pass and send the prompt directly")
	cmd.Flags().StringSliceP("file", "F", []string{}, "case file(s) to read the prompt from (repeatable, globs allowed)")
	cmd.Flags().BoolP("watch", "w", false, "re-run whenever a --file changes")
	cmd.Flags().Bool("show-analysis", false, "print the analysis before the response (text format)")
}

func runComplete(cmd *cobra.Command, args []string) error {
	singlePass, _ := cmd.Flags().GetBool("single-pass")
	files, _ := cmd.Flags().GetStringSlice("file")
	watchFiles, _ := cmd.Flags().GetBool("watch")
	showAnalysis, _ := cmd.Flags().GetBool("show-analysis")

	if watchFiles && len(files) == 0 {
		return errors.New("--watch requires at least one --file")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if watchFiles {
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(ctx, os.Interrupt)
		defer stop()
	}

	s, err := newSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	writer := newWriter(cmd, s.cfg.Format)

	run := func(ctx context.Context) error {
		input, err := readPrompt(cmd, args, files)
		if err != nil {
			return err
		}

		res, err := s.orch.Complete(ctx, input, bodhi.TwoPass(!singlePass))
		if err != nil {
			reportPartial(cmd, err, showAnalysis)
			return err
		}
		return writer.WriteResult(res, showAnalysis)
	}

	if !watchFiles {
		return run(ctx)
	}

	if err := run(ctx); err != nil {
		s.logger.Error("completion failed", "error", err)
	}

	paths, err := config.ExpandGlobs(files)
	if err != nil {
		return err
	}
	w, err := watch.New(watch.Options{
		Paths:    paths,
		OnChange: run,
		Logger:   s.logger,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Watching %d file(s) for changes. Press Ctrl+C to stop.\n", len(paths))
	return w.Run(ctx)
}

// reportPartial prints the analysis a failed response pass left behind.
func reportPartial(cmd *cobra.Command, err error, showAnalysis bool) {
	var genErr *bodhi.GenerationError
	if !showAnalysis || !errors.As(err, &genErr) || genErr.Analysis == "" {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "=== Analysis (response pass failed) ===\n\n%s\n\n", genErr.Analysis)
}

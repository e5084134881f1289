package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"correctd/internal/corrector"
	"correctd/internal/resource"
	"correctd/pkg/types"
)

func newCorrectCmd(opts *cliOptions) *cobra.Command {
	var (
		level   string
		output  string
		showRaw bool
	)
	cmd := &cobra.Command{
		Use:   "correct [file]",
		Short: "Correct a text file (or stdin) and print the result",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if level != "" {
				cfg.Correction.Level = level
			}
			log := newLogger(opts)

			text, err := readInput(args)
			if err != nil {
				return err
			}
			if strings.TrimSpace(text) == "" {
				return fmt.Errorf("input is empty")
			}

			res := resource.New(resource.Config{
				MemoryBudgetGB: cfg.Resource.MemoryBudgetGB,
				CleanupDelay:   cfg.Resource.CleanupDelay(),
				Logger:         log.With().Str("component", "resource").Logger(),
			})
			orch := corrector.New(res, cfg,
				log.With().Str("component", "corrector").Logger(),
				corrector.WithSequential())

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			result := orch.CorrectText(ctx, types.CorrectionRequest{
				Text:  text,
				Level: types.CorrectionLevel(cfg.Correction.Level),
			})
			log.Info().
				Str("method", string(result.Method)).
				Int("chunks", result.ChunksTotal).
				Int("failed", result.ChunksFailed).
				Int("changes", result.ApproxChanges).
				Int64("elapsed_ms", result.ElapsedMS).
				Msg("correction finished")

			out := result.CorrectedText
			if showRaw {
				out = text
			}
			if output != "" {
				return os.WriteFile(output, []byte(out), 0o644)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().StringVar(&level, "level", "", "Correction level: basic|advanced|formal")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write corrected text to file instead of stdout")
	cmd.Flags().BoolVar(&showRaw, "dry-run", false, "Run the pipeline but print the original text")
	return cmd
}

// readInput returns the file named in args, or stdin when absent.
func readInput(args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		b, err := os.ReadFile(args[0])
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	b, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

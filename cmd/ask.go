package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/easelhq/easel/internal/artifact"
	"github.com/easelhq/easel/internal/config"
	"github.com/easelhq/easel/internal/generate"
	"github.com/easelhq/easel/internal/preview"
)

var askOutput string

var askCmd = &cobra.Command{
	Use:   "ask [prompt]",
	Short: "Generate a creation from a single prompt",
	Long: `Runs one generation without the web UI. The model response streams
to stdout as it arrives. When the response carries a creation, the
assembled preview document is written to the output file, ready to
open in a browser.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askOutput, "output", "o", "artifact.html", "file to write the generated document to")
	rootCmd.AddCommand(askCmd)
}

func runAsk(_ *cobra.Command, args []string) error {
	prompt := strings.Join(args, " ")
	if strings.TrimSpace(prompt) == "" {
		return errors.New("prompt is empty")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := newLogger()

	g, err := generate.Init(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing genkit: %w", err)
	}

	gen, err := generate.New(generate.Config{
		Genkit:      g,
		Model:       cfg.FullModelName(),
		Temperature: cfg.Temperature,
		Logger:      logger.With("component", "generate"),
	})
	if err != nil {
		return fmt.Errorf("creating generator: %w", err)
	}

	flow := generate.NewFlow(g, gen)

	var final generate.Output
	for streamValue, err := range flow.Stream(ctx, generate.Input{Prompt: prompt}) {
		if err != nil {
			return fmt.Errorf("generating: %w", err)
		}
		if streamValue.Done {
			final = streamValue.Output
			break
		}
		if streamValue.Stream.Text != "" {
			fmt.Print(streamValue.Stream.Text)
		}
	}
	fmt.Println()

	a := artifact.Extract(final.Text)
	if a == nil {
		// No embedded creation; the streamed text was the whole answer.
		return nil
	}

	if err := os.WriteFile(askOutput, []byte(preview.Document(a)), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", askOutput, err)
	}

	fmt.Fprintf(os.Stderr, "creation written to %s\n", askOutput)
	return nil
}

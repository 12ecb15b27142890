package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vietddude/ingestor/internal/control"
	"github.com/vietddude/ingestor/internal/core/decoder"
	"github.com/vietddude/ingestor/internal/indexing/ingestor"
)

var validateOnly bool

var stdinCmd = &cobra.Command{
	Use:          "stdin",
	Short:        "Ingest NDJSON block records from standard input",
	SilenceUsage: true,
	RunE:         runStdin,
}

func init() {
	stdinCmd.Flags().BoolVar(&validateOnly, "validate-only", false, "only decode input and report what was parsed")
	rootCmd.AddCommand(stdinCmd)
}

func runStdin(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	if validateOnly {
		setupLogging("")
		runner := ingestor.NewLineRunner(decoder.NewJSONDecoder(), nil, os.Stderr, 0)
		if err := runner.Run(ctx, os.Stdin, true); err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		return nil
	}

	cfg := loadConfig()
	pipeline, err := control.NewPipeline(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize pipeline: %w", err)
	}
	defer pipeline.Close()

	runner := ingestor.NewLineRunner(decoder.NewJSONDecoder(), pipeline.Files, os.Stderr, cfg.Files.MaxLineSize)
	if err := runner.Run(ctx, os.Stdin, false); err != nil {
		return fmt.Errorf("failed to read stdin: %w", err)
	}
	return nil
}

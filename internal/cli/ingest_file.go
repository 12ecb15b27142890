package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vietddude/ingestor/internal/control"
)

var ingestFileCmd = &cobra.Command{
	Use:          "ingest-file [path...]",
	Short:        "Ingest bulk NDJSON block files (local, hdfs:// or gs://)",
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runIngestFile,
}

func init() {
	rootCmd.AddCommand(ingestFileCmd)
}

// fileIngester processes one bulk file reference.
type fileIngester interface {
	ProcessFile(ctx context.Context, path string) error
}

func runIngestFile(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	ctx, cancel := signalContext()
	defer cancel()

	pipeline, err := control.NewPipeline(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize pipeline: %w", err)
	}
	defer pipeline.Close()

	return ingestPaths(ctx, pipeline.Files, args)
}

// ingestPaths processes every path and fails if any of them failed.
func ingestPaths(ctx context.Context, files fileIngester, paths []string) error {
	failed := 0
	for _, path := range paths {
		if err := files.ProcessFile(ctx, path); err != nil {
			slog.Error("Failed to ingest file", "path", path, "error", err)
			failed++
			continue
		}
		slog.Info("Ingested file", "path", path)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(paths))
	}
	return nil
}

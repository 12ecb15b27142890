package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/vietddude/stylelog"

	"github.com/vietddude/ingestor/internal/control"
	"github.com/vietddude/ingestor/internal/core/config"
)

var (
	cfgPath                     string
	isDebug                     bool
	addEmptyTxMetadataIfMissing bool
	writeBlockEntries           bool
)

var rootCmd = &cobra.Command{
	Use:   "ingestor",
	Short: "Block ingestor service",
	Long:  `Ingestor consumes confirmed blocks from a queue or bulk files, converts them and uploads them to ledger storage.`,
	Run:   runIngestor,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "config file (default is config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&addEmptyTxMetadataIfMissing, "add-empty-tx-metadata-if-missing", false,
		"substitute empty metadata for transactions that have none")
	rootCmd.PersistentFlags().BoolVar(&writeBlockEntries, "write-block-entries", false, "store entry summaries with each block")
}

// loadConfig reads the config file, applies flag overrides and installs
// the process logger.
func loadConfig() *config.AppConfig {
	_ = godotenv.Load()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		stylelog.InitDefault()
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	if addEmptyTxMetadataIfMissing {
		cfg.Convert.AddEmptyTxMetadataIfMissing = true
	}
	if writeBlockEntries {
		cfg.Uploader.WriteBlockEntries = true
	}

	setupLogging(cfg.Logging.Level)
	return cfg
}

func setupLogging(level string) {
	slogLevel := slog.LevelInfo
	if isDebug || level == "debug" {
		slogLevel = slog.LevelDebug
	}

	stylelog.InitDefault(&tint.Options{
		Level:      slogLevel,
		TimeFormat: time.RFC3339,
	})
}

func runIngestor(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := control.NewApp(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize ingestor", "error", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if err := app.Start(ctx); err != nil {
		slog.Error("Failed to start ingestor", "error", err)
		os.Exit(1)
	}

	slog.Info("Ingestor started", "config", cfgPath, "queue", cfg.Queue.Type)

	sig := <-sigChan
	slog.Info("Received signal, shutting down...", "signal", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := app.Stop(shutdownCtx); err != nil {
		slog.Error("Error during shutdown", "error", err)
		os.Exit(1)
	}
}

// signalContext returns a context canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

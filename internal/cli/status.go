package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/ingestor/internal/infra/codec"
	"github.com/vietddude/ingestor/internal/infra/storage/postgres"
)

var statusLimit int

var statusCmd = &cobra.Command{
	Use:          "status",
	Short:        "Show the latest uploaded blocks",
	SilenceUsage: true,
	RunE:         runStatus,
}

func init() {
	statusCmd.Flags().IntVar(&statusLimit, "limit", 10, "number of blocks to show")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	ctx := context.Background()
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		_ = db.Close()
	}()

	blocks, err := postgres.NewLedgerRepo(db, cfg.Uploader, codec.New()).LatestBlocks(ctx, statusLimit)
	if err != nil {
		return fmt.Errorf("failed to query blocks: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "SLOT\tBLOCKHASH\tTXS\tBLOCK TIME\tUPLOADED")

	for _, b := range blocks {
		blockTime := "-"
		if b.BlockTime != nil {
			blockTime = time.Unix(*b.BlockTime, 0).UTC().Format(time.RFC3339)
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\n",
			b.Slot, b.Blockhash, b.TxCount, blockTime, b.UploadedAt.Format(time.RFC3339))
	}
	return w.Flush()
}

package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/vietddude/ingestor/internal/core/config"
	"github.com/vietddude/ingestor/internal/indexing/metrics"
	"github.com/vietddude/ingestor/internal/infra/storage"
)

// Pruner deletes stored slots that fall outside the retention window.
type Pruner struct {
	cfg   config.RetentionConfig
	store storage.Pruner
	log   *slog.Logger
}

// NewPruner creates a new Pruner worker.
func NewPruner(cfg config.RetentionConfig, store storage.Pruner) *Pruner {
	return &Pruner{
		cfg:   cfg,
		store: store,
		log:   slog.Default().With("component", "pruner"),
	}
}

// Start runs the pruner loop.
func (p *Pruner) Start(ctx context.Context) {
	if p.cfg.KeepSlots == 0 {
		return // Retention disabled
	}

	interval := max(p.cfg.Interval, 1*time.Minute)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Initial prune
	p.prune(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.prune(ctx)
		}
	}
}

func (p *Pruner) prune(ctx context.Context) {
	latest, ok, err := p.store.LatestSlot(ctx)
	if err != nil {
		p.log.Error("Failed to read latest slot", "error", err)
		return
	}
	if !ok || latest < p.cfg.KeepSlots {
		return
	}

	threshold := latest - p.cfg.KeepSlots
	removed, err := p.store.PruneBelow(ctx, threshold)
	if err != nil {
		p.log.Error("Failed to prune slots", "below", threshold, "error", err)
		return
	}
	if removed > 0 {
		metrics.SlotsPruned.Add(float64(removed))
		p.log.Info("Pruned slots", "below", threshold, "removed", removed)
	}
}

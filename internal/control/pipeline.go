package control

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vietddude/ingestor/internal/core/config"
	"github.com/vietddude/ingestor/internal/core/convert"
	"github.com/vietddude/ingestor/internal/indexing/processor"
	"github.com/vietddude/ingestor/internal/infra/codec"
	"github.com/vietddude/ingestor/internal/infra/filestore"
	redisclient "github.com/vietddude/ingestor/internal/infra/redis"
	"github.com/vietddude/ingestor/internal/infra/storage"
	"github.com/vietddude/ingestor/internal/infra/storage/memory"
	"github.com/vietddude/ingestor/internal/infra/storage/postgres"
)

// Pipeline holds the storage and processing components shared by the queue
// ingestor and the one-shot commands.
type Pipeline struct {
	Ledger storage.Ledger
	Store  storage.LedgerStorage
	Blocks *processor.BlockProcessor
	Files  *processor.FileProcessor

	db          *postgres.DB
	redisClient *redisclient.Client
	opener      *filestore.Opener
	log         *slog.Logger
}

// NewPipeline initializes storage and processors from cfg. Without a
// database URL blocks are kept in memory.
func NewPipeline(ctx context.Context, cfg *config.AppConfig) (*Pipeline, error) {
	p := &Pipeline{log: slog.Default().With("component", "pipeline")}

	if cfg.Database.URL != "" {
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		p.db = db
		p.Ledger = postgres.NewLedgerRepo(db, cfg.Uploader, codec.New())
		p.log.Info("Using PostgreSQL storage")
	} else {
		p.Ledger = memory.NewMemoryStorage(cfg.Uploader)
		p.log.Info("Using Memory storage")
	}
	p.Store = p.Ledger

	if cfg.Redis.URL != "" {
		client, err := redisclient.NewClient(cfg.Redis)
		if err != nil {
			p.Close()
			return nil, err
		}
		p.redisClient = client
	}

	if cfg.Cache.EnableFullTxCache {
		if p.redisClient == nil {
			p.Close()
			return nil, fmt.Errorf("full tx cache requires redis.url")
		}
		cache := redisclient.NewTxCache(p.redisClient, cfg.Cache.TxCacheExpiration)
		p.Store = storage.NewCachingStorage(p.Ledger, cache, codec.New())
		p.log.Info("Full transaction cache enabled", "expiration", cfg.Cache.TxCacheExpiration)
	}

	opts := convert.DefaultOptions()
	opts.AddEmptyTxMetadataIfMissing = cfg.Convert.AddEmptyTxMetadataIfMissing

	p.opener = filestore.NewOpener(cfg.Files)
	p.Blocks = processor.NewBlockProcessor(p.Store, opts)
	p.Files = processor.NewFileProcessor(p.Blocks, p.opener, cfg.Files.MaxLineSize)

	return p, nil
}

// Close releases connections held by the pipeline.
func (p *Pipeline) Close() {
	if p.opener != nil {
		if err := p.opener.Close(); err != nil {
			p.log.Warn("Failed to close file opener", "error", err)
		}
	}
	if p.redisClient != nil {
		if err := p.redisClient.Close(); err != nil {
			p.log.Warn("Failed to close Redis", "error", err)
		}
	}
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			p.log.Warn("Failed to close database", "error", err)
		}
	}
}

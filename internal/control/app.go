package control

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/vietddude/ingestor/internal/core/config"
	"github.com/vietddude/ingestor/internal/core/decoder"
	"github.com/vietddude/ingestor/internal/core/worker"
	"github.com/vietddude/ingestor/internal/indexing/health"
	"github.com/vietddude/ingestor/internal/indexing/ingestor"
	natsclient "github.com/vietddude/ingestor/internal/infra/nats"
	redisclient "github.com/vietddude/ingestor/internal/infra/redis"
)

type queueConsumer interface {
	ingestor.Consumer
	io.Closer
}

// App is the queue-driven ingestor service.
type App struct {
	pipeline     *Pipeline
	consumer     queueConsumer
	ingestor     *ingestor.Ingestor
	pruner       *worker.Pruner
	healthServer *health.Server
	natsClient   *natsclient.Client
	cancel       context.CancelFunc
	done         chan struct{}
	log          *slog.Logger
}

// NewApp creates the service with all dependencies initialized.
func NewApp(ctx context.Context, cfg *config.AppConfig) (*App, error) {
	pipeline, err := NewPipeline(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a := &App{
		pipeline: pipeline,
		done:     make(chan struct{}),
		log:      slog.Default().With("component", "app"),
	}

	monitor := health.NewMonitor(10 * time.Second)
	if pipeline.db != nil {
		monitor.Register("database", pipeline.db.Health, true)
	}
	if pipeline.redisClient != nil {
		monitor.Register("redis", pipeline.redisClient.Ping, cfg.Queue.Type == config.QueueRedis)
	}

	var producer ingestor.Producer
	switch cfg.Queue.Type {
	case config.QueueRedis:
		if pipeline.redisClient == nil {
			pipeline.Close()
			return nil, fmt.Errorf("redis queue requires redis.url")
		}
		consumer, err := redisclient.NewStreamConsumer(ctx, pipeline.redisClient, cfg.Queue.Redis)
		if err != nil {
			pipeline.Close()
			return nil, err
		}
		a.consumer = consumer
		producer = redisclient.NewStreamProducer(pipeline.redisClient, cfg.Queue.DeadLetter)
	case config.QueueNATS:
		client, err := natsclient.Connect(ctx, cfg.NATS)
		if err != nil {
			pipeline.Close()
			return nil, err
		}
		consumer, err := natsclient.NewStreamConsumer(ctx, client, cfg.Queue.NATS)
		if err != nil {
			_ = client.Close()
			pipeline.Close()
			return nil, err
		}
		a.natsClient = client
		a.consumer = consumer
		producer = natsclient.NewStreamProducer(client, cfg.Queue.DeadLetter)
		monitor.Register("nats", client.Health, true)
	default:
		pipeline.Close()
		return nil, fmt.Errorf("unsupported queue type %q", cfg.Queue.Type)
	}

	a.ingestor = ingestor.New(cfg.Queue.Type, a.consumer, producer, decoder.NewJSONDecoder(), pipeline.Files)
	a.pruner = worker.NewPruner(cfg.Retention, pipeline.Ledger)
	a.healthServer = health.NewServer(monitor, cfg.Server.Port)

	return a, nil
}

// Start starts the ingestor and its background workers.
func (a *App) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	// Start Health Server
	go func() {
		if err := a.healthServer.Start(); err != nil {
			a.log.Error("Health server failed", "error", err)
		}
	}()

	// Start DB Metrics Collector
	if a.pipeline.db != nil {
		a.pipeline.db.StartMetricsCollector(runCtx)
	}

	go a.pruner.Start(runCtx)

	go func() {
		defer close(a.done)
		if err := a.ingestor.Run(runCtx); err != nil {
			a.log.Error("Ingestor failed", "error", err)
		}
	}()

	return nil
}

// Stop stops the ingestor after the in-flight message and releases
// connections.
func (a *App) Stop(ctx context.Context) error {
	a.log.Info("Stopping ingestor...")

	if a.cancel != nil {
		a.cancel()
	}
	if err := a.consumer.Close(); err != nil {
		a.log.Warn("Failed to close consumer", "error", err)
	}

	var stopErr error
	if a.cancel != nil {
		select {
		case <-a.done:
		case <-ctx.Done():
			stopErr = fmt.Errorf("ingestor did not stop: %w", ctx.Err())
		}
	}

	if err := a.healthServer.Stop(ctx); err != nil {
		a.log.Warn("Failed to stop health server", "error", err)
	}
	if a.natsClient != nil {
		if err := a.natsClient.Close(); err != nil {
			a.log.Warn("Failed to close NATS", "error", err)
		}
	}
	a.pipeline.Close()

	a.log.Info("Ingestor stopped")
	return stopErr
}

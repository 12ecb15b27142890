// Package ingestor drives the queue loop: pull a message, decode it, hand
// the payload to the processor, dead-letter failures and commit.
package ingestor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"

	"github.com/vietddude/ingestor/internal/core/domain"
	"github.com/vietddude/ingestor/internal/indexing/metrics"
)

// Consumer delivers queue messages. Next returns io.EOF when the stream
// has ended.
type Consumer interface {
	Next(ctx context.Context) (*domain.Message, error)
	Commit(ctx context.Context, msg *domain.Message) error
}

// Producer publishes records, used for the dead-letter queue.
type Producer interface {
	Produce(ctx context.Context, payload, key []byte) error
}

// Decoder turns raw message bytes into a payload.
type Decoder interface {
	Decode(data []byte) (domain.DecodedPayload, error)
}

// Processor handles a decoded payload.
type Processor interface {
	ProcessDecoded(ctx context.Context, payload domain.DecodedPayload) error
}

// Ingestor runs the sequential consume loop.
type Ingestor struct {
	consumer  Consumer
	producer  Producer
	decoder   Decoder
	processor Processor
	queue     string
	log       *slog.Logger
}

// New creates an ingestor. queue labels logs and metrics.
func New(queue string, consumer Consumer, producer Producer, decoder Decoder, processor Processor) *Ingestor {
	return &Ingestor{
		consumer:  consumer,
		producer:  producer,
		decoder:   decoder,
		processor: processor,
		queue:     queue,
		log:       slog.Default().With("component", "ingestor", "queue", queue),
	}
}

// Run consumes until the consumer reports io.EOF or ctx ends. The context
// is only checked between messages, so a message that was decoded is
// always committed before Run returns.
func (i *Ingestor) Run(ctx context.Context) error {
	i.log.Info("Ingestor started")
	defer i.log.Info("Ingestor stopped")

	for {
		if ctx.Err() != nil {
			return nil
		}

		msg, err := i.consumer.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			i.log.Error("Failed to receive message", "error", err)
			continue
		}

		i.handle(ctx, msg)
	}
}

func (i *Ingestor) handle(ctx context.Context, msg *domain.Message) {
	metrics.MessagesConsumed.WithLabelValues(i.queue).Inc()
	log := i.log.With("id", msg.ID)

	// Empty payloads are neither committed nor dead-lettered.
	if len(msg.Payload) == 0 {
		log.Warn("Received empty message payload")
		return
	}

	// Shutdown is only observed between messages; the process, dead-letter
	// and commit steps of an accepted message run to completion.
	bg := context.WithoutCancel(ctx)

	payload, err := i.decoder.Decode(msg.Payload)
	if err != nil {
		metrics.DecodeFailures.WithLabelValues(i.queue).Inc()
		log.Error("Failed to decode message", "error", err)
		i.deadLetter(bg, msg.Payload, err)
		return
	}

	if err := i.processor.ProcessDecoded(bg, payload); err != nil {
		metrics.ProcessFailures.WithLabelValues(i.queue).Inc()
		log.Error("Failed to process message", "error", err)
		i.deadLetter(bg, msg.Payload, err)
	}

	if err := i.consumer.Commit(bg, msg); err != nil {
		metrics.Commits.WithLabelValues(i.queue, "failed").Inc()
		log.Error("Failed to commit message", "error", err)
		return
	}
	metrics.Commits.WithLabelValues(i.queue, "ok").Inc()
}

func (i *Ingestor) deadLetter(ctx context.Context, payload []byte, cause error) {
	record, err := json.Marshal(domain.NewDeadLetter(payload, cause))
	if err != nil {
		metrics.DeadLetters.WithLabelValues(i.queue, "failed").Inc()
		i.log.Error("Failed to encode dead letter", "error", err)
		return
	}
	if err := i.producer.Produce(ctx, record, nil); err != nil {
		metrics.DeadLetters.WithLabelValues(i.queue, "failed").Inc()
		i.log.Error("Failed to publish dead letter", "error", err)
		return
	}
	metrics.DeadLetters.WithLabelValues(i.queue, "ok").Inc()
}

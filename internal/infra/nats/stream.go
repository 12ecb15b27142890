package nats

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/vietddude/ingestor/internal/core/domain"
)

const keyHeader = "key"

// StreamConfig configures a durable JetStream consumer.
type StreamConfig struct {
	Stream        string `yaml:"stream"`
	Subject       string `yaml:"subject"`
	Durable       string `yaml:"durable"`
	MaxAckPending int    `yaml:"max_ack_pending"`
}

// StreamConsumer reads messages from a durable JetStream consumer with
// explicit acks. Messages stay unacknowledged until Commit.
type StreamConsumer struct {
	iter jetstream.MessagesContext

	mu      sync.Mutex
	pending map[string]jetstream.Msg
}

// NewStreamConsumer creates or updates the durable consumer and starts
// pulling messages.
func NewStreamConsumer(ctx context.Context, client *Client, cfg StreamConfig) (*StreamConsumer, error) {
	consumer, err := client.js.CreateOrUpdateConsumer(ctx, cfg.Stream, jetstream.ConsumerConfig{
		Durable:       cfg.Durable,
		FilterSubject: cfg.Subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverAllPolicy,
		MaxAckPending: cfg.MaxAckPending,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer %s on %s: %w", cfg.Durable, cfg.Stream, err)
	}

	iter, err := consumer.Messages()
	if err != nil {
		return nil, fmt.Errorf("failed to start message iterator: %w", err)
	}

	return &StreamConsumer{
		iter:    iter,
		pending: make(map[string]jetstream.Msg),
	}, nil
}

// Next blocks for the next message. Once ctx ends or the consumer is
// closed the iterator stops and Next returns io.EOF.
func (c *StreamConsumer) Next(ctx context.Context) (*domain.Message, error) {
	stop := context.AfterFunc(ctx, c.iter.Stop)
	defer stop()

	m, err := c.iter.Next()
	if errors.Is(err, jetstream.ErrMsgIteratorClosed) {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch message: %w", err)
	}

	msg := toMessage(m)
	c.mu.Lock()
	c.pending[msg.ID] = m
	c.mu.Unlock()
	return &msg, nil
}

func toMessage(m jetstream.Msg) domain.Message {
	msg := domain.Message{Payload: m.Data()}
	if key := m.Headers().Get(keyHeader); key != "" {
		msg.Key = []byte(key)
	}
	if meta, err := m.Metadata(); err == nil {
		msg.ID = strconv.FormatUint(meta.Sequence.Stream, 10)
		msg.Timestamp = meta.Timestamp
	}
	return msg
}

// Commit acknowledges the message.
func (c *StreamConsumer) Commit(ctx context.Context, msg *domain.Message) error {
	c.mu.Lock()
	m, ok := c.pending[msg.ID]
	delete(c.pending, msg.ID)
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown message %q", msg.ID)
	}
	if err := m.DoubleAck(ctx); err != nil {
		return fmt.Errorf("failed to ack message %s: %w", msg.ID, err)
	}
	return nil
}

// Close stops the iterator. Pending messages are redelivered after the
// ack wait expires.
func (c *StreamConsumer) Close() error {
	c.iter.Stop()
	return nil
}

// StreamProducer publishes to a JetStream subject.
type StreamProducer struct {
	js      jetstream.JetStream
	subject string
}

// NewStreamProducer creates a producer publishing to subject.
func NewStreamProducer(client *Client, subject string) *StreamProducer {
	return &StreamProducer{js: client.js, subject: subject}
}

// Produce publishes payload and waits for the stream ack. A non-nil key is
// carried in the "key" header.
func (p *StreamProducer) Produce(ctx context.Context, payload, key []byte) error {
	if _, err := p.js.PublishMsg(ctx, newMsg(p.subject, payload, key)); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", p.subject, err)
	}
	return nil
}

func newMsg(subject string, payload, key []byte) *nats.Msg {
	msg := nats.NewMsg(subject)
	msg.Data = payload
	if key != nil {
		msg.Header.Set(keyHeader, string(key))
	}
	return msg
}

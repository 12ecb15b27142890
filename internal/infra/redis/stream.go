package redis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vietddude/ingestor/internal/core/domain"
)

const (
	payloadField = "payload"
	keyField     = "key"
)

// StreamConfig configures a consumer group reader on a Redis stream.
type StreamConfig struct {
	Stream       string        `yaml:"stream"`
	Group        string        `yaml:"group"`
	Consumer     string        `yaml:"consumer"`
	BatchSize    int64         `yaml:"batch_size"`
	BlockTimeout time.Duration `yaml:"block_timeout"`
}

// StreamConsumer reads messages from a Redis stream through a consumer
// group. A message stays pending until Commit acknowledges it.
type StreamConsumer struct {
	rdb    *redis.Client
	cfg    StreamConfig
	log    *slog.Logger
	buffer []domain.Message

	mu     sync.Mutex
	closed bool
}

// NewStreamConsumer creates the consumer group if needed and returns a
// consumer bound to it.
func NewStreamConsumer(ctx context.Context, client *Client, cfg StreamConfig) (*StreamConsumer, error) {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 16
	}
	if cfg.BlockTimeout <= 0 {
		cfg.BlockTimeout = 5 * time.Second
	}

	err := client.rdb.XGroupCreateMkStream(ctx, cfg.Stream, cfg.Group, "0").Err()
	if err != nil && !isBusyGroup(err) {
		return nil, fmt.Errorf("failed to create consumer group %s on %s: %w", cfg.Group, cfg.Stream, err)
	}

	return &StreamConsumer{
		rdb: client.rdb,
		cfg: cfg,
		log: slog.Default().With("component", "redis_consumer", "stream", cfg.Stream),
	}, nil
}

func isBusyGroup(err error) bool {
	return strings.HasPrefix(err.Error(), "BUSYGROUP")
}

// Next returns the next message. It blocks until a message arrives, the
// context ends or the consumer is closed, in which case it returns io.EOF.
func (c *StreamConsumer) Next(ctx context.Context) (*domain.Message, error) {
	for {
		if c.isClosed() {
			return nil, io.EOF
		}
		if len(c.buffer) > 0 {
			msg := c.buffer[0]
			c.buffer = c.buffer[1:]
			return &msg, nil
		}

		streams, err := c.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.cfg.Group,
			Consumer: c.cfg.Consumer,
			Streams:  []string{c.cfg.Stream, ">"},
			Count:    c.cfg.BatchSize,
			Block:    c.cfg.BlockTimeout,
		}).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if c.isClosed() {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("xreadgroup failed: %w", err)
		}

		for _, stream := range streams {
			for _, xm := range stream.Messages {
				c.buffer = append(c.buffer, messageFromStream(xm))
			}
		}
	}
}

// Commit acknowledges the message in the consumer group.
func (c *StreamConsumer) Commit(ctx context.Context, msg *domain.Message) error {
	if err := c.rdb.XAck(ctx, c.cfg.Stream, c.cfg.Group, msg.ID).Err(); err != nil {
		return fmt.Errorf("xack %s failed: %w", msg.ID, err)
	}
	return nil
}

// Close stops the consumer. Subsequent Next calls return io.EOF.
func (c *StreamConsumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *StreamConsumer) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// messageFromStream converts a stream entry into a queue message. Entry
// IDs are "<unix ms>-<seq>", so the timestamp comes from the ID.
func messageFromStream(xm redis.XMessage) domain.Message {
	msg := domain.Message{
		ID:      xm.ID,
		Payload: fieldBytes(xm.Values[payloadField]),
	}
	if key, ok := xm.Values[keyField]; ok {
		msg.Key = fieldBytes(key)
	}
	if ms, _, ok := strings.Cut(xm.ID, "-"); ok {
		if v, err := strconv.ParseInt(ms, 10, 64); err == nil {
			msg.Timestamp = time.UnixMilli(v)
		}
	}
	return msg
}

func fieldBytes(v any) []byte {
	switch t := v.(type) {
	case string:
		return []byte(t)
	case []byte:
		return t
	default:
		return nil
	}
}

// StreamProducer appends records to a Redis stream.
type StreamProducer struct {
	rdb    *redis.Client
	stream string
}

// NewStreamProducer creates a producer writing to stream.
func NewStreamProducer(client *Client, stream string) *StreamProducer {
	return &StreamProducer{rdb: client.rdb, stream: stream}
}

// Produce appends payload to the stream. The key field is only written
// when key is non-nil.
func (p *StreamProducer) Produce(ctx context.Context, payload, key []byte) error {
	err := p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: streamValues(payload, key),
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd to %s failed: %w", p.stream, err)
	}
	return nil
}

func streamValues(payload, key []byte) map[string]any {
	values := map[string]any{payloadField: payload}
	if key != nil {
		values[keyField] = key
	}
	return values
}

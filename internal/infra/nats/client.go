package nats

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Config holds NATS connection configuration.
type Config struct {
	URL            string        `yaml:"url"`
	Name           string        `yaml:"name"`
	Token          string        `yaml:"token"`
	MaxReconnects  int           `yaml:"max_reconnects"`
	ReconnectWait  time.Duration `yaml:"reconnect_wait"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// Client owns a NATS connection and its JetStream context.
type Client struct {
	conn *nats.Conn
	js   jetstream.JetStream
}

// Connect dials NATS, retrying with exponential backoff until
// ConnectTimeout elapses or ctx ends.
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	log := slog.Default().With("component", "nats")

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = cfg.ConnectTimeout

	var conn *nats.Conn
	err := backoff.RetryNotify(func() error {
		c, err := nats.Connect(cfg.URL, connectionOptions(cfg, log)...)
		if err != nil {
			return err
		}
		conn = c
		return nil
	}, backoff.WithContext(b, ctx), func(err error, wait time.Duration) {
		log.Warn("Failed to connect to NATS, retrying", "url", cfg.URL, "wait", wait, "error", err)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create jetstream context: %w", err)
	}

	return &Client{conn: conn, js: js}, nil
}

func connectionOptions(cfg Config, log *slog.Logger) []nats.Option {
	opts := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("NATS reconnected", "url", c.ConnectedUrl())
		}),
	}
	if cfg.Name != "" {
		opts = append(opts, nats.Name(cfg.Name))
	}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}
	return opts
}

// Health reports an error when the connection is not established.
func (c *Client) Health(_ context.Context) error {
	if !c.conn.IsConnected() {
		return fmt.Errorf("nats connection status: %s", c.conn.Status())
	}
	return nil
}

// Close drains and closes the connection.
func (c *Client) Close() error {
	return c.conn.Drain()
}

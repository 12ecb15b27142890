package config

import (
	"time"

	"github.com/vietddude/ingestor/internal/infra/filestore"
	natsclient "github.com/vietddude/ingestor/internal/infra/nats"
	redisclient "github.com/vietddude/ingestor/internal/infra/redis"
	"github.com/vietddude/ingestor/internal/infra/storage"
	"github.com/vietddude/ingestor/internal/infra/storage/postgres"
)

// Queue backends.
const (
	QueueRedis = "redis"
	QueueNATS  = "nats"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server    ServerConfig           `yaml:"server"`
	Logging   LoggingConfig          `yaml:"logging"`
	Queue     QueueConfig            `yaml:"queue"`
	Redis     redisclient.Config     `yaml:"redis"`
	NATS      natsclient.Config      `yaml:"nats"`
	Database  postgres.Config        `yaml:"database"`
	Uploader  storage.UploaderConfig `yaml:"uploader"`
	Convert   ConvertConfig          `yaml:"convert"`
	Cache     CacheConfig            `yaml:"cache"`
	Files     filestore.Config       `yaml:"files"`
	Retention RetentionConfig        `yaml:"retention"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port" validate:"gte=0,lte=65535"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
}

// QueueConfig selects the input queue and the dead-letter target.
type QueueConfig struct {
	Type       string                   `yaml:"type"        validate:"oneof=redis nats"`
	DeadLetter string                   `yaml:"dead_letter" validate:"required"` // stream (redis) or subject (nats)
	Redis      redisclient.StreamConfig `yaml:"redis"`
	NATS       natsclient.StreamConfig  `yaml:"nats"`
}

// ConvertConfig holds block conversion settings.
type ConvertConfig struct {
	AddEmptyTxMetadataIfMissing bool `yaml:"add_empty_tx_metadata_if_missing"`
}

// CacheConfig controls the full transaction cache.
type CacheConfig struct {
	EnableFullTxCache bool          `yaml:"enable_full_tx_cache"`
	TxCacheExpiration time.Duration `yaml:"tx_cache_expiration"`
}

// RetentionConfig holds the pruning window.
type RetentionConfig struct {
	KeepSlots uint64        `yaml:"keep_slots"` // 0 = keep everything
	Interval  time.Duration `yaml:"interval"`
}

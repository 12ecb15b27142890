package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"

	"github.com/vietddude/ingestor/internal/infra/filestore"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	setDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Queue.Type == "" {
		cfg.Queue.Type = QueueRedis
	}
	if cfg.Queue.Redis.Consumer == "" {
		host, _ := os.Hostname()
		cfg.Queue.Redis.Consumer = host
	}
	if cfg.Queue.Redis.BlockTimeout == 0 {
		cfg.Queue.Redis.BlockTimeout = 5 * time.Second
	}
	if cfg.NATS.ConnectTimeout == 0 {
		cfg.NATS.ConnectTimeout = 30 * time.Second
	}
	if cfg.NATS.ReconnectWait == 0 {
		cfg.NATS.ReconnectWait = 2 * time.Second
	}
	if cfg.NATS.MaxReconnects == 0 {
		cfg.NATS.MaxReconnects = -1
	}
	if cfg.Cache.TxCacheExpiration == 0 {
		cfg.Cache.TxCacheExpiration = 24 * time.Hour
	}
	if cfg.Files.HDFSNamenode == "" {
		cfg.Files.HDFSNamenode = filestore.DefaultHDFSNamenode
	}
	if cfg.Retention.Interval == 0 {
		cfg.Retention.Interval = 10 * time.Minute
	}
}

// Validate checks the configuration.
func Validate(cfg *AppConfig) error {
	v := validator.New()
	v.RegisterStructValidation(queueValidator, QueueConfig{})
	return v.Struct(cfg)
}

func queueValidator(sl validator.StructLevel) {
	q, ok := sl.Current().Interface().(QueueConfig)
	if !ok {
		return
	}

	switch q.Type {
	case QueueRedis:
		if q.Redis.Stream == "" {
			sl.ReportError(q.Redis.Stream, "redis.stream", "Stream", "required", "")
		}
		if q.Redis.Group == "" {
			sl.ReportError(q.Redis.Group, "redis.group", "Group", "required", "")
		}
	case QueueNATS:
		if q.NATS.Stream == "" {
			sl.ReportError(q.NATS.Stream, "nats.stream", "Stream", "required", "")
		}
		if q.NATS.Durable == "" {
			sl.ReportError(q.NATS.Durable, "nats.durable", "Durable", "required", "")
		}
	}
}

package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TxCache stores encoded transactions under tx:<signature> with a TTL.
type TxCache struct {
	rdb        *redis.Client
	expiration time.Duration
}

// NewTxCache creates a transaction cache. A zero expiration keeps entries
// forever.
func NewTxCache(client *Client, expiration time.Duration) *TxCache {
	return &TxCache{rdb: client.rdb, expiration: expiration}
}

func txKey(signature string) string {
	return fmt.Sprintf("tx:%s", signature)
}

// Put stores data for signature.
func (c *TxCache) Put(ctx context.Context, signature string, data []byte) error {
	if err := c.rdb.Set(ctx, txKey(signature), data, c.expiration).Err(); err != nil {
		return fmt.Errorf("failed to cache tx %s: %w", signature, err)
	}
	return nil
}

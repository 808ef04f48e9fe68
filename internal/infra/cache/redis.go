package cache

import (
	"context"
	"fmt"

	"app/internal/config"

	"github.com/redis/go-redis/v9"
)

// NewClient はRedisクライアントを生成して疎通確認する。
// グローバル変数には置かず、main.goで生成して使う側に注入する。
// Closeは呼び出し側の責任。
func NewClient(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort),
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return rdb, nil
}

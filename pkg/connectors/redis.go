// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package connectors

import (
	"context"
	"fmt"

	"github.com/rapidaai/voicestudio/pkg/commons"
	"github.com/rapidaai/voicestudio/pkg/configs"
	"github.com/redis/go-redis/v9"
)

// RedisConnector hands out the shared cache client.
type RedisConnector interface {
	Client() *redis.Client
	Close() error
}

type redisConnector struct {
	client *redis.Client
	logger commons.Logger
}

// NewRedisConnector connects and pings the cache described by cfg.
func NewRedisConnector(ctx context.Context, cfg configs.RedisConfig, logger commons.Logger) (RedisConnector, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.Db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect redis at %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	logger.Infof("redis connected: host=%s db=%d", cfg.Host, cfg.Db)
	return &redisConnector{client: client, logger: logger}, nil
}

func (c *redisConnector) Client() *redis.Client {
	return c.client
}

func (c *redisConnector) Close() error {
	return c.client.Close()
}

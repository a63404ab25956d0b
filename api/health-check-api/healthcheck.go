// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package health_check_api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rapidaai/voicestudio/config"
	"github.com/rapidaai/voicestudio/pkg/commons"
	"github.com/rapidaai/voicestudio/pkg/connectors"
)

type healthCheckApi struct {
	cfg      *config.AppConfig
	logger   commons.Logger
	postgres connectors.PostgresConnector
	redis    connectors.RedisConnector
}

func New(cfg *config.AppConfig, logger commons.Logger,
	postgres connectors.PostgresConnector,
	redis connectors.RedisConnector,
) *healthCheckApi {
	return &healthCheckApi{
		cfg:      cfg,
		logger:   logger,
		postgres: postgres,
		redis:    redis,
	}
}

// Healthz reports process liveness.
func (hApi *healthCheckApi) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": hApi.cfg.Name,
		"version": hApi.cfg.Version,
	})
}

// Readiness verifies the backing stores are reachable.
func (hApi *healthCheckApi) Readiness(c *gin.Context) {
	ctx := c.Request.Context()

	sqlDB, err := hApi.postgres.DB(ctx).DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		hApi.logger.Errorf("readiness: postgres unreachable: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "postgres": "down"})
		return
	}
	if err := hApi.redis.Client().Ping(ctx).Err(); err != nil {
		hApi.logger.Errorf("readiness: redis unreachable: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "redis": "down"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

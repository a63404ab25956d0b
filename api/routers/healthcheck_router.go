package voice_routers

import (
	"github.com/gin-gonic/gin"
	healthCheckApi "github.com/rapidaai/voicestudio/api/health-check-api"
	"github.com/rapidaai/voicestudio/config"
	"github.com/rapidaai/voicestudio/pkg/commons"
	"github.com/rapidaai/voicestudio/pkg/connectors"
)

func HealthCheckRoutes(cfg *config.AppConfig, engine *gin.Engine, logger commons.Logger,
	postgres connectors.PostgresConnector,
	redis connectors.RedisConnector,
) {
	logger.Info("Internal HealthCheckRoutes and Connectors added to engine.")
	apiv1 := engine.Group("")
	hcApi := healthCheckApi.New(cfg, logger, postgres, redis)
	{
		apiv1.GET("/readiness/", hcApi.Readiness)
		apiv1.GET("/healthz/", hcApi.Healthz)
	}
}

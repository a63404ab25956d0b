package voice_routers

import (
	"context"

	"github.com/gin-gonic/gin"
	voiceApi "github.com/rapidaai/voicestudio/api/voice-api"
	"github.com/rapidaai/voicestudio/config"
	"github.com/rapidaai/voicestudio/pkg/commons"
	"github.com/rapidaai/voicestudio/pkg/connectors"
)

func VoiceApiRoutes(cfg *config.AppConfig, engine *gin.Engine, logger commons.Logger,
	postgres connectors.PostgresConnector,
	redis connectors.RedisConnector,
) error {
	logger.Info("Internal VoiceApiRoutes added to engine.")
	vApi, err := voiceApi.New(cfg, logger, postgres, redis)
	if err != nil {
		return err
	}
	if err := vApi.Migrate(context.Background()); err != nil {
		return err
	}

	apiv1 := engine.Group("/v1")
	{
		apiv1.POST("/voices/", vApi.CreateVoice)
		apiv1.GET("/voices/", vApi.ListVoices)
		apiv1.GET("/voices/:voiceId/", vApi.GetVoice)
		apiv1.PATCH("/voices/:voiceId/", vApi.UpdateVoice)
		apiv1.DELETE("/voices/:voiceId/", vApi.DeleteVoice)
		apiv1.POST("/voices/:voiceId/save/", vApi.ToggleSaveVoice)
		apiv1.GET("/saved-voices/", vApi.ListSavedVoices)

		apiv1.POST("/sessions/", vApi.CreateSession)
		apiv1.GET("/sessions/", vApi.ListSessions)
		apiv1.GET("/sessions/:sessionId/", vApi.GetSession)
		apiv1.DELETE("/sessions/:sessionId/", vApi.DeleteSession)
		apiv1.POST("/sessions/:sessionId/clips/", vApi.GenerateClip)
	}
	return nil
}

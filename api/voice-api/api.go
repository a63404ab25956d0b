// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package voice_api

import (
	"context"
	"fmt"

	internal_entity "github.com/rapidaai/voicestudio/api/voice-api/internal/entity"
	internal_store "github.com/rapidaai/voicestudio/api/voice-api/internal/store"
	"github.com/rapidaai/voicestudio/config"
	internal_assets "github.com/rapidaai/voicestudio/internal/assets"
	synthesis_client "github.com/rapidaai/voicestudio/pkg/clients/synthesis"
	"github.com/rapidaai/voicestudio/pkg/commons"
	"github.com/rapidaai/voicestudio/pkg/connectors"
)

const (
	defaultPageSize = 20
	maxPageSize     = 50
)

// VoiceApi carries the HTTP handlers for the voice library and speak
// sessions. One instance serves all routes.
type VoiceApi struct {
	cfg        *config.AppConfig
	logger     commons.Logger
	postgres   connectors.PostgresConnector
	redis      connectors.RedisConnector
	voiceStore internal_store.VoiceStore
	sessions   internal_store.SessionStore
	assets     internal_assets.Store
	synthesis  synthesis_client.Client
}

func New(cfg *config.AppConfig, logger commons.Logger,
	postgres connectors.PostgresConnector,
	redis connectors.RedisConnector,
) (*VoiceApi, error) {
	assets, err := internal_assets.NewS3Store(cfg.AssetStoreConfig, redis, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize asset store: %w", err)
	}
	return &VoiceApi{
		cfg:        cfg,
		logger:     logger,
		postgres:   postgres,
		redis:      redis,
		voiceStore: internal_store.NewVoiceStore(postgres, logger),
		sessions:   internal_store.NewSessionStore(postgres, logger),
		assets:     assets,
		synthesis:  synthesis_client.NewClient(cfg.SynthesisConfig, logger),
	}, nil
}

// Migrate reconciles the backing tables.
func (vApi *VoiceApi) Migrate(ctx context.Context) error {
	return vApi.postgres.DB(ctx).AutoMigrate(
		&internal_entity.Voice{},
		&internal_entity.SavedVoice{},
		&internal_entity.SpeakSession{},
		&internal_entity.SpeakClip{},
	)
}

// signVoice resolves the playable URL on a voice row for responses.
func (vApi *VoiceApi) signVoice(ctx context.Context, voice *internal_entity.Voice) {
	if voice == nil || voice.AudioPath == "" {
		return
	}
	url, err := vApi.assets.SignedURL(ctx, voice.AudioPath)
	if err != nil {
		vApi.logger.Warnf("failed to sign voice audio %d: %v", voice.Id, err)
		return
	}
	voice.AudioUrl = url
}

// signClip resolves the playable URL on a completed clip for responses.
func (vApi *VoiceApi) signClip(ctx context.Context, clip *internal_entity.SpeakClip) {
	if clip == nil || clip.Status != internal_entity.ClipStatusCompleted || clip.AudioPath == "" {
		return
	}
	url, err := vApi.assets.SignedURL(ctx, clip.AudioPath)
	if err != nil {
		vApi.logger.Warnf("failed to sign clip audio %d: %v", clip.Id, err)
		return
	}
	clip.AudioUrl = url
}

func pageSize(requested int) int {
	if requested <= 0 {
		return defaultPageSize
	}
	if requested > maxPageSize {
		return maxPageSize
	}
	return requested
}

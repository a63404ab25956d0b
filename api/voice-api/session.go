// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package voice_api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	internal_entity "github.com/rapidaai/voicestudio/api/voice-api/internal/entity"
	synthesis_client "github.com/rapidaai/voicestudio/pkg/clients/synthesis"
	"github.com/rapidaai/voicestudio/pkg/types"
	"github.com/rapidaai/voicestudio/pkg/utils"
)

const maxClipTextLength = 2000

type createSessionRequest struct {
	Title   string `json:"title"`
	VoiceId uint64 `json:"voiceId" binding:"required"`
}

// CreateSession opens a new speak session against a voice the caller can see.
func (vApi *VoiceApi) CreateSession(c *gin.Context) {
	auth, isAuthenticated := types.GetAuthPrinciple(c)
	if !isAuthenticated {
		utils.Error(c, http.StatusUnauthorized, "Unauthenticated request")
		return
	}
	var request createSessionRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	voice, err := vApi.voiceStore.Get(c.Request.Context(), request.VoiceId)
	if err != nil {
		utils.Error(c, http.StatusNotFound, "Voice not found")
		return
	}
	if voice.Visibility != internal_entity.VisibilityPublic && voice.OwnerId != auth.UserId {
		utils.Error(c, http.StatusNotFound, "Voice not found")
		return
	}

	title := strings.TrimSpace(request.Title)
	if title == "" {
		title = "Session with " + voice.Name
	}
	session := &internal_entity.SpeakSession{
		Title:   title,
		OwnerId: auth.UserId,
		VoiceId: voice.Id,
	}
	if _, err := vApi.sessions.Save(c.Request.Context(), session); err != nil {
		vApi.logger.Errorf("failed to create speak session: %v", err)
		utils.Error(c, http.StatusInternalServerError, "Unable to create session")
		return
	}
	utils.Created(c, session)
}

// ListSessions pages through the caller's sessions, newest first.
func (vApi *VoiceApi) ListSessions(c *gin.Context) {
	auth, isAuthenticated := types.GetAuthPrinciple(c)
	if !isAuthenticated {
		utils.Error(c, http.StatusUnauthorized, "Unauthenticated request")
		return
	}
	cursor, err := utils.DecodeCursor(c.Query("cursor"))
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "Malformed cursor")
		return
	}
	limit := pageSize(queryInt(c, "limit"))

	sessions, err := vApi.sessions.List(c.Request.Context(), auth.UserId, cursor, limit)
	if err != nil {
		vApi.logger.Errorf("failed to list speak sessions: %v", err)
		utils.Error(c, http.StatusInternalServerError, "Unable to list sessions")
		return
	}

	nextCursor := ""
	if len(sessions) == limit && limit > 0 {
		last := sessions[len(sessions)-1]
		nextCursor = utils.EncodeCursor(last.CreatedDate, last.Id)
	}
	utils.PaginatedSuccess(c, sessions, nextCursor)
}

// GetSession returns one owned session with its clips and their playable
// URLs, oldest clip first.
func (vApi *VoiceApi) GetSession(c *gin.Context) {
	auth, isAuthenticated := types.GetAuthPrinciple(c)
	if !isAuthenticated {
		utils.Error(c, http.StatusUnauthorized, "Unauthenticated request")
		return
	}

	session, err := vApi.sessions.Get(c.Request.Context(), c.Param("sessionId"))
	if err != nil || session.OwnerId != auth.UserId {
		utils.Error(c, http.StatusNotFound, "Session not found")
		return
	}
	for _, clip := range session.Clips {
		vApi.signClip(c.Request.Context(), clip)
	}
	utils.Success(c, session)
}

// DeleteSession removes an owned session and its clips.
func (vApi *VoiceApi) DeleteSession(c *gin.Context) {
	auth, isAuthenticated := types.GetAuthPrinciple(c)
	if !isAuthenticated {
		utils.Error(c, http.StatusUnauthorized, "Unauthenticated request")
		return
	}

	if err := vApi.sessions.Delete(c.Request.Context(), c.Param("sessionId"), auth.UserId); err != nil {
		utils.Error(c, http.StatusNotFound, "Session not found")
		return
	}
	utils.Success(c, gin.H{"deleted": true})
}

type generateClipRequest struct {
	Text    string `json:"text" binding:"required"`
	Emotion string `json:"emotion"`
}

// GenerateClip synthesizes a new clip into a session: a pending row is
// written first, then synthesis and upload run, then the row flips to
// completed or failed. A crash mid-generation leaves the pending row behind
// for inspection instead of losing the request.
func (vApi *VoiceApi) GenerateClip(c *gin.Context) {
	auth, isAuthenticated := types.GetAuthPrinciple(c)
	if !isAuthenticated {
		utils.Error(c, http.StatusUnauthorized, "Unauthenticated request")
		return
	}
	var request generateClipRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.Error(c, http.StatusBadRequest, "Clip text is required")
		return
	}
	text := strings.TrimSpace(request.Text)
	if text == "" || len(text) > maxClipTextLength {
		utils.Error(c, http.StatusBadRequest, "Clip text must be between 1 and 2000 characters")
		return
	}
	emotion := strings.TrimSpace(request.Emotion)
	if emotion == "" {
		emotion = "neutral"
	}

	ctx := c.Request.Context()
	session, err := vApi.sessions.Get(ctx, c.Param("sessionId"))
	if err != nil || session.OwnerId != auth.UserId {
		utils.Error(c, http.StatusNotFound, "Session not found")
		return
	}
	voice, err := vApi.voiceStore.Get(ctx, session.VoiceId)
	if err != nil {
		utils.Error(c, http.StatusNotFound, "Session voice no longer exists")
		return
	}
	voiceUrl, err := vApi.assets.SignedURL(ctx, voice.AudioPath)
	if err != nil {
		vApi.logger.Errorf("failed to sign reference voice %d: %v", voice.Id, err)
		utils.Error(c, http.StatusInternalServerError, "Unable to prepare voice reference")
		return
	}

	clip := &internal_entity.SpeakClip{
		SpeakSessionId: session.Id,
		Text:           text,
		Emotion:        emotion,
		Status:         internal_entity.ClipStatusPending,
	}
	clipId, err := vApi.sessions.AddClip(ctx, clip)
	if err != nil {
		vApi.logger.Errorf("failed to add clip: %v", err)
		utils.Error(c, http.StatusInternalServerError, "Unable to create clip")
		return
	}

	result, err := vApi.synthesis.Synthesize(ctx, &synthesis_client.SynthesizeRequest{
		Text:     text,
		Emotion:  emotion,
		VoiceUrl: voiceUrl,
	})
	if err != nil {
		vApi.failClip(c, clipId, clip, "Speech synthesis failed", err)
		return
	}

	contentType := result.ContentType
	if utils.IsEmpty(contentType) {
		contentType = "audio/mpeg"
	}
	path, err := vApi.assets.Upload(ctx, "clips", result.Audio, contentType)
	if err != nil {
		vApi.failClip(c, clipId, clip, "Unable to store generated audio", err)
		return
	}
	if err := vApi.sessions.CompleteClip(ctx, clipId, path, result.DurationSeconds); err != nil {
		vApi.logger.Errorf("failed to complete clip %d: %v", clipId, err)
		utils.Error(c, http.StatusInternalServerError, "Unable to finish clip")
		return
	}

	clip.AudioPath = path
	clip.DurationSeconds = result.DurationSeconds
	clip.Status = internal_entity.ClipStatusCompleted
	vApi.signClip(ctx, clip)
	utils.Created(c, clip)
}

// failClip flips the pending row to failed and reports the failure without
// leaking the underlying error.
func (vApi *VoiceApi) failClip(c *gin.Context, clipId uint64, clip *internal_entity.SpeakClip, message string, cause error) {
	vApi.logger.Errorf("clip generation failed for %d: %v", clipId, cause)
	if err := vApi.sessions.FailClip(c.Request.Context(), clipId); err != nil {
		vApi.logger.Errorf("failed to mark clip %d failed: %v", clipId, err)
	}
	clip.Status = internal_entity.ClipStatusFailed
	utils.Error(c, http.StatusBadGateway, message)
}

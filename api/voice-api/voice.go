// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package voice_api

import (
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	internal_entity "github.com/rapidaai/voicestudio/api/voice-api/internal/entity"
	internal_store "github.com/rapidaai/voicestudio/api/voice-api/internal/store"
	"github.com/rapidaai/voicestudio/pkg/types"
	"github.com/rapidaai/voicestudio/pkg/utils"
	"gorm.io/gorm"
)

// 25 MiB is generous for a reference sample; anything bigger is a mistake.
const maxVoiceUploadBytes = 25 << 20

// CreateVoice stores a new reference voice sample.
//
// Multipart form: `audio` (the clip, wav/mp3/webm), `name`, optional
// `description`, `language`, `visibility` and `durationSeconds` (the
// client-measured duration of a just-finished recording, authoritative when
// present).
func (vApi *VoiceApi) CreateVoice(c *gin.Context) {
	auth, isAuthenticated := types.GetAuthPrinciple(c)
	if !isAuthenticated {
		utils.Error(c, http.StatusUnauthorized, "Unauthenticated request")
		return
	}

	name := c.PostForm("name")
	if utils.IsEmpty(name) {
		utils.Error(c, http.StatusBadRequest, "Voice name is required")
		return
	}
	visibility := c.DefaultPostForm("visibility", internal_entity.VisibilityPrivate)
	if visibility != internal_entity.VisibilityPublic && visibility != internal_entity.VisibilityPrivate {
		utils.Error(c, http.StatusBadRequest, "Visibility must be public or private")
		return
	}

	duration := 0.0
	if raw := c.PostForm("durationSeconds"); !utils.IsEmpty(raw) {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
			utils.Error(c, http.StatusBadRequest, "Invalid durationSeconds")
			return
		}
		duration = parsed
	}

	fileHeader, err := c.FormFile("audio")
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "Audio file is required")
		return
	}
	if fileHeader.Size > maxVoiceUploadBytes {
		utils.Error(c, http.StatusRequestEntityTooLarge, "Audio file is too large")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		vApi.logger.Errorf("failed to open uploaded voice: %v", err)
		utils.Error(c, http.StatusBadRequest, "Unable to read audio file")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		vApi.logger.Errorf("failed to read uploaded voice: %v", err)
		utils.Error(c, http.StatusBadRequest, "Unable to read audio file")
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if utils.IsEmpty(contentType) {
		contentType = "audio/wav"
	}
	path, err := vApi.assets.Upload(c.Request.Context(), "voices", data, contentType)
	if err != nil {
		vApi.logger.Errorf("failed to upload voice audio: %v", err)
		utils.Error(c, http.StatusInternalServerError, "Unable to store audio")
		return
	}

	voice := &internal_entity.Voice{
		Name:            name,
		Description:     c.PostForm("description"),
		Language:        c.PostForm("language"),
		AudioPath:       path,
		DurationSeconds: duration,
		Visibility:      visibility,
		OwnerId:         auth.UserId,
	}
	if _, err := vApi.voiceStore.Save(c.Request.Context(), voice); err != nil {
		vApi.logger.Errorf("failed to save voice: %v", err)
		utils.Error(c, http.StatusInternalServerError, "Unable to save voice")
		return
	}

	vApi.signVoice(c.Request.Context(), voice)
	utils.Created(c, voice)
}

// GetVoice returns one voice with its playable URL. Private voices are only
// visible to their owner.
func (vApi *VoiceApi) GetVoice(c *gin.Context) {
	auth, isAuthenticated := types.GetAuthPrinciple(c)
	if !isAuthenticated {
		utils.Error(c, http.StatusUnauthorized, "Unauthenticated request")
		return
	}
	voiceId, err := strconv.ParseUint(c.Param("voiceId"), 10, 64)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid voice id")
		return
	}

	voice, err := vApi.voiceStore.Get(c.Request.Context(), voiceId)
	if err != nil {
		utils.Error(c, http.StatusNotFound, "Voice not found")
		return
	}
	if voice.Visibility != internal_entity.VisibilityPublic && voice.OwnerId != auth.UserId {
		utils.Error(c, http.StatusNotFound, "Voice not found")
		return
	}

	vApi.signVoice(c.Request.Context(), voice)
	utils.Success(c, voice)
}

// ListVoices pages through the library, newest first. Query params: `query`
// (name substring), `language`, `owner=me`, `cursor`, `limit`.
func (vApi *VoiceApi) ListVoices(c *gin.Context) {
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

	filter := internal_store.VoiceFilter{
		Query:    c.Query("query"),
		Language: c.Query("language"),
		ViewerId: auth.UserId,
	}
	if c.Query("owner") == "me" {
		filter.OwnerId = utils.Ptr(auth.UserId)
	}

	voices, err := vApi.voiceStore.List(c.Request.Context(), filter, cursor, limit)
	if err != nil {
		vApi.logger.Errorf("failed to list voices: %v", err)
		utils.Error(c, http.StatusInternalServerError, "Unable to list voices")
		return
	}
	for _, voice := range voices {
		vApi.signVoice(c.Request.Context(), voice)
	}

	utils.PaginatedSuccess(c, voices, nextCursorForVoices(voices, limit))
}

type updateVoiceRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Language    *string `json:"language"`
	Visibility  *string `json:"visibility"`
}

// UpdateVoice patches the editable fields of an owned voice.
func (vApi *VoiceApi) UpdateVoice(c *gin.Context) {
	auth, isAuthenticated := types.GetAuthPrinciple(c)
	if !isAuthenticated {
		utils.Error(c, http.StatusUnauthorized, "Unauthenticated request")
		return
	}
	voiceId, err := strconv.ParseUint(c.Param("voiceId"), 10, 64)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid voice id")
		return
	}
	var request updateVoiceRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	updates := map[string]interface{}{}
	if request.Name != nil {
		if utils.IsEmpty(*request.Name) {
			utils.Error(c, http.StatusBadRequest, "Voice name cannot be empty")
			return
		}
		updates["name"] = *request.Name
	}
	if request.Description != nil {
		updates["description"] = *request.Description
	}
	if request.Language != nil {
		updates["language"] = *request.Language
	}
	if request.Visibility != nil {
		if *request.Visibility != internal_entity.VisibilityPublic && *request.Visibility != internal_entity.VisibilityPrivate {
			utils.Error(c, http.StatusBadRequest, "Visibility must be public or private")
			return
		}
		updates["visibility"] = *request.Visibility
	}
	if len(updates) == 0 {
		utils.Error(c, http.StatusBadRequest, "Nothing to update")
		return
	}

	err = vApi.voiceStore.Update(c.Request.Context(), voiceId, auth.UserId, updates)
	if err != nil {
		vApi.writeVoiceError(c, voiceId, err)
		return
	}

	voice, err := vApi.voiceStore.Get(c.Request.Context(), voiceId)
	if err != nil {
		utils.Error(c, http.StatusNotFound, "Voice not found")
		return
	}
	vApi.signVoice(c.Request.Context(), voice)
	utils.Success(c, voice)
}

// DeleteVoice removes an owned voice.
func (vApi *VoiceApi) DeleteVoice(c *gin.Context) {
	auth, isAuthenticated := types.GetAuthPrinciple(c)
	if !isAuthenticated {
		utils.Error(c, http.StatusUnauthorized, "Unauthenticated request")
		return
	}
	voiceId, err := strconv.ParseUint(c.Param("voiceId"), 10, 64)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid voice id")
		return
	}

	if err := vApi.voiceStore.Delete(c.Request.Context(), voiceId, auth.UserId); err != nil {
		vApi.writeVoiceError(c, voiceId, err)
		return
	}
	utils.Success(c, gin.H{"deleted": true})
}

// ToggleSaveVoice saves or unsaves a community voice for the caller.
func (vApi *VoiceApi) ToggleSaveVoice(c *gin.Context) {
	auth, isAuthenticated := types.GetAuthPrinciple(c)
	if !isAuthenticated {
		utils.Error(c, http.StatusUnauthorized, "Unauthenticated request")
		return
	}
	voiceId, err := strconv.ParseUint(c.Param("voiceId"), 10, 64)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid voice id")
		return
	}

	voice, err := vApi.voiceStore.Get(c.Request.Context(), voiceId)
	if err != nil {
		utils.Error(c, http.StatusNotFound, "Voice not found")
		return
	}
	if voice.Visibility != internal_entity.VisibilityPublic && voice.OwnerId != auth.UserId {
		utils.Error(c, http.StatusNotFound, "Voice not found")
		return
	}

	saved, err := vApi.voiceStore.ToggleSaved(c.Request.Context(), auth.UserId, voiceId)
	if err != nil {
		vApi.logger.Errorf("failed to toggle saved voice %d: %v", voiceId, err)
		utils.Error(c, http.StatusInternalServerError, "Unable to update saved voices")
		return
	}
	utils.Success(c, gin.H{"saved": saved})
}

// ListSavedVoices pages through the caller's saved voices.
func (vApi *VoiceApi) ListSavedVoices(c *gin.Context) {
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

	voices, err := vApi.voiceStore.ListSaved(c.Request.Context(), auth.UserId, cursor, limit)
	if err != nil {
		vApi.logger.Errorf("failed to list saved voices: %v", err)
		utils.Error(c, http.StatusInternalServerError, "Unable to list saved voices")
		return
	}
	for _, voice := range voices {
		vApi.signVoice(c.Request.Context(), voice)
	}

	utils.PaginatedSuccess(c, voices, nextCursorForVoices(voices, limit))
}

func (vApi *VoiceApi) writeVoiceError(c *gin.Context, voiceId uint64, err error) {
	switch {
	case errors.Is(err, internal_store.ErrNotOwner):
		utils.Error(c, http.StatusForbidden, "Voice does not belong to you")
	case errors.Is(err, gorm.ErrRecordNotFound):
		utils.Error(c, http.StatusNotFound, "Voice not found")
	default:
		vApi.logger.Errorf("voice operation failed for %d: %v", voiceId, err)
		utils.Error(c, http.StatusInternalServerError, "Unable to update voice")
	}
}

// nextCursorForVoices emits the cursor only when the page was full, i.e.
// there may be more rows.
func nextCursorForVoices(voices []*internal_entity.Voice, limit int) string {
	if len(voices) < limit || len(voices) == 0 {
		return ""
	}
	last := voices[len(voices)-1]
	return utils.EncodeCursor(last.CreatedDate, last.Id)
}

func queryInt(c *gin.Context, key string) int {
	value, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return value
}

// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_store

import (
	"context"
	"fmt"
	"time"

	internal_entity "github.com/rapidaai/voicestudio/api/voice-api/internal/entity"
	"github.com/rapidaai/voicestudio/pkg/commons"
	"github.com/rapidaai/voicestudio/pkg/connectors"
	"github.com/rapidaai/voicestudio/pkg/utils"
	"gorm.io/gorm"
)

// SessionStore provides operations over speak sessions and their generated
// clips.
//
// Sessions are addressed externally by their UUID (session_id column), never
// by the bigint primary key. Clips are written in two phases: a pending row
// before synthesis starts, completed/failed after — so a crashed generation
// leaves an inspectable pending row instead of nothing.
type SessionStore interface {
	// Save stores a session with a generated sessionId (UUID). Returns the
	// generated sessionId.
	Save(ctx context.Context, session *internal_entity.SpeakSession) (string, error)

	// Get retrieves a session by sessionId with its clips, oldest clip
	// first. The caller enforces ownership.
	Get(ctx context.Context, sessionId string) (*internal_entity.SpeakSession, error)

	// List returns up to limit of the owner's sessions, newest first,
	// starting after the cursor.
	List(ctx context.Context, ownerId uint64, cursor *utils.Cursor, limit int) ([]*internal_entity.SpeakSession, error)

	// Delete removes an owned session and all of its clips.
	Delete(ctx context.Context, sessionId string, ownerId uint64) error

	// AddClip stores a pending clip under a session. Returns the clip id.
	AddClip(ctx context.Context, clip *internal_entity.SpeakClip) (uint64, error)

	// CompleteClip marks a pending clip completed with its stored audio.
	CompleteClip(ctx context.Context, clipId uint64, audioPath string, durationSeconds float64) error

	// FailClip marks a pending clip failed.
	FailClip(ctx context.Context, clipId uint64) error
}

type sessionStore struct {
	postgres connectors.PostgresConnector
	logger   commons.Logger
}

// NewSessionStore creates a session store backed by Postgres.
func NewSessionStore(postgres connectors.PostgresConnector, logger commons.Logger) SessionStore {
	return &sessionStore{
		postgres: postgres,
		logger:   logger,
	}
}

func (s *sessionStore) Save(ctx context.Context, session *internal_entity.SpeakSession) (string, error) {
	db := s.postgres.DB(ctx)
	if err := db.Create(session).Error; err != nil {
		return "", fmt.Errorf("failed to save speak session: %w", err)
	}

	s.logger.Infof("saved speak session: sessionId=%s, owner=%d, voice=%d",
		session.SessionId, session.OwnerId, session.VoiceId)
	return session.SessionId, nil
}

func (s *sessionStore) Get(ctx context.Context, sessionId string) (*internal_entity.SpeakSession, error) {
	db := s.postgres.DB(ctx)
	var session internal_entity.SpeakSession
	err := db.Preload("Clips", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_date ASC, id ASC")
	}).Where("session_id = ?", sessionId).First(&session).Error
	if err != nil {
		return nil, fmt.Errorf("speak session not found: %s: %w", sessionId, err)
	}
	return &session, nil
}

func (s *sessionStore) List(ctx context.Context, ownerId uint64, cursor *utils.Cursor, limit int) ([]*internal_entity.SpeakSession, error) {
	db := s.postgres.DB(ctx).Model(&internal_entity.SpeakSession{}).
		Where("owner_id = ?", ownerId)
	db = applyCursor(db, cursor)

	var sessions []*internal_entity.SpeakSession
	if err := db.Order("created_date DESC, id DESC").Limit(limit).Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("failed to list speak sessions for owner %d: %w", ownerId, err)
	}
	return sessions, nil
}

func (s *sessionStore) Delete(ctx context.Context, sessionId string, ownerId uint64) error {
	db := s.postgres.DB(ctx)

	var session internal_entity.SpeakSession
	if err := db.Where("session_id = ? AND owner_id = ?", sessionId, ownerId).First(&session).Error; err != nil {
		return fmt.Errorf("speak session not found: %s: %w", sessionId, err)
	}
	if err := db.Where("speak_session_id = ?", session.Id).Delete(&internal_entity.SpeakClip{}).Error; err != nil {
		return fmt.Errorf("failed to delete clips of session %s: %w", sessionId, err)
	}
	if err := db.Delete(&session).Error; err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionId, err)
	}

	s.logger.Infof("deleted speak session: sessionId=%s, owner=%d", sessionId, ownerId)
	return nil
}

func (s *sessionStore) AddClip(ctx context.Context, clip *internal_entity.SpeakClip) (uint64, error) {
	db := s.postgres.DB(ctx)
	if clip.Status == "" {
		clip.Status = internal_entity.ClipStatusPending
	}
	if err := db.Create(clip).Error; err != nil {
		return 0, fmt.Errorf("failed to add clip to session %d: %w", clip.SpeakSessionId, err)
	}

	s.logger.Debugf("added clip: id=%d, session=%d, emotion=%s", clip.Id, clip.SpeakSessionId, clip.Emotion)
	return clip.Id, nil
}

func (s *sessionStore) CompleteClip(ctx context.Context, clipId uint64, audioPath string, durationSeconds float64) error {
	return s.finishClip(ctx, clipId, map[string]interface{}{
		"status":           internal_entity.ClipStatusCompleted,
		"audio_path":       audioPath,
		"duration_seconds": durationSeconds,
		"updated_date":     time.Now(),
	})
}

func (s *sessionStore) FailClip(ctx context.Context, clipId uint64) error {
	return s.finishClip(ctx, clipId, map[string]interface{}{
		"status":       internal_entity.ClipStatusFailed,
		"updated_date": time.Now(),
	})
}

// finishClip transitions a pending clip exactly once; a clip that already
// completed or failed is left untouched.
func (s *sessionStore) finishClip(ctx context.Context, clipId uint64, updates map[string]interface{}) error {
	db := s.postgres.DB(ctx)
	result := db.Model(&internal_entity.SpeakClip{}).
		Where("id = ? AND status = ?", clipId, internal_entity.ClipStatusPending).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to finish clip %d: %w", clipId, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("clip %d not found or already finished", clipId)
	}

	s.logger.Debugf("finished clip: id=%d, status=%v", clipId, updates["status"])
	return nil
}

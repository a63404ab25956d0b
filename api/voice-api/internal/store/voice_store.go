// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	internal_entity "github.com/rapidaai/voicestudio/api/voice-api/internal/entity"
	"github.com/rapidaai/voicestudio/pkg/commons"
	"github.com/rapidaai/voicestudio/pkg/connectors"
	"github.com/rapidaai/voicestudio/pkg/utils"
	"gorm.io/gorm"
)

// VoiceFilter narrows a library listing. Zero values mean "no constraint".
type VoiceFilter struct {
	// Query matches against the voice name, case-insensitive substring.
	Query string
	// Language filters by exact language code.
	Language string
	// OwnerId restricts to one owner's voices (their private ones included).
	OwnerId *uint64
	// ViewerId is the requesting user; non-public voices of other users are
	// always excluded.
	ViewerId uint64
}

// VoiceStore provides operations over the voice library.
//
// Listings are cursor-paginated on (created_date, id) descending: stable
// under concurrent inserts, no OFFSET scans.
type VoiceStore interface {
	// Save stores a new voice and returns its id.
	Save(ctx context.Context, voice *internal_entity.Voice) (uint64, error)

	// Get retrieves a voice by id regardless of visibility; the caller
	// enforces authorization.
	Get(ctx context.Context, voiceId uint64) (*internal_entity.Voice, error)

	// List returns up to limit voices matching the filter, newest first,
	// starting after the cursor.
	List(ctx context.Context, filter VoiceFilter, cursor *utils.Cursor, limit int) ([]*internal_entity.Voice, error)

	// Update patches an allowlisted set of columns on a voice the caller
	// owns. Returns ErrNotOwner when the row exists but belongs to someone
	// else.
	Update(ctx context.Context, voiceId, ownerId uint64, updates map[string]interface{}) error

	// Delete removes an owned voice and any saved-voice rows pointing at it.
	Delete(ctx context.Context, voiceId, ownerId uint64) error

	// ToggleSaved flips whether the user keeps the voice in their library.
	// Returns the resulting saved state.
	ToggleSaved(ctx context.Context, userId, voiceId uint64) (bool, error)

	// ListSaved returns the user's saved voices, newest voice first.
	ListSaved(ctx context.Context, userId uint64, cursor *utils.Cursor, limit int) ([]*internal_entity.Voice, error)
}

// ErrNotOwner rejects writes against rows the caller does not own.
var ErrNotOwner = errors.New("voice does not belong to the caller")

type voiceStore struct {
	postgres connectors.PostgresConnector
	logger   commons.Logger
}

// NewVoiceStore creates a voice store backed by Postgres.
func NewVoiceStore(postgres connectors.PostgresConnector, logger commons.Logger) VoiceStore {
	return &voiceStore{
		postgres: postgres,
		logger:   logger,
	}
}

func (s *voiceStore) Save(ctx context.Context, voice *internal_entity.Voice) (uint64, error) {
	db := s.postgres.DB(ctx)
	if err := db.Create(voice).Error; err != nil {
		return 0, fmt.Errorf("failed to save voice %q: %w", voice.Name, err)
	}

	s.logger.Infof("saved voice: id=%d, owner=%d, visibility=%s", voice.Id, voice.OwnerId, voice.Visibility)
	return voice.Id, nil
}

func (s *voiceStore) Get(ctx context.Context, voiceId uint64) (*internal_entity.Voice, error) {
	db := s.postgres.DB(ctx)
	var voice internal_entity.Voice
	if err := db.Where("id = ?", voiceId).First(&voice).Error; err != nil {
		return nil, fmt.Errorf("voice not found: %d: %w", voiceId, err)
	}
	return &voice, nil
}

func (s *voiceStore) List(ctx context.Context, filter VoiceFilter, cursor *utils.Cursor, limit int) ([]*internal_entity.Voice, error) {
	db := s.postgres.DB(ctx).Model(&internal_entity.Voice{})

	if filter.OwnerId != nil {
		db = db.Where("owner_id = ?", *filter.OwnerId)
		if *filter.OwnerId != filter.ViewerId {
			db = db.Where("visibility = ?", internal_entity.VisibilityPublic)
		}
	} else {
		db = db.Where("visibility = ? OR owner_id = ?", internal_entity.VisibilityPublic, filter.ViewerId)
	}
	if !utils.IsEmpty(filter.Query) {
		db = db.Where("lower(name) LIKE ?", "%"+strings.ToLower(strings.TrimSpace(filter.Query))+"%")
	}
	if !utils.IsEmpty(filter.Language) {
		db = db.Where("language = ?", filter.Language)
	}
	db = applyCursor(db, cursor)

	var voices []*internal_entity.Voice
	if err := db.Order("created_date DESC, id DESC").Limit(limit).Find(&voices).Error; err != nil {
		return nil, fmt.Errorf("failed to list voices: %w", err)
	}
	return voices, nil
}

func (s *voiceStore) Update(ctx context.Context, voiceId, ownerId uint64, updates map[string]interface{}) error {
	// Allowlist of updatable fields to prevent arbitrary column writes.
	allowed := map[string]bool{
		"name":        true,
		"description": true,
		"language":    true,
		"visibility":  true,
	}
	for field := range updates {
		if !allowed[field] {
			return fmt.Errorf("field %q is not updatable on voice", field)
		}
	}
	updates["updated_date"] = time.Now()

	db := s.postgres.DB(ctx)
	result := db.Model(&internal_entity.Voice{}).
		Where("id = ? AND owner_id = ?", voiceId, ownerId).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update voice %d: %w", voiceId, result.Error)
	}
	if result.RowsAffected == 0 {
		return s.ownershipError(ctx, voiceId)
	}

	s.logger.Debugf("updated voice: id=%d, fields=%d", voiceId, len(updates))
	return nil
}

func (s *voiceStore) Delete(ctx context.Context, voiceId, ownerId uint64) error {
	// The voice and its saved references go together or not at all.
	err := s.postgres.DB(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND owner_id = ?", voiceId, ownerId).Delete(&internal_entity.Voice{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete voice %d: %w", voiceId, result.Error)
		}
		if result.RowsAffected == 0 {
			return s.ownershipError(ctx, voiceId)
		}
		if err := tx.Where("voice_id = ?", voiceId).Delete(&internal_entity.SavedVoice{}).Error; err != nil {
			return fmt.Errorf("failed to clear saved references for voice %d: %w", voiceId, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Infof("deleted voice: id=%d, owner=%d", voiceId, ownerId)
	return nil
}

func (s *voiceStore) ToggleSaved(ctx context.Context, userId, voiceId uint64) (bool, error) {
	db := s.postgres.DB(ctx)

	// Unsave first: the delete is atomic, so two concurrent toggles cannot
	// both insert.
	result := db.Where("user_id = ? AND voice_id = ?", userId, voiceId).Delete(&internal_entity.SavedVoice{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to toggle saved voice %d: %w", voiceId, result.Error)
	}
	if result.RowsAffected > 0 {
		s.logger.Debugf("unsaved voice: user=%d, voice=%d", userId, voiceId)
		return false, nil
	}

	saved := &internal_entity.SavedVoice{UserId: userId, VoiceId: voiceId}
	if err := db.Create(saved).Error; err != nil {
		return false, fmt.Errorf("failed to save voice %d for user %d: %w", voiceId, userId, err)
	}
	s.logger.Debugf("saved voice: user=%d, voice=%d", userId, voiceId)
	return true, nil
}

func (s *voiceStore) ListSaved(ctx context.Context, userId uint64, cursor *utils.Cursor, limit int) ([]*internal_entity.Voice, error) {
	db := s.postgres.DB(ctx).Model(&internal_entity.Voice{}).
		Joins("JOIN saved_voices ON saved_voices.voice_id = voices.id").
		Where("saved_voices.user_id = ?", userId)
	if cursor != nil {
		db = db.Where(
			"voices.created_date < ? OR (voices.created_date = ? AND voices.id < ?)",
			cursor.CreatedDate, cursor.CreatedDate, cursor.Id,
		)
	}

	var voices []*internal_entity.Voice
	if err := db.Order("voices.created_date DESC, voices.id DESC").
		Limit(limit).Find(&voices).Error; err != nil {
		return nil, fmt.Errorf("failed to list saved voices for user %d: %w", userId, err)
	}
	return voices, nil
}

// ownershipError distinguishes "not found" from "not yours" after a guarded
// write matched no rows.
func (s *voiceStore) ownershipError(ctx context.Context, voiceId uint64) error {
	var count int64
	s.postgres.DB(ctx).Model(&internal_entity.Voice{}).Where("id = ?", voiceId).Count(&count)
	if count > 0 {
		return ErrNotOwner
	}
	return fmt.Errorf("voice not found: %d: %w", voiceId, gorm.ErrRecordNotFound)
}

// applyCursor adds the keyset condition for a (created_date, id) descending
// ordering.
func applyCursor(db *gorm.DB, cursor *utils.Cursor) *gorm.DB {
	if cursor == nil {
		return db
	}
	return db.Where(
		"created_date < ? OR (created_date = ? AND id < ?)",
		cursor.CreatedDate, cursor.CreatedDate, cursor.Id,
	)
}

// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_entity

import (
	"time"

	"github.com/google/uuid"
	gorm_model "github.com/rapidaai/voicestudio/pkg/models/gorm"
	gorm_generator "github.com/rapidaai/voicestudio/pkg/models/gorm/generators"
	"gorm.io/gorm"
)

// Clip generation status.
const (
	ClipStatusPending   = "pending"
	ClipStatusCompleted = "completed"
	ClipStatusFailed    = "failed"
)

// SpeakSession groups generated speech clips into one conversation-like
// thread: one voice, one owner, many clips.
type SpeakSession struct {
	gorm_model.Audited
	SessionId string `json:"sessionId" gorm:"column:session_id;type:varchar(36);not null;uniqueIndex"`
	Title     string `json:"title" gorm:"column:title;type:varchar(200);not null;default:''"`
	OwnerId   uint64 `json:"ownerId" gorm:"column:owner_id;type:bigint;not null;index"`
	VoiceId   uint64 `json:"voiceId" gorm:"column:voice_id;type:bigint;not null"`

	Clips []*SpeakClip `json:"clips,omitempty" gorm:"foreignKey:SpeakSessionId"`
}

func (SpeakSession) TableName() string {
	return "speak_sessions"
}

func (s *SpeakSession) BeforeCreate(tx *gorm.DB) (err error) {
	if s.Id <= 0 {
		s.Id = gorm_generator.ID()
	}
	if s.SessionId == "" {
		s.SessionId = uuid.New().String()
	}
	if s.CreatedDate.IsZero() {
		s.CreatedDate = time.Now()
	}
	return nil
}

// SpeakClip is one generated speech clip inside a session: the requested
// text, its emotion tag, and the resulting audio in object storage.
type SpeakClip struct {
	gorm_model.Audited
	SpeakSessionId  uint64  `json:"speakSessionId" gorm:"column:speak_session_id;type:bigint;not null;index"`
	Text            string  `json:"text" gorm:"column:text;type:text;not null"`
	Emotion         string  `json:"emotion" gorm:"column:emotion;type:varchar(40);not null;default:neutral"`
	AudioPath       string  `json:"-" gorm:"column:audio_path;type:text;not null;default:''"`
	DurationSeconds float64 `json:"durationSeconds" gorm:"column:duration_seconds;type:decimal(10,1);not null;default:0"`
	Status          string  `json:"status" gorm:"column:status;type:varchar(20);not null;default:pending"`

	// AudioUrl is the signed URL resolved at read time, never persisted.
	AudioUrl string `json:"audioUrl" gorm:"-"`
}

func (SpeakClip) TableName() string {
	return "speak_clips"
}

func (c *SpeakClip) BeforeCreate(tx *gorm.DB) (err error) {
	if c.Id <= 0 {
		c.Id = gorm_generator.ID()
	}
	if c.CreatedDate.IsZero() {
		c.CreatedDate = time.Now()
	}
	return nil
}

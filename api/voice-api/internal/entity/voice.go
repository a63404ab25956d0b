// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_entity

import (
	"time"

	gorm_model "github.com/rapidaai/voicestudio/pkg/models/gorm"
	gorm_generator "github.com/rapidaai/voicestudio/pkg/models/gorm/generators"
	"gorm.io/gorm"
)

// Voice visibility.
const (
	VisibilityPublic  = "public"  // listed in the community library
	VisibilityPrivate = "private" // only the owner sees it
)

// Voice is a reference voice sample: uploaded or recorded by a user, stored
// in object storage and referenced by its storage path. The path is exchanged
// for a signed URL on read; it is never served raw.
type Voice struct {
	gorm_model.Audited
	Name            string  `json:"name" gorm:"column:name;type:varchar(120);not null"`
	Description     string  `json:"description" gorm:"column:description;type:text;not null;default:''"`
	Language        string  `json:"language" gorm:"column:language;type:varchar(20);not null;default:''"`
	AudioPath       string  `json:"-" gorm:"column:audio_path;type:text;not null"`
	DurationSeconds float64 `json:"durationSeconds" gorm:"column:duration_seconds;type:decimal(10,1);not null;default:0"`
	Visibility      string  `json:"visibility" gorm:"column:visibility;type:varchar(20);not null;default:private"`
	OwnerId         uint64  `json:"ownerId" gorm:"column:owner_id;type:bigint;not null;index"`

	// AudioUrl is the signed URL resolved at read time, never persisted.
	AudioUrl string `json:"audioUrl" gorm:"-"`
}

func (Voice) TableName() string {
	return "voices"
}

func (v *Voice) BeforeCreate(tx *gorm.DB) (err error) {
	if v.Id <= 0 {
		v.Id = gorm_generator.ID()
	}
	if v.CreatedDate.IsZero() {
		v.CreatedDate = time.Now()
	}
	return nil
}

// SavedVoice marks a community voice a user keeps in their own library.
type SavedVoice struct {
	gorm_model.Audited
	UserId  uint64 `json:"userId" gorm:"column:user_id;type:bigint;not null;uniqueIndex:idx_saved_user_voice"`
	VoiceId uint64 `json:"voiceId" gorm:"column:voice_id;type:bigint;not null;uniqueIndex:idx_saved_user_voice"`
}

func (SavedVoice) TableName() string {
	return "saved_voices"
}

func (s *SavedVoice) BeforeCreate(tx *gorm.DB) (err error) {
	if s.Id <= 0 {
		s.Id = gorm_generator.ID()
	}
	if s.CreatedDate.IsZero() {
		s.CreatedDate = time.Now()
	}
	return nil
}

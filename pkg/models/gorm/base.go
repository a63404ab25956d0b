// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package gorm_model

import "time"

// Audited is the common base for persisted entities: a generated bigint
// primary key plus create/update timestamps.
type Audited struct {
	Id          uint64    `json:"id" gorm:"type:bigint;primaryKey;<-:create"`
	CreatedDate time.Time `json:"createdDate" gorm:"type:timestamp;not null;<-:create"`
	UpdatedDate time.Time `json:"updatedDate" gorm:"type:timestamp;default:null"`
}

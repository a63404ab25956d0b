// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_playback

import (
	internal_media "github.com/rapidaai/voicestudio/internal/playback/internal"
	internal_type "github.com/rapidaai/voicestudio/internal/type"
	"github.com/rapidaai/voicestudio/pkg/commons"
)

// DefaultOpener returns the mp3 opener backed by go-mp3 decoding and
// portaudio output.
func DefaultOpener(logger commons.Logger) internal_type.MediaOpener {
	return internal_media.NewOpener(logger)
}

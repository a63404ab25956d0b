// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_capture

import (
	internal_portaudio "github.com/rapidaai/voicestudio/internal/capture/internal"
	internal_type "github.com/rapidaai/voicestudio/internal/type"
	"github.com/rapidaai/voicestudio/pkg/commons"
)

// DefaultDevice returns the portaudio-backed capture device over the system
// default input.
func DefaultDevice(logger commons.Logger) internal_type.CaptureDevice {
	return internal_portaudio.NewPortaudioDevice(logger)
}

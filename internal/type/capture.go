// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_type

import (
	"context"
	"errors"
)

// Capture format shared by every capture backend: LINEAR16 mono.
const (
	SampleRate          = 16000
	Channels            = 1
	AudioBytesPerSample = 2  // LINEAR16 → 2 bytes per sample
	AudioBitsPerSample  = 16 // LINEAR16 → 16 bits per sample
	AudioPCMFormat      = 1  // WAV PCM format tag
)

// Device acquisition failures. Each kind carries its own user-facing message;
// they are deliberately distinct so the UI can tell the user what to fix.
var (
	ErrPermissionDenied = errors.New("microphone access was denied")
	ErrDeviceNotFound   = errors.New("no audio input device was found")
	ErrUnsupported      = errors.New("audio capture is not supported in this environment")
)

// CaptureStream is one exclusive hold on an input device. At most one stream
// exists per device at a time; Release frees the device for the next
// acquisition.
type CaptureStream interface {
	// Start begins delivering little-endian int16 PCM chunks to onChunk from
	// the stream's own goroutine until Stop is called.
	Start(onChunk func(pcm []byte)) error
	// Stop halts chunk delivery. Idempotent.
	Stop() error
	// Release frees the underlying device. The stream is unusable afterwards.
	Release()
}

// CaptureDevice acquires exclusive access to an audio input.
type CaptureDevice interface {
	// Acquire requests the device. Returns one of ErrPermissionDenied,
	// ErrDeviceNotFound or ErrUnsupported (possibly wrapped) on failure.
	Acquire(ctx context.Context) (CaptureStream, error)
}

// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_capture

import (
	"bytes"
	"encoding/binary"

	internal_type "github.com/rapidaai/voicestudio/internal/type"
)

// Capture format: LINEAR16 mono, shared with the device backends.
const (
	SampleRate          = internal_type.SampleRate
	Channels            = internal_type.Channels
	AudioBytesPerSample = internal_type.AudioBytesPerSample
	AudioBitsPerSample  = internal_type.AudioBitsPerSample
	AudioPCMFormat      = internal_type.AudioPCMFormat
)

// EncodeWAV wraps raw little-endian PCM in a RIFF/WAVE container using the
// capture format above.
func EncodeWAV(pcmData []byte) []byte {
	var buf bytes.Buffer
	bps := SampleRate * Channels * AudioBytesPerSample

	buf.Write([]byte("RIFF"))
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcmData)))
	buf.Write([]byte("WAVE"))

	buf.Write([]byte("fmt "))
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(AudioPCMFormat))
	binary.Write(&buf, binary.LittleEndian, uint16(Channels))
	binary.Write(&buf, binary.LittleEndian, uint32(SampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(bps))
	binary.Write(&buf, binary.LittleEndian, uint16(AudioBytesPerSample))
	binary.Write(&buf, binary.LittleEndian, uint16(AudioBitsPerSample))

	// data chunk
	buf.Write([]byte("data"))
	binary.Write(&buf, binary.LittleEndian, uint32(len(pcmData)))
	buf.Write(pcmData)

	return buf.Bytes()
}

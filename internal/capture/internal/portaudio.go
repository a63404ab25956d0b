// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_portaudio

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
	internal_type "github.com/rapidaai/voicestudio/internal/type"
	"github.com/rapidaai/voicestudio/pkg/commons"
)

const framesPerBuffer = 1024

type portaudioDevice struct {
	logger commons.Logger
}

// NewPortaudioDevice returns a CaptureDevice over the host's default input,
// delivering LINEAR16 mono at the capture sample rate.
func NewPortaudioDevice(logger commons.Logger) internal_type.CaptureDevice {
	return &portaudioDevice{logger: logger}
}

func (d *portaudioDevice) Acquire(ctx context.Context) (internal_type.CaptureStream, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: %v", internal_type.ErrUnsupported, err)
	}
	if _, err := portaudio.DefaultInputDevice(); err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("%w: %v", internal_type.ErrDeviceNotFound, err)
	}

	buffer := make([]int16, framesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(
		internal_type.Channels,
		0,
		float64(internal_type.SampleRate),
		framesPerBuffer,
		buffer,
	)
	if err != nil {
		portaudio.Terminate()
		// The device exists but would not open — the host denied access.
		return nil, fmt.Errorf("%w: %v", internal_type.ErrPermissionDenied, err)
	}

	return &portaudioStream{
		logger: d.logger,
		stream: stream,
		buffer: buffer,
		done:   make(chan struct{}),
	}, nil
}

type portaudioStream struct {
	logger commons.Logger
	stream *portaudio.Stream
	buffer []int16
	done   chan struct{}

	stopOnce    sync.Once
	releaseOnce sync.Once
}

func (s *portaudioStream) Start(onChunk func(pcm []byte)) error {
	if err := s.stream.Start(); err != nil {
		return fmt.Errorf("failed to start capture stream: %w", err)
	}
	go s.pump(onChunk)
	return nil
}

func (s *portaudioStream) pump(onChunk func(pcm []byte)) {
	for {
		select {
		case <-s.done:
			return
		default:
		}

		if err := s.stream.Read(); err != nil {
			select {
			case <-s.done:
			default:
				s.logger.Warnf("portaudio: capture read failed: %v", err)
			}
			return
		}

		chunk := make([]byte, len(s.buffer)*2)
		for i, sample := range s.buffer {
			binary.LittleEndian.PutUint16(chunk[i*2:], uint16(sample))
		}
		onChunk(chunk)
	}
}

func (s *portaudioStream) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		close(s.done)
		err = s.stream.Stop()
	})
	return err
}

func (s *portaudioStream) Release() {
	s.releaseOnce.Do(func() {
		s.Stop()
		if err := s.stream.Close(); err != nil {
			s.logger.Warnf("portaudio: stream close: %v", err)
		}
		portaudio.Terminate()
	})
}

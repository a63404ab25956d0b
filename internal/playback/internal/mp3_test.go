// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_media

import (
	"io"
	"testing"

	"github.com/rapidaai/voicestudio/pkg/commons"
)

type recordedEvents struct {
	ended  int
	errors []error
}

func (e *recordedEvents) OnLoadStart()                 {}
func (e *recordedEvents) OnMetadata(duration float64)  {}
func (e *recordedEvents) OnCanPlay()                   {}
func (e *recordedEvents) OnDurationChange(dur float64) {}
func (e *recordedEvents) OnEnded()                     { e.ended++ }
func (e *recordedEvents) OnError(err error)            { e.errors = append(e.errors, err) }

func newClosedResource(t *testing.T) (*resource, *recordedEvents) {
	t.Helper()
	log, err := commons.NewApplicationLogger(
		commons.Name("test-media"),
		commons.Path(t.TempDir()),
		commons.Level("debug"),
	)
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	events := &recordedEvents{}
	r := &resource{logger: log, sourceURL: "clip.mp3", events: events}
	if err := r.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return r, events
}

// The playback goroutine can pass its stop check just before Close releases
// the decoder; the next read must see end-of-stream, not a released decoder.
func TestReadChunkAfterCloseReportsEOF(t *testing.T) {
	r, _ := newClosedResource(t)

	chunk := make([]byte, bytesPerFrame*framesPerBuffer)
	n, err := r.readChunk(chunk)
	if n != 0 {
		t.Errorf("expected no bytes from a closed resource, got %d", n)
	}
	if err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestFinishedAfterCloseIsSilent(t *testing.T) {
	r, events := newClosedResource(t)

	r.finished()
	if events.ended != 0 {
		t.Errorf("a closed resource must not report ended, got %d events", events.ended)
	}
}

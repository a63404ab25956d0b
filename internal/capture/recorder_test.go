// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_capture

import (
	"context"
	"encoding/binary"
	"errors"
	"sync"
	"testing"
	"time"

	internal_type "github.com/rapidaai/voicestudio/internal/type"
	"github.com/rapidaai/voicestudio/pkg/commons"
)

func newTestLogger(t *testing.T) commons.Logger {
	t.Helper()
	logger, err := commons.NewApplicationLogger(
		commons.Name("test-recorder"),
		commons.Path(t.TempDir()),
		commons.Level("debug"),
	)
	if err != nil {
		t.Fatalf("failed to create test logger: %v", err)
	}
	return logger
}

// fakeClock is a manually advanced clock. Advance moves time forward and
// fires scheduled callbacks once per elapsed interval.
type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker
}

type fakeTicker struct {
	interval time.Duration
	fn       func()
	stopped  bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Schedule(interval time.Duration, fn func()) internal_type.CancelFunc {
	c.mu.Lock()
	defer c.mu.Unlock()
	ticker := &fakeTicker{interval: interval, fn: fn}
	c.tickers = append(c.tickers, ticker)
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		ticker.stopped = true
	}
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []func()
	for _, ticker := range c.tickers {
		if ticker.stopped {
			continue
		}
		for fired := time.Duration(0); fired+ticker.interval <= d; fired += ticker.interval {
			due = append(due, ticker.fn)
		}
	}
	c.mu.Unlock()
	for _, fn := range due {
		fn()
	}
}

type fakeStream struct {
	onChunk  func([]byte)
	stopped  bool
	released bool
}

func (s *fakeStream) Start(onChunk func(pcm []byte)) error {
	s.onChunk = onChunk
	return nil
}

func (s *fakeStream) Stop() error {
	s.stopped = true
	return nil
}

func (s *fakeStream) Release() {
	s.released = true
}

type fakeDevice struct {
	acquireErr error
	acquires   int
	stream     *fakeStream
}

func (d *fakeDevice) Acquire(ctx context.Context) (internal_type.CaptureStream, error) {
	d.acquires++
	if d.acquireErr != nil {
		return nil, d.acquireErr
	}
	d.stream = &fakeStream{}
	return d.stream, nil
}

func newTestRecorder(t *testing.T) (*Recorder, *fakeDevice, *fakeClock) {
	t.Helper()
	device := &fakeDevice{}
	clock := newFakeClock()
	return NewRecorder(newTestLogger(t), device, clock), device, clock
}

func TestStartTransitionsToRecording(t *testing.T) {
	rec, device, _ := newTestRecorder(t)
	if err := rec.Start(context.Background()); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if rec.State() != StateRecording {
		t.Errorf("expected RECORDING, got %s", rec.State())
	}
	if device.acquires != 1 {
		t.Errorf("expected 1 device acquisition, got %d", device.acquires)
	}
	if device.stream.onChunk == nil {
		t.Error("capture stream was never started")
	}
}

func TestSecondStartIsRejected(t *testing.T) {
	rec, device, clock := newTestRecorder(t)
	ctx := context.Background()
	if err := rec.Start(ctx); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	startedAt := rec.startTime

	clock.Advance(2 * time.Second)
	if err := rec.Start(ctx); !errors.Is(err, ErrAlreadyRecording) {
		t.Fatalf("expected ErrAlreadyRecording, got %v", err)
	}
	if device.acquires != 1 {
		t.Errorf("second Start must not acquire a second device handle, acquires=%d", device.acquires)
	}
	if !rec.startTime.Equal(startedAt) {
		t.Error("second Start must not reset the start timestamp")
	}
}

func TestMeasuredDurationComesFromWallClock(t *testing.T) {
	rec, _, clock := newTestRecorder(t)
	if err := rec.Start(context.Background()); err != nil {
		t.Fatalf("Start error: %v", err)
	}

	// 3.4s of wall clock fires only 3 cosmetic ticks.
	clock.Advance(3400 * time.Millisecond)
	if rec.ElapsedSeconds() != 3 {
		t.Errorf("expected 3 cosmetic ticks, got %d", rec.ElapsedSeconds())
	}

	if err := rec.Stop(); err != nil {
		t.Fatalf("Stop error: %v", err)
	}
	if rec.measuredDuration != 3.4 {
		t.Errorf("expected measured duration 3.4, got %v", rec.measuredDuration)
	}
}

func TestStopAssemblesWAVAndReleasesDevice(t *testing.T) {
	rec, device, clock := newTestRecorder(t)
	if err := rec.Start(context.Background()); err != nil {
		t.Fatalf("Start error: %v", err)
	}

	device.stream.onChunk([]byte{0x01, 0x02, 0x03, 0x04})
	clock.Advance(time.Second)
	if err := rec.Stop(); err != nil {
		t.Fatalf("Stop error: %v", err)
	}

	if !device.stream.stopped || !device.stream.released {
		t.Error("Stop must stop and release the capture stream")
	}
	blob := rec.resultBlob
	if len(blob) != 44+4 {
		t.Fatalf("unexpected blob size %d", len(blob))
	}
	if string(blob[0:4]) != "RIFF" || string(blob[8:12]) != "WAVE" {
		t.Error("blob missing RIFF/WAVE header")
	}
	if sr := binary.LittleEndian.Uint32(blob[24:28]); sr != SampleRate {
		t.Errorf("sample rate: got %d", sr)
	}
	if string(blob[44:48]) != "\x01\x02\x03\x04" {
		t.Error("PCM payload mismatch")
	}
}

func TestNoResultBlobWhileRecording(t *testing.T) {
	rec, device, _ := newTestRecorder(t)
	if err := rec.Start(context.Background()); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	device.stream.onChunk([]byte{0x01, 0x02})
	if rec.resultBlob != nil {
		t.Error("resultBlob must stay empty while recording")
	}
}

func TestStopWithoutRecording(t *testing.T) {
	rec, _, _ := newTestRecorder(t)
	if err := rec.Stop(); !errors.Is(err, ErrNotRecording) {
		t.Errorf("expected ErrNotRecording, got %v", err)
	}
}

func TestTickStopsAfterStop(t *testing.T) {
	rec, _, clock := newTestRecorder(t)
	if err := rec.Start(context.Background()); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	clock.Advance(2 * time.Second)
	if err := rec.Stop(); err != nil {
		t.Fatalf("Stop error: %v", err)
	}

	clock.Advance(5 * time.Second)
	if rec.ElapsedSeconds() != 2 {
		t.Errorf("timer must not advance after Stop, got %d", rec.ElapsedSeconds())
	}
	for _, ticker := range clock.tickers {
		if !ticker.stopped {
			t.Error("tick schedule leaked past Stop")
		}
	}
}

func TestDiscardIsIdempotent(t *testing.T) {
	rec, device, clock := newTestRecorder(t)
	if err := rec.Start(context.Background()); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	device.stream.onChunk([]byte{0x01, 0x02})
	clock.Advance(time.Second)

	rec.Discard()
	if rec.State() != StateIdle {
		t.Errorf("expected IDLE after discard, got %s", rec.State())
	}
	if !device.stream.released {
		t.Error("discard from Recording must release the device")
	}
	if rec.resultBlob != nil || rec.measuredDuration != 0 {
		t.Error("discard must clear the result")
	}

	rec.Discard()
	rec.Discard()
	if rec.State() != StateIdle {
		t.Error("repeated discard must stay Idle")
	}
}

func TestHandoffConsumesTheClip(t *testing.T) {
	rec, device, clock := newTestRecorder(t)
	if err := rec.Start(context.Background()); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	device.stream.onChunk([]byte{0x01, 0x02, 0x03, 0x04})
	clock.Advance(1500 * time.Millisecond)
	if err := rec.Stop(); err != nil {
		t.Fatalf("Stop error: %v", err)
	}

	blob, duration, err := rec.Handoff()
	if err != nil {
		t.Fatalf("Handoff error: %v", err)
	}
	if len(blob) == 0 {
		t.Error("handoff returned empty blob")
	}
	if duration != 1.5 {
		t.Errorf("expected duration 1.5, got %v", duration)
	}
	if rec.State() != StateIdle {
		t.Errorf("handoff must reset to IDLE, got %s", rec.State())
	}

	if _, _, err := rec.Handoff(); !errors.Is(err, ErrNoRecording) {
		t.Errorf("expected ErrNoRecording on second handoff, got %v", err)
	}
}

func TestDeviceErrorsAreDistinctAndLeaveIdle(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"permission denied", internal_type.ErrPermissionDenied},
		{"device not found", internal_type.ErrDeviceNotFound},
		{"unsupported", internal_type.ErrUnsupported},
	}

	seen := map[string]bool{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			device := &fakeDevice{acquireErr: tt.err}
			rec := NewRecorder(newTestLogger(t), device, newFakeClock())

			err := rec.Start(context.Background())
			if !errors.Is(err, tt.err) {
				t.Fatalf("expected %v, got %v", tt.err, err)
			}
			if rec.State() != StateIdle {
				t.Errorf("failed start must leave recorder Idle, got %s", rec.State())
			}

			msg := DeviceErrorMessage(err)
			if seen[msg] {
				t.Errorf("message %q reused across error kinds", msg)
			}
			seen[msg] = true
		})
	}
}

func TestInputLevelTracksChunks(t *testing.T) {
	rec, device, _ := newTestRecorder(t)
	if err := rec.Start(context.Background()); err != nil {
		t.Fatalf("Start error: %v", err)
	}

	if rec.InputLevel() != 0 {
		t.Error("level must start at 0")
	}
	loud := make([]byte, 4)
	binary.LittleEndian.PutUint16(loud[0:2], uint16(16384))
	binary.LittleEndian.PutUint16(loud[2:4], uint16(16384))
	device.stream.onChunk(loud)
	if level := rec.InputLevel(); level < 0.45 || level > 0.55 {
		t.Errorf("expected level near 0.5, got %v", level)
	}
}

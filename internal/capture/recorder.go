// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	internal_type "github.com/rapidaai/voicestudio/internal/type"
	"github.com/rapidaai/voicestudio/pkg/commons"
	"github.com/rapidaai/voicestudio/pkg/utils"
)

// Recording session states.
type State string

const (
	StateIdle      State = "IDLE"
	StateRecording State = "RECORDING"
	StateStopped   State = "STOPPED"
)

var (
	// ErrAlreadyRecording rejects a second Start while a session holds the
	// device. The running session is untouched.
	ErrAlreadyRecording = errors.New("recording already in progress")
	// ErrNotRecording rejects Stop outside the Recording state.
	ErrNotRecording = errors.New("no recording in progress")
	// ErrNoRecording rejects Handoff when there is no finished clip.
	ErrNoRecording = errors.New("no finished recording to hand off")
)

// Recorder captures microphone input into an in-memory clip under explicit
// user control: Idle → Recording → Stopped, then Handoff or Discard back to
// Idle.
//
// The 1Hz elapsed counter exists only for the live timer display. The
// authoritative clip duration is measured from the wall clock between Start
// and Stop, because tick counts drift under scheduler load.
type Recorder struct {
	mu     sync.Mutex
	logger commons.Logger
	device internal_type.CaptureDevice
	clock  internal_type.Clock

	state          State
	stream         internal_type.CaptureStream
	startTime      time.Time
	elapsedSeconds int
	cancelTick     internal_type.CancelFunc

	pcm       bytes.Buffer
	lastLevel float32

	resultBlob       []byte
	measuredDuration float64
}

// NewRecorder builds an idle recorder over the given device and clock.
func NewRecorder(logger commons.Logger, device internal_type.CaptureDevice, clock internal_type.Clock) *Recorder {
	return &Recorder{
		logger: logger,
		device: device,
		clock:  clock,
		state:  StateIdle,
	}
}

// Start acquires the input device and begins capturing. Rejected while a
// session is already active — the device is held exclusively and the running
// session's start time must not move. Device failures leave the recorder
// Idle so the user can retry without cleanup.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateIdle {
		return ErrAlreadyRecording
	}

	stream, err := r.device.Acquire(ctx)
	if err != nil {
		r.logger.Errorf("recorder: device acquisition failed: %v", err)
		return fmt.Errorf("start recording: %w", err)
	}

	if err := stream.Start(r.onChunk); err != nil {
		stream.Release()
		r.logger.Errorf("recorder: capture start failed: %v", err)
		return fmt.Errorf("start recording: %w", err)
	}

	r.stream = stream
	r.state = StateRecording
	r.startTime = r.clock.Now()
	r.elapsedSeconds = 0
	r.pcm.Reset()
	r.lastLevel = 0
	r.cancelTick = r.clock.Schedule(time.Second, r.tick)

	r.logger.Debug("recorder: recording started")
	return nil
}

// Stop halts capture, releases the device and assembles the finished clip.
// This is the only place duration is computed, and it comes from the wall
// clock, not the tick counter.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateRecording {
		return ErrNotRecording
	}
	r.releaseLocked()

	elapsed := r.clock.Now().Sub(r.startTime)
	r.measuredDuration = math.Round(elapsed.Seconds()*10) / 10
	r.resultBlob = EncodeWAV(r.pcm.Bytes())
	r.state = StateStopped

	r.logger.Infof("recorder: stopped, measured=%.1fs pcm=%d bytes", r.measuredDuration, r.pcm.Len())
	return nil
}

// Discard abandons the current session and returns to Idle. Valid from any
// state and idempotent; from Recording it stops capture and releases the
// device first.
func (r *Recorder) Discard() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.discardLocked()
}

// Handoff consumes the finished clip, returning the encoded audio and its
// measured duration in seconds, then resets to Idle.
func (r *Recorder) Handoff() ([]byte, float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateStopped {
		return nil, 0, ErrNoRecording
	}
	blob := r.resultBlob
	duration := r.measuredDuration
	r.discardLocked()
	return blob, duration, nil
}

// State reports the current session state.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// ElapsedSeconds reports the cosmetic 1Hz timer for the live display.
func (r *Recorder) ElapsedSeconds() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.elapsedSeconds
}

// InputLevel reports the mean absolute amplitude of the most recent chunk,
// normalised to [0, 1]. Display-only.
func (r *Recorder) InputLevel() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastLevel
}

func (r *Recorder) tick() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateRecording {
		r.elapsedSeconds++
	}
}

func (r *Recorder) onChunk(pcm []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateRecording || len(pcm) == 0 {
		return
	}
	r.pcm.Write(pcm)

	samples := make([]float32, 0, len(pcm)/2)
	for i := 0; i+1 < len(pcm); i += 2 {
		s := int16(uint16(pcm[i]) | uint16(pcm[i+1])<<8)
		samples = append(samples, float32(math.Abs(float64(s)))/32768)
	}
	r.lastLevel = utils.AverageFloat32(samples)
}

// releaseLocked cancels the tick and frees the device. Caller holds the lock.
func (r *Recorder) releaseLocked() {
	if r.cancelTick != nil {
		r.cancelTick()
		r.cancelTick = nil
	}
	if r.stream != nil {
		if err := r.stream.Stop(); err != nil {
			r.logger.Warnf("recorder: stream stop: %v", err)
		}
		r.stream.Release()
		r.stream = nil
	}
}

func (r *Recorder) discardLocked() {
	r.releaseLocked()
	r.state = StateIdle
	r.startTime = time.Time{}
	r.elapsedSeconds = 0
	r.pcm.Reset()
	r.lastLevel = 0
	r.resultBlob = nil
	r.measuredDuration = 0
}

// DeviceErrorMessage maps a Start failure to the message shown to the user.
// The three device error kinds stay distinct on purpose.
func DeviceErrorMessage(err error) string {
	switch {
	case errors.Is(err, internal_type.ErrPermissionDenied):
		return "Microphone access was denied. Allow microphone access and try again."
	case errors.Is(err, internal_type.ErrDeviceNotFound):
		return "No microphone was found. Connect an input device and try again."
	case errors.Is(err, internal_type.ErrUnsupported):
		return "Recording is not supported in this environment."
	default:
		return "Could not start recording. Please try again."
	}
}

// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_playback

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	internal_type "github.com/rapidaai/voicestudio/internal/type"
	"github.com/rapidaai/voicestudio/pkg/commons"
)

// Playback session states.
type State string

const (
	StateIdle    State = "IDLE"    // no resource loaded yet
	StateReady   State = "READY"   // loaded (or hint supplied), not playing
	StatePlaying State = "PLAYING" // position refresh loop active
	StatePaused  State = "PAUSED"  // refresh halted, position retained
	StateFailed  State = "FAILED"  // terminal until the next Load
)

var (
	// ErrPlaybackFailed covers resource-load and resource-play failures
	// alike. The UI does not need to distinguish a network failure from a
	// decode failure.
	ErrPlaybackFailed = errors.New("playback failed")
	// ErrNotLoaded rejects Play before a playable resource exists.
	ErrNotLoaded = errors.New("no playable resource loaded")
)

// positionRefreshInterval bounds redundant UI work to ~30 updates per second.
const positionRefreshInterval = 33 * time.Millisecond

// Snapshot is the single consistent position/duration model handed to the UI.
type Snapshot struct {
	State           State
	SourceURL       string
	PositionSeconds float64
	DurationSeconds float64
	Playing         bool
	Loaded          bool
	Seeking         bool
	Err             error
}

// Player drives playback of one audio resource at a time: play/pause, a
// continuously refreshed position, duration reconciliation between a caller
// hint and backend metadata, and a seek gesture that the refresh loop never
// fights.
//
// All mutation happens under one mutex; media backends deliver events from
// their own goroutines and late events from a replaced resource are fenced
// off by a generation counter.
type Player struct {
	mu     sync.Mutex
	logger commons.Logger
	opener internal_type.MediaOpener
	clock  internal_type.Clock

	generation uint64

	state         State
	sourceURL     string
	resource      internal_type.MediaResource
	duration      durationResolver
	position      float64
	seeking       bool
	seekTarget    float64
	lastErr       error
	cancelRefresh internal_type.CancelFunc
}

// NewPlayer builds an idle player over the given opener and clock.
func NewPlayer(logger commons.Logger, opener internal_type.MediaOpener, clock internal_type.Clock) *Player {
	return &Player{
		logger: logger,
		opener: opener,
		clock:  clock,
		state:  StateIdle,
	}
}

// resourceEvents adapts backend callbacks onto the player, carrying the
// generation they belong to so a replaced resource cannot mutate the session
// that superseded it.
type resourceEvents struct {
	p   *Player
	gen uint64
}

func (e resourceEvents) OnLoadStart()                 { e.p.onLoadStart(e.gen) }
func (e resourceEvents) OnMetadata(duration float64)  { e.p.onDuration(e.gen, duration) }
func (e resourceEvents) OnCanPlay()                   { e.p.onCanPlay(e.gen) }
func (e resourceEvents) OnDurationChange(dur float64) { e.p.onDuration(e.gen, dur) }
func (e resourceEvents) OnEnded()                     { e.p.onEnded(e.gen) }
func (e resourceEvents) OnError(err error)            { e.p.onError(e.gen, err) }

// Load resets the session entirely and begins loading sourceURL. A non-nil
// durationHint pre-seeds the duration and marks the session ready before the
// backend reports anything; the hint keeps precedence afterwards.
func (p *Player) Load(ctx context.Context, sourceURL string, durationHint *float64) error {
	p.mu.Lock()
	p.resetLocked()
	p.sourceURL = sourceURL
	p.duration = durationResolver{hint: durationHint}
	if durationHint != nil {
		p.state = StateReady
	}
	gen := p.generation
	p.mu.Unlock()

	resource, err := p.opener.OpenMedia(ctx, sourceURL)
	if err != nil {
		p.onError(gen, err)
		return fmt.Errorf("load %s: %w", sourceURL, err)
	}

	p.mu.Lock()
	if p.generation != gen {
		// Replaced by a newer Load while opening.
		p.mu.Unlock()
		resource.Close()
		return nil
	}
	p.resource = resource
	p.mu.Unlock()

	if err := resource.Open(resourceEvents{p: p, gen: gen}); err != nil {
		p.onError(gen, err)
		return fmt.Errorf("load %s: %w", sourceURL, err)
	}
	return nil
}

// Play begins or resumes playback and starts the position refresh loop.
// After a failure it surfaces the stored error without transitioning;
// recovery requires a fresh Load.
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.lastErr != nil {
		return p.lastErr
	}
	if p.state != StateReady && p.state != StatePaused {
		return ErrNotLoaded
	}
	if p.resource == nil {
		return ErrNotLoaded
	}

	// Opportunistic adoption: if neither source has resolved yet, take
	// whatever the backend claims right now (still validated).
	if !p.duration.known() {
		p.duration.adopt(p.resource.Duration())
	}

	if err := p.resource.Play(); err != nil {
		p.failLocked(err)
		return p.lastErr
	}
	p.state = StatePlaying
	p.cancelRefresh = p.clock.Schedule(positionRefreshInterval, p.refreshPosition)
	return nil
}

// Pause freezes the position at its last value and halts the refresh loop.
// No-op unless playing.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StatePlaying {
		return
	}
	p.resource.Pause()
	p.stopRefreshLocked()
	p.state = StatePaused
}

// BeginSeek opens a drag gesture. While the gesture is active the refresh
// loop is suppressed so the playback clock cannot fight the drag.
func (p *Player) BeginSeek() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seeking = true
	p.seekTarget = p.position
}

// SeekTo moves the displayed position immediately for responsiveness. The
// resource's own position only moves for in-range values; out-of-range input
// is clamped for display and ignored for the resource, never an error. When
// no duration is known yet there is no upper bound to clamp against.
func (p *Player) SeekTo(candidateSeconds float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.lastErr != nil || math.IsNaN(candidateSeconds) {
		return
	}
	duration := p.duration.value()
	inRange := candidateSeconds >= 0 && (duration <= 0 || candidateSeconds <= duration)

	clamped := candidateSeconds
	if clamped < 0 {
		clamped = 0
	}
	if duration > 0 && clamped > duration {
		clamped = duration
	}

	p.position = clamped
	if p.seeking {
		p.seekTarget = clamped
	}
	if inRange && p.resource != nil {
		p.resource.Seek(clamped)
	}
}

// EndSeek closes the drag gesture and performs the definitive seek to the
// last dragged position.
func (p *Player) EndSeek() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.seeking {
		return
	}
	p.seeking = false
	p.position = p.seekTarget
	if p.resource != nil && p.lastErr == nil {
		p.resource.Seek(p.seekTarget)
	}
}

// Close tears the session down. Called when the owning UI unmounts.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked()
}

// Snapshot returns a consistent view of the session for display.
func (p *Player) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	loaded := p.duration.hint != nil
	switch p.state {
	case StateReady, StatePlaying, StatePaused:
		loaded = true
	}
	return Snapshot{
		State:           p.state,
		SourceURL:       p.sourceURL,
		PositionSeconds: p.position,
		DurationSeconds: p.duration.value(),
		Playing:         p.state == StatePlaying,
		Loaded:          loaded,
		Seeking:         p.seeking,
		Err:             p.lastErr,
	}
}

func (p *Player) refreshPosition() {
	p.mu.Lock()
	defer p.mu.Unlock()

	// The seek gate: the refresh loop never runs against an active gesture.
	if p.state != StatePlaying || p.seeking {
		return
	}
	p.position = p.resource.Position()
}

func (p *Player) onLoadStart(gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.generation != gen {
		return
	}
	p.logger.Debugf("player: load started for %s", p.sourceURL)
}

func (p *Player) onDuration(gen uint64, duration float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.generation != gen || p.state == StateFailed {
		return
	}
	p.duration.adopt(duration)
	if p.state == StateIdle {
		p.state = StateReady
	}
}

func (p *Player) onCanPlay(gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.generation != gen || p.state == StateFailed {
		return
	}
	if p.state == StateIdle {
		p.state = StateReady
	}
}

func (p *Player) onEnded(gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.generation != gen || p.state != StatePlaying {
		return
	}
	p.stopRefreshLocked()
	p.position = 0 // clip restarts from the beginning on next play
	p.state = StateReady
}

func (p *Player) onError(gen uint64, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.generation != gen || p.state == StateFailed {
		return
	}
	p.failLocked(err)
}

// failLocked collapses the session into the terminal Failed state: playback
// forced off, position reset, refresh cancelled. Caller holds the lock.
func (p *Player) failLocked(err error) {
	p.stopRefreshLocked()
	p.lastErr = fmt.Errorf("%w: %v", ErrPlaybackFailed, err)
	p.position = 0
	p.state = StateFailed
	p.logger.Errorf("player: %s failed: %v", p.sourceURL, err)
}

func (p *Player) stopRefreshLocked() {
	if p.cancelRefresh != nil {
		p.cancelRefresh()
		p.cancelRefresh = nil
	}
}

// resetLocked synchronously releases the previous session before a new one is
// established. Caller holds the lock.
func (p *Player) resetLocked() {
	p.stopRefreshLocked()
	if p.resource != nil {
		p.resource.Close()
		p.resource = nil
	}
	p.generation++
	p.state = StateIdle
	p.sourceURL = ""
	p.duration = durationResolver{}
	p.position = 0
	p.seeking = false
	p.seekTarget = 0
	p.lastErr = nil
}

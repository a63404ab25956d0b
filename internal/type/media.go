// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_type

import "context"

// MediaEvents receives lifecycle notifications from a media resource. All
// callbacks fire on the resource's own goroutine; implementations must be
// safe to call at any point after Open and must never block.
type MediaEvents interface {
	// OnLoadStart fires when the resource begins fetching/decoding.
	OnLoadStart()
	// OnMetadata fires once the resource knows its own duration in seconds.
	// The reported value is whatever the backend claims — it may be NaN or
	// Infinity for streamed content and consumers must validate it.
	OnMetadata(duration float64)
	// OnCanPlay fires once enough data is buffered to begin playback.
	OnCanPlay()
	// OnDurationChange fires when the backend revises its duration estimate.
	OnDurationChange(duration float64)
	// OnEnded fires when playback reaches the end of the resource.
	OnEnded()
	// OnError fires on any load or playback failure. Terminal for the
	// resource.
	OnError(err error)
}

// MediaResource drives a single playable audio resource.
type MediaResource interface {
	// Open starts loading and registers the event sink. Must be called
	// exactly once before any command.
	Open(events MediaEvents) error
	Play() error
	Pause()
	// Seek moves the playback position, in seconds. Out-of-range values are
	// the caller's problem; backends clamp to their own bounds.
	Seek(seconds float64)
	// Position reports the current playback position in seconds.
	Position() float64
	// Duration reports the backend's own idea of the total duration, 0 when
	// unknown.
	Duration() float64
	Close() error
}

// MediaOpener resolves an opaque source URL (signed URL, public URL or local
// path) into a playable resource.
type MediaOpener interface {
	OpenMedia(ctx context.Context, sourceURL string) (MediaResource, error)
}

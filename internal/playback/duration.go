// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_playback

import "math"

// durationResolver reconciles the two possible sources of a clip's duration:
// an externally supplied hint (e.g. the measured duration of a just-finished
// recording) and the media backend's self-reported metadata.
//
// Precedence: the hint always wins. A local recording's measured duration is
// authoritative, while backend metadata can be unreliable — streamed content
// reports Infinity, some encoders report NaN. Reported values are adopted
// only when no hint exists and the value is finite and non-negative.
type durationResolver struct {
	hint     *float64
	reported float64
}

// adopt records a backend-reported duration, subject to the precedence rules.
func (d *durationResolver) adopt(reported float64) {
	if d.hint != nil {
		return
	}
	if math.IsNaN(reported) || math.IsInf(reported, 0) || reported < 0 {
		return
	}
	d.reported = reported
}

// value returns the resolved duration in seconds, 0 when unknown.
func (d *durationResolver) value() float64 {
	if d.hint != nil {
		return *d.hint
	}
	return d.reported
}

// known reports whether any duration source has resolved.
func (d *durationResolver) known() bool {
	return d.hint != nil || d.reported > 0
}

// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_playback

import (
	"fmt"
	"math"
)

// FormatTime renders a second count for display as minutes:seconds, seconds
// zero-padded to two digits. Values are floored to whole seconds; NaN,
// negative and non-finite inputs render as "0:00" instead of leaking into
// the UI.
func FormatTime(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return "0:00"
	}
	total := int(math.Floor(seconds))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

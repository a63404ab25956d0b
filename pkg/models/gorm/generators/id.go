// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package gorm_generator

import (
	"math/rand"
	"sync"
	"time"
)

var (
	mu   sync.Mutex
	last uint64
)

// ID returns a time-ordered 64-bit identifier: millisecond timestamp in the
// high bits, random entropy in the low 20. Monotonic within a process so that
// rows created in the same millisecond still sort by insertion order.
func ID() uint64 {
	mu.Lock()
	defer mu.Unlock()
	id := uint64(time.Now().UnixMilli())<<20 | uint64(rand.Intn(1<<20))
	if id <= last {
		id = last + 1
	}
	last = id
	return id
}

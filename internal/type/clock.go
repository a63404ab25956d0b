// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_type

import (
	"sync"
	"time"
)

// CancelFunc stops a scheduled callback. Safe to call more than once.
type CancelFunc func()

// Clock abstracts wall-clock reads and periodic callback scheduling so that
// time-driven state machines can be tested without real timers.
type Clock interface {
	Now() time.Time
	// Schedule invokes fn once per interval until the returned CancelFunc is
	// called. fn runs on the clock's own goroutine; callers must do their own
	// locking.
	Schedule(interval time.Duration, fn func()) CancelFunc
}

type systemClock struct{}

// SystemClock returns the real-time clock backed by time.Ticker.
func SystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) Schedule(interval time.Duration, fn func()) CancelFunc {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				fn()
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
		})
	}
}

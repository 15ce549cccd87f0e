// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package tick paces sample acquisition. A single producer raises a flag at
// the sample rate and a single consumer waits on it. A raise that finds the
// previous tick still unconsumed is counted as missed.
package tick

import (
	"context"
	"sync/atomic"
	"time"
)

// Waiter blocks until the next sample slot is due.
type Waiter interface {
	Wait(ctx context.Context) error
}

// Flag is a one-slot tick latch with one writer and one reader.
type Flag struct {
	ch     chan struct{}
	raised atomic.Uint64
	missed atomic.Uint64
}

// NewFlag returns a lowered flag.
func NewFlag() *Flag {
	return &Flag{ch: make(chan struct{}, 1)}
}

// Raise marks a tick as ready. It never blocks.
func (f *Flag) Raise() {
	f.raised.Add(1)
	select {
	case f.ch <- struct{}{}:
	default:
		// consumer still busy with the previous tick
		f.missed.Add(1)
	}
}

// Wait blocks until the flag is raised, then lowers it.
func (f *Flag) Wait(ctx context.Context) error {
	select {
	case <-f.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reset drops a pending tick and clears the missed counter. Call it after a
// deliberate pause so the pause is not reported as overrun.
func (f *Flag) Reset() {
	select {
	case <-f.ch:
	default:
	}
	f.missed.Store(0)
}

// Raised returns the total number of ticks produced.
func (f *Flag) Raised() uint64 { return f.raised.Load() }

// Missed returns the number of ticks that arrived while the previous one was
// still pending. This is the overrun signal.
func (f *Flag) Missed() uint64 { return f.missed.Load() }

// Pace raises f every interval until ctx is done. Run it in its own goroutine.
func Pace(ctx context.Context, f *Flag, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.Raise()
		}
	}
}

// Interval returns the tick period for a sample rate in Hz.
func Interval(sampleRateHz int) time.Duration {
	return time.Second / time.Duration(sampleRateHz)
}

// Resetter is implemented by waiters that can discard ticks that piled up
// while nobody was waiting.
type Resetter interface {
	Reset()
}

// Free is a Waiter for sources that pace themselves (serial replay, files).
type Free struct{}

// Wait returns immediately unless ctx is already done.
func (Free) Wait(ctx context.Context) error {
	return ctx.Err()
}

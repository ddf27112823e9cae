// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vehicle

import (
	"time"

	"github.com/Thermoquad/rover/pkg/hal"
)

// Beeper describes a piezo buzzer. It holds no state; each Fire starts a
// fresh tone.
type Beeper struct {
	Pin       hal.Pin
	Frequency uint
	Duration  time.Duration
}

// Init configures the buzzer pin
func (b Beeper) Init(board hal.Board) {
	board.SetPinMode(b.Pin, hal.Output)
}

// Fire starts one tone and returns without waiting for it to finish
func (b Beeper) Fire(board hal.Board) {
	board.Tone(b.Pin, b.Frequency, b.Duration)
}

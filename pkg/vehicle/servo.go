// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vehicle

import (
	"github.com/Thermoquad/rover/pkg/hal"
)

// Servo angle limits in degrees
const (
	ServoMinAngle = 0
	ServoMaxAngle = 180
)

// unsetAngle is outside every valid range so the first SetAngle after
// construction always writes
const unsetAngle = -1

// RangedServo drives a hobby servo restricted to [low, high] degrees.
// Angles outside the range are ignored.
type RangedServo struct {
	board hal.Board
	pin   hal.Pin
	low   int
	high  int
	angle int
}

// NewRangedServo creates a servo limited to the given bounds. Bounds may be
// given in either order and are clamped to the mechanical limits.
func NewRangedServo(board hal.Board, pin hal.Pin, low, high int) *RangedServo {
	if low > high {
		low, high = high, low
	}
	if low < ServoMinAngle {
		low = ServoMinAngle
	}
	if high > ServoMaxAngle {
		high = ServoMaxAngle
	}
	return &RangedServo{
		board: board,
		pin:   pin,
		low:   low,
		high:  high,
		angle: unsetAngle,
	}
}

// NewFullRangeServo creates a servo covering the full mechanical range
func NewFullRangeServo(board hal.Board, pin hal.Pin) *RangedServo {
	return NewRangedServo(board, pin, ServoMinAngle, ServoMaxAngle)
}

// Init attaches the servo and moves it to the middle of its range
func (s *RangedServo) Init() {
	s.board.AttachServo(s.pin)
	s.angle = unsetAngle
	s.SetAngle(s.Center())
}

// SetAngle moves the servo. Out-of-range and unchanged angles are no-ops.
func (s *RangedServo) SetAngle(angle int) {
	if angle < s.low || angle > s.high {
		return
	}
	if angle == s.angle {
		return
	}

	s.angle = angle
	s.board.ServoWrite(s.pin, angle)
}

// Range returns the effective bounds
func (s *RangedServo) Range() (low, high int) {
	return s.low, s.high
}

// Center returns the resting angle
func (s *RangedServo) Center() int {
	return (s.low + s.high) / 2
}

// Angle returns the last angle written, or -1 before Init
func (s *RangedServo) Angle() int {
	return s.angle
}

// Pin returns the servo's pin
func (s *RangedServo) Pin() hal.Pin {
	return s.pin
}

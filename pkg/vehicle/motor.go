// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vehicle

import (
	"fmt"

	"github.com/Thermoquad/rover/pkg/hal"
)

// MaxMagnitude is the largest PWM duty a motor is driven at
const MaxMagnitude = 0xFF

// Direction is the drive direction of a motor
type Direction uint8

const (
	Forward Direction = iota
	Backward
)

// String returns the direction name
func (d Direction) String() string {
	if d == Backward {
		return "BACKWARD"
	}
	return "FORWARD"
}

// MotorState is the last state commanded to a motor
type MotorState struct {
	Direction Direction
	Magnitude uint8
}

// String formats the state as a signed speed
func (s MotorState) String() string {
	if s.Direction == Backward {
		return fmt.Sprintf("-%d", s.Magnitude)
	}
	return fmt.Sprintf("+%d", s.Magnitude)
}

// MotorPins are the H-bridge pins of one motor
type MotorPins struct {
	Control1 hal.Pin
	Control2 hal.Pin
	Enable   hal.Pin
}

// Motor drives one DC motor through an H-bridge: two direction pins and a
// PWM enable pin. Writes are only issued when the commanded state changes.
type Motor struct {
	board hal.Board
	pins  MotorPins
	state MotorState
}

// NewMotor creates a motor driver. Call Init before SetSpeed.
func NewMotor(board hal.Board, pins MotorPins) *Motor {
	return &Motor{board: board, pins: pins}
}

// Pins returns the motor's pin assignment
func (m *Motor) Pins() MotorPins {
	return m.pins
}

// Init configures the pins and leaves the motor stopped. Both direction
// pins are driven through a full reversal so their levels are known
// regardless of what the board powered up with.
func (m *Motor) Init() {
	m.board.SetPinMode(m.pins.Control1, hal.Output)
	m.board.SetPinMode(m.pins.Control2, hal.Output)
	m.board.SetPinMode(m.pins.Enable, hal.Output)

	m.board.DigitalWrite(m.pins.Enable, hal.Low)
	m.state = MotorState{Direction: Forward}
	m.setDirection(Backward)
	m.SetSpeed(0)
}

// SetSpeed commands a signed speed. Negative values drive backward; the
// magnitude saturates at MaxMagnitude.
func (m *Motor) SetSpeed(speed int16) {
	next := speedToState(speed)
	if next == m.state {
		return
	}

	m.setDirection(next.Direction)
	m.state.Magnitude = next.Magnitude
	m.board.AnalogWrite(m.pins.Enable, next.Magnitude)
}

// State returns the last commanded state
func (m *Motor) State() MotorState {
	return m.state
}

func (m *Motor) setDirection(d Direction) {
	if d == m.state.Direction {
		return
	}
	m.state.Direction = d

	if d == Forward {
		m.board.DigitalWrite(m.pins.Control1, hal.High)
		m.board.DigitalWrite(m.pins.Control2, hal.Low)
	} else {
		m.board.DigitalWrite(m.pins.Control1, hal.Low)
		m.board.DigitalWrite(m.pins.Control2, hal.High)
	}
}

// speedToState maps a signed speed to direction and saturated magnitude.
// The magnitude is computed as int32 so -32768 does not overflow.
func speedToState(speed int16) MotorState {
	v := int32(speed)
	d := Forward
	if v < 0 {
		d = Backward
		v = -v
	}
	if v > MaxMagnitude {
		v = MaxMagnitude
	}
	return MotorState{Direction: d, Magnitude: uint8(v)}
}

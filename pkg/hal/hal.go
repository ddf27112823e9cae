// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package hal defines the pin-level capabilities the vehicle core drives,
// and the boards that provide them.
package hal

import (
	"fmt"
	"time"
)

// Pin is a board pin number
type Pin uint8

// PinMode selects how a pin is driven
type PinMode uint8

const (
	Input PinMode = iota
	Output
)

// String returns the mode name
func (m PinMode) String() string {
	if m == Output {
		return "OUTPUT"
	}
	return "INPUT"
}

// Level is a digital output level
type Level bool

const (
	Low  Level = false
	High Level = true
)

// String returns the level name
func (l Level) String() string {
	if l {
		return "HIGH"
	}
	return "LOW"
}

// Board provides the pin-level primitives of the vehicle's microcontroller.
// Implementations are not required to be safe for concurrent use unless
// documented otherwise.
type Board interface {
	SetPinMode(pin Pin, mode PinMode)
	DigitalWrite(pin Pin, level Level)
	// AnalogWrite sets the PWM duty on pin, 0..255.
	AnalogWrite(pin Pin, value uint8)
	AttachServo(pin Pin)
	// ServoWrite positions the servo attached to pin, in degrees.
	ServoWrite(pin Pin, angle int)
	// AnalogRead samples an analog input, 0..1023 on the reference board.
	AnalogRead(pin Pin) int
	// Tone starts a square wave on pin and returns immediately.
	Tone(pin Pin, frequency uint, duration time.Duration)
}

// Op identifies a Board call
type Op uint8

const (
	OpPinMode Op = iota
	OpDigitalWrite
	OpAnalogWrite
	OpAttachServo
	OpServoWrite
	OpAnalogRead
	OpTone
)

var opNames = [...]string{
	OpPinMode:      "pinMode",
	OpDigitalWrite: "digitalWrite",
	OpAnalogWrite:  "analogWrite",
	OpAttachServo:  "attachServo",
	OpServoWrite:   "servoWrite",
	OpAnalogRead:   "analogRead",
	OpTone:         "tone",
}

// String returns the call name
func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return "unknown"
}

// IsWrite reports whether the call changes an output
func (o Op) IsWrite() bool {
	switch o {
	case OpDigitalWrite, OpAnalogWrite, OpServoWrite, OpTone:
		return true
	}
	return false
}

// Call is one recorded Board call. Value holds the level (0/1), PWM duty,
// angle, pin mode or tone frequency depending on Op.
type Call struct {
	Op       Op
	Pin      Pin
	Value    int
	Duration time.Duration
}

// String formats a call the way the pin trace prints it
func (c Call) String() string {
	switch c.Op {
	case OpPinMode:
		return fmt.Sprintf("pinMode %s to pin %d", PinMode(c.Value), c.Pin)
	case OpDigitalWrite:
		return fmt.Sprintf("digitalWrite %s to pin %d", Level(c.Value != 0), c.Pin)
	case OpTone:
		return fmt.Sprintf("tone %d Hz for %s on pin %d", c.Value, c.Duration, c.Pin)
	case OpAttachServo:
		return fmt.Sprintf("attachServo to pin %d", c.Pin)
	default:
		return fmt.Sprintf("%s %d to pin %d", c.Op, c.Value, c.Pin)
	}
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package hal

import (
	"time"

	"github.com/golang/glog"
)

// TraceLevel is the glog verbosity at which Trace logs pin calls
const TraceLevel glog.Level = 2

// Trace wraps a Board and logs every call before forwarding it
type Trace struct {
	Board Board
	// Force logs regardless of the -v setting
	Force bool
}

// NewTrace wraps board with pin tracing
func NewTrace(board Board, force bool) *Trace {
	return &Trace{Board: board, Force: force}
}

func (t *Trace) log(c Call) {
	if t.Force {
		glog.Infof("# %s", c)
		return
	}
	if glog.V(TraceLevel) {
		glog.Infof("# %s", c)
	}
}

// SetPinMode implements Board
func (t *Trace) SetPinMode(pin Pin, mode PinMode) {
	t.log(Call{Op: OpPinMode, Pin: pin, Value: int(mode)})
	t.Board.SetPinMode(pin, mode)
}

// DigitalWrite implements Board
func (t *Trace) DigitalWrite(pin Pin, level Level) {
	v := 0
	if level {
		v = 1
	}
	t.log(Call{Op: OpDigitalWrite, Pin: pin, Value: v})
	t.Board.DigitalWrite(pin, level)
}

// AnalogWrite implements Board
func (t *Trace) AnalogWrite(pin Pin, value uint8) {
	t.log(Call{Op: OpAnalogWrite, Pin: pin, Value: int(value)})
	t.Board.AnalogWrite(pin, value)
}

// AttachServo implements Board
func (t *Trace) AttachServo(pin Pin) {
	t.log(Call{Op: OpAttachServo, Pin: pin})
	t.Board.AttachServo(pin)
}

// ServoWrite implements Board
func (t *Trace) ServoWrite(pin Pin, angle int) {
	t.log(Call{Op: OpServoWrite, Pin: pin, Value: angle})
	t.Board.ServoWrite(pin, angle)
}

// AnalogRead implements Board. Samples are not traced; the light
// controller logs them itself.
func (t *Trace) AnalogRead(pin Pin) int {
	return t.Board.AnalogRead(pin)
}

// Tone implements Board
func (t *Trace) Tone(pin Pin, frequency uint, duration time.Duration) {
	t.log(Call{Op: OpTone, Pin: pin, Value: int(frequency), Duration: duration})
	t.Board.Tone(pin, frequency, duration)
}

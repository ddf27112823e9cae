// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package hal

import (
	"sync"
	"time"
)

// Sim is an in-memory Board. It keeps the last value written to every pin,
// serves analog inputs set with SetAnalogInput, and records every call in
// order. Sim is safe for concurrent use so a dashboard can read it while
// the control loop drives it.
type Sim struct {
	mu       sync.Mutex
	modes    map[Pin]PinMode
	levels   map[Pin]Level
	pwm      map[Pin]uint8
	servos   map[Pin]int
	attached map[Pin]bool
	analog   map[Pin]int
	tones    int
	calls    []Call
	maxCalls int
}

// DefaultMaxCalls bounds the call log of a long-running Sim
const DefaultMaxCalls = 4096

// NewSim creates a simulated board with an empty call log
func NewSim() *Sim {
	return &Sim{
		modes:    make(map[Pin]PinMode),
		levels:   make(map[Pin]Level),
		pwm:      make(map[Pin]uint8),
		servos:   make(map[Pin]int),
		attached: make(map[Pin]bool),
		analog:   make(map[Pin]int),
		maxCalls: DefaultMaxCalls,
	}
}

func (s *Sim) record(c Call) {
	s.calls = append(s.calls, c)
	if s.maxCalls > 0 && len(s.calls) > s.maxCalls {
		s.calls = s.calls[len(s.calls)-s.maxCalls:]
	}
}

// SetPinMode implements Board
func (s *Sim) SetPinMode(pin Pin, mode PinMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modes[pin] = mode
	s.record(Call{Op: OpPinMode, Pin: pin, Value: int(mode)})
}

// DigitalWrite implements Board
func (s *Sim) DigitalWrite(pin Pin, level Level) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.levels[pin] = level
	v := 0
	if level {
		v = 1
	}
	s.record(Call{Op: OpDigitalWrite, Pin: pin, Value: v})
}

// AnalogWrite implements Board
func (s *Sim) AnalogWrite(pin Pin, value uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pwm[pin] = value
	s.record(Call{Op: OpAnalogWrite, Pin: pin, Value: int(value)})
}

// AttachServo implements Board
func (s *Sim) AttachServo(pin Pin) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attached[pin] = true
	s.record(Call{Op: OpAttachServo, Pin: pin})
}

// ServoWrite implements Board
func (s *Sim) ServoWrite(pin Pin, angle int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.servos[pin] = angle
	s.record(Call{Op: OpServoWrite, Pin: pin, Value: angle})
}

// AnalogRead implements Board
func (s *Sim) AnalogRead(pin Pin) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.analog[pin]
	s.record(Call{Op: OpAnalogRead, Pin: pin, Value: v})
	return v
}

// Tone implements Board
func (s *Sim) Tone(pin Pin, frequency uint, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tones++
	s.record(Call{Op: OpTone, Pin: pin, Value: int(frequency), Duration: duration})
}

// SetAnalogInput sets the value returned by AnalogRead for pin
func (s *Sim) SetAnalogInput(pin Pin, value int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analog[pin] = value
}

// AnalogInput returns the value AnalogRead would return for pin, without
// recording a call
func (s *Sim) AnalogInput(pin Pin) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.analog[pin]
}

// Level returns the last digital level written to pin
func (s *Sim) Level(pin Pin) Level {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.levels[pin]
}

// PinModeOf returns the mode last set on pin
func (s *Sim) PinModeOf(pin Pin) PinMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modes[pin]
}

// PWM returns the last duty written to pin
func (s *Sim) PWM(pin Pin) uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pwm[pin]
}

// ServoAngle returns the last angle written to the servo on pin and whether
// that servo is attached
func (s *Sim) ServoAngle(pin Pin) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.servos[pin], s.attached[pin]
}

// ToneCount returns how many tones have been fired
func (s *Sim) ToneCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tones
}

// Calls returns a copy of the call log
func (s *Sim) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// Writes returns the logged calls that changed an output
func (s *Sim) Writes() []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Op.IsWrite() {
			out = append(out, c)
		}
	}
	return out
}

// Reset clears the call log. Pin state is kept.
func (s *Sim) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

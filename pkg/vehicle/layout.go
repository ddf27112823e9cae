// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vehicle

import (
	"time"

	"github.com/Thermoquad/rover/pkg/hal"
)

// Reference board wiring
const (
	// AnalogPinA0 is the first analog input on the reference board
	AnalogPinA0 hal.Pin = 14

	DefaultBeepFrequency = 440
	DefaultBeepDuration  = 200 * time.Millisecond

	DefaultSteeringMin = 51
	DefaultSteeringMax = 140
)

// ServoLayout places one ranged servo
type ServoLayout struct {
	Pin  hal.Pin
	Low  int
	High int
}

// Layout collects the pin assignments and tunables of a vehicle
type Layout struct {
	LeftMotor  MotorPins
	RightMotor MotorPins

	Steering ServoLayout
	CameraX  ServoLayout
	CameraZ  ServoLayout

	Beeper Beeper

	Light     LightConfig
	StatusLED hal.Pin
}

// DefaultLayout returns the wiring of the reference vehicle
func DefaultLayout() Layout {
	return Layout{
		LeftMotor:  MotorPins{Control1: 2, Control2: 4, Enable: 3},
		RightMotor: MotorPins{Control1: 7, Control2: 8, Enable: 5},

		Steering: ServoLayout{Pin: 6, Low: DefaultSteeringMin, High: DefaultSteeringMax},
		CameraX:  ServoLayout{Pin: 9, Low: ServoMinAngle, High: ServoMaxAngle},
		CameraZ:  ServoLayout{Pin: 10, Low: ServoMinAngle, High: ServoMaxAngle},

		Beeper: Beeper{Pin: 12, Frequency: DefaultBeepFrequency, Duration: DefaultBeepDuration},

		Light: LightConfig{
			HeadlampPin:  11,
			SensorPin:    AnalogPinA0,
			UnlitBelow:   DefaultUnlitBelow,
			LitAbove:     DefaultLitAbove,
			InitialState: Unlit,
		},
		StatusLED: 13,
	}
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package vehicle turns decoded command frames into actuator updates and
// runs the control loop of the rover.
package vehicle

import (
	"fmt"

	"github.com/Thermoquad/rover/pkg/frame"
	"github.com/Thermoquad/rover/pkg/hal"
)

// Vehicle owns every actuator of the rover
type Vehicle struct {
	board  hal.Board
	layout Layout

	LeftMotor  *Motor
	RightMotor *Motor
	Steering   *RangedServo
	CameraX    *RangedServo
	CameraZ    *RangedServo
	Beeper     Beeper
	Light      *LightController

	beeps uint64
}

// Snapshot is a point-in-time view of the actuator state
type Snapshot struct {
	LeftMotor  MotorState
	RightMotor MotorState
	Steering   int
	CameraX    int
	CameraZ    int
	Light      LightState
	HeadlampOn bool
	Sample     int
	Beeps      uint64
}

// New builds a vehicle on board using layout. Nothing is written to the
// board until Init.
func New(board hal.Board, layout Layout) (*Vehicle, error) {
	light, err := NewLightController(board, layout.Light)
	if err != nil {
		return nil, fmt.Errorf("failed to create light controller: %w", err)
	}

	return &Vehicle{
		board:      board,
		layout:     layout,
		LeftMotor:  NewMotor(board, layout.LeftMotor),
		RightMotor: NewMotor(board, layout.RightMotor),
		Steering:   NewRangedServo(board, layout.Steering.Pin, layout.Steering.Low, layout.Steering.High),
		CameraX:    NewRangedServo(board, layout.CameraX.Pin, layout.CameraX.Low, layout.CameraX.High),
		CameraZ:    NewRangedServo(board, layout.CameraZ.Pin, layout.CameraZ.Low, layout.CameraZ.High),
		Beeper:     layout.Beeper,
		Light:      light,
	}, nil
}

// Layout returns the layout the vehicle was built with
func (v *Vehicle) Layout() Layout {
	return v.layout
}

// Init puts every actuator in its safe resting state. It may be called
// again to reset the vehicle.
func (v *Vehicle) Init() {
	v.LeftMotor.Init()
	v.RightMotor.Init()
	v.Steering.Init()
	v.CameraX.Init()
	v.CameraZ.Init()

	v.Beeper.Init(v.board)
	v.Light.Init()

	v.board.SetPinMode(v.layout.StatusLED, hal.Output)
	v.board.DigitalWrite(v.layout.StatusLED, hal.Low)
}

// Apply forwards each field of f to its actuator. Fields that match the
// current state produce no writes.
func (v *Vehicle) Apply(f frame.Frame) {
	v.LeftMotor.SetSpeed(f.LeftMotorSpeed)
	v.RightMotor.SetSpeed(f.RightMotorSpeed)
	v.Steering.SetAngle(int(f.ServoAngle))
	v.CameraX.SetAngle(int(f.CameraXAngle))
	v.CameraZ.SetAngle(int(f.CameraZAngle))
	if f.Beep {
		v.Beeper.Fire(v.board)
		v.beeps++
	}
}

// Snapshot returns the current actuator state
func (v *Vehicle) Snapshot() Snapshot {
	return Snapshot{
		LeftMotor:  v.LeftMotor.State(),
		RightMotor: v.RightMotor.State(),
		Steering:   v.Steering.Angle(),
		CameraX:    v.CameraX.Angle(),
		CameraZ:    v.CameraZ.Angle(),
		Light:      v.Light.State(),
		HeadlampOn: v.Light.HeadlampOn(),
		Sample:     v.Light.LastSample(),
		Beeps:      v.beeps,
	}
}

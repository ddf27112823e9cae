// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vehicle

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/rover/pkg/frame"
	"github.com/Thermoquad/rover/pkg/hal"
)

func newTestVehicle(t *testing.T) (*Vehicle, *hal.Sim) {
	t.Helper()
	board := hal.NewSim()
	v, err := New(board, DefaultLayout())
	require.NoError(t, err)
	v.Init()
	return v, board
}

func TestVehicleInit(t *testing.T) {
	v, board := newTestVehicle(t)

	snap := v.Snapshot()
	require.Equal(t, MotorState{Forward, 0}, snap.LeftMotor)
	require.Equal(t, MotorState{Forward, 0}, snap.RightMotor)
	require.Equal(t, 95, snap.Steering)
	require.Equal(t, 90, snap.CameraX)
	require.Equal(t, 90, snap.CameraZ)
	require.Equal(t, Unlit, snap.Light)
	require.True(t, snap.HeadlampOn)

	require.Equal(t, hal.High, board.Level(11))
	require.Equal(t, hal.Output, board.PinModeOf(13))
	require.Equal(t, hal.Low, board.Level(13))
	require.Equal(t, hal.Output, board.PinModeOf(12))
	require.Zero(t, board.ToneCount())

	for _, pin := range []hal.Pin{6, 9, 10} {
		_, attached := board.ServoAngle(pin)
		require.True(t, attached, "servo on pin %d", pin)
	}
}

func TestVehicleNewRejectsBadLayout(t *testing.T) {
	layout := DefaultLayout()
	layout.Light.LitAbove = layout.Light.UnlitBelow
	_, err := New(hal.NewSim(), layout)
	require.Error(t, err)
}

func TestVehicleApply(t *testing.T) {
	v, board := newTestVehicle(t)

	v.Apply(frame.Frame{
		LeftMotorSpeed:  -300,
		RightMotorSpeed: 128,
		ServoAngle:      60,
		CameraXAngle:    10,
		CameraZAngle:    170,
	})

	snap := v.Snapshot()
	require.Equal(t, MotorState{Backward, 255}, snap.LeftMotor)
	require.Equal(t, MotorState{Forward, 128}, snap.RightMotor)
	require.Equal(t, 60, snap.Steering)
	require.Equal(t, 10, snap.CameraX)
	require.Equal(t, 170, snap.CameraZ)
	require.Equal(t, uint8(255), board.PWM(3))
	require.Equal(t, uint8(128), board.PWM(5))
	require.Zero(t, snap.Beeps)
}

func TestVehicleApplyOutOfRangeSteering(t *testing.T) {
	v, board := newTestVehicle(t)
	board.Reset()

	v.Apply(frame.Frame{ServoAngle: 20, CameraXAngle: 90, CameraZAngle: 90})
	require.Empty(t, board.Writes())
	require.Equal(t, 95, v.Snapshot().Steering)
}

func TestVehicleApplyIdempotent(t *testing.T) {
	v, board := newTestVehicle(t)
	f := frame.Frame{LeftMotorSpeed: 50, RightMotorSpeed: -50, ServoAngle: 100, CameraXAngle: 45, CameraZAngle: 135}

	v.Apply(f)
	board.Reset()
	v.Apply(f)
	require.Empty(t, board.Writes())
}

func TestVehicleBeepAtRest(t *testing.T) {
	v, board := newTestVehicle(t)

	// park the camera where an all-zero frame points it
	v.Apply(frame.Frame{})
	board.Reset()

	v.Apply(frame.Frame{Beep: true})

	writes := board.Writes()
	require.Equal(t, []hal.Call{
		{Op: hal.OpTone, Pin: 12, Value: DefaultBeepFrequency, Duration: DefaultBeepDuration},
	}, writes)
	require.Equal(t, uint64(1), v.Snapshot().Beeps)

	// the beeper holds no state, so a second beep fires again
	v.Apply(frame.Frame{Beep: true})
	require.Equal(t, 2, board.ToneCount())
}

func TestVehicleReinit(t *testing.T) {
	v, _ := newTestVehicle(t)
	v.Apply(frame.Frame{LeftMotorSpeed: 99, ServoAngle: 51})

	v.Init()
	snap := v.Snapshot()
	require.Equal(t, MotorState{Forward, 0}, snap.LeftMotor)
	require.Equal(t, 95, snap.Steering)
}

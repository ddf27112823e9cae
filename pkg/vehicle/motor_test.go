// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vehicle

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/rover/pkg/hal"
)

var testMotorPins = MotorPins{Control1: 2, Control2: 4, Enable: 3}

func newTestMotor(t *testing.T) (*Motor, *hal.Sim) {
	t.Helper()
	board := hal.NewSim()
	m := NewMotor(board, testMotorPins)
	m.Init()
	board.Reset()
	return m, board
}

func TestMotorInit(t *testing.T) {
	board := hal.NewSim()
	m := NewMotor(board, testMotorPins)
	m.Init()

	require.Equal(t, []hal.Call{
		{Op: hal.OpPinMode, Pin: 2, Value: int(hal.Output)},
		{Op: hal.OpPinMode, Pin: 4, Value: int(hal.Output)},
		{Op: hal.OpPinMode, Pin: 3, Value: int(hal.Output)},
		{Op: hal.OpDigitalWrite, Pin: 3, Value: 0},
		{Op: hal.OpDigitalWrite, Pin: 2, Value: 0},
		{Op: hal.OpDigitalWrite, Pin: 4, Value: 1},
		{Op: hal.OpDigitalWrite, Pin: 2, Value: 1},
		{Op: hal.OpDigitalWrite, Pin: 4, Value: 0},
		{Op: hal.OpAnalogWrite, Pin: 3, Value: 0},
	}, board.Calls())
	require.Equal(t, MotorState{Direction: Forward, Magnitude: 0}, m.State())
}

func TestMotorSetSpeed(t *testing.T) {
	testCases := []struct {
		speed  int16
		expect MotorState
	}{
		{-300, MotorState{Backward, 255}},
		{-1, MotorState{Backward, 1}},
		{0, MotorState{Forward, 0}},
		{1, MotorState{Forward, 1}},
		{300, MotorState{Forward, 255}},
		{255, MotorState{Forward, 255}},
		{-255, MotorState{Backward, 255}},
		{math.MaxInt16, MotorState{Forward, 255}},
		{math.MinInt16, MotorState{Backward, 255}},
	}
	for _, tc := range testCases {
		t.Run(fmt.Sprintf("speed %d", tc.speed), func(t *testing.T) {
			m, board := newTestMotor(t)
			m.SetSpeed(tc.speed)
			require.Equal(t, tc.expect, m.State())
			require.Equal(t, tc.expect.Magnitude, board.PWM(testMotorPins.Enable))
		})
	}
}

func TestMotorIdempotent(t *testing.T) {
	m, board := newTestMotor(t)

	m.SetSpeed(120)
	require.NotEmpty(t, board.Calls())

	board.Reset()
	m.SetSpeed(120)
	require.Empty(t, board.Calls())

	// 300 and 255 saturate to the same state
	m.SetSpeed(300)
	board.Reset()
	m.SetSpeed(255)
	require.Empty(t, board.Calls())
}

func TestMotorZeroAfterInitIsNoop(t *testing.T) {
	m, board := newTestMotor(t)
	m.SetSpeed(0)
	require.Empty(t, board.Calls())
}

func TestMotorDirectionChange(t *testing.T) {
	m, board := newTestMotor(t)

	m.SetSpeed(-10)
	require.Equal(t, []hal.Call{
		{Op: hal.OpDigitalWrite, Pin: 2, Value: 0},
		{Op: hal.OpDigitalWrite, Pin: 4, Value: 1},
		{Op: hal.OpAnalogWrite, Pin: 3, Value: 10},
	}, board.Calls())

	board.Reset()
	m.SetSpeed(-20)
	require.Equal(t, []hal.Call{
		{Op: hal.OpAnalogWrite, Pin: 3, Value: 20},
	}, board.Calls())

	board.Reset()
	m.SetSpeed(20)
	require.Equal(t, []hal.Call{
		{Op: hal.OpDigitalWrite, Pin: 2, Value: 1},
		{Op: hal.OpDigitalWrite, Pin: 4, Value: 0},
		{Op: hal.OpAnalogWrite, Pin: 3, Value: 20},
	}, board.Calls())
}

func TestMotorStateString(t *testing.T) {
	require.Equal(t, "+0", MotorState{}.String())
	require.Equal(t, "-255", MotorState{Backward, 255}.String())
	require.Equal(t, "BACKWARD", Backward.String())
}

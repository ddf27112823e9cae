// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vehicle

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/rover/pkg/hal"
)

func TestRangedServoBounds(t *testing.T) {
	testCases := []struct {
		name      string
		low, high int
		expectLow int
		expectHi  int
	}{
		{"ascending", 51, 140, 51, 140},
		{"swapped", 140, 51, 51, 140},
		{"clamped", -10, 200, 0, 180},
		{"swapped and clamped", 200, -10, 0, 180},
		{"single angle", 90, 90, 90, 90},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewRangedServo(hal.NewSim(), 6, tc.low, tc.high)
			low, high := s.Range()
			require.Equal(t, tc.expectLow, low)
			require.Equal(t, tc.expectHi, high)
		})
	}

	low, high := NewFullRangeServo(hal.NewSim(), 9).Range()
	require.Equal(t, 0, low)
	require.Equal(t, 180, high)
}

func TestRangedServoInit(t *testing.T) {
	board := hal.NewSim()
	s := NewRangedServo(board, 6, 51, 140)
	require.Equal(t, unsetAngle, s.Angle())

	s.Init()
	require.Equal(t, []hal.Call{
		{Op: hal.OpAttachServo, Pin: 6},
		{Op: hal.OpServoWrite, Pin: 6, Value: 95},
	}, board.Calls())
	require.Equal(t, 95, s.Angle())

	// re-init writes the resting angle again
	board.Reset()
	s.Init()
	require.Len(t, board.Writes(), 1)
}

func TestRangedServoSetAngle(t *testing.T) {
	board := hal.NewSim()
	s := NewRangedServo(board, 6, 51, 140)
	s.Init()

	testCases := []struct {
		name   string
		angle  int
		writes int
		expect int
	}{
		{"below range", 50, 0, 95},
		{"above range", 141, 0, 95},
		{"negative", -1, 0, 95},
		{"unchanged", 95, 0, 95},
		{"low bound", 51, 1, 51},
		{"high bound", 140, 1, 140},
		{"inside", 100, 1, 100},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s.SetAngle(95)
			board.Reset()
			s.SetAngle(tc.angle)
			require.Len(t, board.Writes(), tc.writes)
			require.Equal(t, tc.expect, s.Angle())
		})
	}
}

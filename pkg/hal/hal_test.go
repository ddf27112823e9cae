// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package hal

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSimRecordsCalls(t *testing.T) {
	s := NewSim()
	s.SetPinMode(3, Output)
	s.DigitalWrite(3, High)
	s.AnalogWrite(5, 200)
	s.AttachServo(6)
	s.ServoWrite(6, 95)
	s.Tone(12, 440, 200*time.Millisecond)

	require.Equal(t, []Call{
		{Op: OpPinMode, Pin: 3, Value: int(Output)},
		{Op: OpDigitalWrite, Pin: 3, Value: 1},
		{Op: OpAnalogWrite, Pin: 5, Value: 200},
		{Op: OpAttachServo, Pin: 6},
		{Op: OpServoWrite, Pin: 6, Value: 95},
		{Op: OpTone, Pin: 12, Value: 440, Duration: 200 * time.Millisecond},
	}, s.Calls())

	require.Equal(t, Output, s.PinModeOf(3))
	require.Equal(t, High, s.Level(3))
	require.Equal(t, uint8(200), s.PWM(5))
	angle, attached := s.ServoAngle(6)
	require.True(t, attached)
	require.Equal(t, 95, angle)
	require.Equal(t, 1, s.ToneCount())
}

func TestSimWritesExcludesSetupAndReads(t *testing.T) {
	s := NewSim()
	s.SetPinMode(3, Output)
	s.AttachServo(6)
	s.AnalogRead(14)
	s.DigitalWrite(3, Low)

	writes := s.Writes()
	require.Len(t, writes, 1)
	require.Equal(t, OpDigitalWrite, writes[0].Op)
}

func TestSimAnalogInput(t *testing.T) {
	s := NewSim()
	require.Equal(t, 0, s.AnalogRead(14))
	s.SetAnalogInput(14, 612)
	require.Equal(t, 612, s.AnalogRead(14))
	require.Equal(t, 612, s.AnalogInput(14))
}

func TestSimResetKeepsPinState(t *testing.T) {
	s := NewSim()
	s.DigitalWrite(11, High)
	s.Reset()
	require.Empty(t, s.Calls())
	require.Equal(t, High, s.Level(11))
}

func TestSimCallLogBounded(t *testing.T) {
	s := NewSim()
	s.maxCalls = 4
	for i := 0; i < 10; i++ {
		s.AnalogWrite(3, uint8(i))
	}
	calls := s.Calls()
	require.Len(t, calls, 4)
	require.Equal(t, 6, calls[0].Value)
	require.Equal(t, 9, calls[3].Value)
}

func TestSimConcurrentAccess(t *testing.T) {
	s := NewSim()
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.ServoWrite(Pin(i), j)
				s.ServoAngle(Pin(i))
			}
		}(i)
	}
	wg.Wait()
	require.Len(t, s.Calls(), 400)
}

func TestTraceForwards(t *testing.T) {
	s := NewSim()
	s.SetAnalogInput(14, 321)
	tr := NewTrace(s, false)

	tr.SetPinMode(2, Output)
	tr.DigitalWrite(2, High)
	tr.AnalogWrite(3, 17)
	tr.AttachServo(9)
	tr.ServoWrite(9, 90)
	tr.Tone(12, 440, time.Second)
	require.Equal(t, 321, tr.AnalogRead(14))

	calls := s.Calls()
	require.Len(t, calls, 7)
	require.Equal(t, OpAnalogRead, calls[6].Op)
}

func TestCallString(t *testing.T) {
	testCases := []struct {
		call   Call
		expect string
	}{
		{Call{Op: OpPinMode, Pin: 2, Value: int(Output)}, "pinMode OUTPUT to pin 2"},
		{Call{Op: OpDigitalWrite, Pin: 13, Value: 0}, "digitalWrite LOW to pin 13"},
		{Call{Op: OpAnalogWrite, Pin: 3, Value: 255}, "analogWrite 255 to pin 3"},
		{Call{Op: OpServoWrite, Pin: 6, Value: 95}, "servoWrite 95 to pin 6"},
		{Call{Op: OpAttachServo, Pin: 6}, "attachServo to pin 6"},
		{Call{Op: OpTone, Pin: 12, Value: 440, Duration: 200 * time.Millisecond}, "tone 440 Hz for 200ms on pin 12"},
	}
	for _, tc := range testCases {
		t.Run(tc.expect, func(t *testing.T) {
			require.Equal(t, tc.expect, tc.call.String())
		})
	}
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vehicle

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/rover/pkg/frame"
	"github.com/Thermoquad/rover/pkg/hal"
)

// scriptLink returns one scripted chunk per Read. An empty chunk is a read
// timeout. When the script runs out it keeps timing out or, with eof set,
// reports io.EOF.
type scriptLink struct {
	chunks [][]byte
	errs   []error
	eof    bool
}

func (l *scriptLink) Read(p []byte) (int, error) {
	if len(l.errs) > 0 {
		err := l.errs[0]
		l.errs = l.errs[1:]
		return 0, err
	}
	if len(l.chunks) == 0 {
		if l.eof {
			return 0, io.EOF
		}
		return 0, nil
	}
	n := copy(p, l.chunks[0])
	if n < len(l.chunks[0]) {
		l.chunks[0] = l.chunks[0][n:]
	} else {
		l.chunks = l.chunks[1:]
	}
	return n, nil
}

type lineSink struct {
	lines []string
}

func (s *lineSink) add(line string) {
	s.lines = append(s.lines, line)
}

func newTestDispatcher(t *testing.T, link *scriptLink) (*Dispatcher, *hal.Sim, *lineSink) {
	t.Helper()
	v, board := newTestVehicle(t)
	sink := &lineSink{}
	d := NewDispatcher(v, link, sink.add)
	board.Reset()
	return d, board, sink
}

func TestDispatcherStart(t *testing.T) {
	board := hal.NewSim()
	v, err := New(board, DefaultLayout())
	require.NoError(t, err)
	sink := &lineSink{}
	d := NewDispatcher(v, &scriptLink{}, sink.add)

	d.Start()
	require.Equal(t, []string{MsgInitDone}, sink.lines)
	require.Equal(t, hal.Low, board.Level(13))
}

func TestDispatcherTickValidFrame(t *testing.T) {
	f := frame.Frame{LeftMotorSpeed: 200, RightMotorSpeed: -200, ServoAngle: 120, CameraXAngle: 30, CameraZAngle: 150}
	d, _, sink := newTestDispatcher(t, &scriptLink{chunks: [][]byte{frame.Encode(f)}})

	require.NoError(t, d.Tick())

	require.Equal(t, []string{
		"left_motor_speed: 200",
		"right_motor_speed: -200",
		"servo_angle: 120",
		"camera_x_angle: 30",
		"camera_z_angle: 150",
		"beep: no",
	}, sink.lines)

	snap := d.Vehicle.Snapshot()
	require.Equal(t, MotorState{Forward, 200}, snap.LeftMotor)
	require.Equal(t, MotorState{Backward, 200}, snap.RightMotor)
	require.Equal(t, 120, snap.Steering)
	require.Equal(t, uint64(1), d.Stats.ValidFrames)
}

func TestDispatcherTickLightBeforeRead(t *testing.T) {
	d, board, _ := newTestDispatcher(t, &scriptLink{chunks: [][]byte{frame.Encode(frame.Frame{LeftMotorSpeed: 1})}})

	require.NoError(t, d.Tick())
	calls := board.Calls()
	require.NotEmpty(t, calls)
	require.Equal(t, hal.OpAnalogRead, calls[0].Op)
	require.Equal(t, AnalogPinA0, calls[0].Pin)
}

func TestDispatcherTickIdle(t *testing.T) {
	d, board, sink := newTestDispatcher(t, &scriptLink{})
	board.SetAnalogInput(AnalogPinA0, 900)

	require.NoError(t, d.Tick())
	require.Empty(t, sink.lines)
	require.Zero(t, d.Stats.TotalFrames)

	// the light check still ran
	require.Equal(t, Lit, d.Vehicle.Light.State())
	require.Equal(t, hal.Low, board.Level(11))
}

func TestDispatcherTickDropsInvalid(t *testing.T) {
	valid := frame.Encode(frame.Frame{LeftMotorSpeed: 255, ServoAngle: 60, Beep: true})

	badMagic := append([]byte(nil), valid...)
	badMagic[0] = 0x00

	badCRC := append([]byte(nil), valid...)
	badCRC[frame.Length-1] ^= 0xFF

	testCases := []struct {
		name   string
		chunks [][]byte
		check  func(t *testing.T, s *frame.Statistics)
	}{
		{"bad magic", [][]byte{badMagic}, func(t *testing.T, s *frame.Statistics) {
			require.Equal(t, uint64(1), s.BadMagic)
		}},
		{"bad crc", [][]byte{badCRC}, func(t *testing.T, s *frame.Statistics) {
			require.Equal(t, uint64(1), s.CRCErrors)
		}},
		{"short block", [][]byte{valid[:7]}, func(t *testing.T, s *frame.Statistics) {
			require.Equal(t, uint64(1), s.LengthMismatches)
		}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d, board, sink := newTestDispatcher(t, &scriptLink{chunks: tc.chunks})

			require.NoError(t, d.Tick())
			require.Len(t, sink.lines, 1)
			require.True(t, strings.HasPrefix(sink.lines[0], MsgDropped+": "), sink.lines[0])
			require.Empty(t, board.Writes())
			require.Zero(t, d.Stats.ValidFrames)
			tc.check(t, d.Stats)
		})
	}
}

func TestDispatcherTickSplitFrame(t *testing.T) {
	raw := frame.Encode(frame.Frame{RightMotorSpeed: -5})
	d, _, _ := newTestDispatcher(t, &scriptLink{chunks: [][]byte{raw[:4], raw[4:11], raw[11:]}})

	require.NoError(t, d.Tick())
	require.Equal(t, MotorState{Backward, 5}, d.Vehicle.Snapshot().RightMotor)
}

func TestDispatcherBeepFrameAtRest(t *testing.T) {
	link := &scriptLink{chunks: [][]byte{
		frame.Encode(frame.Frame{}),
		frame.Encode(frame.Frame{Beep: true}),
	}}
	d, board, _ := newTestDispatcher(t, link)
	board.SetAnalogInput(AnalogPinA0, 500)

	require.NoError(t, d.Tick())
	board.Reset()
	require.NoError(t, d.Tick())

	require.Equal(t, []hal.Call{
		{Op: hal.OpTone, Pin: 12, Value: DefaultBeepFrequency, Duration: DefaultBeepDuration},
	}, board.Writes())
}

func TestDispatcherOnFrame(t *testing.T) {
	f := frame.Frame{CameraXAngle: 12}
	d, _, _ := newTestDispatcher(t, &scriptLink{chunks: [][]byte{frame.Encode(f)}})

	var got []frame.Frame
	d.OnFrame = func(f frame.Frame) { got = append(got, f) }
	require.NoError(t, d.Tick())
	require.Equal(t, []frame.Frame{f}, got)
}

func TestDispatcherRunStopsAtEOF(t *testing.T) {
	link := &scriptLink{
		chunks: [][]byte{
			frame.Encode(frame.Frame{LeftMotorSpeed: 10}),
			{0x01, 0x02},
			{},
			frame.Encode(frame.Frame{LeftMotorSpeed: 20}),
		},
		eof: true,
	}
	d, _, _ := newTestDispatcher(t, link)

	require.NoError(t, d.Run(context.Background()))
	require.Equal(t, MotorState{Forward, 20}, d.Vehicle.Snapshot().LeftMotor)
	require.Equal(t, uint64(2), d.Stats.ValidFrames)
	require.Equal(t, uint64(1), d.Stats.LengthMismatches)
}

func TestDispatcherRunStopsOnCancel(t *testing.T) {
	d, _, _ := newTestDispatcher(t, &scriptLink{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.NoError(t, d.Run(ctx))
}

func TestDispatcherRunContinuesAfterError(t *testing.T) {
	link := &scriptLink{
		errs:   []error{errors.New("line noise")},
		chunks: [][]byte{frame.Encode(frame.Frame{LeftMotorSpeed: 33})},
		eof:    true,
	}
	d, _, _ := newTestDispatcher(t, link)
	d.ErrorBackoff = time.Millisecond

	require.NoError(t, d.Run(context.Background()))
	require.Equal(t, MotorState{Forward, 33}, d.Vehicle.Snapshot().LeftMotor)
}

func TestDispatcherStatisticsCopy(t *testing.T) {
	d, _, _ := newTestDispatcher(t, &scriptLink{chunks: [][]byte{frame.Encode(frame.Frame{})}})
	require.NoError(t, d.Tick())

	stats := d.Statistics()
	require.Equal(t, uint64(1), stats.ValidFrames)

	stats.ValidFrames = 99
	require.Equal(t, uint64(1), d.Stats.ValidFrames)

	d.Stats = nil
	require.Zero(t, d.Statistics().TotalFrames)
	require.NoError(t, d.Tick())
}

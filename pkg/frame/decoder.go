// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrShortFrame is returned by Decode when the block cannot hold the layout
var ErrShortFrame = errors.New("frame too short")

// Decode reinterprets a raw block as a Frame. It performs no integrity or
// range checks; call Validate first.
func Decode(raw []byte) (Frame, error) {
	if len(raw) < bodyLength {
		return Frame{}, fmt.Errorf("%w: %d bytes", ErrShortFrame, len(raw))
	}
	return Frame{
		LeftMotorSpeed:  getInt16(raw[offLeftMotor:]),
		RightMotorSpeed: getInt16(raw[offRightMotor:]),
		ServoAngle:      getInt16(raw[offServo:]),
		CameraXAngle:    getInt16(raw[offCameraX:]),
		CameraZAngle:    getInt16(raw[offCameraZ:]),
		Beep:            raw[offBeep] != 0,
	}, nil
}

// Parse validates and decodes raw as a unit
func Parse(raw []byte) (Frame, error) {
	if err := Validate(raw); err != nil {
		return Frame{}, err
	}
	return Decode(raw)
}

func getInt16(b []byte) int16 {
	return int16(binary.LittleEndian.Uint16(b))
}

// Scanner recovers frames from an unframed byte stream, as seen by a
// monitor attached to the link. It hunts for the magic bytes, collects a
// full frame and validates it; on failure it slides forward one byte and
// hunts again, so a corrupt or partial frame costs at most one frame.
type Scanner struct {
	buffer []byte
}

// NewScanner creates a new stream scanner
func NewScanner() *Scanner {
	return &Scanner{buffer: make([]byte, 0, Length)}
}

// Reset drops any partially collected frame
func (s *Scanner) Reset() {
	s.buffer = s.buffer[:0]
}

// GetRawBytes returns the bytes collected towards the next frame
func (s *Scanner) GetRawBytes() []byte {
	return s.buffer
}

// Feed processes a single byte.
// Returns a completed frame, or nil if the frame is incomplete.
// Returns an error when a full-length block fails validation.
func (s *Scanner) Feed(b byte) (*Frame, error) {
	s.buffer = append(s.buffer, b)

	// Hunting for the first magic byte
	if s.buffer[0] != Magic0 {
		s.Reset()
		return nil, nil
	}
	if len(s.buffer) == 2 && s.buffer[1] != Magic1 {
		s.resync()
		return nil, nil
	}
	if len(s.buffer) < Length {
		return nil, nil
	}

	if err := Validate(s.buffer); err != nil {
		s.resync()
		return nil, err
	}

	f, _ := Decode(s.buffer)
	s.Reset()
	return &f, nil
}

// resync discards the leading byte and keeps whatever tail could still be
// the start of the next frame.
func (s *Scanner) resync() {
	tail := s.buffer[1:]
	s.Reset()
	for i, b := range tail {
		if b == Magic0 {
			s.buffer = append(s.buffer, tail[i:]...)
			break
		}
	}
	// The kept tail may itself hold a bad second byte
	if len(s.buffer) >= 2 && s.buffer[1] != Magic1 {
		s.resync()
	}
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package frame

// Frame is one decoded command frame. Field values are carried exactly as
// they appeared on the wire; range checking belongs to the actuator drivers.
type Frame struct {
	LeftMotorSpeed  int16
	RightMotorSpeed int16
	ServoAngle      int16
	CameraXAngle    int16
	CameraZAngle    int16
	Beep            bool
}

// MarshalBinary implements encoding.BinaryMarshaler
func (f Frame) MarshalBinary() ([]byte, error) {
	return Encode(f), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. Unlike Decode it
// rejects blocks that fail validation.
func (f *Frame) UnmarshalBinary(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}


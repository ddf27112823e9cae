// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package frame

import "encoding/binary"

// Encode creates a complete wire-formatted frame, magic and CRC included.
func Encode(f Frame) []byte {
	data := make([]byte, Length)

	data[offMagic] = Magic0
	data[offMagic+1] = Magic1
	putInt16(data[offLeftMotor:], f.LeftMotorSpeed)
	putInt16(data[offRightMotor:], f.RightMotorSpeed)
	putInt16(data[offServo:], f.ServoAngle)
	putInt16(data[offCameraX:], f.CameraXAngle)
	putInt16(data[offCameraZ:], f.CameraZAngle)
	if f.Beep {
		data[offBeep] = 1
	}

	// Append CRC (big-endian)
	crc := CalculateCRC(data[:bodyLength])
	binary.BigEndian.PutUint16(data[offCRC:], crc)

	return data
}

func putInt16(b []byte, v int16) {
	binary.LittleEndian.PutUint16(b, uint16(v))
}

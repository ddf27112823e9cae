// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package frame implements the rover command frame: a fixed-length binary
// record carrying one control tick's worth of actuator targets from the
// driver station to the vehicle.
//
// Wire layout (15 bytes, integers little-endian):
//
//	0  magic            0xA5 0x5A
//	2  left motor       int16
//	4  right motor      int16
//	6  steering angle   int16
//	8  camera X angle   int16
//	10 camera Z angle   int16
//	12 beep             uint8, non-zero means true
//	13 CRC-16-CCITT     over bytes 0..12, big-endian
//
// A frame is accepted only when its length, magic and CRC all match.
package frame

// Frame size
const (
	Length     = 15
	bodyLength = Length - crcSize // bytes covered by the CRC
	crcSize    = 2
)

// Integrity marker
const (
	Magic0 = 0xA5
	Magic1 = 0x5A
)

// Field offsets
const (
	offMagic      = 0
	offLeftMotor  = 2
	offRightMotor = 4
	offServo      = 6
	offCameraX    = 8
	offCameraZ    = 10
	offBeep       = 12
	offCRC        = 13
)

// CRC-16-CCITT configuration
const (
	crcPolynomial = 0x1021
	crcInitial    = 0xFFFF
)

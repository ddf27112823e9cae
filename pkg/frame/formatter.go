// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package frame

import (
	"fmt"
	"strings"
)

// Dump renders every field of f as one text line per field and hands each
// line to sink. The codec never writes anywhere on its own.
func Dump(f Frame, sink func(string)) {
	if sink == nil {
		return
	}
	sink(fmt.Sprintf("left_motor_speed: %d", f.LeftMotorSpeed))
	sink(fmt.Sprintf("right_motor_speed: %d", f.RightMotorSpeed))
	sink(fmt.Sprintf("servo_angle: %d", f.ServoAngle))
	sink(fmt.Sprintf("camera_x_angle: %d", f.CameraXAngle))
	sink(fmt.Sprintf("camera_z_angle: %d", f.CameraZAngle))
	sink(fmt.Sprintf("beep: %s", formatBool(f.Beep)))
}

// FormatFrame formats a frame into a single human-readable line
func FormatFrame(f Frame) string {
	return fmt.Sprintf("L=%+5d R=%+5d steer=%3d cam=(%3d,%3d) beep=%s",
		f.LeftMotorSpeed, f.RightMotorSpeed, f.ServoAngle, f.CameraXAngle, f.CameraZAngle, formatBool(f.Beep))
}

// FormatHex returns a hex dump of a raw block, 16 bytes per line
func FormatHex(raw []byte) string {
	var sb strings.Builder
	for i, b := range raw {
		if i > 0 && i%16 == 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("%02X ", b))
	}
	return strings.TrimRight(sb.String(), " ")
}

func formatBool(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

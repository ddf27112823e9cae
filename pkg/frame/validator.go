// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package frame

import (
	"encoding/binary"
	"fmt"
)

// AnomalyType represents the reason a raw block was rejected
type AnomalyType int

const (
	AnomalyLengthMismatch AnomalyType = iota
	AnomalyBadMagic
	AnomalyCRCError
)

// String returns the anomaly name used in diagnostics
func (a AnomalyType) String() string {
	switch a {
	case AnomalyLengthMismatch:
		return "LENGTH_MISMATCH"
	case AnomalyBadMagic:
		return "BAD_MAGIC"
	case AnomalyCRCError:
		return "CRC_ERROR"
	default:
		return "UNKNOWN"
	}
}

// ValidationError represents a frame validation failure
type ValidationError struct {
	Type    AnomalyType
	Message string
	Details map[string]interface{}
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	return v.Message
}

// Validate checks the length and integrity marker of a raw block.
// It never looks at field values. Returns nil if the block is a valid frame.
func Validate(raw []byte) error {
	if len(raw) != Length {
		return &ValidationError{
			Type:    AnomalyLengthMismatch,
			Message: fmt.Sprintf("frame length %d (expected %d)", len(raw), Length),
			Details: map[string]interface{}{"received": len(raw), "expected": Length},
		}
	}

	if raw[offMagic] != Magic0 || raw[offMagic+1] != Magic1 {
		return &ValidationError{
			Type:    AnomalyBadMagic,
			Message: fmt.Sprintf("bad magic 0x%02X%02X (expected 0x%02X%02X)", raw[offMagic], raw[offMagic+1], Magic0, Magic1),
			Details: map[string]interface{}{"magic": [2]byte{raw[offMagic], raw[offMagic+1]}},
		}
	}

	received := binary.BigEndian.Uint16(raw[offCRC:])
	calculated := CalculateCRC(raw[:bodyLength])
	if received != calculated {
		return &ValidationError{
			Type:    AnomalyCRCError,
			Message: fmt.Sprintf("CRC mismatch: expected 0x%04X, got 0x%04X", calculated, received),
			Details: map[string]interface{}{"received": received, "calculated": calculated},
		}
	}

	return nil
}

// IsValid reports whether raw is exactly one valid frame
func IsValid(raw []byte) bool {
	return Validate(raw) == nil
}

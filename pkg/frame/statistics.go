// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package frame

import (
	"errors"
	"fmt"
	"time"
)

// Statistics tracks frame statistics and error rates on a link
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	TotalFrames      uint64
	ValidFrames      uint64
	LengthMismatches uint64
	BadMagic         uint64
	CRCErrors        uint64
	OtherErrors      uint64

	// Rates (calculated)
	FrameRate float64 // frames/sec
	ErrorRate float64 // errors/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// Update records one frame. err is the validation result for it, nil when
// the frame was accepted.
func (s *Statistics) Update(err error) {
	s.TotalFrames++
	s.LastUpdateTime = time.Now()

	if err == nil {
		s.ValidFrames++
		return
	}

	var verr *ValidationError
	if !errors.As(err, &verr) {
		s.OtherErrors++
		return
	}
	switch verr.Type {
	case AnomalyLengthMismatch:
		s.LengthMismatches++
	case AnomalyBadMagic:
		s.BadMagic++
	case AnomalyCRCError:
		s.CRCErrors++
	default:
		s.OtherErrors++
	}
}

// Errors returns the total number of rejected frames
func (s *Statistics) Errors() uint64 {
	return s.LengthMismatches + s.BadMagic + s.CRCErrors + s.OtherErrors
}

// CalculateRates calculates frame and error rates
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.FrameRate = float64(s.TotalFrames) / elapsed
		s.ErrorRate = float64(s.Errors()) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	var validPercent, errorPercent float64
	if s.TotalFrames > 0 {
		validPercent = float64(s.ValidFrames) * 100.0 / float64(s.TotalFrames)
		errorPercent = float64(s.Errors()) * 100.0 / float64(s.TotalFrames)
	}

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Total Frames:    %8d\n", s.TotalFrames)
	result += fmt.Sprintf("Valid Frames:    %8d (%.1f%%)\n", s.ValidFrames, validPercent)

	if s.Errors() > 0 {
		result += fmt.Sprintf("Rejected:        %8d (%.1f%%)\n", s.Errors(), errorPercent)
		if s.LengthMismatches > 0 {
			result += fmt.Sprintf("  Length Mismatch:  %5d\n", s.LengthMismatches)
		}
		if s.BadMagic > 0 {
			result += fmt.Sprintf("  Bad Magic:        %5d\n", s.BadMagic)
		}
		if s.CRCErrors > 0 {
			result += fmt.Sprintf("  CRC Errors:       %5d\n", s.CRCErrors)
		}
		if s.OtherErrors > 0 {
			result += fmt.Sprintf("  Other:            %5d\n", s.OtherErrors)
		}
	}

	result += fmt.Sprintf("Frame Rate:      %8.1f frames/sec\n", s.FrameRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	*s = *NewStatistics()
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package frame

import (
	"math/rand"
	"os"
	"strconv"
	"testing"
	"time"
)

// getFuzzRounds returns the number of fuzz rounds from FUZZ_ROUNDS env var, default 1000
func getFuzzRounds() int {
	if envRounds := os.Getenv("FUZZ_ROUNDS"); envRounds != "" {
		if rounds, err := strconv.Atoi(envRounds); err == nil && rounds > 0 {
			return rounds
		}
	}
	return 1000
}

// getFuzzSeed returns the seed from FUZZ_SEED env var, or generates one from current time
func getFuzzSeed() int64 {
	if envSeed := os.Getenv("FUZZ_SEED"); envSeed != "" {
		if seed, err := strconv.ParseInt(envSeed, 10, 64); err == nil {
			return seed
		}
	}
	return time.Now().UnixNano()
}

// newFuzzRng creates a new random number generator and logs the seed for reproducibility
func newFuzzRng(t *testing.T) *rand.Rand {
	seed := getFuzzSeed()
	t.Logf("Seed: %d (reproduce with FUZZ_SEED=%d)", seed, seed)
	return rand.New(rand.NewSource(seed))
}

func randomFrame(rng *rand.Rand) Frame {
	return Frame{
		LeftMotorSpeed:  int16(rng.Uint32()),
		RightMotorSpeed: int16(rng.Uint32()),
		ServoAngle:      int16(rng.Uint32()),
		CameraXAngle:    int16(rng.Uint32()),
		CameraZAngle:    int16(rng.Uint32()),
		Beep:            rng.Intn(2) == 1,
	}
}

// ============================================================
// Codec Fuzz Tests
// ============================================================

// TestFuzzRoundTrip encodes random frames and checks every field survives
func TestFuzzRoundTrip(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	for i := 0; i < rounds; i++ {
		want := randomFrame(rng)
		raw := Encode(want)

		if err := Validate(raw); err != nil {
			t.Fatalf("Round %d: encoded frame rejected: %v", i, err)
		}
		got, err := Decode(raw)
		if err != nil {
			t.Fatalf("Round %d: decode error: %v", i, err)
		}
		if got != want {
			t.Fatalf("Round %d: round trip mismatch: want %+v, got %+v", i, want, got)
		}
	}
}

// TestFuzzValidate_SingleByteCorruption flips one byte of a valid frame;
// the magic or the CRC must always catch it
func TestFuzzValidate_SingleByteCorruption(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	for i := 0; i < rounds; i++ {
		raw := Encode(randomFrame(rng))
		idx := rng.Intn(Length)
		raw[idx] ^= byte(rng.Intn(255) + 1)

		if IsValid(raw) {
			t.Fatalf("Round %d: corruption at byte %d not detected: % X", i, idx, raw)
		}
	}
}

// TestFuzzValidate_RandomLengths feeds random blocks of random length and
// checks only exactly-sized blocks can ever pass
func TestFuzzValidate_RandomLengths(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	for i := 0; i < rounds; i++ {
		length := rng.Intn(3 * Length)
		data := make([]byte, length)
		rng.Read(data)

		if err := Validate(data); err == nil && length != Length {
			t.Fatalf("Round %d: block of %d bytes accepted", i, length)
		}
	}
}

// TestFuzzScanner_RandomBytes feeds random bytes to the scanner
// and verifies it doesn't crash or panic
func TestFuzzScanner_RandomBytes(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	for i := 0; i < rounds; i++ {
		s := NewScanner()

		length := rng.Intn(512) + 1
		data := make([]byte, length)
		rng.Read(data)

		for _, b := range data {
			s.Feed(b)
			if len(s.GetRawBytes()) >= Length {
				t.Fatalf("Round %d: scanner buffered %d bytes", i, len(s.GetRawBytes()))
			}
		}
	}
}

// TestFuzzScanner_NoiseBetweenFrames interleaves valid frames with noise
// that never contains the first magic byte; every frame must be recovered
func TestFuzzScanner_NoiseBetweenFrames(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	for i := 0; i < rounds; i++ {
		s := NewScanner()
		count := rng.Intn(5) + 1
		var want []Frame
		var stream []byte

		for j := 0; j < count; j++ {
			for n := rng.Intn(8); n > 0; n-- {
				b := byte(rng.Intn(256))
				if b == Magic0 {
					b = 0x00
				}
				stream = append(stream, b)
			}
			f := randomFrame(rng)
			want = append(want, f)
			stream = append(stream, Encode(f)...)
		}

		var got []Frame
		for _, b := range stream {
			if f, _ := s.Feed(b); f != nil {
				got = append(got, *f)
			}
		}

		if len(got) != len(want) {
			t.Fatalf("Round %d: recovered %d frames, want %d", i, len(got), len(want))
		}
		for j := range want {
			if got[j] != want[j] {
				t.Fatalf("Round %d: frame %d mismatch: want %+v, got %+v", i, j, want[j], got[j])
			}
		}
	}
}

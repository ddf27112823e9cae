// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package capture reads and writes frame capture files.
//
// A capture file is a sequence of CBOR data items: one Header followed by
// any number of Records. Records hold the raw bytes seen on the link, so a
// capture can contain corrupt blocks as well as valid frames.
package capture

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/Thermoquad/rover/pkg/frame"
)

// Version is the capture format version written by Writer
const Version = 1

// ErrUnsupportedVersion is returned when a capture was written by a newer
// format version
var ErrUnsupportedVersion = errors.New("unsupported capture version")

// Header opens every capture file
type Header struct {
	Version     uint   `cbor:"1,keyasint"`
	Created     int64  `cbor:"2,keyasint"` // unix nanoseconds
	Source      string `cbor:"3,keyasint,omitempty"`
	FrameLength uint   `cbor:"4,keyasint"`
}

// CreatedAt returns the creation time of the capture
func (h Header) CreatedAt() time.Time {
	return time.Unix(0, h.Created)
}

// Record is one block read from the link
type Record struct {
	// Offset is the time since the capture started
	Offset time.Duration `cbor:"1,keyasint"`
	Raw    []byte        `cbor:"2,keyasint"`
}

// Frame validates and decodes the record
func (r Record) Frame() (frame.Frame, error) {
	return frame.Parse(r.Raw)
}

// Writer appends records to a capture
type Writer struct {
	enc   *cbor.Encoder
	start time.Time
	count int
}

// NewWriter writes a header to w and returns a writer for records
func NewWriter(w io.Writer, source string) (*Writer, error) {
	start := time.Now()
	enc := cbor.NewEncoder(w)
	h := Header{
		Version:     Version,
		Created:     start.UnixNano(),
		Source:      source,
		FrameLength: frame.Length,
	}
	if err := enc.Encode(h); err != nil {
		return nil, fmt.Errorf("failed to write capture header: %w", err)
	}
	return &Writer{enc: enc, start: start}, nil
}

// Write records raw at the current time
func (w *Writer) Write(raw []byte) error {
	return w.WriteRecord(Record{Offset: time.Since(w.start), Raw: raw})
}

// WriteFrame encodes f and records it
func (w *Writer) WriteFrame(f frame.Frame) error {
	return w.Write(frame.Encode(f))
}

// WriteRecord appends r as is
func (w *Writer) WriteRecord(r Record) error {
	if err := w.enc.Encode(r); err != nil {
		return fmt.Errorf("failed to write capture record: %w", err)
	}
	w.count++
	return nil
}

// Count returns the number of records written
func (w *Writer) Count() int {
	return w.count
}

// Reader reads records from a capture
type Reader struct {
	dec    *cbor.Decoder
	header Header
}

// NewReader reads and checks the header of the capture in r
func NewReader(r io.Reader) (*Reader, error) {
	dec := cbor.NewDecoder(r)
	var h Header
	if err := dec.Decode(&h); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty capture: %w", err)
		}
		return nil, fmt.Errorf("failed to read capture header: %w", err)
	}
	if h.Version == 0 || h.Version > Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}
	return &Reader{dec: dec, header: h}, nil
}

// Header returns the capture header
func (r *Reader) Header() Header {
	return r.header
}

// Next returns the next record, or io.EOF after the last one
func (r *Reader) Next() (Record, error) {
	var rec Record
	if err := r.dec.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("failed to read capture record: %w", err)
	}
	return rec, nil
}

// ReadAll returns every remaining record
func (r *Reader) ReadAll() ([]Record, error) {
	var out []Record
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vehicle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/Thermoquad/rover/pkg/frame"
)

// Diagnostic messages written to the sink
const (
	MsgInitDone = "init done"
	MsgDropped  = "dropped invalid message"
)

// DefaultErrorBackoff is how long Run pauses after a failed link read
const DefaultErrorBackoff = 100 * time.Millisecond

// Dispatcher runs the control loop: poll the light sensor, read one frame
// from the link, and apply it. Link reads must return 0, nil when no data
// arrived within the link's timeout so the loop keeps polling.
type Dispatcher struct {
	Vehicle *Vehicle
	Link    io.Reader
	// Sink receives diagnostics and frame dumps, one line per call. May be nil.
	Sink func(string)
	// Stats is updated for every non-empty read. May be nil.
	Stats *frame.Statistics
	// OnFrame is called after a frame has been applied. May be nil.
	OnFrame func(frame.Frame)
	// ErrorBackoff overrides DefaultErrorBackoff when non-zero
	ErrorBackoff time.Duration

	statsMu sync.Mutex
	buf     [frame.Length]byte
}

// NewDispatcher creates a dispatcher reading frames for v from link
func NewDispatcher(v *Vehicle, link io.Reader, sink func(string)) *Dispatcher {
	return &Dispatcher{
		Vehicle: v,
		Link:    link,
		Sink:    sink,
		Stats:   frame.NewStatistics(),
	}
}

// Start initializes the vehicle and announces readiness on the sink
func (d *Dispatcher) Start() {
	d.Vehicle.Init()
	d.emit(MsgInitDone)
}

// Tick runs one loop iteration. A read that returns no bytes ends the
// iteration after the light check. An invalid block is dropped with a
// diagnostic and never decoded.
func (d *Dispatcher) Tick() error {
	d.Vehicle.Light.Tick()

	clear(d.buf[:])
	n, err := d.Link.Read(d.buf[:])
	if n == 0 {
		return err
	}
	if n < frame.Length && err == nil {
		n, err = d.fill(n)
	}
	raw := d.buf[:n]

	if verr := frame.Validate(raw); verr != nil {
		d.record(verr)
		d.emit(fmt.Sprintf("%s: %v", MsgDropped, verr))
		glog.V(1).Infof("dropped %d bytes: %v", n, verr)
		return err
	}

	f, derr := frame.Decode(raw)
	if derr != nil {
		d.record(derr)
		d.emit(fmt.Sprintf("%s: %v", MsgDropped, derr))
		return err
	}
	d.record(nil)

	frame.Dump(f, d.emit)
	if glog.V(1) {
		glog.Infof("frame %s", frame.FormatFrame(f))
	}

	d.Vehicle.Apply(f)
	if d.OnFrame != nil {
		d.OnFrame(f)
	}
	return err
}

// Run loops Tick until ctx is done or the link reaches EOF. Other read
// errors are logged and the loop continues after a pause.
func (d *Dispatcher) Run(ctx context.Context) error {
	backoff := d.ErrorBackoff
	if backoff == 0 {
		backoff = DefaultErrorBackoff
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		err := d.Tick()
		if err == nil {
			continue
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil
		}

		glog.Warningf("link read error: %v", err)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
	}
}

// fill keeps reading until the buffer holds a full frame or a read comes
// back empty, which is the link timing out mid-frame.
func (d *Dispatcher) fill(n int) (int, error) {
	for n < frame.Length {
		m, err := d.Link.Read(d.buf[n:])
		n += m
		if err != nil {
			return n, err
		}
		if m == 0 {
			break
		}
	}
	return n, nil
}

func (d *Dispatcher) record(err error) {
	if d.Stats == nil {
		return
	}
	d.statsMu.Lock()
	d.Stats.Update(err)
	d.statsMu.Unlock()
}

// Statistics returns a copy of the link statistics that is safe to take
// while Run is active
func (d *Dispatcher) Statistics() frame.Statistics {
	d.statsMu.Lock()
	defer d.statsMu.Unlock()
	if d.Stats == nil {
		return frame.Statistics{}
	}
	return *d.Stats
}

func (d *Dispatcher) emit(line string) {
	if d.Sink != nil {
		d.Sink(line)
	}
}

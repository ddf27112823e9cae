// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/rover/pkg/hal"
	"github.com/Thermoquad/rover/pkg/vehicle"
)

var (
	runLight     int
	runSteerMin  int
	runSteerMax  int
	runDebugPins bool
	runEcho      bool
	runTUI       bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the vehicle control loop on a simulated board",
	Long: `Run the rover control core against a link.

Each loop iteration samples the light sensor, reads one frame from the link,
validates it and applies it to the motors, servos and beeper. Invalid frames
are dropped with a diagnostic. Diagnostics and frame dumps are printed with a
"# " prefix and, with --echo, written back over the link like the vehicle
firmware does.

The board is simulated: pin writes are kept in memory and the light sensor
reads the value given by --light (adjustable with +/- in the TUI). Use
--debug-pins to log every pin write.

Supports serial, WebSocket and MQTT connections.`,
	RunE: runVehicle,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().IntVar(&runLight, "light", 512, "Simulated light sensor reading (0-1023)")
	runCmd.Flags().IntVar(&runSteerMin, "steer-min", vehicle.DefaultSteeringMin, "Lowest steering angle")
	runCmd.Flags().IntVar(&runSteerMax, "steer-max", vehicle.DefaultSteeringMax, "Highest steering angle")
	runCmd.Flags().BoolVar(&runDebugPins, "debug-pins", false, "Log every pin write")
	runCmd.Flags().BoolVar(&runEcho, "echo", true, "Write diagnostics back over the link")
	runCmd.Flags().BoolVar(&runTUI, "tui", false, "Show a dashboard instead of printing diagnostics")
}

// linkSink formats diagnostic lines the way the firmware prints them and
// writes them to every attached writer
type linkSink struct {
	mu      sync.Mutex
	writers []io.Writer
}

func (s *linkSink) add(w io.Writer) {
	s.writers = append(s.writers, w)
}

func (s *linkSink) line(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []byte("# " + msg + "\n")
	for _, w := range s.writers {
		if _, err := w.Write(out); err != nil {
			glog.V(1).Infof("diagnostic write failed: %v", err)
		}
	}
}

// newRunLayout applies the layout flags to the default wiring
func newRunLayout() vehicle.Layout {
	layout := vehicle.DefaultLayout()
	layout.Steering.Low = runSteerMin
	layout.Steering.High = runSteerMax
	return layout
}

func runVehicle(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	sim := hal.NewSim()
	layout := newRunLayout()
	sim.SetAnalogInput(layout.Light.SensorPin, runLight)

	var board hal.Board = sim
	if runDebugPins {
		board = hal.NewTrace(sim, true)
	}

	v, err := vehicle.New(board, layout)
	if err != nil {
		return err
	}

	sink := &linkSink{}
	if runEcho {
		sink.add(conn)
	}

	d := vehicle.NewDispatcher(v, conn, nil)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if runTUI {
		return runVehicleTUI(ctx, cancel, d, sim, sink, connInfo)
	}

	sink.add(os.Stdout)
	d.Sink = sink.line

	fmt.Printf("Rover - Vehicle\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	d.Start()
	if err := d.Run(ctx); err != nil {
		return err
	}

	fmt.Println()
	fmt.Print(d.Stats.String())
	return nil
}

func runVehicleTUI(ctx context.Context, cancel context.CancelFunc, d *vehicle.Dispatcher, sim *hal.Sim, sink *linkSink, connInfo string) error {
	m := initialRunModel(d, sim, connInfo)
	p := tea.NewProgram(m, tea.WithAltScreen())

	d.Sink = func(line string) {
		sink.line(line)
		p.Send(diagnosticMsg(line))
	}

	done := make(chan error, 1)
	go func() {
		d.Start()
		err := d.Run(ctx)
		p.Send(loopStoppedMsg{err: err})
		done <- err
	}()

	_, err := p.Run()
	cancel()
	loopErr := <-done
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return loopErr
}

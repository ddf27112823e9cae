// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/rover/pkg/frame"
)

var (
	driveRate     int
	driveSteerMin int
	driveSteerMax int
)

var driveCmd = &cobra.Command{
	Use:   "drive",
	Short: "Interactive TUI for driving the rover",
	Long: `Drive the rover from the keyboard.

The current command is sent as a frame at a fixed rate, so the vehicle keeps
its state even if single frames are lost on the link. Diagnostic lines the
vehicle writes back ("# ...") are shown in the event log.

Keys:
  w/s      throttle up/down        a/d      steer left/right
  arrows   aim camera              space    beep
  x        stop and center         ?        toggle full help

The connection is re-established automatically if it drops.

Supports serial, WebSocket and MQTT connections.`,
	RunE: runDrive,
}

func init() {
	rootCmd.AddCommand(driveCmd)
	driveCmd.Flags().IntVar(&driveRate, "rate", 20, "Frames sent per second")
	driveCmd.Flags().IntVar(&driveSteerMin, "steer-min", 51, "Lowest steering angle")
	driveCmd.Flags().IntVar(&driveSteerMax, "steer-max", 140, "Highest steering angle")
}

// connectionManager handles connection lifecycle and reconnection
type connectionManager struct {
	conn     Connection
	connInfo string
	mu       sync.RWMutex
	p        *tea.Program
	done     chan struct{}

	// lost is closed when a write fails on the current connection
	lost       chan struct{}
	lostClosed bool
}

func (cm *connectionManager) getConn() Connection {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.conn
}

func (cm *connectionManager) setConn(conn Connection, connInfo string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.conn = conn
	cm.connInfo = connInfo
	cm.lost = make(chan struct{})
	cm.lostClosed = false
}

// markLost wakes the reader loop so it reconnects
func (cm *connectionManager) markLost() {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if !cm.lostClosed {
		close(cm.lost)
		cm.lostClosed = true
	}
}

// send writes one frame. A write error marks the connection lost.
func (cm *connectionManager) send(f frame.Frame) error {
	conn := cm.getConn()
	if conn == nil {
		return ErrConnectionClosed
	}
	if _, err := conn.Write(frame.Encode(f)); err != nil {
		cm.markLost()
		return err
	}
	return nil
}

func runDrive(cmd *cobra.Command, args []string) error {
	if driveRate <= 0 {
		return fmt.Errorf("--rate must be positive")
	}

	conn, connInfo, err := OpenControllerConnection()
	if err != nil {
		return err
	}

	cm := &connectionManager{done: make(chan struct{})}
	cm.setConn(conn, connInfo)

	m := initialDriveModel(cm, connInfo, driveSteerMin, driveSteerMax, time.Second/time.Duration(driveRate))

	p := tea.NewProgram(m, tea.WithAltScreen())
	cm.p = p

	go cm.readerLoop()

	_, err = p.Run()

	// Leave the vehicle stopped
	cm.send(frame.Frame{ServoAngle: int16(m.steerCenter()), CameraXAngle: 90, CameraZAngle: 90})

	close(cm.done)
	cm.getConn().Close()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// readerLoop forwards the vehicle's diagnostic lines to the TUI and
// reconnects when the link drops
func (cm *connectionManager) readerLoop() {
	for {
		select {
		case <-cm.done:
			return
		default:
		}

		if cm.readFromConnection() {
			cm.p.Send(connectionLostMsg{})
			if !cm.reconnect() {
				return
			}
		}
	}
}

// readFromConnection reads lines until the connection fails.
// Returns true if connection was lost, false if shutdown requested.
func (cm *connectionManager) readFromConnection() bool {
	cm.mu.RLock()
	conn, lost := cm.conn, cm.lost
	cm.mu.RUnlock()

	buf := make([]byte, 128)
	var line []byte
	for {
		select {
		case <-cm.done:
			return false
		case <-lost:
			return true
		default:
		}

		n, err := conn.Read(buf)
		if err != nil {
			select {
			case <-cm.done:
				return false
			default:
			}
			if isLinkClosed(err) {
				return true
			}
			// Brief pause before retry on transient errors (e.g., serial)
			time.Sleep(10 * time.Millisecond)
			continue
		}
		if n == 0 {
			continue
		}

		line = append(line, buf[:n]...)
		for {
			i := bytes.IndexByte(line, '\n')
			if i < 0 {
				break
			}
			text := string(bytes.TrimRight(line[:i], "\r"))
			line = line[i+1:]
			if text != "" {
				cm.p.Send(vehicleLineMsg(text))
			}
		}
		// Frames echoed on a shared topic are binary; don't let them pile up
		if len(line) > 256 {
			line = line[:0]
		}
	}
}

// reconnect attempts to reconnect with exponential backoff
// Returns false if shutdown was requested during reconnection
func (cm *connectionManager) reconnect() bool {
	if conn := cm.getConn(); conn != nil {
		conn.Close()
	}

	backoff := 1 * time.Second
	maxBackoff := 30 * time.Second

	for {
		select {
		case <-cm.done:
			return false
		case <-time.After(backoff):
		}

		conn, connInfo, err := OpenControllerConnection()
		if err == nil {
			cm.setConn(conn, connInfo)
			cm.p.Send(reconnectedMsg{connInfo: connInfo})
			return true
		}

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

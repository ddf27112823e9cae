// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/rover/pkg/frame"
)

var (
	frameTestTimeout int
)

var frameTestCmd = &cobra.Command{
	Use:   "frame_test",
	Short: "Test connection by waiting for a valid command frame",
	Long: `Wait for a valid command frame on the connection until timeout.

This command connects to a serial port, WebSocket or MQTT broker and waits
for any valid frame. It ignores invalid bytes and waits for a complete frame
with matching magic and CRC.

Exit codes:
  0 - Frame received before timeout
  1 - Timeout reached without receiving a valid frame
  2 - Connection error`,
	RunE: runFrameTest,
}

func init() {
	rootCmd.AddCommand(frameTestCmd)
	frameTestCmd.Flags().IntVar(&frameTestTimeout, "timeout", 10, "Timeout in seconds to wait for a frame")
}

func runFrameTest(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("Rover - Frame Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds\n", frameTestTimeout)
	fmt.Printf("Waiting for valid frame...\n\n")

	scanner := frame.NewScanner()
	buf := make([]byte, 128)

	frameChan := make(chan frame.Frame, 1)
	errChan := make(chan error, 1)

	go func() {
		rejected := 0
		for {
			n, err := conn.Read(buf)
			if err != nil {
				errChan <- err
				return
			}

			for i := 0; i < n; i++ {
				f, scanErr := scanner.Feed(buf[i])
				if scanErr != nil {
					rejected++
					continue
				}
				if f == nil {
					continue
				}
				if rejected > 0 {
					fmt.Printf("(rejected %d blocks before sync)\n", rejected)
				}
				frameChan <- *f
				return
			}
		}
	}()

	select {
	case f := <-frameChan:
		raw := frame.Encode(f)
		fmt.Printf("SUCCESS: Received valid frame\n")
		fmt.Printf("  %s\n", frame.FormatFrame(f))
		fmt.Printf("  CRC: 0x%04X\n", frame.CalculateCRC(raw[:frame.Length-2]))
		os.Exit(0)

	case err := <-errChan:
		fmt.Fprintf(os.Stderr, "Read error: %v\n", err)
		os.Exit(2)

	case <-time.After(time.Duration(frameTestTimeout) * time.Second):
		fmt.Fprintf(os.Stderr, "TIMEOUT: No valid frame received within %d seconds\n", frameTestTimeout)
		os.Exit(1)
	}

	return nil
}

// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/rover/pkg/capture"
	"github.com/Thermoquad/rover/pkg/frame"
)

var (
	replaySpeed     float64
	replayValidOnly bool
	replayList      bool
)

var replayCmd = &cobra.Command{
	Use:   "replay <capture-file>",
	Short: "Send a recorded capture back over the link",
	Long: `Replay a capture file written by raw_log --record.

Records are sent with their original spacing, scaled by --speed. A speed of
0 sends them back to back. Corrupt blocks in the capture are replayed as
recorded unless --valid-only is set, which makes replay useful for checking
how the vehicle copes with a noisy link.

With --list the capture is printed instead of sent.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1.0, "Playback speed factor (0 = no delay)")
	replayCmd.Flags().BoolVar(&replayValidOnly, "valid-only", false, "Skip records that are not valid frames")
	replayCmd.Flags().BoolVar(&replayList, "list", false, "Print the capture without sending")
}

func runReplay(cmd *cobra.Command, args []string) error {
	if replaySpeed < 0 {
		return fmt.Errorf("--speed must not be negative")
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open capture: %w", err)
	}
	defer f.Close()

	r, err := capture.NewReader(f)
	if err != nil {
		return err
	}
	h := r.Header()

	fmt.Printf("Rover - Replay\n")
	fmt.Printf("Capture: %s (recorded %s from %s)\n", args[0], h.CreatedAt().Format(time.RFC3339), h.Source)

	var conn Connection
	if !replayList {
		var connInfo string
		conn, connInfo, err = OpenControllerConnection()
		if err != nil {
			return err
		}
		defer conn.Close()
		fmt.Printf("Connection: %s\n", connInfo)
	}
	fmt.Println()

	start := time.Now()
	sent, skipped := 0, 0
	for {
		rec, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		fr, verr := rec.Frame()
		if replayList {
			if verr != nil {
				fmt.Printf("%10s  [REJECTED] %v\n", rec.Offset.Truncate(time.Millisecond), verr)
			} else {
				fmt.Printf("%10s  %s\n", rec.Offset.Truncate(time.Millisecond), frame.FormatFrame(fr))
			}
			continue
		}

		if verr != nil && replayValidOnly {
			skipped++
			continue
		}

		if replaySpeed > 0 {
			due := time.Duration(float64(rec.Offset) / replaySpeed)
			if wait := due - time.Since(start); wait > 0 {
				time.Sleep(wait)
			}
		}

		if _, err := conn.Write(rec.Raw); err != nil {
			return fmt.Errorf("failed to send record %d: %w", sent+skipped+1, err)
		}
		sent++
	}

	if !replayList {
		fmt.Printf("Sent %d record(s)", sent)
		if skipped > 0 {
			fmt.Printf(", skipped %d invalid", skipped)
		}
		fmt.Println()
	}
	return nil
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/rover/pkg/frame"
)

var (
	showAll       bool
	statsInterval int
	useTUI        bool
)

var errorDetectionCmd = &cobra.Command{
	Use:   "error_detection",
	Short: "Detect and analyze corrupt frames on the link",
	Long: `Track rejected frames with statistics.

This command scans the link for frames and classifies every rejected block:
  - Bad magic (lost synchronization, line noise)
  - CRC errors (bit errors inside a frame)
  - Length mismatches (truncated frames)
  - Statistics and trends (frame rate, error rate, success rate)

By default, only errors are displayed. Use --show-all to display valid frames too.

Frames are validated in real-time, with errors highlighted immediately and
periodic statistics summaries displayed at configurable intervals.`,
	RunE: runErrorDetection,
}

func init() {
	rootCmd.AddCommand(errorDetectionCmd)
	errorDetectionCmd.Flags().BoolVar(&showAll, "show-all", false, "Show all frames (not just errors)")
	errorDetectionCmd.Flags().IntVar(&statsInterval, "stats-interval", 10, "Statistics update interval (seconds)")
	errorDetectionCmd.Flags().BoolVar(&useTUI, "tui", true, "Use terminal UI (false for text mode)")
}

func runErrorDetection(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	if useTUI {
		return runTUIMode(conn, connInfo)
	}
	return runTextMode(conn, connInfo)
}

// linkEvent is one scanner result: a frame, a rejected block, or the end
// of the link
type linkEvent struct {
	frame  *frame.Frame
	err    error
	closed bool
}

// scanLink feeds everything read from conn through a scanner and reports
// results on events until the link closes. Rejections before the first
// valid frame are counted as sync noise instead of being reported.
func scanLink(conn Connection, events chan<- linkEvent, synced func(rejected int)) {
	scanner := frame.NewScanner()
	buf := make([]byte, 128)
	synchronized := false
	rejectedBeforeSync := 0

	for {
		n, err := conn.Read(buf)
		if err != nil {
			if isLinkClosed(err) {
				events <- linkEvent{closed: true}
				return
			}
			log.Printf("Read error: %v", err)
			continue
		}

		for i := 0; i < n; i++ {
			f, scanErr := scanner.Feed(buf[i])
			if scanErr != nil {
				if synchronized {
					events <- linkEvent{err: scanErr}
				} else {
					rejectedBeforeSync++
				}
				continue
			}
			if f == nil {
				continue
			}
			if !synchronized {
				synchronized = true
				synced(rejectedBeforeSync)
			}
			events <- linkEvent{frame: f}
		}
	}
}

// printValidationError prints a rejected block in highlighted format
func printValidationError(err error) {
	timestamp := time.Now().Format("15:04:05.000")

	var verr *frame.ValidationError
	if !errors.As(err, &verr) {
		fmt.Printf("[%s] \033[1;31mDECODE ERROR:\033[0m %v\n", timestamp, err)
		fmt.Printf("  >>> DECODE FAILED <<<\n\n")
		return
	}

	fmt.Printf("[%s] \033[1;33mVALIDATION ERROR:\033[0m %s\n", timestamp, verr.Type)
	fmt.Printf("  Issue: \033[1;31m%s\033[0m\n", verr.Message)

	switch verr.Type {
	case frame.AnomalyCRCError:
		if received, ok := verr.Details["received"].(uint16); ok {
			if calculated, ok := verr.Details["calculated"].(uint16); ok {
				fmt.Printf("    CRC: received=0x%04X, calculated=0x%04X\n", received, calculated)
			}
		}
	case frame.AnomalyLengthMismatch:
		if received, ok := verr.Details["received"].(int); ok {
			if expected, ok := verr.Details["expected"].(int); ok {
				fmt.Printf("    Length: received=%d, expected=%d\n", received, expected)
			}
		}
	case frame.AnomalyBadMagic:
		if magic, ok := verr.Details["magic"].([2]byte); ok {
			fmt.Printf("    Magic: 0x%02X 0x%02X\n", magic[0], magic[1])
		}
	}

	fmt.Printf("  >>> FRAME REJECTED <<<\n\n")
}

// runTUIMode runs error detection in TUI mode
func runTUIMode(conn Connection, connInfo string) error {
	m := initialModel(connInfo, statsInterval, showAll)
	p := tea.NewProgram(m)

	events := make(chan linkEvent, 16)
	go scanLink(conn, events, func(rejected int) {
		p.Send(syncMsg{rejected: rejected})
	})
	go func() {
		for ev := range events {
			p.Send(linkDataMsg(ev))
			if ev.closed {
				return
			}
		}
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}

// runTextMode runs error detection in text mode
func runTextMode(conn Connection, connInfo string) error {
	fmt.Printf("Rover - Error Detection Mode\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Statistics interval: %d seconds\n", statsInterval)
	if showAll {
		fmt.Printf("Mode: All frames\n")
	} else {
		fmt.Printf("Mode: Errors only\n")
	}
	fmt.Printf("Press Ctrl+C to exit\n\n")

	stats := frame.NewStatistics()

	statsTicker := time.NewTicker(time.Duration(statsInterval) * time.Second)
	defer statsTicker.Stop()

	events := make(chan linkEvent, 16)
	go scanLink(conn, events, func(rejected int) {
		if rejected > 0 {
			fmt.Printf("[SYNC] Synchronized after rejecting %d blocks\n\n", rejected)
		} else {
			fmt.Printf("[SYNC] Synchronized\n\n")
		}
	})

	for {
		select {
		case ev := <-events:
			switch {
			case ev.closed:
				fmt.Println()
				fmt.Print(stats.String())
				log.Printf("Connection closed")
				return nil
			case ev.err != nil:
				stats.Update(ev.err)
				printValidationError(ev.err)
			case ev.frame != nil:
				stats.Update(nil)
				if showAll {
					fmt.Printf("[%s] %s\n", time.Now().Format("15:04:05.000"), frame.FormatFrame(*ev.frame))
				}
			}

		case <-statsTicker.C:
			fmt.Println()
			fmt.Print(stats.String())
			fmt.Println()
		}
	}
}

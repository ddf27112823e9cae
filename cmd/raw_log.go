// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/rover/pkg/capture"
	"github.com/Thermoquad/rover/pkg/frame"
)

var (
	rawLogRecord string
	rawLogHex    bool
)

var rawLogCmd = &cobra.Command{
	Use:   "raw_log",
	Short: "Display frames on the link in human-readable format",
	Long: `Continuously decode and display command frames as they arrive.

The byte stream is scanned for the frame magic, so the log resynchronizes on
its own after noise or a truncated frame. Rejected blocks are reported with
their anomaly type.

With --record, every frame seen is also appended to a CBOR capture file that
the replay command can send back over a link.

Supports serial, WebSocket and MQTT connections.`,
	RunE: runRawLog,
}

func init() {
	rootCmd.AddCommand(rawLogCmd)
	rawLogCmd.Flags().StringVar(&rawLogRecord, "record", "", "Write a capture file")
	rawLogCmd.Flags().BoolVar(&rawLogHex, "hex", false, "Show the raw bytes of every frame")
}

func runRawLog(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	var recorder *capture.Writer
	if rawLogRecord != "" {
		f, err := os.Create(rawLogRecord)
		if err != nil {
			return fmt.Errorf("failed to create capture file: %w", err)
		}
		defer f.Close()

		recorder, err = capture.NewWriter(f, connInfo)
		if err != nil {
			return err
		}
	}

	fmt.Printf("Rover - Raw Frame Log\n")
	fmt.Printf("Connection: %s\n", connInfo)
	if recorder != nil {
		fmt.Printf("Recording: %s\n", rawLogRecord)
	}
	fmt.Printf("Press Ctrl+C to exit\n\n")

	scanner := frame.NewScanner()
	buf := make([]byte, 128)

	for {
		n, err := conn.Read(buf)
		if err != nil {
			if isLinkClosed(err) {
				log.Printf("Connection closed")
				return nil
			}
			log.Printf("Read error: %v", err)
			continue
		}

		for i := 0; i < n; i++ {
			f, err := scanner.Feed(buf[i])
			if err != nil {
				fmt.Printf("[ERROR] %v\n", err)
				continue
			}
			if f == nil {
				continue
			}

			raw := frame.Encode(*f)
			fmt.Printf("[%s] %s\n", time.Now().Format("15:04:05.000"), frame.FormatFrame(*f))
			if rawLogHex {
				fmt.Println(frame.FormatHex(raw))
			}
			if recorder != nil {
				if err := recorder.Write(raw); err != nil {
					return err
				}
			}
		}
	}
}

// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/rover/pkg/frame"
)

var (
	sendLeft     int16
	sendRight    int16
	sendSteer    int16
	sendCameraX  int16
	sendCameraZ  int16
	sendBeep     bool
	sendCount    int
	sendInterval time.Duration
	sendDryRun   bool
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Encode and transmit a command frame",
	Long: `Encode one command frame from flags and send it over the link.

Values are sent as given: the vehicle saturates motor speeds to 255 and
ignores servo angles outside each servo's range, so this command can be used
to check that behavior end to end.

With --dry-run the frame is only printed as hex, without opening a link.

Examples:
  rover send -p /dev/ttyUSB0 --left 200 --right 200 --steer 95
  rover send -p /dev/ttyUSB0 --beep --steer 95 --cam-x 90 --cam-z 90
  rover send --dry-run --left -300`,
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().Int16Var(&sendLeft, "left", 0, "Left motor speed (negative is backward)")
	sendCmd.Flags().Int16Var(&sendRight, "right", 0, "Right motor speed (negative is backward)")
	sendCmd.Flags().Int16Var(&sendSteer, "steer", 95, "Steering servo angle")
	sendCmd.Flags().Int16Var(&sendCameraX, "cam-x", 90, "Camera pan angle")
	sendCmd.Flags().Int16Var(&sendCameraZ, "cam-z", 90, "Camera tilt angle")
	sendCmd.Flags().BoolVar(&sendBeep, "beep", false, "Sound the beeper")
	sendCmd.Flags().IntVar(&sendCount, "count", 1, "Number of times to send the frame")
	sendCmd.Flags().DurationVar(&sendInterval, "interval", 100*time.Millisecond, "Delay between repeated frames")
	sendCmd.Flags().BoolVar(&sendDryRun, "dry-run", false, "Print the encoded frame without sending")
}

func sendFrameFromFlags() frame.Frame {
	return frame.Frame{
		LeftMotorSpeed:  sendLeft,
		RightMotorSpeed: sendRight,
		ServoAngle:      sendSteer,
		CameraXAngle:    sendCameraX,
		CameraZAngle:    sendCameraZ,
		Beep:            sendBeep,
	}
}

func runSend(cmd *cobra.Command, args []string) error {
	f := sendFrameFromFlags()
	raw := frame.Encode(f)

	fmt.Printf("Frame: %s\n", frame.FormatFrame(f))
	fmt.Printf("Bytes: %s\n", frame.FormatHex(raw))

	if sendDryRun {
		return nil
	}

	conn, connInfo, err := OpenControllerConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("Connection: %s\n", connInfo)

	for i := 0; i < sendCount; i++ {
		if i > 0 {
			time.Sleep(sendInterval)
		}
		if _, err := conn.Write(raw); err != nil {
			return fmt.Errorf("failed to send frame %d: %w", i+1, err)
		}
	}

	fmt.Printf("Sent %d frame(s)\n", sendCount)
	return nil
}

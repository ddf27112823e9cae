// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"flag"
	"io"
	"time"

	"github.com/golang/glog"
	"github.com/spf13/cobra"
)

var (
	// Serial connection flags
	portName    string
	baudRate    int
	readTimeout time.Duration

	// WebSocket connection flags
	wsURL         string
	wsNoSSLVerify bool

	// MQTT connection flags
	mqttURL   string
	mqttTopic string

	// Shared by WebSocket and MQTT
	linkUsername string
)

var rootCmd = &cobra.Command{
	Use:   "rover",
	Short: "Remote-controlled vehicle control core and link tools",
	Long: `Rover - the control core of a remote-controlled vehicle, plus tools for the
controller side of its command link.

The vehicle receives fixed-length command frames (magic, five signed 16-bit
fields, a beep flag and a CRC-16) and drives two motors, a steering servo,
two camera servos, a beeper and an automatic headlamp.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 115200]
  WebSocket: --url ws://host/path [--username user]
  MQTT:      --mqtt mqtt://broker:1883 [--topic rover/frames] [--username user]

For WebSocket and MQTT authentication, the password is read from the
ROVER_PASSWORD environment variable, or prompted interactively if not set.
The --password flag is intentionally not provided to avoid leaking credentials
in shell history.

Runtime tracing uses glog: -v=1 logs applied frames, -v=2 pin writes,
-v=3 light sensor samples.`,
	Version: "1.0.0",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// the glog flags arrive through pflag; mark the Go flag set parsed
		flag.CommandLine.Parse(nil)
	},
}

func init() {
	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 115200, "Baud rate (serial only)")
	rootCmd.PersistentFlags().DurationVar(&readTimeout, "read-timeout", 10*time.Millisecond, "Maximum wait for link data per read")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	// MQTT connection flags
	rootCmd.PersistentFlags().StringVar(&mqttURL, "mqtt", "", "MQTT broker URL (mqtt://host:1883)")
	rootCmd.PersistentFlags().StringVar(&mqttTopic, "topic", "rover/frames", "MQTT topic carrying frames")

	rootCmd.PersistentFlags().StringVar(&linkUsername, "username", "", "Username for WebSocket Basic auth or MQTT")

	// glog flags (-v, -logtostderr, ...)
	flag.CommandLine.Set("logtostderr", "true")
	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)
}

// Execute runs the root command
func Execute() error {
	defer glog.Flush()
	return rootCmd.Execute()
}

// isLinkClosed reports whether a read error means the link is gone for good
func isLinkClosed(err error) bool {
	return errors.Is(err, ErrConnectionClosed) || errors.Is(err, io.EOF)
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// Rover - remote-controlled vehicle control core
//
// Runs the vehicle control loop against a command link and provides the
// controller-side tools for sending, driving, monitoring and replaying
// command frames.

package main

import (
	"os"

	"github.com/Thermoquad/rover/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

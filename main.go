// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// Boilerstat - OpenTherm master for boiler gateway adapters
//
// Drives an OpenTherm boiler through a gateway adapter over serial or
// WebSocket and publishes the decoded boiler state.

package main

import (
	"os"

	"github.com/Thermoquad/boilerstat/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

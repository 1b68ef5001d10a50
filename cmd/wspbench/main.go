// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Command wspbench compares task throughput of the work-stealing pools with
// a single-queue baseline.
package main

import (
	"os"

	_ "go.uber.org/automaxprocs"
)

func main() {
	if err := newRootCommand(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

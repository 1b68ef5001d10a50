// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

//go:build linux

package affinity

import (
	"golang.org/x/sys/unix"
)

// Supported reports whether Pin has an effect on this platform.
const Supported = true

// Pin restricts the calling OS thread to the given CPU. The caller must have
// locked its goroutine to the thread with runtime.LockOSThread first.
func Pin(cpu int) error {
	var mask unix.CPUSet
	mask.Zero()
	mask.Set(cpu)
	return unix.SchedSetaffinity(0, &mask)
}

// Allowed returns the CPUs the calling thread may currently run on.
func Allowed() ([]int, error) {
	var mask unix.CPUSet
	if err := unix.SchedGetaffinity(0, &mask); err != nil {
		return nil, err
	}
	var cpus []int
	for cpu := 0; len(cpus) < mask.Count(); cpu++ {
		if mask.IsSet(cpu) {
			cpus = append(cpus, cpu)
		}
	}
	return cpus, nil
}

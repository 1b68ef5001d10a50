// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

//go:build !linux

package affinity

const Supported = false

// Pin is a no-op outside Linux.
func Pin(cpu int) error {
	return nil
}

// Allowed returns nil outside Linux.
func Allowed() ([]int, error) {
	return nil, nil
}

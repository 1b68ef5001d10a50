// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package wsp

import "strconv"

// Priority selects which of a [PriorityPool] worker's three sequences a task
// joins. Lower values are served first.
type Priority int

const (
	High Priority = iota
	Normal
	Low
)

func (p Priority) String() string {
	switch p {
	case High:
		return "High"
	case Normal:
		return "Normal"
	case Low:
		return "Low"
	default:
		return "Priority(" + strconv.Itoa(int(p)) + ")"
	}
}

// valid reports whether p is one of the defined levels. Other values are
// treated as Normal.
func (p Priority) valid() bool {
	return p >= High && p <= Low
}

// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package cerr provides an error type whose values can be declared as
// constants, for sentinel errors in internal packages.
package cerr

// Error is a sentinel error. Two Errors match under errors.Is when their
// text is equal.
type Error string

func (e Error) Error() string {
	return string(e)
}

// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package wsp

import (
	"fmt"
)

type constError string

func (e constError) Error() string {
	return string(e)
}

const ErrPoolClosed = constError("pool closed")
const ErrTaskPanic = constError("task panicked")
const ErrTaskAbandoned = constError("task abandoned at pool close")

// PanicError is stored in a task's [Result] when the task panics. It
// matches [ErrTaskPanic] under [errors.Is], and unwraps to the panic value
// if that value is itself an error.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("%s: %v", ErrTaskPanic, e.Value)
}

func (e *PanicError) Is(target error) bool {
	return target == ErrTaskPanic
}

func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

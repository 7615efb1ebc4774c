package executor

import (
	"errors"
	"syscall"
)

// Error is returned by Execute when the command could not be spawned or
// waiting on it failed for a reason other than the command's own exit.
type Error struct {
	// Op is "spawn" or "wait".
	Op string

	// Code is the OS error number when one is available, otherwise -1.
	Code int64

	Err error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// errorCode extracts the errno from err, or -1.
func errorCode(err error) int64 {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return int64(errno)
	}
	return -1
}

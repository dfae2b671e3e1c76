// Package availability describes why a device can't be used right now.
package availability

import (
	"errors"
)

var (
	ErrUnimplemented = NewError("not implemented")
	ErrBusy          = NewError("device or resource busy")
	ErrNoDevice      = NewError("no such device")
	ErrPermission    = NewError("permission denied")
)

type errorString struct {
	s string
}

// NewError creates an availability error. Drivers may wrap the result with %w
// to add details while staying recognizable by IsError.
func NewError(text string) error {
	return &errorString{text}
}

// IsError reports whether err, or any error it wraps, is an availability error.
func IsError(err error) bool {
	var target *errorString
	return errors.As(err, &target)
}

func (e *errorString) Error() string {
	return e.s
}

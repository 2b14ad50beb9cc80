package tilt

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidBounds indicates a non-positive or non-finite width/height.
	ErrInvalidBounds = errors.New("tilt: width and height must be finite and positive")

	// ErrInvalidOption indicates a construction option outside its valid range.
	ErrInvalidOption = errors.New("tilt: invalid option")

	// ErrDecode indicates host input that is not an accelerometer sample.
	ErrDecode = errors.New("tilt: malformed accelerometer input")
)

// DecodeError describes why a host value could not be read as an Accel.
type DecodeError struct {
	Field  string
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	msg := ErrDecode.Error()
	if e.Field != "" {
		msg += fmt.Sprintf(" (field %q)", e.Field)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

func (e *DecodeError) Unwrap() error { return e.Err }

package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures surfaced to the user.
type ErrorKind string

const (
	KindNone             ErrorKind = ""
	KindPermissionDenied ErrorKind = "PermissionDenied"
	KindDevice           ErrorKind = "DeviceError"
	KindResourceNotFound ErrorKind = "ResourceNotFound"
	KindValidation       ErrorKind = "ValidationError"
	KindInvalidState     ErrorKind = "InvalidState"
)

// Common errors.
var (
	ErrPermissionDenied = errors.New("microphone permission denied")
	ErrDevice           = errors.New("audio device error")
	ErrResourceNotFound = errors.New("audio resource not found")
	ErrValidation       = errors.New("validation failed")
	ErrInvalidState     = errors.New("operation not valid in current state")

	// ErrPlaybackCancelled is returned by Play when playback was stopped
	// while the sound was loading. It matches ErrInvalidState.
	ErrPlaybackCancelled = fmt.Errorf("playback cancelled while loading: %w", ErrInvalidState)

	// ErrNotFound is returned for unknown note ids. It matches ErrResourceNotFound.
	ErrNotFound error = noteNotFound{}
)

type noteNotFound struct{}

func (noteNotFound) Error() string { return "note not found" }

func (noteNotFound) Is(target error) bool { return target == ErrResourceNotFound }

// KindOf reports the kind of err. Errors that wrap none of the sentinels
// are treated as device failures.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrPermissionDenied):
		return KindPermissionDenied
	case errors.Is(err, ErrResourceNotFound):
		return KindResourceNotFound
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrInvalidState):
		return KindInvalidState
	default:
		return KindDevice
	}
}

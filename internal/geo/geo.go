// Package geo provides position sources for the tracking client.
package geo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"
)

// Fix is a single position report.
type Fix struct {
	Lat      float64
	Lon      float64
	Accuracy float64
	At       time.Time
}

// Reading is one element of a watch stream: a fix or an error.
type Reading struct {
	Fix Fix
	Err error
}

// Source delivers positions. Current returns one fix, bounded by ctx.
// Watch streams readings until ctx is cancelled, then closes the channel.
type Source interface {
	Current(ctx context.Context) (Fix, error)
	Watch(ctx context.Context) <-chan Reading
}

// Code classifies a position failure.
type Code string

const (
	PermissionDenied    Code = "permission_denied"
	PositionUnavailable Code = "position_unavailable"
	Timeout             Code = "timeout"
	Unknown             Code = "unknown"
)

// Error is a classified position failure.
type Error struct {
	Code Code
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "geo: " + string(e.Code)
	}
	return fmt.Sprintf("geo: %s: %v", e.Code, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Message is the user-facing description of the failure.
func (e *Error) Message() string {
	switch e.Code {
	case PermissionDenied:
		return "Please enable location permissions"
	case PositionUnavailable:
		return "Location information unavailable"
	case Timeout:
		return "Location request timed out"
	default:
		return "Unknown error occurred"
	}
}

// Classify maps err onto a *Error, preserving one that is already classified.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var ge *Error
	if errors.As(err, &ge) {
		return ge
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, os.ErrDeadlineExceeded):
		return &Error{Code: Timeout, Err: err}
	case errors.Is(err, syscall.EACCES), errors.Is(err, os.ErrPermission):
		return &Error{Code: PermissionDenied, Err: err}
	case errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, os.ErrNotExist):
		return &Error{Code: PositionUnavailable, Err: err}
	}
	return &Error{Code: Unknown, Err: err}
}

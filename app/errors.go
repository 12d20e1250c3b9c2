package app

import (
	"context"
	"errors"
	"fmt"
)

// ErrInvalidDestination is returned when the routes directory is missing,
// empty or not a directory. Nothing is registered when it is returned.
var ErrInvalidDestination = errors.New("routes folder does not exist, update the route folder path")

// MissingFileError is returned when a listed route file vanished before it
// could be read.
type MissingFileError struct {
	File string
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("file %s does not exist", e.File)
}

// ShapeError is returned when a route source does not declare a valid list of
// route descriptors, or when one of them cannot be registered.
type ShapeError struct {
	File string
	Err  error
}

func (e *ShapeError) Error() string {
	msg := fmt.Sprintf("file %s must export an array of route handlers", e.File)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ShapeError) Unwrap() error {
	return e.Err
}

// errorKind labels a load failure for metrics.
func errorKind(err error) string {
	var missing *MissingFileError
	var shape *ShapeError
	switch {
	case errors.Is(err, ErrInvalidDestination):
		return "configuration"
	case errors.As(err, &missing):
		return "missing_file"
	case errors.As(err, &shape):
		return "shape"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "io"
	}
}

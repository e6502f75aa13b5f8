package domain

import (
	"errors"
	"fmt"
)

// DecodeError reports a JSON value that does not fit the requested shape.
type DecodeError struct {
	Target string
	Value  any
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot convert %#v to %s: %v", e.Value, e.Target, e.Err)
	}
	return fmt.Sprintf("cannot convert %#v to %s", e.Value, e.Target)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func decodeErr(target string, value any, err error) error {
	return &DecodeError{Target: target, Value: value, Err: err}
}

// ErrNotFound marks a missing locally stored record.
var ErrNotFound = errors.New("not found")

// ValidationError reports a rejected input value.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

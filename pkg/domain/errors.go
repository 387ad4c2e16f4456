package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingField is returned when a required field is absent from an inbound message.
	ErrMissingField = errors.New("missing required field")

	// ErrMalformed is returned when an inbound message cannot be parsed.
	ErrMalformed = errors.New("malformed message")

	// ErrOutOfRange is returned when the checklist cursor is past the last item.
	// Reaching it means a transition was implemented incorrectly.
	ErrOutOfRange = errors.New("checklist cursor out of range")

	// ErrRejectedStart is returned when a start request arrives while a checklist is active.
	ErrRejectedStart = errors.New("checklist already active")
)

// DecodeKind classifies a DecodeError.
type DecodeKind string

const (
	DecodeMissingField DecodeKind = "missing_field"
	DecodeMalformed    DecodeKind = "malformed"
)

// DecodeError is returned by the codec when an inbound message is rejected.
type DecodeError struct {
	Kind  DecodeKind
	Topic string
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	msg := string(e.Kind)
	if e.Topic != "" {
		msg = fmt.Sprintf("%s on %s", msg, e.Topic)
	}
	if e.Field != "" {
		msg = fmt.Sprintf("%s: field %q", msg, e.Field)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is reports whether the error matches one of the kind sentinels.
func (e *DecodeError) Is(target error) bool {
	switch target {
	case ErrMissingField:
		return e.Kind == DecodeMissingField
	case ErrMalformed:
		return e.Kind == DecodeMalformed
	}
	return false
}

// MissingField builds a DecodeError for an absent required field.
func MissingField(field string) *DecodeError {
	return &DecodeError{Kind: DecodeMissingField, Field: field}
}

// Malformed builds a DecodeError wrapping a parse failure.
func Malformed(field string, err error) *DecodeError {
	return &DecodeError{Kind: DecodeMalformed, Field: field, Err: err}
}

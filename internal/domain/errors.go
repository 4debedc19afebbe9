package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDecode        = errors.New("audio decode failed")
	ErrGeneration    = errors.New("generation failed")
	ErrConfiguration = errors.New("configuration missing")
	ErrValidation    = errors.New("validation failed")
	ErrNoBeats       = errors.New("no beats detected in audio")
)

// GenerationError reports a failed call to a remote model. Operation names the
// step ("script", "video", ...) and Model the remote identifier.
type GenerationError struct {
	Operation string
	Model     string
	Err       error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generation failed (model %s): %v", e.Operation, e.Model, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

func (e *GenerationError) Is(target error) bool { return target == ErrGeneration }

// ValidationError names the request field that failed presence checks.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

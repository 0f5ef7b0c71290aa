package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for structural scene defects.
var (
	ErrInvalidIndex       = errors.New("index out of range")
	ErrCycle              = errors.New("cycle detected in node graph")
	ErrMalformedTransform = errors.New("malformed transform")
	ErrMalformedAnimation = errors.New("malformed animation channel")
)

// LoadError reports a scene that could not be assembled.
// Err may aggregate several violations found in the same stage.
type LoadError struct {
	Stage string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load model: %s: %v", e.Stage, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

package entity

import (
	"fmt"
	"strings"
)

// ProbeError means the source could not be read or carries no decodable
// video stream. Fatal, surfaced to the caller as-is.
type ProbeError struct {
	Source string
	Err    error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("probe %s: %v", e.Source, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }

// DetectionError means both the primary and the fallback detector failed.
// Primary-only failures are absorbed by the fallback path and never
// produce this error.
type DetectionError struct {
	Source string
	Err    error
}

func (e *DetectionError) Error() string {
	return fmt.Sprintf("scene detection %s: %v", e.Source, e.Err)
}

func (e *DetectionError) Unwrap() error { return e.Err }

// ValidationError carries every invariant a computed frame range violated.
// It is recoverable: callers correct their input rather than retry, so it
// must stay distinguishable from extraction-layer failures.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "invalid frame range: " + strings.Join(e.Violations, "; ")
}

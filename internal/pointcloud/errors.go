package pointcloud

import (
	"errors"
	"fmt"
)

// Fatal conversion errors. Each aborts the whole conversion and is returned
// wrapped in a *ConversionError.
var (
	ErrUnrecognizedElementType = errors.New("unrecognized element type")
	ErrInvalidPackingSource    = errors.New("invalid packed colour source type")
	ErrInvalidDescriptor       = errors.New("invalid field descriptor")
	ErrOutOfBoundsRead         = errors.New("out of bounds read")
	ErrBuilderRejected         = errors.New("builder rejected attribute")
	ErrBuilderFinalizeFailed   = errors.New("builder finalize failed")
	ErrPointCountMismatch      = errors.New("point count mismatch")
)

// Non-fatal override errors. They are reported to diagnostics and the
// observer, then the name classification is used instead.
var (
	ErrOverrideLookupMiss   = errors.New("override lookup miss")
	ErrOverrideValueInvalid = errors.New("override value invalid")
)

// ConversionError is returned for every fatal condition. Field is empty for
// errors that are not tied to a single field.
type ConversionError struct {
	Field string
	Err   error
}

func (e *ConversionError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("pointcloud conversion: %v", e.Err)
	}
	return fmt.Sprintf("pointcloud conversion: field %q: %v", e.Field, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

func pointCountError(got, want int) error {
	return fmt.Errorf("%w: cloud has %d points, record has %d", ErrPointCountMismatch, got, want)
}

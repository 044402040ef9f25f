package pointcloud

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/banshee-data/pc2draco/internal/geometry"
)

// FieldDescriptor describes one named, typed slice of every point record.
type FieldDescriptor struct {
	Name     string
	Offset   int
	Datatype geometry.DataType
	Count    int
}

// ByteSpan is the number of bytes the field occupies in one point record.
func (f FieldDescriptor) ByteSpan() int {
	return f.Count * f.Datatype.Width()
}

// SourceRecord is an interleaved point buffer. The caller owns Data and must
// not modify it while a conversion is running.
type SourceRecord struct {
	Height    int
	Width     int
	PointStep int
	Fields    []FieldDescriptor
	Data      []byte
}

// PointCount returns Height*Width.
func (r *SourceRecord) PointCount() int {
	return r.Height * r.Width
}

// validate checks the record-level shape and that Data holds PointStep
// bytes for every point. Per-field bounds are checked while gathering.
func (r *SourceRecord) validate() error {
	if r.Height < 0 || r.Width < 0 {
		return fmt.Errorf("%w: negative dimensions %dx%d", ErrInvalidDescriptor, r.Height, r.Width)
	}
	hi, n := bits.Mul64(uint64(r.Height), uint64(r.Width))
	if hi != 0 || n > math.MaxInt {
		return fmt.Errorf("%w: %dx%d points overflow", ErrInvalidDescriptor, r.Height, r.Width)
	}
	if n == 0 {
		return nil
	}
	if r.PointStep <= 0 {
		return fmt.Errorf("%w: point step %d", ErrInvalidDescriptor, r.PointStep)
	}
	hi, need := bits.Mul64(n, uint64(r.PointStep))
	if hi != 0 || need > uint64(len(r.Data)) {
		return fmt.Errorf("%w: %d points of %d bytes exceed buffer of %d bytes",
			ErrOutOfBoundsRead, n, r.PointStep, len(r.Data))
	}
	return nil
}

// maxFieldCount bounds a field's component count so that its byte span
// cannot overflow int.
const maxFieldCount = math.MaxInt32

// validateField checks a descriptor before it is classified.
func validateField(f FieldDescriptor) error {
	if !f.Datatype.Valid() {
		return fmt.Errorf("%w: datatype %d", ErrUnrecognizedElementType, uint8(f.Datatype))
	}
	if f.Count < 1 || f.Count > maxFieldCount {
		return fmt.Errorf("%w: component count %d", ErrInvalidDescriptor, f.Count)
	}
	if f.Offset < 0 {
		return fmt.Errorf("%w: offset %d", ErrInvalidDescriptor, f.Offset)
	}
	return nil
}

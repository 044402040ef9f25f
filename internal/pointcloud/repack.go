package pointcloud

import (
	"fmt"
	"math/bits"
)

// Gather copies the planned field of every point out of an interleaved
// buffer into a new tightly packed buffer of count*p.ByteSpan() bytes.
// Bytes are copied verbatim. data is only read.
func Gather(p AttributePlan, data []byte, stride, count int) ([]byte, error) {
	span := p.ByteSpan()
	if span != p.Field.ByteSpan() {
		return nil, fmt.Errorf("%w: plan span %d != field span %d", ErrInvalidDescriptor, span, p.Field.ByteSpan())
	}
	if count < 0 || span <= 0 || p.Field.Offset < 0 {
		return nil, fmt.Errorf("%w: count %d span %d offset %d", ErrInvalidDescriptor, count, span, p.Field.Offset)
	}
	if count == 0 {
		return []byte{}, nil
	}
	last := uint64(p.Field.Offset) + uint64(span)
	if stride <= 0 || last > uint64(stride) {
		return nil, fmt.Errorf("%w: field [%d,%d) exceeds point step %d",
			ErrOutOfBoundsRead, p.Field.Offset, last, stride)
	}
	hi, lo := bits.Mul64(uint64(count-1), uint64(stride))
	end, carry := bits.Add64(lo, last, 0)
	if hi != 0 || carry != 0 || end > uint64(len(data)) {
		return nil, fmt.Errorf("%w: %d points of stride %d exceed buffer of %d bytes",
			ErrOutOfBoundsRead, count, stride, len(data))
	}

	out := make([]byte, count*span)
	src := p.Field.Offset
	for i := 0; i < count; i++ {
		copy(out[i*span:(i+1)*span], data[src:src+span])
		src += stride
	}
	return out, nil
}

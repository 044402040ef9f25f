package geometry

import (
	"bytes"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// PointCloudBuilder assembles a PointCloud one attribute at a time.
//
// Usage mirrors the encoder-side builder contract: Start with the point
// count, AddAttribute for each attribute, SetAttributeValuesForAllPoints to
// fill it, then Finalize. A builder may be reused after Finalize by calling
// Start again. It is not safe for concurrent use.
type PointCloudBuilder struct {
	numPoints  int
	attributes []*PointAttribute
	populated  []bool
	started    bool
}

// NewPointCloudBuilder returns an empty builder.
func NewPointCloudBuilder() *PointCloudBuilder {
	return &PointCloudBuilder{}
}

// Start resets the builder for a cloud of numPoints points.
func (b *PointCloudBuilder) Start(numPoints int) {
	if numPoints < 0 {
		numPoints = 0
	}
	b.numPoints = numPoints
	b.attributes = nil
	b.populated = nil
	b.started = true
}

// AddAttribute registers an attribute and returns its id. It returns -1 if
// the builder was not started or the attribute shape is invalid.
func (b *PointCloudBuilder) AddAttribute(t AttributeType, numComponents int, dt DataType) int {
	if !b.started || numComponents <= 0 || !dt.Valid() {
		return -1
	}
	id := len(b.attributes)
	b.attributes = append(b.attributes, &PointAttribute{
		ID:            id,
		Type:          t,
		DataType:      dt,
		NumComponents: numComponents,
		Data:          make([]byte, b.numPoints*numComponents*dt.Width()),
	})
	b.populated = append(b.populated, false)
	return id
}

// SetAttributeValuesForAllPoints copies one value per point from data into
// attribute id. Point i's value starts at data[i*stride]. A stride of zero
// means values are tightly packed.
func (b *PointCloudBuilder) SetAttributeValuesForAllPoints(id int, data []byte, stride int) error {
	if id < 0 || id >= len(b.attributes) {
		return fmt.Errorf("attribute id %d out of range [0,%d)", id, len(b.attributes))
	}
	att := b.attributes[id]
	size := att.ByteStride()
	if stride == 0 {
		stride = size
	}
	if stride < size {
		return fmt.Errorf("stride %d smaller than attribute value size %d", stride, size)
	}
	if b.numPoints > 0 {
		need := (b.numPoints-1)*stride + size
		if len(data) < need {
			return fmt.Errorf("attribute %d needs %d source bytes, have %d", id, need, len(data))
		}
	}
	if stride == size {
		copy(att.Data, data[:b.numPoints*size])
	} else {
		for i := 0; i < b.numPoints; i++ {
			copy(att.Data[i*size:(i+1)*size], data[i*stride:i*stride+size])
		}
	}
	b.populated[id] = true
	return nil
}

// Finalize returns the assembled cloud, or nil if the builder was never
// started or an attribute was never populated. With deduplicate set, points
// whose values are identical across every attribute are merged into their
// first occurrence.
func (b *PointCloudBuilder) Finalize(deduplicate bool) *PointCloud {
	if !b.started {
		return nil
	}
	for id, ok := range b.populated {
		if !ok {
			debugf("finalize: attribute %d was never populated", id)
			return nil
		}
	}
	pc := &PointCloud{
		numPoints:  b.numPoints,
		attributes: b.attributes,
	}
	b.started = false
	b.attributes = nil
	b.populated = nil

	if deduplicate && pc.numPoints > 1 && len(pc.attributes) > 0 {
		dedupPoints(pc)
	}
	return pc
}

// dedupPoints compacts pc in place, keeping the first occurrence of each
// distinct point.
func dedupPoints(pc *PointCloud) {
	rowSize := 0
	for _, a := range pc.attributes {
		rowSize += a.ByteStride()
	}
	row := func(i int, buf []byte) []byte {
		buf = buf[:0]
		for _, a := range pc.attributes {
			buf = append(buf, a.Value(i)...)
		}
		return buf
	}

	seen := make(map[uint64][]int, pc.numPoints)
	keep := make([]int, 0, pc.numPoints)
	cur := make([]byte, 0, rowSize)
	other := make([]byte, 0, rowSize)
	for i := 0; i < pc.numPoints; i++ {
		cur = row(i, cur)
		h := xxhash.Sum64(cur)
		dup := false
		for _, j := range seen[h] {
			other = row(j, other)
			if bytes.Equal(cur, other) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		seen[h] = append(seen[h], i)
		keep = append(keep, i)
	}
	if len(keep) == pc.numPoints {
		return
	}

	for _, a := range pc.attributes {
		s := a.ByteStride()
		out := make([]byte, len(keep)*s)
		for k, i := range keep {
			copy(out[k*s:(k+1)*s], a.Value(i))
		}
		a.Data = out
	}
	debugf("dedup: %d -> %d points", pc.numPoints, len(keep))
	pc.numPoints = len(keep)
}

// Package testutil provides shared test utilities and fixtures.
//
// RecordBuffer builds interleaved little-endian point records the way a
// sensor driver lays them out, so tests can describe fixtures point by point
// instead of as opaque byte literals.
package testutil

import (
	"encoding/binary"
	"math"
	"testing"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// RecordBuffer is a zeroed buffer of Points records of Stride bytes each.
type RecordBuffer struct {
	Stride int
	Points int
	Data   []byte
}

// NewRecordBuffer allocates a buffer for points records of stride bytes.
func NewRecordBuffer(stride, points int) *RecordBuffer {
	return &RecordBuffer{
		Stride: stride,
		Points: points,
		Data:   make([]byte, stride*points),
	}
}

func (b *RecordBuffer) at(point, offset int) []byte {
	return b.Data[point*b.Stride+offset:]
}

// PutFloat32 writes consecutive float32 values into point at offset.
func (b *RecordBuffer) PutFloat32(point, offset int, vals ...float32) {
	for i, v := range vals {
		binary.LittleEndian.PutUint32(b.at(point, offset+i*4), math.Float32bits(v))
	}
}

// PutFloat64 writes consecutive float64 values into point at offset.
func (b *RecordBuffer) PutFloat64(point, offset int, vals ...float64) {
	for i, v := range vals {
		binary.LittleEndian.PutUint64(b.at(point, offset+i*8), math.Float64bits(v))
	}
}

// PutUint32 writes consecutive uint32 values into point at offset.
func (b *RecordBuffer) PutUint32(point, offset int, vals ...uint32) {
	for i, v := range vals {
		binary.LittleEndian.PutUint32(b.at(point, offset+i*4), v)
	}
}

// PutUint16 writes consecutive uint16 values into point at offset.
func (b *RecordBuffer) PutUint16(point, offset int, vals ...uint16) {
	for i, v := range vals {
		binary.LittleEndian.PutUint16(b.at(point, offset+i*2), v)
	}
}

// PutBytes copies raw bytes into point at offset.
func (b *RecordBuffer) PutBytes(point, offset int, raw ...byte) {
	copy(b.at(point, offset), raw)
}

// Float32s decodes a little-endian float32 slice, e.g. an attribute buffer.
func Float32s(data []byte) []float32 {
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out
}

// PackRGB packs 8-bit channels the way PCL stores an "rgb" float field:
// 0x00RRGGBB reinterpreted as a float32, little-endian in memory.
func PackRGB(r, g, b uint8) float32 {
	return math.Float32frombits(uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

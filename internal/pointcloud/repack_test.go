package pointcloud

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/pc2draco/internal/geometry"
	"github.com/banshee-data/pc2draco/internal/testutil"
)

func TestGather_Strided(t *testing.T) {
	buf := testutil.NewRecordBuffer(10, 3)
	for i := 0; i < 3; i++ {
		buf.PutBytes(i, 0, 0xEE, 0xEE)
		buf.PutUint16(i, 2, uint16(0x100*i+1), uint16(0x100*i+2))
		buf.PutBytes(i, 6, 0xFF, 0xFF, 0xFF, 0xFF)
	}
	f := FieldDescriptor{Name: "ring", Offset: 2, Datatype: geometry.DTUint16, Count: 2}
	p, err := PlanAttribute(f, geometry.Generic, false)
	require.NoError(t, err)

	got, err := Gather(p, buf.Data, buf.Stride, buf.Points)
	require.NoError(t, err)
	assert.Equal(t, []byte{
		0x01, 0x00, 0x02, 0x00,
		0x01, 0x01, 0x02, 0x01,
		0x01, 0x02, 0x02, 0x02,
	}, got)
}

func TestGather_PackedColorPreservesMemoryOrder(t *testing.T) {
	buf := testutil.NewRecordBuffer(8, 2)
	buf.PutUint32(0, 4, 0xAABBCCDD)
	buf.PutUint32(1, 4, 0x11223344)
	p, err := PlanAttribute(FieldDescriptor{Name: "rgba", Offset: 4, Datatype: geometry.DTUint32, Count: 1}, geometry.Color, true)
	require.NoError(t, err)

	got, err := Gather(p, buf.Data, 8, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xDD, 0xCC, 0xBB, 0xAA, 0x44, 0x33, 0x22, 0x11}, got)
}

func TestGather_Float64PackedColor(t *testing.T) {
	buf := testutil.NewRecordBuffer(8, 1)
	buf.PutUint16(0, 0, 0x0102, 0x0304, 0x0506, 0x0708)
	p, err := PlanAttribute(FieldDescriptor{Name: "rgba", Datatype: geometry.DTFloat64, Count: 1}, geometry.Color, true)
	require.NoError(t, err)
	require.Equal(t, geometry.DTUint16, p.DataType)

	got, err := Gather(p, buf.Data, 8, 1)
	require.NoError(t, err)
	assert.Equal(t, buf.Data, got)
}

func TestGather_OutOfBounds(t *testing.T) {
	p, err := PlanAttribute(FieldDescriptor{Name: "x", Offset: 0, Datatype: geometry.DTFloat32, Count: 3}, geometry.Position, false)
	require.NoError(t, err)

	// Buffer one byte short of two points.
	_, err = Gather(p, make([]byte, 16+11), 16, 2)
	assert.ErrorIs(t, err, ErrOutOfBoundsRead)

	// Field crosses the point step.
	p.Field.Offset = 8
	_, err = Gather(p, make([]byte, 64), 16, 2)
	assert.ErrorIs(t, err, ErrOutOfBoundsRead)
}

func TestGather_StrideOverflow(t *testing.T) {
	p, err := PlanAttribute(FieldDescriptor{Name: "i", Datatype: geometry.DTUint8, Count: 1}, geometry.Generic, false)
	require.NoError(t, err)

	// (count-1)*stride is exactly 2^64 and would wrap to zero.
	_, err = Gather(p, make([]byte, 16), 1<<33, (1<<31)+1)
	assert.ErrorIs(t, err, ErrOutOfBoundsRead)

	_, err = Gather(p, make([]byte, 16), 0, 1)
	assert.ErrorIs(t, err, ErrOutOfBoundsRead)

	_, err = Gather(p, make([]byte, 16), 4, -1)
	assert.ErrorIs(t, err, ErrInvalidDescriptor)
}

func TestGather_ExactFitAndZeroPoints(t *testing.T) {
	p, err := PlanAttribute(FieldDescriptor{Name: "i", Offset: 3, Datatype: geometry.DTUint8, Count: 1}, geometry.Generic, false)
	require.NoError(t, err)

	// Last point needs bytes up to offset+span only, not a full stride.
	got, err := Gather(p, []byte{0, 0, 0, 7, 0, 0, 0, 9}, 4, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{7, 9}, got)

	got, err = Gather(p, nil, 4, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGather_DoesNotAliasSource(t *testing.T) {
	src := []byte{1, 2, 3, 4}
	p, err := PlanAttribute(FieldDescriptor{Name: "g", Datatype: geometry.DTUint8, Count: 4}, geometry.Generic, false)
	require.NoError(t, err)
	got, err := Gather(p, src, 4, 1)
	require.NoError(t, err)
	got[0] = 99
	assert.Equal(t, byte(1), src[0])
}

package pointcloud

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/pc2draco/internal/geometry"
)

var allTypes = []geometry.DataType{
	geometry.DTInt8, geometry.DTUint8, geometry.DTInt16, geometry.DTUint16,
	geometry.DTInt32, geometry.DTUint32, geometry.DTFloat32, geometry.DTFloat64,
}

func TestPlanAttribute_Passthrough(t *testing.T) {
	for _, dt := range allTypes {
		f := FieldDescriptor{Name: "f", Offset: 4, Datatype: dt, Count: 3}
		for _, attr := range []geometry.AttributeType{geometry.Position, geometry.Normal, geometry.Color, geometry.TexCoord, geometry.Generic} {
			p, err := PlanAttribute(f, attr, false)
			require.NoError(t, err)
			assert.Equal(t, attr, p.Type)
			assert.Equal(t, dt, p.DataType)
			assert.Equal(t, 3, p.NumComponents)
			assert.False(t, p.PackedColor)
			assert.Equal(t, f, p.Field)
		}
	}
}

func TestPlanAttribute_PackedColor(t *testing.T) {
	tests := []struct {
		src   geometry.DataType
		count int
		want  geometry.DataType
		comps int
	}{
		{geometry.DTFloat32, 1, geometry.DTUint8, 4},
		{geometry.DTInt32, 1, geometry.DTUint8, 4},
		{geometry.DTUint32, 1, geometry.DTUint8, 4},
		{geometry.DTFloat64, 1, geometry.DTUint16, 4},
		{geometry.DTUint32, 2, geometry.DTUint8, 8},
		{geometry.DTFloat64, 3, geometry.DTUint16, 12},
	}
	for _, tt := range tests {
		t.Run(tt.src.String(), func(t *testing.T) {
			f := FieldDescriptor{Name: "rgb", Datatype: tt.src, Count: tt.count}
			p, err := PlanAttribute(f, geometry.Color, true)
			require.NoError(t, err)
			assert.True(t, p.PackedColor)
			assert.Equal(t, tt.want, p.DataType)
			assert.Equal(t, tt.comps, p.NumComponents)
		})
	}
}

func TestPlanAttribute_PackingIgnoredForNonColor(t *testing.T) {
	f := FieldDescriptor{Name: "rgb", Datatype: geometry.DTFloat32, Count: 1}
	p, err := PlanAttribute(f, geometry.Generic, true)
	require.NoError(t, err)
	assert.False(t, p.PackedColor)
	assert.Equal(t, geometry.DTFloat32, p.DataType)
	assert.Equal(t, 1, p.NumComponents)
}

func TestPlanAttribute_InvalidPackingSource(t *testing.T) {
	for _, dt := range []geometry.DataType{geometry.DTInt8, geometry.DTUint8, geometry.DTInt16, geometry.DTUint16} {
		_, err := PlanAttribute(FieldDescriptor{Name: "rgb", Datatype: dt, Count: 1}, geometry.Color, true)
		assert.True(t, errors.Is(err, ErrInvalidPackingSource), "%s: %v", dt, err)
	}
}

func TestPlanAttribute_UnrecognizedType(t *testing.T) {
	_, err := PlanAttribute(FieldDescriptor{Name: "x", Datatype: geometry.DataType(9), Count: 1}, geometry.Position, false)
	assert.ErrorIs(t, err, ErrUnrecognizedElementType)
}

func TestPlanAttribute_ByteSpanInvariant(t *testing.T) {
	for _, dt := range allTypes {
		for count := 1; count <= 4; count++ {
			for _, packed := range []bool{false, true} {
				f := FieldDescriptor{Name: "c", Datatype: dt, Count: count}
				p, err := PlanAttribute(f, geometry.Color, packed)
				if err != nil {
					require.ErrorIs(t, err, ErrInvalidPackingSource)
					continue
				}
				assert.Equal(t, count*dt.Width(), p.ByteSpan(), "%s x%d packed=%t", dt, count, packed)
				assert.Equal(t, f.ByteSpan(), p.ByteSpan())
			}
		}
	}
}

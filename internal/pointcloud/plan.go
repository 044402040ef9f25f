package pointcloud

import (
	"fmt"

	"github.com/banshee-data/pc2draco/internal/geometry"
)

// AttributePlan is the output shape decided for one source field.
type AttributePlan struct {
	Type          geometry.AttributeType
	Field         FieldDescriptor
	PackedColor   bool
	DataType      geometry.DataType
	NumComponents int
}

// ByteSpan is the number of bytes one point's value occupies. It always
// equals Field.ByteSpan().
func (p AttributePlan) ByteSpan() int {
	return p.NumComponents * p.DataType.Width()
}

// packedChannelType gives the sub-channel type for each packable scalar.
// Four sub-channels always cover the scalar exactly.
var packedChannelType = map[geometry.DataType]geometry.DataType{
	geometry.DTInt32:   geometry.DTUint8,
	geometry.DTUint32:  geometry.DTUint8,
	geometry.DTFloat32: geometry.DTUint8,
	geometry.DTFloat64: geometry.DTUint16,
}

const packedChannels = 4

// PlanAttribute decides the output type and component count for field.
// packed only has an effect when attr is Color.
func PlanAttribute(field FieldDescriptor, attr geometry.AttributeType, packed bool) (AttributePlan, error) {
	if !field.Datatype.Valid() {
		return AttributePlan{}, fmt.Errorf("%w: datatype %d", ErrUnrecognizedElementType, uint8(field.Datatype))
	}
	p := AttributePlan{
		Type:          attr,
		Field:         field,
		DataType:      field.Datatype,
		NumComponents: field.Count,
	}
	if attr != geometry.Color || !packed {
		return p, nil
	}

	sub, ok := packedChannelType[field.Datatype]
	if !ok {
		return AttributePlan{}, fmt.Errorf("%w: %s", ErrInvalidPackingSource, field.Datatype)
	}
	p.PackedColor = true
	p.DataType = sub
	p.NumComponents = packedChannels * field.Count
	return p, nil
}

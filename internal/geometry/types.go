package geometry

import "fmt"

// DataType is the element type of a point field or attribute component.
// Values match the sensor_msgs/PointField datatype codes so that records
// coming off the wire can be validated with DataTypeFromCode.
type DataType uint8

const (
	DTInvalid DataType = 0
	DTInt8    DataType = 1
	DTUint8   DataType = 2
	DTInt16   DataType = 3
	DTUint16  DataType = 4
	DTInt32   DataType = 5
	DTUint32  DataType = 6
	DTFloat32 DataType = 7
	DTFloat64 DataType = 8
)

type dataTypeInfo struct {
	name   string
	width  int
	signed bool
	float  bool
}

var dataTypes = [...]dataTypeInfo{
	DTInvalid: {name: "INVALID"},
	DTInt8:    {name: "INT8", width: 1, signed: true},
	DTUint8:   {name: "UINT8", width: 1},
	DTInt16:   {name: "INT16", width: 2, signed: true},
	DTUint16:  {name: "UINT16", width: 2},
	DTInt32:   {name: "INT32", width: 4, signed: true},
	DTUint32:  {name: "UINT32", width: 4},
	DTFloat32: {name: "FLOAT32", width: 4, signed: true, float: true},
	DTFloat64: {name: "FLOAT64", width: 8, signed: true, float: true},
}

// DataTypeFromCode validates a raw datatype code.
func DataTypeFromCode(code uint8) (DataType, error) {
	dt := DataType(code)
	if !dt.Valid() {
		return DTInvalid, fmt.Errorf("unknown datatype code %d", code)
	}
	return dt, nil
}

// Valid reports whether dt is one of the eight known element types.
func (dt DataType) Valid() bool {
	return dt >= DTInt8 && dt <= DTFloat64
}

// Width returns the element width in bytes, or 0 for an invalid type.
func (dt DataType) Width() int {
	if !dt.Valid() {
		return 0
	}
	return dataTypes[dt].width
}

// Signed reports whether the type carries a sign (floats included).
func (dt DataType) Signed() bool {
	return dt.Valid() && dataTypes[dt].signed
}

// Float reports whether the type is IEEE-754.
func (dt DataType) Float() bool {
	return dt.Valid() && dataTypes[dt].float
}

// String returns the upper-case type name, e.g. "FLOAT32".
func (dt DataType) String() string {
	if !dt.Valid() {
		return fmt.Sprintf("INVALID(%d)", uint8(dt))
	}
	return dataTypes[dt].name
}

// AttributeType is the semantic role of an attribute.
type AttributeType int

const (
	Position AttributeType = iota
	Normal
	Color
	TexCoord
	Generic
)

// String returns the canonical role name used in parameter stores.
func (t AttributeType) String() string {
	switch t {
	case Position:
		return "POSITION"
	case Normal:
		return "NORMAL"
	case Color:
		return "COLOR"
	case TexCoord:
		return "TEX_COORD"
	case Generic:
		return "GENERIC"
	default:
		return "INVALID"
	}
}

// ParseAttributeType maps a canonical role name to an AttributeType. The
// match is exact and case-sensitive.
func ParseAttributeType(s string) (AttributeType, bool) {
	switch s {
	case "POSITION":
		return Position, true
	case "NORMAL":
		return Normal, true
	case "COLOR":
		return Color, true
	case "TEX_COORD":
		return TexCoord, true
	case "GENERIC":
		return Generic, true
	default:
		return Generic, false
	}
}

package geometry

import (
	"encoding/binary"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ComponentStats summarises one component of an attribute over all points.
type ComponentStats struct {
	Min  float64
	Max  float64
	Mean float64
}

// AttributeStats summarises one attribute of a cloud.
type AttributeStats struct {
	ID         int
	Type       AttributeType
	DataType   DataType
	Components []ComponentStats
}

// Describe computes per-component min/max/mean for every attribute. Values
// are decoded little-endian. Attributes of an empty cloud report zero stats.
func Describe(pc *PointCloud) []AttributeStats {
	out := make([]AttributeStats, 0, len(pc.Attributes()))
	for _, a := range pc.Attributes() {
		as := AttributeStats{
			ID:         a.ID,
			Type:       a.Type,
			DataType:   a.DataType,
			Components: make([]ComponentStats, a.NumComponents),
		}
		if pc.NumPoints() > 0 {
			col := make([]float64, pc.NumPoints())
			for c := 0; c < a.NumComponents; c++ {
				for i := range col {
					col[i] = decodeComponent(a, i, c)
				}
				as.Components[c] = ComponentStats{
					Min:  floats.Min(col),
					Max:  floats.Max(col),
					Mean: stat.Mean(col, nil),
				}
			}
		}
		out = append(out, as)
	}
	return out
}

// ComponentFloat64 decodes component c of point i as a float64.
func (a *PointAttribute) ComponentFloat64(i, c int) float64 {
	return decodeComponent(a, i, c)
}

func decodeComponent(a *PointAttribute, i, c int) float64 {
	w := a.DataType.Width()
	b := a.Value(i)[c*w : (c+1)*w]
	switch a.DataType {
	case DTInt8:
		return float64(int8(b[0]))
	case DTUint8:
		return float64(b[0])
	case DTInt16:
		return float64(int16(binary.LittleEndian.Uint16(b)))
	case DTUint16:
		return float64(binary.LittleEndian.Uint16(b))
	case DTInt32:
		return float64(int32(binary.LittleEndian.Uint32(b)))
	case DTUint32:
		return float64(binary.LittleEndian.Uint32(b))
	case DTFloat32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	case DTFloat64:
		return math.Float64frombits(binary.LittleEndian.Uint64(b))
	default:
		return math.NaN()
	}
}

package geometry

// PointAttribute is one attribute-major value buffer of a finalized cloud.
// Data holds NumComponents*DataType.Width() bytes per point, points in order.
type PointAttribute struct {
	ID            int
	Type          AttributeType
	DataType      DataType
	NumComponents int
	Data          []byte
}

// ByteStride returns the number of bytes occupied by one point's value.
func (a *PointAttribute) ByteStride() int {
	return a.NumComponents * a.DataType.Width()
}

// Value returns the raw bytes of point i. The slice aliases Data.
func (a *PointAttribute) Value(i int) []byte {
	s := a.ByteStride()
	return a.Data[i*s : (i+1)*s]
}

// PointCloud is the output of PointCloudBuilder.Finalize.
type PointCloud struct {
	numPoints  int
	attributes []*PointAttribute
	metadata   map[string]int64
}

// NumPoints returns the number of points after any deduplication.
func (pc *PointCloud) NumPoints() int {
	if pc == nil {
		return 0
	}
	return pc.numPoints
}

// Attributes returns the attributes in registration order.
func (pc *PointCloud) Attributes() []*PointAttribute {
	return pc.attributes
}

// Attribute returns the attribute with the given id, or nil.
func (pc *PointCloud) Attribute(id int) *PointAttribute {
	if id < 0 || id >= len(pc.attributes) {
		return nil
	}
	return pc.attributes[id]
}

// NamedAttribute returns the first attribute with the given semantic type.
func (pc *PointCloud) NamedAttribute(t AttributeType) *PointAttribute {
	for _, a := range pc.attributes {
		if a.Type == t {
			return a
		}
	}
	return nil
}

// NumNamedAttributes counts attributes of the given semantic type.
func (pc *PointCloud) NumNamedAttributes(t AttributeType) int {
	n := 0
	for _, a := range pc.attributes {
		if a.Type == t {
			n++
		}
	}
	return n
}

// AddMetadataInt sets an integer metadata entry, replacing any prior value.
func (pc *PointCloud) AddMetadataInt(name string, v int64) {
	if pc.metadata == nil {
		pc.metadata = make(map[string]int64)
	}
	pc.metadata[name] = v
}

// MetadataInt looks up an integer metadata entry.
func (pc *PointCloud) MetadataInt(name string) (int64, bool) {
	v, ok := pc.metadata[name]
	return v, ok
}

// Metadata returns a copy of all metadata entries.
func (pc *PointCloud) Metadata() map[string]int64 {
	out := make(map[string]int64, len(pc.metadata))
	for k, v := range pc.metadata {
		out[k] = v
	}
	return out
}

// Package pointcloud converts interleaved point records into the
// attribute-major geometry.PointCloud consumed by geometry encoders.
//
// The pipeline runs one way for each field of a SourceRecord:
//
//	name classification / override lookup -> attribute plan -> strided gather -> builder
//
// A Converter holds only configuration and collaborators (parameter store,
// diagnostics sink, observer, builder factory) and may be shared between
// goroutines converting different records.
//
// Packed colours: a single rgb/rgba field stored as one 4- or 8-byte scalar
// is re-described as four 1- or 2-byte sub-channels. No value conversion
// happens; sub-channel k is bytes [k*w, (k+1)*w) of the scalar exactly as it
// sits in memory. For a little-endian PCL "rgb" float this yields the
// channel order b, g, r, a.
package pointcloud

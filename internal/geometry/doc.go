// Package geometry owns the attribute-major point cloud representation that
// downstream geometry encoders consume.
//
// Responsibilities: the element type table (DataType), semantic attribute
// types (AttributeType), the PointCloudBuilder that allocates attribute
// storage and optionally deduplicates points, and read-only helpers over a
// finalized PointCloud (metadata, statistics).
//
// Dependency rule: geometry depends on nothing else in this module. Record
// classification and repacking live in internal/pointcloud.
package geometry

// Package msgs encodes scans and sensor metadata for publishing.
// Scans are protobuf messages, metadata is JSON published retained.
package msgs

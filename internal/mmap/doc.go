// Package mmap provides anonymous memory mappings for large, fixed-size
// memory regions that live outside the Go heap.
//
// Regions obtained here back the weight arena: they are reserved once,
// written to many times, and released exactly once. Keeping them off-heap
// avoids GC pressure proportional to the configured memory budget.
package mmap

// Package model describes feed-forward model architectures as memory
// layouts. It computes per-layer weight sizes and tracks which layers a
// published checkpoint contains; it performs no numerics.
package model

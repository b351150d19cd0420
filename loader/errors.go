package loader

import (
	"fmt"

	"github.com/edgemind/edgemind/model"
)

// ModelTooLargeError is returned when a single layer exceeds the arena
// capacity, so no amount of flushing can make it resident.
type ModelTooLargeError struct {
	Layer    model.Layer
	Capacity int
}

func (e *ModelTooLargeError) Error() string {
	return fmt.Sprintf("loader: layer %s needs %d bytes but arena capacity is %d",
		e.Layer.Name, e.Layer.SizeBytes(), e.Capacity)
}

// LayerMissingError is returned when the manifest does not contain a layer
// the architecture requires.
type LayerMissingError struct {
	Layer model.Layer
}

func (e *LayerMissingError) Error() string {
	return fmt.Sprintf("loader: checkpoint is missing layer %s (id %d)", e.Layer.Name, e.Layer.ID)
}

// UnknownCodecError is returned when the manifest names a codec this build
// does not provide.
type UnknownCodecError struct {
	Name string
}

func (e *UnknownCodecError) Error() string {
	return fmt.Sprintf("loader: unknown codec %q", e.Name)
}

// SizeMismatchError is returned when a decoded blob does not match the size
// the architecture computes for its layer. It usually means the checkpoint
// was published for a different spec.
type SizeMismatchError struct {
	Layer model.Layer
	Got   int
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("loader: layer %s decoded to %d bytes, want %d",
		e.Layer.Name, e.Got, e.Layer.SizeBytes())
}

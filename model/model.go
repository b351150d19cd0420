package model

import (
	"errors"
	"fmt"
)

// bytesPerParam is the storage size of one float32 parameter.
const bytesPerParam = 4

// Spec describes a deep feed-forward architecture: an input projection,
// a stack of hidden-to-hidden layers and an output projection.
type Spec struct {
	// Name identifies the model; it prefixes all blob names.
	Name string

	InputSize  int
	HiddenSize int
	OutputSize int

	// HiddenLayers is the number of Linear layers up to and including the
	// last hidden-to-hidden layer. The first consumes InputSize features.
	HiddenLayers int
}

// Validate checks that all dimensions are positive.
func (s Spec) Validate() error {
	if s.Name == "" {
		return errors.New("model: name must not be empty")
	}
	if s.InputSize <= 0 || s.HiddenSize <= 0 || s.OutputSize <= 0 {
		return fmt.Errorf("model %q: sizes must be positive", s.Name)
	}
	if s.HiddenLayers <= 0 {
		return fmt.Errorf("model %q: hidden layer count must be positive", s.Name)
	}
	return nil
}

// Layers returns the layer sequence in forward-pass order.
// IDs are dense and start at 1; the output projection is the last entry.
func (s Spec) Layers() []Layer {
	layers := make([]Layer, 0, s.HiddenLayers+1)

	in := s.InputSize
	for i := 1; i <= s.HiddenLayers; i++ {
		layers = append(layers, Layer{
			ID:          uint64(i),
			Name:        fmt.Sprintf("layer-%02d", i),
			InFeatures:  in,
			OutFeatures: s.HiddenSize,
		})
		in = s.HiddenSize
	}

	layers = append(layers, Layer{
		ID:          uint64(s.HiddenLayers + 1),
		Name:        "output",
		InFeatures:  s.HiddenSize,
		OutFeatures: s.OutputSize,
	})

	return layers
}

// TotalBytes returns the summed weight size of all layers.
func (s Spec) TotalBytes() int64 {
	var total int64
	for _, l := range s.Layers() {
		total += int64(l.SizeBytes())
	}
	return total
}

// Layer is one Linear layer viewed as a memory block.
type Layer struct {
	ID          uint64
	Name        string
	InFeatures  int
	OutFeatures int
}

// SizeBytes returns the weight matrix plus bias vector size in bytes,
// stored as float32.
func (l Layer) SizeBytes() int {
	return (l.InFeatures*l.OutFeatures + l.OutFeatures) * bytesPerParam
}

func (l Layer) String() string {
	return fmt.Sprintf("%s (%dx%d, %d bytes)", l.Name, l.InFeatures, l.OutFeatures, l.SizeBytes())
}

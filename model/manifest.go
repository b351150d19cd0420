package model

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"iter"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// ManifestBlobName is the well-known blob name of a checkpoint manifest,
// relative to the model prefix.
const ManifestBlobName = "manifest.json"

// Manifest records which layers a published checkpoint contains and how
// their blobs are encoded. Layer membership is a roaring bitmap so sparse
// partial checkpoints stay cheap.
type Manifest struct {
	model  string
	codec  string
	layers *roaring64.Bitmap
}

// NewManifest creates an empty manifest for the named model, with blobs
// encoded by the named codec.
func NewManifest(model, codecName string) *Manifest {
	return &Manifest{
		model:  model,
		codec:  codecName,
		layers: roaring64.New(),
	}
}

// ManifestForSpec creates a manifest containing every layer of the spec.
func ManifestForSpec(spec Spec, codecName string) *Manifest {
	m := NewManifest(spec.Name, codecName)
	for _, l := range spec.Layers() {
		m.AddLayer(l.ID)
	}
	return m
}

// Model returns the model name.
func (m *Manifest) Model() string { return m.model }

// Codec returns the name of the codec the blobs were encoded with.
func (m *Manifest) Codec() string { return m.codec }

// AddLayer records a layer as present in the checkpoint.
func (m *Manifest) AddLayer(id uint64) {
	m.layers.Add(id)
}

// HasLayer reports whether the checkpoint contains the layer.
func (m *Manifest) HasLayer(id uint64) bool {
	return m.layers.Contains(id)
}

// LayerCount returns the number of layers in the checkpoint.
func (m *Manifest) LayerCount() uint64 {
	return m.layers.GetCardinality()
}

// LayerIDs iterates the contained layer IDs in ascending order.
func (m *Manifest) LayerIDs() iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		it := m.layers.Iterator()
		for it.HasNext() {
			if !yield(it.Next()) {
				return
			}
		}
	}
}

// BlobName returns the store-relative name of a layer's weight blob.
func (m *Manifest) BlobName(id uint64) string {
	return fmt.Sprintf("%s/layer-%03d.bin", m.model, id)
}

// Name returns the store-relative name of the manifest blob itself.
func (m *Manifest) Name() string {
	return fmt.Sprintf("%s/%s", m.model, ManifestBlobName)
}

type manifestJSON struct {
	Model  string `json:"model"`
	Codec  string `json:"codec"`
	Layers string `json:"layers"` // base64 roaring bitmap
}

// MarshalJSON implements json.Marshaler.
func (m *Manifest) MarshalJSON() ([]byte, error) {
	raw, err := m.layers.ToBytes()
	if err != nil {
		return nil, fmt.Errorf("model: serialize layer bitmap: %w", err)
	}
	return json.Marshal(manifestJSON{
		Model:  m.model,
		Codec:  m.codec,
		Layers: base64.StdEncoding.EncodeToString(raw),
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Manifest) UnmarshalJSON(data []byte) error {
	var mj manifestJSON
	if err := json.Unmarshal(data, &mj); err != nil {
		return err
	}

	raw, err := base64.StdEncoding.DecodeString(mj.Layers)
	if err != nil {
		return fmt.Errorf("model: decode layer bitmap: %w", err)
	}

	layers := roaring64.New()
	if len(raw) > 0 {
		if err := layers.UnmarshalBinary(raw); err != nil {
			return fmt.Errorf("model: parse layer bitmap: %w", err)
		}
	}

	m.model = mj.Model
	m.codec = mj.Codec
	m.layers = layers
	return nil
}

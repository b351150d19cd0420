package loader

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/edgemind/edgemind/blobstore"
	"github.com/edgemind/edgemind/codec"
	"github.com/edgemind/edgemind/model"
)

// WeightFunc produces the raw weight bytes for a layer. The returned slice
// must be exactly layer.SizeBytes() long.
type WeightFunc func(layer model.Layer) []byte

// Publish writes a checkpoint for the spec into the store: one encoded blob
// per layer plus the manifest. A nil weights function publishes zero-filled
// layers, which is enough for sizing and load testing. The manifest is
// written last so a reader never sees it before the blobs it names.
func Publish(ctx context.Context, store blobstore.BlobStore, cdc codec.Codec, spec model.Spec, weights WeightFunc) (*model.Manifest, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if cdc == nil {
		cdc = codec.Default
	}

	m := model.NewManifest(spec.Name, cdc.Name())

	for _, layer := range spec.Layers() {
		var raw []byte
		if weights != nil {
			raw = weights(layer)
		} else {
			raw = make([]byte, layer.SizeBytes())
		}
		if len(raw) != layer.SizeBytes() {
			return nil, &SizeMismatchError{Layer: layer, Got: len(raw)}
		}

		enc, err := cdc.Encode(raw)
		if err != nil {
			return nil, fmt.Errorf("loader: encode layer %s: %w", layer.Name, err)
		}
		if err := store.Put(ctx, m.BlobName(layer.ID), enc); err != nil {
			return nil, fmt.Errorf("loader: publish layer %s: %w", layer.Name, err)
		}
		m.AddLayer(layer.ID)
	}

	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("loader: marshal manifest: %w", err)
	}
	if err := store.Put(ctx, m.Name(), data); err != nil {
		return nil, fmt.Errorf("loader: publish manifest: %w", err)
	}

	return m, nil
}

// Package edgemind provides a budgeted weight-memory runtime for running
// models that are larger than the RAM of the device they run on.
//
// The core pieces:
//
//   - arena: one fixed-capacity bump allocator holding all resident weights
//   - scheduler: decides per layer whether to load, evict or give up
//   - loader: streams checkpoint blobs from a store into the arena
//   - monitor: background process telemetry (RSS, CPU, arena watermark)
//
// # Quick Start
//
// Boot a runtime with a 50MB weight budget and stream a model through it:
//
//	rt, err := edgemind.Boot(50,
//	    edgemind.WithStore(store),
//	    edgemind.WithLogger(edgemind.NewTextLogger(slog.LevelInfo)),
//	)
//	if err != nil {
//	    panic(err)
//	}
//	defer rt.Close()
//
//	spec := model.Spec{
//	    Name: "deepff", InputSize: 512, HiddenSize: 1024,
//	    OutputSize: 10, HiddenLayers: 10,
//	}
//
//	res, err := rt.LoadModel(ctx, spec, func(ctx context.Context, ll loader.LoadedLayer) error {
//	    // ll.Bytes is the layer's arena-resident weight data.
//	    return nil
//	})
//
// When the model does not fit the budget, the runtime flushes all resident
// layers and keeps streaming; a single layer larger than the budget is a
// terminal ErrModelTooLarge.
package edgemind

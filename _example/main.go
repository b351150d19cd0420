package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"time"

	"github.com/edgemind/edgemind"
	"github.com/edgemind/edgemind/codec"
	"github.com/edgemind/edgemind/loader"
	"github.com/edgemind/edgemind/model"
)

func main() {
	fmt.Println("--- Booting EdgeMind Runtime ---")

	ctx := context.Background()

	metrics := &edgemind.BasicMetricsCollector{}

	// 1. Boot with a 50MB weight budget and a 100ms telemetry monitor.
	rt, err := edgemind.Boot(50,
		edgemind.WithCodec(codec.NewZstd()),
		edgemind.WithLogger(edgemind.NewTextLogger(slog.LevelInfo)),
		edgemind.WithMetricsCollector(metrics),
		edgemind.WithMonitorInterval(100*time.Millisecond),
	)
	if err != nil {
		log.Fatalf("Failed to boot runtime: %v", err)
	}
	defer rt.Close()

	// 2. Publish a model whose layers are ~15MB each: five of them cannot
	// all fit in 50MB, so the runtime must flush mid-model.
	spec := model.Spec{
		Name:         "deepff",
		InputSize:    1980,
		HiddenSize:   1980,
		OutputSize:   1980,
		HiddenLayers: 4,
	}

	fmt.Printf("Publishing %q (%d layers, %.1f MB total)...\n",
		spec.Name, len(spec.Layers()), float64(spec.TotalBytes())/(1024*1024))

	if _, err := rt.PublishModel(ctx, spec, nil); err != nil {
		log.Fatalf("Publish failed: %v", err)
	}

	// 3. Stream the model through the arena. The callback runs while each
	// layer is resident; the sleep gives the monitor time to catch the
	// memory spike.
	fmt.Println("\nStarting Inference Sequence...")

	res, err := rt.LoadModel(ctx, spec, func(_ context.Context, ll loader.LoadedLayer) error {
		fmt.Printf("  %-10s resident (%5.1f MB in arena)\n",
			ll.Layer.Name, float64(rt.MemoryUsage())/(1024*1024))
		time.Sleep(600 * time.Millisecond)
		return nil
	})
	if err != nil {
		log.Fatalf("Load failed: %v", err)
	}

	stats := metrics.GetStats()
	fmt.Println("\n--- Inference Complete ---")
	fmt.Printf("Layers loaded: %d\n", res.LayersLoaded)
	fmt.Printf("Arena flushes: %d\n", res.Flushes)
	fmt.Printf("Bytes fetched: %.1f MB\n", float64(res.BytesFetched)/(1024*1024))
	fmt.Printf("Telemetry samples: %d (last RSS %.1f MB)\n",
		stats.SampleCount, float64(stats.LastRSSBytes)/(1024*1024))
}

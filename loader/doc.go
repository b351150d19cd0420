// Package loader streams model weights from a blob store into the arena.
//
// It drives the scheduler through the load/evict/flush protocol: layers are
// walked in forward-pass order, fetched and decoded concurrently under
// resource budgets, and copied into arena space as the scheduler grants it.
// When the arena fills up mid-model the loader flushes everything and keeps
// going, which is exactly the streaming behavior a budgeted edge device
// needs: a layer's weights are only required until its activations exist.
package loader

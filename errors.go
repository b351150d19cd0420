package edgemind

import (
	"errors"
	"fmt"

	"github.com/edgemind/edgemind/arena"
	"github.com/edgemind/edgemind/blobstore"
	"github.com/edgemind/edgemind/loader"
)

var (
	// ErrNotFound is returned when a model or blob does not exist.
	ErrNotFound = errors.New("not found")

	// ErrModelTooLarge is returned when a single layer exceeds the weight
	// budget, so the model can never be streamed through it.
	ErrModelTooLarge = errors.New("model too large for weight budget")

	// ErrClosed is returned when the runtime is used after Close.
	ErrClosed = errors.New("runtime closed")

	// ErrInvalidBudget is returned when the weight budget is not positive.
	ErrInvalidBudget = errors.New("weight budget must be positive")
)

func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Not found unification.
	if errors.Is(err, blobstore.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	var lm *loader.LayerMissingError
	if errors.As(err, &lm) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	// Capacity exhaustion.
	var tl *loader.ModelTooLargeError
	if errors.As(err, &tl) {
		return fmt.Errorf("%w: %w", ErrModelTooLarge, err)
	}

	// Lifecycle.
	if errors.Is(err, arena.ErrClosed) {
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}

	return err
}

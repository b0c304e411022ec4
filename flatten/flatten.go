// Package flatten extracts the flat binary image of an ELF executable's
// loadable sections, either by running objcopy or in-process.
package flatten

import (
	"context"

	"github.com/pkg/errors"
)

// ErrFlattenFailed is returned when the image could not be produced.
var ErrFlattenFailed = errors.New("flatten failed")

// A Flattener produces the flat image of the ELF file at path: the contents
// of its loadable sections in address order, starting at the lowest one.
type Flattener interface {
	Flatten(ctx context.Context, path string) ([]byte, error)
}

// Func adapts an ordinary function to the Flattener interface.
type Func func(ctx context.Context, path string) ([]byte, error)

// Flatten calls fn(ctx, path).
func (fn Func) Flatten(ctx context.Context, path string) ([]byte, error) {
	return fn(ctx, path)
}

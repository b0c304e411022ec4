package exp

import (
	"math"

	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

// stackAlign is the alignment of the initial stack pointer.
const stackAlign = 4

// alignUp returns the smallest multiple of u which is not less than x.
func alignUp[I constraints.Unsigned](x, u I) I {
	if r := x % u; r != 0 {
		return x + (u - r)
	}
	return x
}

// A Layout is the memory layout the extender builds when loading an image.
type Layout struct {
	StackTop uint32 // initial ESP
	MinAlloc uint32 // bytes to allocate beyond the loaded image
	MaxAlloc uint32
}

// ComputeLayout computes the memory layout for an image of imageLen bytes
// spanning the given address range.
func ComputeLayout(r AddrRange, opts LinkOptions, imageLen int) (Layout, error) {
	if r.End < r.Base {
		return Layout{}, errors.Errorf("invalid address range 0x%08x-0x%08x", r.Base, r.End)
	}
	if imageLen < 0 || uint64(imageLen) > uint64(r.Size()) {
		return Layout{}, errors.Wrapf(ErrImageTooLarge, "image is %d bytes, address range is %d bytes",
			imageLen, r.Size())
	}
	top := alignUp(uint64(r.End)+uint64(opts.StackSize), stackAlign)
	if top > math.MaxUint32 {
		return Layout{}, errors.Wrapf(ErrStackSizeOverflow, "end 0x%08x + stack 0x%x", r.End, opts.StackSize)
	}
	stackTop := uint32(top)
	return Layout{
		StackTop: stackTop,
		MinAlloc: stackTop - r.Base - uint32(imageLen),
		MaxAlloc: Unbounded,
	}, nil
}

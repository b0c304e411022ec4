// Package exp provides an interface to Phar Lap P3 flat executables, the
// ".EXP" images loaded by 32-bit protected-mode DOS extenders.
package exp

import "github.com/pkg/errors"

const (
	// HeaderSize is the size of the P3 header, in bytes.
	HeaderSize = 384
	// ParamsSize is the size of the DX parameter block, in bytes.
	ParamsSize = 128

	// FlatModel is the header version word for a flat-model image.
	FlatModel = 1

	// DefaultStackSize is the default stack reservation, in bytes.
	DefaultStackSize = 4096

	// Unbounded is the maximum allocation meaning "as much as is available".
	Unbounded = 0xffffffff
)

var (
	// Signature identifies a P3 header.
	Signature = [2]byte{'P', '3'}
	// ParamsSignature identifies a DX parameter block.
	ParamsSignature = [2]byte{'D', 'X'}
)

var (
	ErrStackSizeOverflow = errors.New("stack size overflows the 32-bit address space")
	ErrImageTooLarge     = errors.New("image is larger than its address range")
	ErrChecksum          = errors.New("checksum mismatch")
	ErrFormat            = errors.New("not a P3 image")
)

// An AddrRange is the range of addresses spanned by the loadable sections.
type AddrRange struct {
	Base uint32 // lowest address
	End  uint32 // one past the highest address
}

// Size returns the number of bytes in the range.
func (r AddrRange) Size() uint32 {
	return r.End - r.Base
}

// LinkOptions configures how an image is laid out in memory.
type LinkOptions struct {
	StackSize uint32 // bytes reserved above the image for the stack
}

// A Header is the fixed-size P3 file header.
type Header struct {
	Signature     [2]byte
	Version       uint16 // FlatModel
	HeaderSize    uint16
	FileSize      uint32 // total size of the file, in bytes
	Checksum      uint16
	ParamsOffset  uint32
	ParamsSize    uint32
	RelocsOffset  uint32 // always equal to ImageOffset
	RelocsSize    uint32 // always zero
	ImageOffset   uint32
	ImageSize     uint32
	MinAlloc      uint32 // bytes to allocate beyond the loaded image
	MaxAlloc      uint32 // Unbounded, or an upper limit
	LoadOffset    uint32 // address where the image is loaded
	InitialESP    uint32
	InitialEIP    uint32
	LoadImageSize uint32
}

// Params is the DX parameter block. These are runtime tuning values for the
// extender, unrelated to the program being loaded.
type Params struct {
	Signature  [2]byte
	MinReal    uint16 // real-mode memory, paragraphs
	MaxReal    uint16 // real-mode memory, paragraphs
	MinIBuf    uint16 // interrupt buffer, KiB
	MaxIBuf    uint16 // interrupt buffer, KiB
	NIStack    uint16 // number of interrupt stacks
	IStackSize uint16 // interrupt stack size, KiB
	RealBreak  uint32
	CallBufs   uint16 // call buffer size, KiB
	Flags      uint16
	Unpriv     uint16 // 0 runs the program privileged
}

// DefaultParams returns the parameter block written into every image.
func DefaultParams() Params {
	return Params{
		Signature:  ParamsSignature,
		MinIBuf:    0x01,
		MaxIBuf:    0x40,
		NIStack:    0x06,
		IStackSize: 0x01,
	}
}

// A File is a complete P3 image.
type File struct {
	Header
	Params Params
	Image  []byte // flat image, loaded at Header.LoadOffset
}

package exp

import "io"

// Checksum returns the P3 checksum of the concatenated blocks: 0xffff minus
// the sum of all little-endian 16-bit words, modulo 0x10000. A trailing odd
// byte is summed as if followed by a zero byte.
func Checksum(blocks ...[]byte) uint16 {
	var sum uint16
	var odd bool
	var lo byte
	for _, b := range blocks {
		for _, c := range b {
			if odd {
				sum += uint16(lo) | uint16(c)<<8
			} else {
				lo = c
			}
			odd = !odd
		}
	}
	if odd {
		sum += uint16(lo)
	}
	return 0xffff - sum
}

// New creates a P3 image for the given flat image, which is loaded at r.Base
// and entered at entry.
func New(r AddrRange, entry uint32, opts LinkOptions, image []byte) (*File, error) {
	layout, err := ComputeLayout(r, opts, len(image))
	if err != nil {
		return nil, err
	}
	const imageOffset = HeaderSize + ParamsSize
	f := &File{
		Header: Header{
			Signature:     Signature,
			Version:       FlatModel,
			HeaderSize:    HeaderSize,
			FileSize:      uint32(imageOffset + len(image)),
			ParamsOffset:  HeaderSize,
			ParamsSize:    ParamsSize,
			RelocsOffset:  imageOffset,
			RelocsSize:    0,
			ImageOffset:   imageOffset,
			ImageSize:     uint32(len(image)),
			MinAlloc:      layout.MinAlloc,
			MaxAlloc:      layout.MaxAlloc,
			LoadOffset:    r.Base,
			InitialESP:    layout.StackTop,
			InitialEIP:    entry,
			LoadImageSize: uint32(len(image)),
		},
		Params: DefaultParams(),
		Image:  image,
	}
	f.Checksum = Checksum(HeaderRecord.Encode(&f.Header), ParamsRecord.Encode(&f.Params), f.Image)
	return f, nil
}

func (f *File) blocks() [][]byte {
	return [][]byte{
		HeaderRecord.Encode(&f.Header),
		ParamsRecord.Encode(&f.Params),
		f.Image,
	}
}

// Bytes returns the complete image: header, parameters, and flat image.
func (f *File) Bytes() []byte {
	b := make([]byte, 0, HeaderSize+ParamsSize+len(f.Image))
	for _, d := range f.blocks() {
		b = append(b, d...)
	}
	return b
}

// WriteTo writes the image to a writer.
func (f *File) WriteTo(w io.Writer) (int64, error) {
	var amt int64
	for _, d := range f.blocks() {
		n, err := w.Write(d)
		amt += int64(n)
		if err != nil {
			return amt, err
		}
	}
	return amt, nil
}

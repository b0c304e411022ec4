package exp

import (
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// section returns the part of b at the given offset and size.
func section(b []byte, name string, off, size uint32) ([]byte, error) {
	if uint64(off)+uint64(size) > uint64(len(b)) {
		return nil, errors.Wrapf(ErrFormat, "%s at 0x%x+0x%x is out of bounds", name, off, size)
	}
	return b[off : off+size], nil
}

// Parse decodes a P3 image and verifies its checksum. The returned image
// aliases b.
func Parse(b []byte) (*File, error) {
	f := new(File)
	if err := HeaderRecord.Decode(b, &f.Header); err != nil {
		return nil, err
	}
	if f.Signature != Signature {
		return nil, errors.Wrapf(ErrFormat, "unknown signature %q (expected %q)", f.Signature[:], Signature[:])
	}
	if f.HeaderSize != HeaderSize {
		return nil, errors.Wrapf(ErrFormat, "header size is %d, expected %d", f.HeaderSize, HeaderSize)
	}
	if int64(f.FileSize) != int64(len(b)) {
		return nil, errors.Wrapf(ErrFormat, "file size is %d, header says %d", len(b), f.FileSize)
	}
	params, err := section(b, "parameter block", f.ParamsOffset, f.ParamsSize)
	if err != nil {
		return nil, err
	}
	if err := ParamsRecord.Decode(params, &f.Params); err != nil {
		return nil, err
	}
	if f.Params.Signature != ParamsSignature {
		return nil, errors.Wrapf(ErrFormat, "unknown parameter signature %q (expected %q)",
			f.Params.Signature[:], ParamsSignature[:])
	}
	if f.Image, err = section(b, "load image", f.ImageOffset, f.ImageSize); err != nil {
		return nil, err
	}
	// Summing the stored checksum back in gives 0xffff for an intact file.
	if sum := Checksum(b); sum != 0 {
		return nil, errors.Wrapf(ErrChecksum, "stored 0x%04x, off by 0x%04x", f.Checksum, sum)
	}
	return f, nil
}

// Open reads the named file and decodes it as a P3 image.
func Open(fs afero.Fs, name string) (*File, error) {
	b, err := afero.ReadFile(fs, name)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

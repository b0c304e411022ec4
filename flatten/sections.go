package flatten

import (
	"context"
	"debug/elf"
	"slices"

	"github.com/pkg/errors"
)

// Sections flattens an image in-process, without running objcopy. The
// result matches "objcopy -O binary" for images whose sections are loaded at
// their link addresses.
type Sections struct{}

type section struct {
	name string
	addr uint64
	data []byte
}

// Flatten reads the ELF file at path and returns its flat image.
func (Sections) Flatten(ctx context.Context, path string) ([]byte, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return flattenFile(f)
}

// flattenFile concatenates the allocated sections which have file data. Gaps
// between sections are filled with zeroes.
func flattenFile(f *elf.File) ([]byte, error) {
	var sections []section
	for _, s := range f.Sections {
		if s.Flags&elf.SHF_ALLOC == 0 || s.Type == elf.SHT_NOBITS || s.Size == 0 {
			continue
		}
		data, err := s.Data()
		if err != nil {
			return nil, errors.Wrapf(ErrFlattenFailed, "section %q: %v", s.Name, err)
		}
		sections = append(sections, section{s.Name, s.Addr, data})
	}
	if len(sections) == 0 {
		return nil, nil
	}
	slices.SortStableFunc(sections, func(a, b section) int {
		switch {
		case a.addr < b.addr:
			return -1
		case a.addr > b.addr:
			return 1
		}
		return 0
	})
	base := sections[0].addr
	var end uint64
	for _, s := range sections {
		if e := s.addr + uint64(len(s.data)); e > end {
			end = e
		}
	}
	if end-base > 1<<32 {
		return nil, errors.Wrapf(ErrFlattenFailed, "image spans 0x%x bytes", end-base)
	}
	image := make([]byte, end-base)
	for _, s := range sections {
		copy(image[s.addr-base:], s.data)
	}
	return image, nil
}

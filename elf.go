package main

import (
	"debug/elf"
	"math"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"moria.us/elf2exp/exp"
)

// allocSections returns the address ranges of all sections which occupy
// memory at run time.
func allocSections(f *elf.File) ([]addrRange, error) {
	var ranges []addrRange
	for i, s := range f.Sections {
		if s.Flags&elf.SHF_ALLOC == 0 {
			continue
		}
		if s.Addr > math.MaxUint32 || s.Addr+s.Size > math.MaxUint32 {
			return nil, wrapErrorSection(
				errors.Errorf("section at 0x%x+0x%x does not fit in 32 bits", s.Addr, s.Size), i, s)
		}
		ranges = append(ranges, addrRange{
			addr: uint32(s.Addr),
			size: uint32(s.Size),
		})
	}
	return ranges, nil
}

// extractAddrs returns the smallest range containing all of the given
// ranges, or an empty range at address 0 if there are none.
func extractAddrs(ranges []addrRange) exp.AddrRange {
	if len(ranges) == 0 {
		return exp.AddrRange{}
	}
	return exp.AddrRange{
		Base: lo.Min(lo.Map(ranges, func(r addrRange, _ int) uint32 { return r.addr })),
		End:  uint32(lo.Max(lo.Map(ranges, func(r addrRange, _ int) uint64 { return r.end() }))),
	}
}

// relocationCount returns the number of entries in all relocation sections.
func relocationCount(f *elf.File) (uint64, error) {
	var count uint64
	for i, s := range f.Sections {
		var entsize uint64
		switch s.Type {
		case elf.SHT_REL:
			entsize = 8
		case elf.SHT_RELA:
			entsize = 12
		default:
			continue
		}
		if s.Entsize != 0 {
			entsize = s.Entsize
		}
		if s.Size%entsize != 0 {
			return 0, wrapErrorSection(
				errors.Errorf("section size %d is not a multiple of the entry size %d", s.Size, entsize), i, s)
		}
		count += s.Size / entsize
	}
	return count, nil
}

// checkRelocations fails if there are any relocations. The image must
// already be linked at its final addresses.
func checkRelocations(count uint64) error {
	if count != 0 {
		return errors.Wrapf(ErrUnsupportedRelocations, "found %d relocation entries", count)
	}
	return nil
}

// openInput reads an ELF executable and returns its load addresses.
func openInput(name string) (*input, error) {
	f, err := elf.Open(name)
	if err != nil {
		var fe *elf.FormatError
		if errors.As(err, &fe) {
			return nil, err
		}
		return nil, ioFailure(err, "read", name)
	}
	defer f.Close()
	if f.Class != elf.ELFCLASS32 {
		return nil, errors.Errorf("ELF has class %s, expected ELFCLASS32", f.Class)
	}
	if f.Data != elf.ELFDATA2LSB {
		return nil, errors.Errorf("ELF has data %s, expected ELFDATA2LSB", f.Data)
	}
	if f.Type != elf.ET_EXEC {
		return nil, errors.Errorf("ELF has type %s, expected ET_EXEC", f.Type)
	}
	if f.Machine != elf.EM_386 {
		return nil, errors.Errorf("ELF has machine %s, expected EM_386", f.Machine)
	}
	nrel, err := relocationCount(f)
	if err != nil {
		return nil, err
	}
	if err := checkRelocations(nrel); err != nil {
		return nil, err
	}
	alloc, err := allocSections(f)
	if err != nil {
		return nil, err
	}
	return &input{
		addrs: extractAddrs(alloc),
		entry: uint32(f.Entry),
		alloc: alloc,
	}, nil
}

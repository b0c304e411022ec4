package main

import "moria.us/elf2exp/exp"

// An addrRange is a range of addresses in the ELF file.
type addrRange struct {
	addr uint32
	size uint32
}

// end returns the address one past the range.
func (x addrRange) end() uint64 {
	return uint64(x.addr) + uint64(x.size)
}

// An input is everything the converter needs from the ELF file.
type input struct {
	addrs exp.AddrRange // span of the allocated sections
	entry uint32        // initial value of EIP
	alloc []addrRange   // allocated sections, in file order
}

// Package elftest builds small 32-bit ELF files for tests.
package elftest

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

const (
	ehdrSize = 52
	shdrSize = 40
)

// A Section is a section in a generated ELF file.
type Section struct {
	Name    string
	Type    elf.SectionType
	Flags   elf.SectionFlag
	Addr    uint32
	Data    []byte
	Size    uint32 // size of SHT_NOBITS sections; others use len(Data)
	Entsize uint32
}

// A File describes an ELF file to generate. Zero values select an i386
// executable.
type File struct {
	Type     elf.Type
	Machine  elf.Machine
	Entry    uint32
	Sections []Section
}

// Text returns an executable section.
func Text(name string, addr uint32, data []byte) Section {
	return Section{
		Name:  name,
		Type:  elf.SHT_PROGBITS,
		Flags: elf.SHF_ALLOC | elf.SHF_EXECINSTR,
		Addr:  addr,
		Data:  data,
	}
}

// BSS returns a zero-initialized section.
func BSS(name string, addr, size uint32) Section {
	return Section{
		Name:  name,
		Type:  elf.SHT_NOBITS,
		Flags: elf.SHF_ALLOC | elf.SHF_WRITE,
		Addr:  addr,
		Size:  size,
	}
}

// Rel returns a relocation section with n zeroed entries.
func Rel(name string, n int) Section {
	return Section{
		Name:    name,
		Type:    elf.SHT_REL,
		Data:    make([]byte, 8*n),
		Entsize: 8,
	}
}

// Rela returns a relocation section with n zeroed addend entries.
func Rela(name string, n int) Section {
	return Section{
		Name:    name,
		Type:    elf.SHT_RELA,
		Data:    make([]byte, 12*n),
		Entsize: 12,
	}
}

func pad(b *bytes.Buffer) {
	for b.Len()&3 != 0 {
		b.WriteByte(0)
	}
}

// Bytes returns the encoded ELF file.
func (f *File) Bytes() []byte {
	le := binary.LittleEndian
	typ, machine := f.Type, f.Machine
	if typ == elf.ET_NONE {
		typ = elf.ET_EXEC
	}
	if machine == elf.EM_NONE {
		machine = elf.EM_386
	}

	var b bytes.Buffer
	b.Write(make([]byte, ehdrSize))

	shstrtab := []byte{0}
	addName := func(name string) uint32 {
		off := uint32(len(shstrtab))
		shstrtab = append(append(shstrtab, name...), 0)
		return off
	}

	var shdrs bytes.Buffer
	shdrs.Write(make([]byte, shdrSize)) // SHN_UNDEF
	writeShdr := func(name uint32, s Section, off, size uint32) {
		var h [shdrSize]byte
		le.PutUint32(h[0:], name)
		le.PutUint32(h[4:], uint32(s.Type))
		le.PutUint32(h[8:], uint32(s.Flags))
		le.PutUint32(h[12:], s.Addr)
		le.PutUint32(h[16:], off)
		le.PutUint32(h[20:], size)
		le.PutUint32(h[32:], 4)
		le.PutUint32(h[36:], s.Entsize)
		shdrs.Write(h[:])
	}

	for _, s := range f.Sections {
		pad(&b)
		off := uint32(b.Len())
		size := uint32(len(s.Data))
		if s.Type == elf.SHT_NOBITS {
			size = s.Size
		} else {
			b.Write(s.Data)
		}
		writeShdr(addName(s.Name), s, off, size)
	}

	name := addName(".shstrtab")
	pad(&b)
	off := uint32(b.Len())
	b.Write(shstrtab)
	writeShdr(name, Section{Type: elf.SHT_STRTAB}, off, uint32(len(shstrtab)))

	pad(&b)
	shoff := uint32(b.Len())
	b.Write(shdrs.Bytes())
	shnum := uint16(len(f.Sections) + 2)

	d := b.Bytes()
	copy(d, []byte{0x7f, 'E', 'L', 'F', byte(elf.ELFCLASS32), byte(elf.ELFDATA2LSB), byte(elf.EV_CURRENT)})
	le.PutUint16(d[16:], uint16(typ))
	le.PutUint16(d[18:], uint16(machine))
	le.PutUint32(d[20:], uint32(elf.EV_CURRENT))
	le.PutUint32(d[24:], f.Entry)
	le.PutUint32(d[32:], shoff)
	le.PutUint16(d[40:], ehdrSize)
	le.PutUint16(d[46:], shdrSize)
	le.PutUint16(d[48:], shnum)
	le.PutUint16(d[50:], shnum-1)
	return d
}

// Write writes the ELF file into a temporary directory and returns its path.
func (f *File) Write(t testing.TB, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, f.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

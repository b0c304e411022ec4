package exp

import (
	"encoding/binary"
	"slices"

	"github.com/pkg/errors"
)

// A Field is a value stored at a fixed offset in a record. Ref returns a
// pointer to the value inside a T: *uint16, *uint32, or *[2]byte.
type Field[T any] struct {
	Name   string
	Offset int
	Ref    func(*T) any
}

// A Record describes the binary layout of a fixed-size structure. Bytes not
// covered by any field are zero.
type Record[T any] struct {
	Name   string
	Size   int
	Fields []Field[T]
}

func width(p any) int {
	switch p.(type) {
	case *uint16, *[2]byte:
		return 2
	case *uint32:
		return 4
	}
	return 0
}

// Validate checks that every field has a supported type and lies within the
// record, and that no two fields overlap.
func (r *Record[T]) Validate() error {
	type span struct {
		name     string
		off, end int
	}
	var v T
	spans := make([]span, 0, len(r.Fields))
	for _, f := range r.Fields {
		w := width(f.Ref(&v))
		if w == 0 {
			return errors.Errorf("%s.%s: unsupported field type %T", r.Name, f.Name, f.Ref(&v))
		}
		if f.Offset < 0 || f.Offset+w > r.Size {
			return errors.Errorf("%s.%s: field at 0x%02x+%d is outside the record (size 0x%x)",
				r.Name, f.Name, f.Offset, w, r.Size)
		}
		spans = append(spans, span{f.Name, f.Offset, f.Offset + w})
	}
	slices.SortFunc(spans, func(a, b span) int { return a.off - b.off })
	for i := 1; i < len(spans); i++ {
		if prev, cur := spans[i-1], spans[i]; cur.off < prev.end {
			return errors.Errorf("%s: field %s at 0x%02x overlaps %s at 0x%02x",
				r.Name, cur.name, cur.off, prev.name, prev.off)
		}
	}
	return nil
}

func mustRecord[T any](r Record[T]) *Record[T] {
	if err := r.Validate(); err != nil {
		panic(err)
	}
	return &r
}

// Encode returns the binary form of v.
func (r *Record[T]) Encode(v *T) []byte {
	b := make([]byte, r.Size)
	le := binary.LittleEndian
	for _, f := range r.Fields {
		switch p := f.Ref(v).(type) {
		case *uint16:
			le.PutUint16(b[f.Offset:], *p)
		case *uint32:
			le.PutUint32(b[f.Offset:], *p)
		case *[2]byte:
			copy(b[f.Offset:], p[:])
		}
	}
	return b
}

// Decode reads the fields of v from b.
func (r *Record[T]) Decode(b []byte, v *T) error {
	if len(b) < r.Size {
		return errors.Wrapf(ErrFormat, "%s is truncated: got %d bytes, expected %d", r.Name, len(b), r.Size)
	}
	le := binary.LittleEndian
	for _, f := range r.Fields {
		switch p := f.Ref(v).(type) {
		case *uint16:
			*p = le.Uint16(b[f.Offset:])
		case *uint32:
			*p = le.Uint32(b[f.Offset:])
		case *[2]byte:
			copy(p[:], b[f.Offset:])
		}
	}
	return nil
}

// HeaderRecord is the layout of the P3 header.
var HeaderRecord = mustRecord(Record[Header]{
	Name: "header",
	Size: HeaderSize,
	Fields: []Field[Header]{
		{"Signature", 0x00, func(h *Header) any { return &h.Signature }},
		{"Version", 0x02, func(h *Header) any { return &h.Version }},
		{"Header Size", 0x04, func(h *Header) any { return &h.HeaderSize }},
		{"File Size", 0x06, func(h *Header) any { return &h.FileSize }},
		{"Checksum", 0x0a, func(h *Header) any { return &h.Checksum }},
		{"Params Offset", 0x0c, func(h *Header) any { return &h.ParamsOffset }},
		{"Params Size", 0x10, func(h *Header) any { return &h.ParamsSize }},
		{"Relocs Offset", 0x14, func(h *Header) any { return &h.RelocsOffset }},
		{"Relocs Size", 0x18, func(h *Header) any { return &h.RelocsSize }},
		{"Image Offset", 0x26, func(h *Header) any { return &h.ImageOffset }},
		{"Image Size", 0x2a, func(h *Header) any { return &h.ImageSize }},
		{"Min Alloc", 0x56, func(h *Header) any { return &h.MinAlloc }},
		{"Max Alloc", 0x5a, func(h *Header) any { return &h.MaxAlloc }},
		{"Load Offset", 0x5e, func(h *Header) any { return &h.LoadOffset }},
		{"Initial ESP", 0x62, func(h *Header) any { return &h.InitialESP }},
		{"Initial EIP", 0x68, func(h *Header) any { return &h.InitialEIP }},
		{"Load Image Size", 0x74, func(h *Header) any { return &h.LoadImageSize }},
	},
})

// ParamsRecord is the layout of the DX parameter block.
var ParamsRecord = mustRecord(Record[Params]{
	Name: "params",
	Size: ParamsSize,
	Fields: []Field[Params]{
		{"Signature", 0x00, func(p *Params) any { return &p.Signature }},
		{"Min Real", 0x02, func(p *Params) any { return &p.MinReal }},
		{"Max Real", 0x04, func(p *Params) any { return &p.MaxReal }},
		{"Min IBuf", 0x06, func(p *Params) any { return &p.MinIBuf }},
		{"Max IBuf", 0x08, func(p *Params) any { return &p.MaxIBuf }},
		{"Num IStack", 0x0a, func(p *Params) any { return &p.NIStack }},
		{"IStack Size", 0x0c, func(p *Params) any { return &p.IStackSize }},
		{"Real Break", 0x0e, func(p *Params) any { return &p.RealBreak }},
		{"Call Bufs", 0x12, func(p *Params) any { return &p.CallBufs }},
		{"Flags", 0x14, func(p *Params) any { return &p.Flags }},
		{"Unprivileged", 0x16, func(p *Params) any { return &p.Unpriv }},
	},
})

// checksumOffset is the offset of the checksum in the header.
const checksumOffset = 0x0a

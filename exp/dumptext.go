package exp

import (
	"bufio"

	"github.com/dustin/go-humanize"
)

const indentLevel = "  "

const hexDigits = "0123456789abcdef"

func writeHexStr(w *bufio.Writer, b []byte) {
	d := make([]byte, 4*len(b)+3)
	j := 3*len(b) + 2
	for i, c := range b {
		d[i*3+0] = hexDigits[c>>4]
		d[i*3+1] = hexDigits[c&15]
		d[i*3+2] = ' '
		if 0x20 <= c && c <= 0x7e {
			d[j+i] = c
		} else {
			d[j+i] = '.'
		}
	}
	d[j-2] = ' '
	d[j-1] = '"'
	d[4*len(b)+2] = '"'
	w.Write(d)
}

func writeInt(w *bufio.Writer, v uint32, sz uint) {
	w.WriteString("0x")
	for i := sz * 2; i > 0; i-- {
		w.WriteByte(hexDigits[(v>>((i-1)*4))&15])
	}
}

type field struct {
	name string
	data any
	hint string
}

func dumpFields(w *bufio.Writer, prefix string, fields []field) {
	if len(fields) == 0 {
		return
	}
	var maxName int
	for _, f := range fields {
		if len(f.name) > maxName {
			maxName = len(f.name)
		}
	}
	spaces := make([]byte, maxName+2)
	for i := range spaces {
		spaces[i] = ' '
	}
	for _, f := range fields {
		w.WriteString(prefix)
		w.WriteString(f.name)
		w.WriteByte(':')
		w.Write(spaces[:maxName+2-len(f.name)])
		switch v := f.data.(type) {
		case *[2]byte:
			writeHexStr(w, v[:])
		case *uint16:
			writeInt(w, uint32(*v), 2)
		case *uint32:
			writeInt(w, *v, 4)
		default:
			panic("unknown field type for " + f.name)
		}
		if f.hint != "" {
			w.WriteString("  ")
			w.WriteString(f.hint)
		}
		w.WriteByte('\n')
	}
}

func recordFields[T any](r *Record[T], v *T, hint func(name string, data any) string) []field {
	fields := make([]field, len(r.Fields))
	for i, f := range r.Fields {
		data := f.Ref(v)
		fields[i] = field{f.Name, data, hint(f.Name, data)}
	}
	return fields
}

func (h *Header) hint(name string, data any) string {
	switch name {
	case "Version":
		if h.Version == FlatModel {
			return "flat model"
		}
		return "unknown"
	case "File Size", "Image Size", "Load Image Size", "Min Alloc":
		if v, ok := data.(*uint32); ok {
			return humanize.IBytes(uint64(*v))
		}
	case "Max Alloc":
		if h.MaxAlloc == Unbounded {
			return "unbounded"
		}
	}
	return ""
}

func (p *Params) hint(name string, _ any) string {
	switch name {
	case "Min IBuf", "Max IBuf", "IStack Size", "Call Bufs":
		return "KiB"
	case "Min Real", "Max Real":
		return "paragraphs"
	case "Unprivileged":
		if p.Unpriv == 0 {
			return "privileged"
		}
	}
	return ""
}

// DumpText writes the header, in text format, to the writer.
func (h *Header) DumpText(w *bufio.Writer, prefix string) {
	dumpFields(w, prefix, recordFields(HeaderRecord, h, h.hint))
}

// DumpText writes the parameter block, in text format, to the writer.
func (p *Params) DumpText(w *bufio.Writer, prefix string) {
	dumpFields(w, prefix, recordFields(ParamsRecord, p, p.hint))
}

// DumpText writes the image headers, in text format, to the writer.
func (f *File) DumpText(w *bufio.Writer, prefix string) {
	nprefix := prefix + indentLevel
	w.WriteString(prefix)
	w.WriteString("Header:\n")
	f.Header.DumpText(w, nprefix)
	w.WriteByte('\n')
	w.WriteString(prefix)
	w.WriteString("Parameters:\n")
	f.Params.DumpText(w, nprefix)
	w.WriteByte('\n')
	w.WriteString(prefix)
	w.WriteString("Image: ")
	w.WriteString(humanize.IBytes(uint64(len(f.Image))))
	w.WriteString(" at ")
	writeInt(w, f.LoadOffset, 4)
	w.WriteByte('\n')
}

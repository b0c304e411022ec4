package main

import (
	"bufio"
	"io"

	"github.com/spf13/afero"

	"moria.us/elf2exp/exp"
)

// dump prints the headers of each P3 image to w.
func dump(fs afero.Fs, w io.Writer, files []string) error {
	bw := bufio.NewWriter(w)
	for i, name := range files {
		f, err := exp.Open(fs, name)
		if err != nil {
			return wrapError(err, name)
		}
		if i > 0 {
			bw.WriteByte('\n')
		}
		if len(files) > 1 {
			bw.WriteString(name)
			bw.WriteString(":\n")
			f.DumpText(bw, "  ")
		} else {
			f.DumpText(bw, "")
		}
	}
	return bw.Flush()
}

package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"moria.us/elf2exp/exp"
	"moria.us/elf2exp/flatten"
)

// A converter turns ELF executables into P3 images.
type converter struct {
	opts      exp.LinkOptions
	flattener flatten.Flattener
	fs        afero.Fs // output filesystem
	logger    log.Logger
}

// build reads the ELF executable and returns its P3 image.
func (c *converter) build(ctx context.Context, name string) (*exp.File, error) {
	in, err := openInput(name)
	if err != nil {
		return nil, wrapError(err, name)
	}
	level.Debug(c.logger).Log("msg", "read input", "input", name,
		"sections", len(in.alloc),
		"base", hex32(in.addrs.Base), "end", hex32(in.addrs.End), "entry", hex32(in.entry))

	image, err := c.flattener.Flatten(ctx, name)
	if err != nil {
		if !errors.Is(err, flatten.ErrFlattenFailed) {
			err = errors.Wrap(flatten.ErrFlattenFailed, err.Error())
		}
		return nil, wrapError(err, name)
	}

	f, err := exp.New(in.addrs, in.entry, c.opts, image)
	if err != nil {
		return nil, wrapError(err, name)
	}
	level.Debug(c.logger).Log("msg", "computed layout",
		"esp", hex32(f.InitialESP), "min_alloc", hex32(f.MinAlloc), "checksum", hex16(f.Checksum))
	return f, nil
}

// convert converts the input ELF file and writes the output image. The
// output is not created unless conversion succeeds.
func (c *converter) convert(ctx context.Context, input, output string) error {
	f, err := c.build(ctx, input)
	if err != nil {
		return err
	}
	data := f.Bytes()
	if err := writeFileAtomic(c.fs, output, data); err != nil {
		return err
	}
	level.Info(c.logger).Log("msg", "wrote image", "output", output, "size", humanize.IBytes(uint64(len(data))))
	return nil
}

func hex32(v uint32) string { return fmt.Sprintf("0x%08x", v) }

func hex16(v uint16) string { return fmt.Sprintf("0x%04x", v) }

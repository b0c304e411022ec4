package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"testing"

	"github.com/go-kit/log"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moria.us/elf2exp/exp"
	"moria.us/elf2exp/flatten"
	"moria.us/elf2exp/internal/elftest"
)

func newTestConverter(f flatten.Flattener) (*converter, afero.Fs) {
	fs := afero.NewMemMapFs()
	if err := fs.MkdirAll("/out", 0o755); err != nil {
		panic(err)
	}
	return &converter{
		opts:      exp.LinkOptions{StackSize: exp.DefaultStackSize},
		flattener: f,
		fs:        fs,
		logger:    log.NewNopLogger(),
	}, fs
}

func scenarioELF(t *testing.T) string {
	code := bytes.Repeat([]byte{0x90, 0xc3}, 0x100)
	return (&elftest.File{
		Entry:    0x1000,
		Sections: []elftest.Section{elftest.Text(".text", 0x1000, code)},
	}).Write(t, "prog.elf")
}

// assertNoOutput checks that nothing, not even a temporary file, was written.
func assertNoOutput(t *testing.T, fs afero.Fs) {
	t.Helper()
	entries, err := afero.ReadDir(fs, "/out")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestConvert(t *testing.T) {
	c, fs := newTestConverter(flatten.Sections{})
	input := scenarioELF(t)
	require.NoError(t, c.convert(context.Background(), input, "/out/prog.exp"))

	b, err := afero.ReadFile(fs, "/out/prog.exp")
	require.NoError(t, err)
	le := binary.LittleEndian
	assert.Equal(t, uint32(len(b)), le.Uint32(b[0x06:]))
	assert.Equal(t, uint32(0x1000), le.Uint32(b[0x68:]))
	assert.Equal(t, uint32(0x1000), le.Uint32(b[0x5e:]))
	assert.Equal(t, uint32(0x200), le.Uint32(b[0x74:]))
	assert.Equal(t, uint32(0x2200), le.Uint32(b[0x62:]))

	f, err := exp.Open(fs, "/out/prog.exp")
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte{0x90, 0xc3}, 0x100), f.Image)

	entries, err := afero.ReadDir(fs, "/out")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "prog.exp", entries[0].Name())
}

func TestConvertOverwrites(t *testing.T) {
	c, fs := newTestConverter(flatten.Sections{})
	require.NoError(t, afero.WriteFile(fs, "/out/prog.exp", []byte("old"), 0o644))
	require.NoError(t, c.convert(context.Background(), scenarioELF(t), "/out/prog.exp"))
	_, err := exp.Open(fs, "/out/prog.exp")
	require.NoError(t, err)
}

func TestConvertRelocations(t *testing.T) {
	var called bool
	c, fs := newTestConverter(flatten.Func(func(context.Context, string) ([]byte, error) {
		called = true
		return nil, nil
	}))
	input := (&elftest.File{
		Entry: 0x1000,
		Sections: []elftest.Section{
			elftest.Text(".text", 0x1000, make([]byte, 0x10)),
			elftest.Rel(".rel.text", 1),
		},
	}).Write(t, "prog.elf")

	err := c.convert(context.Background(), input, "/out/prog.exp")
	require.ErrorIs(t, err, ErrUnsupportedRelocations)
	assert.False(t, called, "flattener must not run")
	assertNoOutput(t, fs)
}

func TestConvertFlattenFailed(t *testing.T) {
	for _, tc := range []struct {
		name string
		err  error
	}{
		{"flatten error", errors.Wrap(flatten.ErrFlattenFailed, "objcopy: exit status 1")},
		{"other error", errors.New("read failed")},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c, fs := newTestConverter(flatten.Func(func(context.Context, string) ([]byte, error) {
				return nil, tc.err
			}))
			err := c.convert(context.Background(), scenarioELF(t), "/out/prog.exp")
			require.ErrorIs(t, err, flatten.ErrFlattenFailed)
			assertNoOutput(t, fs)
		})
	}
}

func TestConvertStackOverflow(t *testing.T) {
	c, fs := newTestConverter(flatten.Sections{})
	c.opts.StackSize = 0xffffff00
	err := c.convert(context.Background(), scenarioELF(t), "/out/prog.exp")
	require.ErrorIs(t, err, exp.ErrStackSizeOverflow)
	assertNoOutput(t, fs)
}

func TestConvertWriteFailure(t *testing.T) {
	c, _ := newTestConverter(flatten.Sections{})
	c.fs = afero.NewReadOnlyFs(c.fs)
	err := c.convert(context.Background(), scenarioELF(t), "/out/prog.exp")
	require.ErrorIs(t, err, ErrIOFailure)
}

func TestConvertTruncatedImage(t *testing.T) {
	// objcopy drops trailing zero-filled sections.
	c, fs := newTestConverter(flatten.Func(func(context.Context, string) ([]byte, error) {
		return []byte{0x90, 0xc3}, nil
	}))
	require.NoError(t, c.convert(context.Background(), scenarioELF(t), "/out/prog.exp"))
	f, err := exp.Open(fs, "/out/prog.exp")
	require.NoError(t, err)
	assert.Equal(t, uint32(2), f.LoadImageSize)
	assert.Equal(t, uint32(0x2200-0x1000-2), f.MinAlloc)
}

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moria.us/elf2exp/exp"
	"moria.us/elf2exp/internal/elftest"
)

func TestMainConvert(t *testing.T) {
	input := scenarioELF(t)
	output := filepath.Join(t.TempDir(), "prog.exp")
	require.NoError(t, mainE(context.Background(),
		[]string{"convert", "--builtin-flatten", "--stack", "8192", input, output}))

	f, err := exp.Open(afero.NewOsFs(), output)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x3200), f.InitialESP)
	assert.Equal(t, uint32(0x1000), f.InitialEIP)
}

func TestMainRelocations(t *testing.T) {
	input := (&elftest.File{
		Entry: 0x1000,
		Sections: []elftest.Section{
			elftest.Text(".text", 0x1000, make([]byte, 0x10)),
			elftest.Rel(".rel.text", 4),
		},
	}).Write(t, "prog.elf")
	output := filepath.Join(t.TempDir(), "prog.exp")

	// convert is the default command.
	err := mainE(context.Background(), []string{input, output})
	require.ErrorIs(t, err, ErrUnsupportedRelocations)
	_, err = os.Stat(output)
	assert.True(t, os.IsNotExist(err))
}

func TestMainBadStack(t *testing.T) {
	err := mainE(context.Background(), []string{"convert", "--stack=-1", scenarioELF(t), "out.exp"})
	require.Error(t, err)
}

func TestDump(t *testing.T) {
	fs := afero.NewMemMapFs()
	f, err := exp.New(exp.AddrRange{Base: 0x1000, End: 0x1200}, 0x1000, exp.LinkOptions{StackSize: 4096}, make([]byte, 0x200))
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fs, "/a.exp", f.Bytes(), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/b.exp", f.Bytes(), 0o644))

	var buf bytes.Buffer
	require.NoError(t, dump(fs, &buf, []string{"/a.exp"}))
	assert.Contains(t, buf.String(), "Header:\n  Signature:")
	assert.Contains(t, buf.String(), "Initial EIP:      0x00001000\n")

	buf.Reset()
	require.NoError(t, dump(fs, &buf, []string{"/a.exp", "/b.exp"}))
	assert.Contains(t, buf.String(), "/a.exp:\n  Header:\n")
	assert.Contains(t, buf.String(), "\n/b.exp:\n  Header:\n")

	require.NoError(t, afero.WriteFile(fs, "/bad.exp", []byte("MZ"), 0o644))
	err = dump(fs, &buf, []string{"/bad.exp"})
	require.ErrorIs(t, err, exp.ErrFormat)
	assert.Contains(t, err.Error(), "/bad.exp: ")
}

package main

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/dir", 0o755))
	require.NoError(t, writeFileAtomic(fs, "/dir/a.exp", []byte("hello")))

	b, err := afero.ReadFile(fs, "/dir/a.exp")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), b)

	st, err := fs.Stat("/dir/a.exp")
	require.NoError(t, err)
	assert.Equal(t, "-rw-r--r--", st.Mode().Perm().String())

	entries, err := afero.ReadDir(fs, "/dir")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteFileAtomicReadOnly(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())
	err := writeFileAtomic(fs, "/a.exp", []byte("hello"))
	require.ErrorIs(t, err, ErrIOFailure)
	assert.Contains(t, err.Error(), "could not create /a.exp")

	exists, err := afero.Exists(fs, "/a.exp")
	require.NoError(t, err)
	assert.False(t, exists)
}

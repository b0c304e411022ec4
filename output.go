package main

import (
	"path/filepath"

	"github.com/spf13/afero"
)

// writeFileAtomic writes data to the named file. The data is written to a
// temporary file in the same directory and renamed into place, so the file
// is either absent or complete.
func writeFileAtomic(fs afero.Fs, name string, data []byte) (err error) {
	dir, base := filepath.Split(name)
	if dir == "" {
		dir = "."
	}
	tmp, err := afero.TempFile(fs, dir, "."+base+".tmp*")
	if err != nil {
		return ioFailure(err, "create", name)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close() // Double-close is OK
			fs.Remove(tmpName)
		}
	}()
	if _, err := tmp.Write(data); err != nil {
		return ioFailure(err, "write", name)
	}
	if err := tmp.Sync(); err != nil {
		return ioFailure(err, "write", name)
	}
	if err := tmp.Close(); err != nil {
		return ioFailure(err, "write", name)
	}
	if err := fs.Chmod(tmpName, 0o644); err != nil {
		return ioFailure(err, "write", name)
	}
	if err := fs.Rename(tmpName, name); err != nil {
		return ioFailure(err, "write", name)
	}
	return nil
}

package flatten

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// DefaultObjcopy is the objcopy command for the run386 toolchain.
const DefaultObjcopy = "i386-pc-run386-objcopy"

// Objcopy flattens an image by running "objcopy -O binary".
type Objcopy struct {
	Path   string     // command to run, DefaultObjcopy if empty
	Logger log.Logger // may be nil
}

func (o *Objcopy) logger() log.Logger {
	if o.Logger == nil {
		return log.NewNopLogger()
	}
	return o.Logger
}

// Flatten runs objcopy on the file at path and returns its output.
func (o *Objcopy) Flatten(ctx context.Context, path string) ([]byte, error) {
	cmd := o.Path
	if cmd == "" {
		cmd = DefaultObjcopy
	}
	fs := afero.NewOsFs()
	dir, err := afero.TempDir(fs, "", "elf2exp")
	if err != nil {
		return nil, err
	}
	defer fs.RemoveAll(dir)
	out := filepath.Join(dir, "image.bin")

	args := []string{"-O", "binary", "--", path, out}
	level.Debug(o.logger()).Log("msg", "running objcopy", "cmd", cmd, "args", strings.Join(args, " "))
	c := exec.CommandContext(ctx, cmd, args...)
	var stderr bytes.Buffer
	c.Stderr = &stderr
	if err := c.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, errors.Wrapf(ErrFlattenFailed, "%s: %v", cmd, err)
		}
		return nil, errors.Wrapf(ErrFlattenFailed, "%s: %v: %s", cmd, err, msg)
	}

	image, err := afero.ReadFile(fs, out)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrFlattenFailed, "%s produced no output", cmd)
		}
		return nil, err
	}
	level.Debug(o.logger()).Log("msg", "objcopy finished", "size", humanize.IBytes(uint64(len(image))))
	return image, nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"github.com/prometheus/common/version"
	"github.com/spf13/afero"
	"gopkg.in/alecthomas/kingpin.v2"

	"moria.us/elf2exp/exp"
	"moria.us/elf2exp/flatten"
)

var logger = log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))

func newFlattener(logger log.Logger) flatten.Flattener {
	if cfg.convert.builtinFlatten {
		return flatten.Sections{}
	}
	return &flatten.Objcopy{Path: cfg.convert.objcopy, Logger: logger}
}

func mainE(ctx context.Context, args []string) error {
	app := kingpin.New(filepath.Base(os.Args[0]), "Convert linked i386 ELF executables to Phar Lap P3 (.EXP) flat images.")
	app.Version(version.Print("elf2exp"))
	app.HelpFlag.Short('h')
	app.Flag("verbose", "Enable verbose logging.").Short('v').Default("false").BoolVar(&cfg.verbose)

	convertCmd := app.Command("convert", "Convert an ELF executable to an .EXP image.").Default()
	convertCmd.Arg("input", "Input ELF file.").Required().ExistingFileVar(&cfg.convert.input)
	convertCmd.Arg("output", "Output .EXP file.").Required().StringVar(&cfg.convert.output)
	convertCmd.Flag("stack", "Size of stack (in bytes). Overrides $"+envStack+".").Short('s').
		Default(defaultStack()).Uint32Var(&cfg.convert.stack)
	convertCmd.Flag("objcopy", "objcopy command to use. Overrides $"+envObjcopy+".").
		Default(defaultObjcopy()).StringVar(&cfg.convert.objcopy)
	convertCmd.Flag("builtin-flatten", "Extract sections in-process instead of running objcopy.").
		Default("false").BoolVar(&cfg.convert.builtinFlatten)

	dumpCmd := app.Command("dump", "Print the headers of .EXP images.")
	dumpFiles := dumpCmd.Arg("file", "Input .EXP file.").Required().ExistingFiles()

	parsedCmd, err := app.Parse(args)
	if err != nil {
		return err
	}

	logger := logger
	if cfg.verbose {
		logger = level.NewFilter(logger, level.AllowDebug())
	} else {
		logger = level.NewFilter(logger, level.AllowInfo())
	}

	switch parsedCmd {
	case convertCmd.FullCommand():
		c := &converter{
			opts:      exp.LinkOptions{StackSize: cfg.convert.stack},
			flattener: newFlattener(logger),
			fs:        afero.NewOsFs(),
			logger:    logger,
		}
		return c.convert(ctx, cfg.convert.input, cfg.convert.output)
	case dumpCmd.FullCommand():
		return dump(afero.NewOsFs(), os.Stdout, *dumpFiles)
	}
	return errors.Errorf("unknown command %q", parsedCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := mainE(ctx, os.Args[1:])
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

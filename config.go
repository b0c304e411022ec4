package main

import (
	"strconv"

	"github.com/xyproto/env/v2"

	"moria.us/elf2exp/exp"
	"moria.us/elf2exp/flatten"
)

// Environment variables overriding the flag defaults.
const (
	envObjcopy = "ELF2EXP_OBJCOPY"
	envStack   = "ELF2EXP_STACK"
)

var cfg struct {
	verbose bool
	convert struct {
		input          string
		output         string
		stack          uint32
		objcopy        string
		builtinFlatten bool
	}
}

func defaultObjcopy() string {
	return env.Str(envObjcopy, flatten.DefaultObjcopy)
}

func defaultStack() string {
	return strconv.Itoa(env.Int(envStack, exp.DefaultStackSize))
}

package main

import (
	"debug/elf"
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrUnsupportedRelocations is returned for inputs which still contain
	// relocation entries. The extender cannot apply fixups.
	ErrUnsupportedRelocations = errors.New("input contains relocations, which are unsupported")

	// ErrIOFailure is returned when the input cannot be read or the output
	// cannot be written.
	ErrIOFailure = errors.New("i/o failure")
)

// A wrappedError is an error wrapped with a location for context.
type wrappedError struct {
	location string
	inner    error
}

func (e *wrappedError) Error() string {
	return fmt.Sprintf("%s: %v", e.location, e.inner)
}

func (e *wrappedError) Unwrap() error {
	return e.inner
}

// wrapError returns an error wrapped with a location for context.
func wrapError(e error, loc string) error {
	if we, ok := e.(*wrappedError); ok {
		return &wrappedError{
			location: loc + ": " + we.location,
			inner:    we.inner,
		}
	}
	return &wrappedError{
		location: loc,
		inner:    e,
	}
}

// wrapErrorf returns an error wrapped with a location for context.
func wrapErrorf(e error, f string, a ...interface{}) error {
	return wrapError(e, fmt.Sprintf(f, a...))
}

func wrapErrorSection(e error, i int, s *elf.Section) error {
	return wrapErrorf(e, "section %d %q", i, s.Name)
}

// An ioError is an I/O failure on a named file.
type ioError struct {
	op   string
	path string
	err  error
}

func (e *ioError) Error() string {
	return fmt.Sprintf("could not %s %s: %v", e.op, e.path, e.err)
}

func (e *ioError) Unwrap() []error {
	return []error{ErrIOFailure, e.err}
}

func ioFailure(err error, op, path string) error {
	return &ioError{op: op, path: path, err: err}
}

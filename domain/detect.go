package domain

import (
	"bytes"
	"context"
	"os"

	"github.com/wippyai/script-bridge/errors"
)

// Format identifies the kind of a domain image.
type Format string

const (
	FormatWasm     Format = "wasm"
	FormatAssembly Format = "assembly"
	FormatLua      Format = "lua"
)

var (
	wasmMagic      = []byte{0x00, 'a', 's', 'm'}
	assemblyPrefix = []byte("assembly:")
)

// DetectFormat classifies image by its leading bytes. Anything that is
// neither a wasm module nor an assembly manifest is treated as Lua, either
// source or a precompiled chunk.
func DetectFormat(image []byte) Format {
	switch {
	case bytes.HasPrefix(image, wasmMagic):
		return FormatWasm
	case bytes.HasPrefix(image, assemblyPrefix):
		return FormatAssembly
	}
	return FormatLua
}

// Detector is a Loader that routes each image to the loader registered
// for its format.
type Detector struct {
	loaders map[Format]Loader
	bound   map[Format]bool
}

// NewDetector creates a detector over the given loaders.
func NewDetector(loaders map[Format]Loader) *Detector {
	return &Detector{
		loaders: loaders,
		bound:   make(map[Format]bool),
	}
}

// BindSupport binds an explicit support library to the loader matching its
// format. With an empty path each loader binds its built-in library on
// first use.
func (d *Detector) BindSupport(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Load("read support library "+path, err)
	}
	f := DetectFormat(data)
	l, ok := d.loaders[f]
	if !ok {
		return errors.Unsupported(errors.PhaseLoad, "no loader for support library format "+string(f))
	}
	if err := l.BindSupport(ctx, path); err != nil {
		return err
	}
	d.bound[f] = true
	return nil
}

// Load detects the image format and delegates to its loader.
func (d *Detector) Load(ctx context.Context, image []byte) (Domain, error) {
	f := DetectFormat(image)
	l, ok := d.loaders[f]
	if !ok {
		return nil, errors.Unsupported(errors.PhaseLoad, "no loader for image format "+string(f))
	}
	if !d.bound[f] {
		if err := l.BindSupport(ctx, ""); err != nil {
			return nil, err
		}
		d.bound[f] = true
	}
	return l.Load(ctx, image)
}

// Close closes every loader and returns the first error.
func (d *Detector) Close(ctx context.Context) error {
	var first error
	for _, l := range d.loaders {
		if err := l.Close(ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}

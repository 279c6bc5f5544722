package wasmbin

import (
	"bytes"
	"fmt"
)

// Magic starts every core wasm module, followed by the version.
var Magic = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

// Import kinds.
const (
	KindFunc   byte = 0x00
	KindTable  byte = 0x01
	KindMemory byte = 0x02
	KindGlobal byte = 0x03
)

// Import is one entry of the import section.
type Import struct {
	Module string
	Name   string
	Kind   byte
}

// Imports lists the import section of a core module.
func Imports(image []byte) ([]Import, error) {
	if len(image) < 8 || !bytes.Equal(image[:8], Magic) {
		return nil, fmt.Errorf("not a core wasm module")
	}
	r := &reader{buf: image, pos: 8}
	for r.pos < len(r.buf) {
		id := r.byte()
		size := r.uleb()
		end := r.pos + int(size)
		if r.err != nil || end > len(r.buf) {
			return nil, fmt.Errorf("truncated section at offset %d", r.pos)
		}
		if id != 0x02 {
			r.pos = end
			continue
		}
		count := r.uleb()
		out := make([]Import, 0, count)
		for i := uint32(0); i < count && r.err == nil; i++ {
			imp := Import{Module: r.name(), Name: r.name(), Kind: r.byte()}
			r.skipImportDesc(imp.Kind)
			out = append(out, imp)
		}
		if r.err != nil {
			return nil, r.err
		}
		return out, nil
	}
	return nil, nil
}

type reader struct {
	buf []byte
	pos int
	err error
}

func (r *reader) fail() {
	if r.err == nil {
		r.err = fmt.Errorf("unexpected end of module at offset %d", r.pos)
	}
	r.pos = len(r.buf)
}

func (r *reader) byte() byte {
	if r.pos >= len(r.buf) {
		r.fail()
		return 0
	}
	b := r.buf[r.pos]
	r.pos++
	return b
}

func (r *reader) uleb() uint32 {
	if r.pos >= len(r.buf) {
		r.fail()
		return 0
	}
	v, n := DecodeULEB128(r.buf[r.pos:])
	r.pos += n
	return v
}

func (r *reader) name() string {
	n := int(r.uleb())
	if r.pos+n > len(r.buf) {
		r.fail()
		return ""
	}
	s := string(r.buf[r.pos : r.pos+n])
	r.pos += n
	return s
}

func (r *reader) limits() {
	if r.byte()&0x01 != 0 {
		r.uleb()
		r.uleb()
		return
	}
	r.uleb()
}

func (r *reader) skipImportDesc(kind byte) {
	switch kind {
	case KindFunc:
		r.uleb()
	case KindTable:
		r.byte()
		r.limits()
	case KindMemory:
		r.limits()
	case KindGlobal:
		r.byte()
		r.byte()
	default:
		r.err = fmt.Errorf("unknown import kind 0x%02x", kind)
	}
}

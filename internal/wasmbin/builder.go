package wasmbin

import (
	"github.com/tetratelabs/wazero/api"
)

// ModuleBuilder assembles a core wasm module from imported host
// functions, one memory, mutable i32 globals, data segments and function
// bodies. Function indices count imports first.
type ModuleBuilder struct {
	imports []importFunc
	funcs   []funcDef
	globals []int32
	data    []segment
	exports []export
	memory  *memoryDef
}

type signature struct {
	params  []api.ValueType
	results []api.ValueType
}

type importFunc struct {
	module string
	name   string
	sig    signature
}

type funcDef struct {
	sig    signature
	locals []api.ValueType
	body   []byte
}

type segment struct {
	offset uint32
	bytes  []byte
}

type export struct {
	name  string
	kind  byte
	index uint32
}

type memoryDef struct {
	pages uint32
}

// NewModuleBuilder creates an empty builder.
func NewModuleBuilder() *ModuleBuilder {
	return &ModuleBuilder{}
}

// Import declares a function import and returns its index. All imports
// must be declared before the first Func.
func (b *ModuleBuilder) Import(module, name string, params, results []api.ValueType) uint32 {
	b.imports = append(b.imports, importFunc{module: module, name: name, sig: signature{params, results}})
	return uint32(len(b.imports) - 1)
}

// Memory declares the module memory and exports it under name when name
// is not empty.
func (b *ModuleBuilder) Memory(pages uint32, name string) {
	b.memory = &memoryDef{pages: pages}
	if name != "" {
		b.exports = append(b.exports, export{name: name, kind: KindMemory})
	}
}

// Global declares a mutable i32 global and returns its index.
func (b *ModuleBuilder) Global(init int32) uint32 {
	b.globals = append(b.globals, init)
	return uint32(len(b.globals) - 1)
}

// Data places bytes in memory at offset.
func (b *ModuleBuilder) Data(offset uint32, bytes []byte) {
	b.data = append(b.data, segment{offset: offset, bytes: bytes})
}

// Func defines a function and returns its index.
func (b *ModuleBuilder) Func(params, results, locals []api.ValueType, body []byte) uint32 {
	b.funcs = append(b.funcs, funcDef{sig: signature{params, results}, locals: locals, body: body})
	return uint32(len(b.imports) + len(b.funcs) - 1)
}

// Export exports a function.
func (b *ModuleBuilder) Export(name string, fn uint32) {
	b.exports = append(b.exports, export{name: name, kind: KindFunc, index: fn})
}

// Build encodes the module. Every function gets its own type entry.
func (b *ModuleBuilder) Build() []byte {
	out := append([]byte{}, Magic...)

	var types []byte
	types = append(types, EncodeULEB128(uint32(len(b.imports)+len(b.funcs)))...)
	for _, imp := range b.imports {
		types = appendSig(types, imp.sig)
	}
	for _, f := range b.funcs {
		types = appendSig(types, f.sig)
	}
	out = appendSection(out, 0x01, types)

	if len(b.imports) > 0 {
		var sec []byte
		sec = append(sec, EncodeULEB128(uint32(len(b.imports)))...)
		for i, imp := range b.imports {
			sec = appendName(sec, imp.module)
			sec = appendName(sec, imp.name)
			sec = append(sec, KindFunc)
			sec = append(sec, EncodeULEB128(uint32(i))...)
		}
		out = appendSection(out, 0x02, sec)
	}

	if len(b.funcs) > 0 {
		var sec []byte
		sec = append(sec, EncodeULEB128(uint32(len(b.funcs)))...)
		for i := range b.funcs {
			sec = append(sec, EncodeULEB128(uint32(len(b.imports)+i))...)
		}
		out = appendSection(out, 0x03, sec)
	}

	if b.memory != nil {
		sec := []byte{0x01, 0x00}
		sec = append(sec, EncodeULEB128(b.memory.pages)...)
		out = appendSection(out, 0x05, sec)
	}

	if len(b.globals) > 0 {
		var sec []byte
		sec = append(sec, EncodeULEB128(uint32(len(b.globals)))...)
		for _, g := range b.globals {
			sec = append(sec, 0x7f, 0x01, 0x41)
			sec = append(sec, EncodeSLEB128(g)...)
			sec = append(sec, 0x0b)
		}
		out = appendSection(out, 0x06, sec)
	}

	if len(b.exports) > 0 {
		var sec []byte
		sec = append(sec, EncodeULEB128(uint32(len(b.exports)))...)
		for _, e := range b.exports {
			sec = appendName(sec, e.name)
			sec = append(sec, e.kind)
			sec = append(sec, EncodeULEB128(e.index)...)
		}
		out = appendSection(out, 0x07, sec)
	}

	if len(b.funcs) > 0 {
		var sec []byte
		sec = append(sec, EncodeULEB128(uint32(len(b.funcs)))...)
		for _, f := range b.funcs {
			body := encodeLocals(f.locals)
			body = append(body, f.body...)
			sec = append(sec, EncodeULEB128(uint32(len(body)))...)
			sec = append(sec, body...)
		}
		out = appendSection(out, 0x0a, sec)
	}

	if len(b.data) > 0 {
		var sec []byte
		sec = append(sec, EncodeULEB128(uint32(len(b.data)))...)
		for _, d := range b.data {
			sec = append(sec, 0x00, 0x41)
			sec = append(sec, EncodeSLEB128(int32(d.offset))...)
			sec = append(sec, 0x0b)
			sec = append(sec, EncodeULEB128(uint32(len(d.bytes)))...)
			sec = append(sec, d.bytes...)
		}
		out = appendSection(out, 0x0b, sec)
	}

	return out
}

func appendSig(dst []byte, s signature) []byte {
	dst = append(dst, 0x60)
	dst = append(dst, EncodeULEB128(uint32(len(s.params)))...)
	for _, t := range s.params {
		dst = append(dst, ValType(t))
	}
	dst = append(dst, EncodeULEB128(uint32(len(s.results)))...)
	for _, t := range s.results {
		dst = append(dst, ValType(t))
	}
	return dst
}

// encodeLocals emits one local declaration group per local.
func encodeLocals(locals []api.ValueType) []byte {
	out := EncodeULEB128(uint32(len(locals)))
	for _, t := range locals {
		out = append(out, 0x01, ValType(t))
	}
	return out
}

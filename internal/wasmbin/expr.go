package wasmbin

import (
	"encoding/binary"
	"math"
)

// Opcodes used by hand-assembled guests.
const (
	OpUnreachable byte = 0x00
	OpIf          byte = 0x04
	OpElse        byte = 0x05
	OpEnd         byte = 0x0b
	OpReturn      byte = 0x0f
	OpDrop        byte = 0x1a
	OpI32Eq       byte = 0x46
	OpI32Ne       byte = 0x47
	OpI32Add      byte = 0x6a
	OpI32Sub      byte = 0x6b
	OpI32Mul      byte = 0x6c
	OpF32Add      byte = 0x92
	OpF32Sub      byte = 0x93
	OpF32Demote   byte = 0xb6
)

// BlockVoid is the empty block type.
const BlockVoid byte = 0x40

// Expr appends instructions to a function body.
type Expr struct {
	buf []byte
}

// NewExpr starts an empty instruction sequence.
func NewExpr() *Expr {
	return &Expr{}
}

// Op appends raw opcodes.
func (e *Expr) Op(ops ...byte) *Expr {
	e.buf = append(e.buf, ops...)
	return e
}

func (e *Expr) I32Const(v int32) *Expr {
	e.buf = append(e.buf, 0x41)
	e.buf = append(e.buf, EncodeSLEB128(v)...)
	return e
}

func (e *Expr) I64Const(v int64) *Expr {
	e.buf = append(e.buf, 0x42)
	e.buf = append(e.buf, EncodeSLEB128(v)...)
	return e
}

func (e *Expr) F32Const(v float32) *Expr {
	e.buf = append(e.buf, 0x43)
	e.buf = binary.LittleEndian.AppendUint32(e.buf, math.Float32bits(v))
	return e
}

func (e *Expr) F64Const(v float64) *Expr {
	e.buf = append(e.buf, 0x44)
	e.buf = binary.LittleEndian.AppendUint64(e.buf, math.Float64bits(v))
	return e
}

func (e *Expr) LocalGet(i uint32) *Expr  { return e.indexed(0x20, i) }
func (e *Expr) LocalSet(i uint32) *Expr  { return e.indexed(0x21, i) }
func (e *Expr) GlobalGet(i uint32) *Expr { return e.indexed(0x23, i) }
func (e *Expr) GlobalSet(i uint32) *Expr { return e.indexed(0x24, i) }
func (e *Expr) Call(fn uint32) *Expr     { return e.indexed(0x10, fn) }

// If opens a void if block.
func (e *Expr) If() *Expr { return e.Op(OpIf, BlockVoid) }

func (e *Expr) I32Load(offset uint32) *Expr  { return e.mem(0x28, 2, offset) }
func (e *Expr) F32Load(offset uint32) *Expr  { return e.mem(0x2a, 2, offset) }
func (e *Expr) F64Load(offset uint32) *Expr  { return e.mem(0x2b, 3, offset) }
func (e *Expr) I32Store(offset uint32) *Expr { return e.mem(0x36, 2, offset) }
func (e *Expr) F32Store(offset uint32) *Expr { return e.mem(0x38, 2, offset) }
func (e *Expr) F64Store(offset uint32) *Expr { return e.mem(0x39, 3, offset) }

// End closes the body and returns the encoded bytes.
func (e *Expr) End() []byte {
	return append(e.buf, OpEnd)
}

func (e *Expr) indexed(op byte, i uint32) *Expr {
	e.buf = append(e.buf, op)
	e.buf = append(e.buf, EncodeULEB128(i)...)
	return e
}

func (e *Expr) mem(op byte, align, offset uint32) *Expr {
	e.buf = append(e.buf, op)
	e.buf = append(e.buf, EncodeULEB128(align)...)
	e.buf = append(e.buf, EncodeULEB128(offset)...)
	return e
}

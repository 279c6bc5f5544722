package wasmbin

import (
	"bytes"
	"context"
	"testing"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

func TestEncodeULEB128(t *testing.T) {
	tests := []struct {
		expected []byte
		input    uint32
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x7f}, 127},
		{[]byte{0x80, 0x01}, 128},
		{[]byte{0xe5, 0x8e, 0x26}, 624485},
	}
	for _, tt := range tests {
		if got := EncodeULEB128(tt.input); !bytes.Equal(got, tt.expected) {
			t.Errorf("EncodeULEB128(%d) = %x, want %x", tt.input, got, tt.expected)
		}
		v, n := DecodeULEB128(tt.expected)
		if v != tt.input || n != len(tt.expected) {
			t.Errorf("DecodeULEB128(%x) = %d, %d", tt.expected, v, n)
		}
	}
}

func TestEncodeSLEB128(t *testing.T) {
	tests := []struct {
		expected []byte
		input    int32
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x7f}, -1},
		{[]byte{0x3f}, 63},
		{[]byte{0xc0, 0x00}, 64},
		{[]byte{0x40}, -64},
		{[]byte{0xbf, 0x7f}, -65},
	}
	for _, tt := range tests {
		if got := EncodeSLEB128(tt.input); !bytes.Equal(got, tt.expected) {
			t.Errorf("EncodeSLEB128(%d) = %x, want %x", tt.input, got, tt.expected)
		}
	}
}

func TestImports(t *testing.T) {
	b := NewModuleBuilder()
	b.Import("engine", "log", []api.ValueType{api.ValueTypeI32}, nil)
	b.Import("env", "now", nil, []api.ValueType{api.ValueTypeI64})
	b.Memory(1, "memory")

	imports, err := Imports(b.Build())
	if err != nil {
		t.Fatalf("Imports: %v", err)
	}
	want := []Import{
		{Module: "engine", Name: "log", Kind: KindFunc},
		{Module: "env", Name: "now", Kind: KindFunc},
	}
	if len(imports) != len(want) {
		t.Fatalf("got %d imports, want %d", len(imports), len(want))
	}
	for i := range want {
		if imports[i] != want[i] {
			t.Errorf("import %d = %+v, want %+v", i, imports[i], want[i])
		}
	}
}

func TestImports_Invalid(t *testing.T) {
	if _, err := Imports([]byte("not wasm")); err == nil {
		t.Error("expected error for bad magic")
	}
	truncated := append(append([]byte{}, Magic...), 0x02, 0x10, 0x01)
	if _, err := Imports(truncated); err == nil {
		t.Error("expected error for truncated section")
	}
	if imports, err := Imports(Magic); err != nil || len(imports) != 0 {
		t.Errorf("empty module: %v, %v", imports, err)
	}
}

func TestModuleBuilder_Run(t *testing.T) {
	b := NewModuleBuilder()
	record := b.Import("host", "record", []api.ValueType{api.ValueTypeI32}, nil)
	b.Memory(1, "memory")
	counter := b.Global(40)
	b.Data(8, []byte("hi"))

	body := NewExpr().
		GlobalGet(counter).LocalGet(0).Op(OpI32Add).GlobalSet(counter).
		GlobalGet(counter).Call(record).
		I32Const(0).GlobalGet(counter).I32Store(16).
		GlobalGet(counter).
		End()
	bump := b.Func([]api.ValueType{api.ValueTypeI32}, []api.ValueType{api.ValueTypeI32}, nil, body)
	b.Export("bump", bump)

	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	var seen []uint32
	_, err := rt.NewHostModuleBuilder("host").
		NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(_ context.Context, _ api.Module, stack []uint64) {
			seen = append(seen, api.DecodeU32(stack[0]))
		}), []api.ValueType{api.ValueTypeI32}, nil).
		Export("record").
		Instantiate(ctx)
	if err != nil {
		t.Fatalf("host module: %v", err)
	}

	mod, err := rt.Instantiate(ctx, b.Build())
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	res, err := mod.ExportedFunction("bump").Call(ctx, 2)
	if err != nil {
		t.Fatalf("bump: %v", err)
	}
	if api.DecodeI32(res[0]) != 42 {
		t.Errorf("bump returned %d, want 42", api.DecodeI32(res[0]))
	}
	if len(seen) != 1 || seen[0] != 42 {
		t.Errorf("host saw %v", seen)
	}
	if v, ok := mod.Memory().ReadUint32Le(16); !ok || v != 42 {
		t.Errorf("memory[16] = %d, %v", v, ok)
	}
	if s, ok := mod.Memory().Read(8, 2); !ok || string(s) != "hi" {
		t.Errorf("data segment = %q", s)
	}
}

func TestExpr_Float(t *testing.T) {
	got := NewExpr().F32Const(1).End()
	want := []byte{0x43, 0x00, 0x00, 0x80, 0x3f, OpEnd}
	if !bytes.Equal(got, want) {
		t.Errorf("F32Const(1) = %x, want %x", got, want)
	}
}

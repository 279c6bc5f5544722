package native

import (
	"testing"

	scriptbridge "github.com/wippyai/script-bridge"
)

func TestParseSignature(t *testing.T) {
	tests := []struct {
		text string
		want Signature
	}{
		{"func()", Signature{}},
		{"func() -> ()", Signature{}},
		{"func(name: string)", Sig(scriptbridge.KindVoid, scriptbridge.KindString)},
		{"func(start: vec3, end: vec3, self: ptr) -> bool",
			Sig(scriptbridge.KindBool, scriptbridge.KindVector, scriptbridge.KindVector, scriptbridge.KindPointer)},
		{"func(t: transform) -> handle", Sig(scriptbridge.KindHandle, scriptbridge.KindTransform)},
		{"func(u8, u32, f64) -> f32",
			Sig(scriptbridge.KindF32, scriptbridge.KindS32, scriptbridge.KindS64, scriptbridge.KindF64)},
		{"  func( ptr )->(s32)  ", Sig(scriptbridge.KindS32, scriptbridge.KindPointer)},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := ParseSignature(tt.text)
			if err != nil {
				t.Fatalf("ParseSignature(%q): %v", tt.text, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseSignature(%q) = %s, want %s", tt.text, got, tt.want)
			}
		})
	}
}

func TestParseSignature_Errors(t *testing.T) {
	for _, text := range []string{
		"",
		"fn(a: s32)",
		"func(a: list<u8>)",
		"func(a: void)",
		"func(a: widget)",
	} {
		if _, err := ParseSignature(text); err == nil {
			t.Errorf("ParseSignature(%q) should fail", text)
		}
	}
}

func TestSignatureString_RoundTrip(t *testing.T) {
	sig := Sig(scriptbridge.KindHandle, scriptbridge.KindString, scriptbridge.KindTransform)
	if got := sig.String(); got != "func(string, transform) -> handle" {
		t.Fatalf("String() = %q", got)
	}
	back, err := ParseSignature(sig.String())
	if err != nil {
		t.Fatal(err)
	}
	if !back.Equal(sig) {
		t.Errorf("round trip = %s", back)
	}
}

func TestParseDecls(t *testing.T) {
	decls, err := ParseDecls(`
		NativeRaycast: func(start: vec3, end: vec3, self: ptr) -> bool;
		PlaySound: func(sound: ptr, pitch: f32, volume: f32);
		GetObjectName: func(obj: ptr) -> string;
	`)
	if err != nil {
		t.Fatal(err)
	}
	if len(decls) != 3 {
		t.Fatalf("got %d decls, want 3", len(decls))
	}
	if decls["PlaySound"].Result != scriptbridge.KindVoid {
		t.Errorf("PlaySound result = %s", decls["PlaySound"].Result)
	}
	if decls["GetObjectName"].Result != scriptbridge.KindString {
		t.Errorf("GetObjectName result = %s", decls["GetObjectName"].Result)
	}
}

func TestMustParseSignature_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	MustParseSignature("nope")
}

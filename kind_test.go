package scriptbridge

import "testing"

func TestCoerce(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		in   any
		want any
		ok   bool
	}{
		{"bool", KindBool, true, true, true},
		{"bool from int", KindBool, 1, nil, false},
		{"s32 from float", KindS32, float64(42), int32(42), true},
		{"s32 fractional", KindS32, 1.5, nil, false},
		{"s32 overflow", KindS32, int64(1) << 40, nil, false},
		{"s64", KindS64, 7, int64(7), true},
		{"f32 from int", KindF32, 3, float32(3), true},
		{"f64", KindF64, float32(0.5), float64(0.5), true},
		{"string", KindString, "x", "x", true},
		{"string from int", KindString, 1, nil, false},
		{"vector", KindVector, Vector{1, 2, 3}, Vector{1, 2, 3}, true},
		{"vector array", KindVector, [3]float32{4, 5, 6}, Vector{4, 5, 6}, true},
		{"vector nil ptr", KindVector, (*Vector)(nil), nil, false},
		{"pointer nil", KindPointer, nil, Counterpart(0), true},
		{"pointer uint64", KindPointer, uint64(99), Counterpart(99), true},
		{"pointer negative", KindPointer, -1, nil, false},
		{"handle", KindHandle, float64(-1), Handle(-1), true},
		{"void", KindVoid, nil, nil, true},
		{"void with value", KindVoid, 1, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Coerce(tt.kind, tt.in)
			if ok != tt.ok {
				t.Fatalf("Coerce(%s, %v) ok = %v, want %v", tt.kind, tt.in, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("Coerce(%s, %v) = %#v, want %#v", tt.kind, tt.in, got, tt.want)
			}
		})
	}
}

func TestKindByName(t *testing.T) {
	for _, name := range []string{"vec3", "transform", "ptr", "handle", "void", "f32"} {
		k, ok := KindByName(name)
		if !ok {
			t.Fatalf("KindByName(%q) not found", name)
		}
		if k.String() != name {
			t.Errorf("round trip %q -> %q", name, k.String())
		}
	}
	if _, ok := KindByName("Vector3"); ok {
		t.Error("KindByName should reject unknown names")
	}
	if Kind(200).String() != "unknown" {
		t.Error("out of range kind should print unknown")
	}
}

func TestVector(t *testing.T) {
	v := Vector{1, 2, 3}.Add(Vector{1, 1, 1}).Scale(2)
	if v != (Vector{4, 6, 8}) {
		t.Errorf("got %v", v)
	}
	if IdentityTransform().Scale != (Vector{1, 1, 1}) {
		t.Error("identity scale should be one")
	}
}

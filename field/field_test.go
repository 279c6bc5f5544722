package field

import (
	"errors"
	"testing"

	scriptbridge "github.com/wippyai/script-bridge"
	bridgeerrors "github.com/wippyai/script-bridge/errors"
)

type cube struct {
	Position scriptbridge.Vector
	Health   float32
	Label    string
	hidden   int32
}

func cubeTable() *Table {
	return NewTable("Cube").
		MustAdd(Ref("Position", scriptbridge.KindVector, func(c *cube) *scriptbridge.Vector { return &c.Position })).
		MustAdd(Editor(Ref("Health", scriptbridge.KindF32, func(c *cube) *float32 { return &c.Health }), "Stats")).
		MustAdd(Editor(Ref("Label", scriptbridge.KindString, func(c *cube) *string { return &c.Label }), "")).
		MustAdd(Ref("hidden", scriptbridge.KindS32, func(c *cube) *int32 { return &c.hidden }))
}

var notFound = &bridgeerrors.Error{Phase: bridgeerrors.PhaseField, Kind: bridgeerrors.KindNotFound}

func TestTable_GetSet(t *testing.T) {
	tbl := cubeTable()
	c := &cube{Health: 10}

	v, err := tbl.Get(c, "Health")
	if err != nil || v != float32(10) {
		t.Fatalf("Get Health = %v, %v", v, err)
	}

	if err := tbl.Set(c, "Health", 25); err != nil {
		t.Fatal(err)
	}
	if c.Health != 25 {
		t.Errorf("Set did not write through: Health = %v", c.Health)
	}

	if err := tbl.Set(c, "Label", 5); err == nil {
		t.Error("expected type mismatch for string field")
	}
}

func TestTable_MissingField(t *testing.T) {
	tbl := cubeTable()
	c := &cube{}

	if _, err := tbl.Get(c, "Mass"); !errors.Is(err, notFound) {
		t.Errorf("Get err = %v, want not found", err)
	}
	if err := tbl.Set(c, "Mass", 1); !errors.Is(err, notFound) {
		t.Errorf("Set err = %v, want not found", err)
	}
	if *c != (cube{}) {
		t.Error("Set on missing field must not modify the instance")
	}
}

func TestTable_VectorRoundTrip(t *testing.T) {
	tbl := cubeTable()
	c := &cube{}
	want := scriptbridge.Vector{X: 1.5, Y: -2, Z: 3e6}

	if err := tbl.SetVector(c, "Position", want); err != nil {
		t.Fatal(err)
	}
	got, err := tbl.GetVector(c, "Position")
	if err != nil {
		t.Fatal(err)
	}
	if got != want || c.Position != want {
		t.Errorf("GetVector = %v, stored %v, want %v", got, c.Position, want)
	}

	if _, err := tbl.GetVector(c, "Health"); err == nil {
		t.Error("GetVector on scalar field should fail")
	}
	if err := tbl.SetVector(c, "Health", want); err == nil {
		t.Error("SetVector on scalar field should fail")
	}
}

func TestTable_GetReturnsCopy(t *testing.T) {
	tbl := cubeTable()
	c := &cube{Position: scriptbridge.Vector{X: 1}}

	v, _ := tbl.Get(c, "Position")
	vec := v.(scriptbridge.Vector)
	vec.X = 99

	again, _ := tbl.GetVector(c, "Position")
	if again.X != 1 {
		t.Errorf("mutating a Get result leaked into storage: %v", again)
	}
}

func TestTable_AddValidation(t *testing.T) {
	tbl := NewTable("T")
	if err := tbl.Add(Accessor{Name: "", Kind: scriptbridge.KindF32}); err == nil {
		t.Error("empty name should fail")
	}
	if err := tbl.Add(Accessor{Name: "A", Kind: scriptbridge.KindF32}); err == nil {
		t.Error("missing getter/setter should fail")
	}
	a := Ref("A", scriptbridge.KindF32, func(c *cube) *float32 { return &c.Health })
	if err := tbl.Add(a); err != nil {
		t.Fatal(err)
	}
	if err := tbl.Add(a); err == nil {
		t.Error("duplicate should fail")
	}
	a.Name, a.Kind = "B", scriptbridge.KindVoid
	if err := tbl.Add(a); err == nil {
		t.Error("void kind should fail")
	}
}

func TestTable_EditorProperties(t *testing.T) {
	got := cubeTable().EditorProperties()
	want := "f32 Stats:Health;string Cube:Label;"
	if got != want {
		t.Errorf("EditorProperties = %q, want %q", got, want)
	}
}

func TestRef_WrongInstance(t *testing.T) {
	tbl := cubeTable()
	if _, err := tbl.Get("not a cube", "Health"); err == nil {
		t.Error("expected error for wrong instance type")
	}
	var nilCube *cube
	if _, err := tbl.Get(nilCube, "Health"); err == nil {
		t.Error("expected error for nil instance")
	}
}

type holder struct{ c *cube }

func (h holder) Target() any { return h.c }

func TestRef_Target(t *testing.T) {
	tbl := cubeTable()
	c := &cube{}
	if err := tbl.Set(holder{c}, "Health", float32(3)); err != nil {
		t.Fatal(err)
	}
	if c.Health != 3 {
		t.Errorf("Health = %v", c.Health)
	}
}

func TestComponents(t *testing.T) {
	box := any(scriptbridge.Vector{X: 1, Y: 2, Z: 3})
	if err := Components.Set(&box, "Y", 7); err != nil {
		t.Fatal(err)
	}
	if box.(scriptbridge.Vector) != (scriptbridge.Vector{X: 1, Y: 7, Z: 3}) {
		t.Errorf("box = %v", box)
	}
	z, err := Components.Get(&box, "Z")
	if err != nil || z != float32(3) {
		t.Errorf("Z = %v, %v", z, err)
	}
	if _, err := Components.Get(scriptbridge.Vector{}, "X"); err == nil {
		t.Error("unboxed vector should be rejected")
	}
}

package native

import (
	"errors"
	"testing"

	scriptbridge "github.com/wippyai/script-bridge"
	bridgeerrors "github.com/wippyai/script-bridge/errors"
)

type recordingSink struct {
	published map[string]Signature
	fail      bool
}

func (s *recordingSink) Publish(name string, sig Signature) error {
	if s.fail {
		return errors.New("rejected")
	}
	if s.published == nil {
		s.published = make(map[string]Signature)
	}
	s.published[name] = sig
	return nil
}

func addFunc() *Func {
	return MustFunc(Sig(scriptbridge.KindS32, scriptbridge.KindS32, scriptbridge.KindS32), func(args Args) (any, error) {
		return args.S32(0) + args.S32(1), nil
	})
}

func TestTable_RegisterWithoutSink(t *testing.T) {
	tbl := NewTable(nil)
	if err := tbl.Register("Add", addFunc()); err != nil {
		t.Fatalf("Register without sink should not fail: %v", err)
	}
	if tbl.Len() != 0 {
		t.Fatalf("Len = %d, want 0", tbl.Len())
	}
	_, err := tbl.Invoke("Add", Signature{}, 1, 2)
	if !errors.Is(err, &bridgeerrors.Error{Phase: bridgeerrors.PhaseNative, Kind: bridgeerrors.KindNotFound}) {
		t.Errorf("Invoke err = %v, want not found", err)
	}
}

func TestTable_RegisterAndInvoke(t *testing.T) {
	sink := &recordingSink{}
	tbl := NewTable(nil)
	tbl.SetSink(sink)

	if err := tbl.Register("Add", addFunc()); err != nil {
		t.Fatal(err)
	}
	if _, ok := sink.published["Add"]; !ok {
		t.Fatal("registration was not forwarded to the sink")
	}

	got, err := tbl.Invoke("Add", Signature{}, 2, float64(3))
	if err != nil {
		t.Fatal(err)
	}
	if got != int32(5) {
		t.Errorf("Add = %#v, want int32(5)", got)
	}

	got, err = tbl.Invoke("Add", Sig(scriptbridge.KindS32, scriptbridge.KindS32, scriptbridge.KindS32), 1, 1)
	if err != nil || got != int32(2) {
		t.Errorf("typed Invoke = %v, %v", got, err)
	}
}

func TestTable_InvokeSignatureMismatch(t *testing.T) {
	tbl := NewTable(nil)
	tbl.SetSink(&recordingSink{})
	_ = tbl.Register("Add", addFunc())

	_, err := tbl.Invoke("Add", Sig(scriptbridge.KindF32, scriptbridge.KindF32), 1)
	var be *bridgeerrors.Error
	if !errors.As(err, &be) || be.Kind != bridgeerrors.KindTypeMismatch {
		t.Fatalf("err = %v, want type mismatch", err)
	}
}

func TestTable_InvokeArgumentErrors(t *testing.T) {
	tbl := NewTable(nil)
	tbl.SetSink(&recordingSink{})
	_ = tbl.Register("Add", addFunc())

	if _, err := tbl.Invoke("Add", Signature{}, 1); err == nil {
		t.Error("expected arity error")
	}
	if _, err := tbl.Invoke("Add", Signature{}, "one", 2); err == nil {
		t.Error("expected coercion error")
	}
}

func TestTable_Overwrite(t *testing.T) {
	tbl := NewTable(nil)
	tbl.SetSink(&recordingSink{})
	_ = tbl.Register("Answer", MustFunc(Sig(scriptbridge.KindS32), func(Args) (any, error) { return 1, nil }))
	_ = tbl.Register("Answer", MustFunc(Sig(scriptbridge.KindS32), func(Args) (any, error) { return 42, nil }))

	if tbl.Len() != 1 {
		t.Fatalf("Len = %d, want 1", tbl.Len())
	}
	got, _ := tbl.Invoke("Answer", Signature{})
	if got != int32(42) {
		t.Errorf("Answer = %v, want 42", got)
	}
}

func TestTable_SinkRejects(t *testing.T) {
	tbl := NewTable(nil)
	tbl.SetSink(&recordingSink{fail: true})
	if err := tbl.Register("Add", addFunc()); err == nil {
		t.Fatal("expected registration error")
	}
	if tbl.Len() != 0 {
		t.Error("rejected function must not be recorded")
	}
}

func TestTable_Clear(t *testing.T) {
	tbl := NewTable(nil)
	tbl.SetSink(&recordingSink{})
	_ = tbl.Register("B", addFunc())
	_ = tbl.Register("A", addFunc())

	if names := tbl.Names(); len(names) != 2 || names[0] != "A" {
		t.Fatalf("Names = %v", names)
	}
	tbl.Clear()
	if tbl.Len() != 0 {
		t.Fatalf("Len after Clear = %d", tbl.Len())
	}
	if _, ok := tbl.Lookup("A"); ok {
		t.Error("A should be gone after Clear")
	}
	if !tbl.HasSink() {
		t.Error("Clear should keep the sink")
	}
}

func TestFunc_VoidAndValidation(t *testing.T) {
	called := false
	f := MustFunc(Sig(scriptbridge.KindVoid, scriptbridge.KindVector), func(args Args) (any, error) {
		called = args.Vector(0) == scriptbridge.Vector{X: 1, Y: 2, Z: 3}
		return "ignored", nil
	})
	got, err := f.Call(scriptbridge.Vector{X: 1, Y: 2, Z: 3})
	if err != nil || got != nil || !called {
		t.Fatalf("Call = %v, %v, called=%v", got, err, called)
	}

	if _, err := NewFunc(Sig(scriptbridge.KindVoid, scriptbridge.KindVoid), func(Args) (any, error) { return nil, nil }); err == nil {
		t.Error("void parameter should be rejected")
	}
	if _, err := NewFunc(Signature{}, nil); err == nil {
		t.Error("nil handler should be rejected")
	}

	bad := MustFunc(Sig(scriptbridge.KindString), func(Args) (any, error) { return 5, nil })
	if _, err := bad.Call(); err == nil {
		t.Error("result coercion failure should be reported")
	}
}

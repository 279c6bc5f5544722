package luadomain

import (
	"fmt"

	"github.com/Shopify/go-lua"

	scriptbridge "github.com/wippyai/script-bridge"
)

// push converts a Go value crossing into Lua. Instances of this domain are
// pushed as their object table; anything else unknown becomes nil.
func (d *Domain) push(l *lua.State, v any) {
	switch x := v.(type) {
	case nil:
		l.PushNil()
	case bool:
		l.PushBoolean(x)
	case int:
		l.PushInteger(x)
	case int32:
		l.PushInteger(int(x))
	case int64:
		l.PushNumber(float64(x))
	case scriptbridge.Handle:
		l.PushInteger(int(x))
	case scriptbridge.Counterpart:
		l.PushNumber(float64(x))
	case float32:
		l.PushNumber(float64(x))
	case float64:
		l.PushNumber(x)
	case string:
		l.PushString(x)
	case scriptbridge.Vector:
		pushVector(l, x)
	case scriptbridge.Transform:
		l.CreateTable(0, 3)
		pushVector(l, x.Position)
		l.SetField(-2, "Position")
		pushVector(l, x.Rotation)
		l.SetField(-2, "Rotation")
		pushVector(l, x.Scale)
		l.SetField(-2, "Scale")
	case *object:
		if x.d != d || x.released {
			l.PushNil()
			return
		}
		d.deref(l, x.ref)
	default:
		l.PushNil()
	}
}

func pushVector(l *lua.State, v scriptbridge.Vector) {
	l.CreateTable(0, 3)
	l.PushNumber(float64(v.X))
	l.SetField(-2, "X")
	l.PushNumber(float64(v.Y))
	l.SetField(-2, "Y")
	l.PushNumber(float64(v.Z))
	l.SetField(-2, "Z")
}

// pull converts the Lua value at index into Go. Numbers arrive as float64
// and are narrowed later by scriptbridge.Coerce. Tables are accepted when
// they look like a vector or a transform.
func (d *Domain) pull(l *lua.State, index int) (any, error) {
	switch l.TypeOf(index) {
	case lua.TypeNil, lua.TypeNone:
		return nil, nil
	case lua.TypeBoolean:
		return l.ToBoolean(index), nil
	case lua.TypeNumber:
		n, _ := l.ToNumber(index)
		return n, nil
	case lua.TypeString:
		s, _ := l.ToString(index)
		return s, nil
	case lua.TypeTable:
		return d.pullTable(l, l.AbsIndex(index))
	}
	return nil, fmt.Errorf("cannot pass %s across the bridge", lua.TypeNameOf(l, index))
}

func (d *Domain) pullTable(l *lua.State, index int) (any, error) {
	if v, ok := pullVector(l, index); ok {
		return v, nil
	}
	l.Field(index, scriptbridge.FieldPosition)
	isTransform := l.IsTable(-1)
	l.Pop(1)
	if isTransform {
		var t scriptbridge.Transform
		for _, c := range []struct {
			name string
			dst  *scriptbridge.Vector
		}{
			{scriptbridge.FieldPosition, &t.Position},
			{scriptbridge.FieldRotation, &t.Rotation},
			{scriptbridge.FieldScale, &t.Scale},
		} {
			l.Field(index, c.name)
			v, ok := pullVector(l, l.AbsIndex(-1))
			l.Pop(1)
			if !ok {
				return nil, fmt.Errorf("transform component %s is not a vector", c.name)
			}
			*c.dst = v
		}
		return t, nil
	}
	return nil, fmt.Errorf("table is neither a vector nor a transform")
}

func pullVector(l *lua.State, index int) (scriptbridge.Vector, bool) {
	var out [3]float32
	for i, name := range []string{"X", "Y", "Z"} {
		l.Field(index, name)
		n, ok := l.ToNumber(-1)
		isNum := l.TypeOf(-1) == lua.TypeNumber
		l.Pop(1)
		if !ok || !isNum {
			return scriptbridge.Vector{}, false
		}
		out[i] = float32(n)
	}
	return scriptbridge.Vector{X: out[0], Y: out[1], Z: out[2]}, true
}

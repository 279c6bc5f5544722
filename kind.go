package scriptbridge

import "math"

// Kind tags the shape of a value crossing the boundary. Native call
// descriptors and field descriptors are built from kinds.
type Kind uint8

const (
	KindVoid Kind = iota
	KindBool
	KindS32
	KindS64
	KindF32
	KindF64
	KindString
	KindVector
	KindTransform
	KindPointer
	KindHandle
)

var kindNames = [...]string{
	KindVoid:      "void",
	KindBool:      "bool",
	KindS32:       "s32",
	KindS64:       "s64",
	KindF32:       "f32",
	KindF64:       "f64",
	KindString:    "string",
	KindVector:    "vec3",
	KindTransform: "transform",
	KindPointer:   "ptr",
	KindHandle:    "handle",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// KindByName resolves the bridge-specific names (vec3, transform, ptr,
// handle, void). Scalar names are resolved by the native signature parser.
func KindByName(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), true
		}
	}
	return KindVoid, false
}

// Zero returns the zero value of the Go representation of k.
func (k Kind) Zero() any {
	switch k {
	case KindBool:
		return false
	case KindS32:
		return int32(0)
	case KindS64:
		return int64(0)
	case KindF32:
		return float32(0)
	case KindF64:
		return float64(0)
	case KindString:
		return ""
	case KindVector:
		return Vector{}
	case KindTransform:
		return Transform{}
	case KindPointer:
		return Counterpart(0)
	case KindHandle:
		return NoObject
	}
	return nil
}

// Coerce converts v to the canonical Go representation of k:
// bool, int32, int64, float32, float64, string, Vector, Transform,
// Counterpart or Handle. Numeric conversions that would lose the integer
// part or overflow are rejected.
func Coerce(k Kind, v any) (any, bool) {
	switch k {
	case KindVoid:
		return nil, v == nil
	case KindBool:
		b, ok := v.(bool)
		return b, ok
	case KindS32:
		i, ok := toInt64(v)
		if !ok || i < math.MinInt32 || i > math.MaxInt32 {
			return nil, false
		}
		return int32(i), true
	case KindS64:
		i, ok := toInt64(v)
		if !ok {
			return nil, false
		}
		return i, true
	case KindF32:
		f, ok := toFloat64(v)
		if !ok {
			return nil, false
		}
		return float32(f), true
	case KindF64:
		f, ok := toFloat64(v)
		if !ok {
			return nil, false
		}
		return f, true
	case KindString:
		s, ok := v.(string)
		return s, ok
	case KindVector:
		switch vv := v.(type) {
		case Vector:
			return vv, true
		case *Vector:
			if vv == nil {
				return nil, false
			}
			return *vv, true
		case [3]float32:
			return Vector{vv[0], vv[1], vv[2]}, true
		}
	case KindTransform:
		switch tv := v.(type) {
		case Transform:
			return tv, true
		case *Transform:
			if tv == nil {
				return nil, false
			}
			return *tv, true
		}
	case KindPointer:
		switch pv := v.(type) {
		case Counterpart:
			return pv, true
		case uint64:
			return Counterpart(pv), true
		case uintptr:
			return Counterpart(pv), true
		case nil:
			return Counterpart(0), true
		}
		i, ok := toInt64(v)
		if !ok || i < 0 {
			return nil, false
		}
		return Counterpart(i), true
	case KindHandle:
		i, ok := toInt64(v)
		if !ok || i < math.MinInt32 || i > math.MaxInt32 {
			return nil, false
		}
		return Handle(i), true
	}
	return nil, false
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case Handle:
		return int64(n), true
	case float32:
		return floatToInt(float64(n))
	case float64:
		return floatToInt(n)
	}
	return 0, false
}

func floatToInt(f float64) (int64, bool) {
	if f != math.Trunc(f) || f < math.MinInt64 || f > math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	i, ok := toInt64(v)
	return float64(i), ok
}

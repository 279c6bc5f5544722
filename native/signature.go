package native

import (
	"regexp"
	"strings"

	"go.bytecodealliance.org/wit"

	scriptbridge "github.com/wippyai/script-bridge"
	"github.com/wippyai/script-bridge/errors"
)

// Signature is the call descriptor of a native function: argument kinds and
// a single result kind (KindVoid for none).
type Signature struct {
	Params []scriptbridge.Kind
	Result scriptbridge.Kind
}

// Sig is shorthand for building a Signature.
func Sig(result scriptbridge.Kind, params ...scriptbridge.Kind) Signature {
	return Signature{Params: params, Result: result}
}

// IsZero reports whether s carries no information. Invoke skips descriptor
// checks for zero signatures.
func (s Signature) IsZero() bool {
	return len(s.Params) == 0 && s.Result == scriptbridge.KindVoid
}

// Equal reports whether both descriptors have the same shape.
func (s Signature) Equal(o Signature) bool {
	if s.Result != o.Result || len(s.Params) != len(o.Params) {
		return false
	}
	for i := range s.Params {
		if s.Params[i] != o.Params[i] {
			return false
		}
	}
	return true
}

// String renders s in the form accepted by ParseSignature.
func (s Signature) String() string {
	var b strings.Builder
	b.WriteString("func(")
	for i, p := range s.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.String())
	}
	b.WriteByte(')')
	if s.Result != scriptbridge.KindVoid {
		b.WriteString(" -> ")
		b.WriteString(s.Result.String())
	}
	return b.String()
}

func (s Signature) validate() error {
	for i, p := range s.Params {
		if p == scriptbridge.KindVoid || p.String() == "unknown" {
			return errors.New(errors.PhaseNative, errors.KindInvalidInput).
				Detail("parameter %d has invalid kind %s", i, p).
				Build()
		}
	}
	if s.Result.String() == "unknown" {
		return errors.InvalidInput(errors.PhaseNative, "invalid result kind")
	}
	return nil
}

var declPattern = regexp.MustCompile(`([a-zA-Z_][a-zA-Z0-9_-]*)\s*:\s*(func\s*\([^)]*\)(?:\s*->\s*[^;\n]+)?)`)

var sigPattern = regexp.MustCompile(`^func\s*\(([^)]*)\)(?:\s*->\s*(.+))?$`)

// ParseSignature parses a descriptor such as
// "func(start: vec3, end: vec3, self: ptr) -> bool". Parameter names are
// optional. Scalar type names follow WIT (bool, s32, f32, string, ...);
// vec3, transform, ptr and handle are bridge shapes.
func ParseSignature(text string) (Signature, error) {
	m := sigPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return Signature{}, errors.ParseFailed("signature "+text, nil)
	}

	var sig Signature
	if params := strings.TrimSpace(m[1]); params != "" {
		for _, p := range splitParams(params) {
			typStr := p
			if idx := strings.LastIndex(p, ":"); idx != -1 {
				typStr = strings.TrimSpace(p[idx+1:])
			}
			k, err := ParseKind(typStr)
			if err != nil {
				return Signature{}, errors.Wrap(errors.PhaseParse, errors.KindInvalidData, err, "parse param type "+typStr)
			}
			sig.Params = append(sig.Params, k)
		}
	}

	if result := strings.TrimSpace(m[2]); result != "" && result != "()" {
		k, err := ParseKind(strings.Trim(result, "() "))
		if err != nil {
			return Signature{}, errors.Wrap(errors.PhaseParse, errors.KindInvalidData, err, "parse result type "+result)
		}
		sig.Result = k
	}

	if err := sig.validate(); err != nil {
		return Signature{}, err
	}
	return sig, nil
}

// MustParseSignature is ParseSignature that panics on error. Intended for
// package-level descriptor tables.
func MustParseSignature(text string) Signature {
	sig, err := ParseSignature(text)
	if err != nil {
		panic(err)
	}
	return sig
}

// ParseDecls parses a block of "name: func(...) -> r;" declarations.
func ParseDecls(text string) (map[string]Signature, error) {
	decls := make(map[string]Signature)
	for _, match := range declPattern.FindAllStringSubmatch(text, -1) {
		sig, err := ParseSignature(strings.TrimSuffix(strings.TrimSpace(match[2]), ";"))
		if err != nil {
			return nil, errors.Wrap(errors.PhaseParse, errors.KindInvalidData, err, "parse declaration "+match[1])
		}
		decls[match[1]] = sig
	}
	return decls, nil
}

// ParseKind resolves a single type name.
func ParseKind(name string) (scriptbridge.Kind, error) {
	name = strings.TrimSpace(name)
	if k, ok := scriptbridge.KindByName(name); ok {
		return k, nil
	}

	t, err := wit.ParseType(name)
	if err != nil {
		return scriptbridge.KindVoid, err
	}
	switch t.(type) {
	case wit.Bool:
		return scriptbridge.KindBool, nil
	case wit.S8, wit.S16, wit.S32, wit.U8, wit.U16:
		return scriptbridge.KindS32, nil
	case wit.S64, wit.U32, wit.U64:
		return scriptbridge.KindS64, nil
	case wit.F32:
		return scriptbridge.KindF32, nil
	case wit.F64:
		return scriptbridge.KindF64, nil
	case wit.String:
		return scriptbridge.KindString, nil
	}
	return scriptbridge.KindVoid, errors.Unsupported(errors.PhaseParse, "type "+name+" cannot cross the boundary")
}

func splitParams(s string) []string {
	var result []string
	var current strings.Builder
	depth := 0

	for _, ch := range s {
		switch ch {
		case '(', '<':
			depth++
			current.WriteRune(ch)
		case ')', '>':
			depth--
			current.WriteRune(ch)
		case ',':
			if depth == 0 {
				if str := strings.TrimSpace(current.String()); str != "" {
					result = append(result, str)
				}
				current.Reset()
			} else {
				current.WriteRune(ch)
			}
		default:
			current.WriteRune(ch)
		}
	}

	if str := strings.TrimSpace(current.String()); str != "" {
		result = append(result, str)
	}

	return result
}

package scriptbridge

import "fmt"

// Handle identifies a live managed object within one load generation.
// Zero is reserved to mean "no object".
type Handle int32

// NoObject is the sentinel handle returned when instantiation fails.
const NoObject Handle = 0

// Counterpart is an opaque reference to the host-side representation of a
// managed object. The bridge stores it and never dereferences it.
type Counterpart uint64

// Vector is three 32-bit floats passed by value across the boundary.
type Vector struct {
	X, Y, Z float32
}

// Add returns the component-wise sum.
func (v Vector) Add(o Vector) Vector {
	return Vector{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Scale multiplies every component by f.
func (v Vector) Scale(f float32) Vector {
	return Vector{v.X * f, v.Y * f, v.Z * f}
}

func (v Vector) String() string {
	return fmt.Sprintf("(%g, %g, %g)", v.X, v.Y, v.Z)
}

// Transform is position, rotation and scale of a world object.
type Transform struct {
	Position Vector
	Rotation Vector
	Scale    Vector
}

// IdentityTransform has zero position and rotation and unit scale.
func IdentityTransform() Transform {
	return Transform{Scale: Vector{1, 1, 1}}
}

// Transform component field names, applied in this order by Instantiate.
const (
	FieldPosition = "Position"
	FieldRotation = "Rotation"
	FieldScale    = "Scale"
	FieldNative   = "NativePtr"
)

package animation

import (
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// ValueType tags the kind of data carried by a Value.
type ValueType int

const (
	ValueInt ValueType = iota
	ValueFloat
	ValueVector2
	ValueVector3
	ValueVector4
	ValueQuaternion
	ValueColor
)

var valueTypeNames = [...]string{
	ValueInt:        "int",
	ValueFloat:      "float",
	ValueVector2:    "vector2",
	ValueVector3:    "vector3",
	ValueVector4:    "vector4",
	ValueQuaternion: "quaternion",
	ValueColor:      "color",
}

func (t ValueType) String() string {
	if t < 0 || int(t) >= len(valueTypeNames) {
		return "unknown"
	}
	return valueTypeNames[t]
}

// Value is a tagged numeric value animated by numeric tracks. Vectors and colours share the
// four component storage; unused components stay zero.
type Value struct {
	typ ValueType
	i   int
	f   float32
	v   mgl32.Vec4
	q   mgl32.Quat
}

// IntValue wraps an integer.
func IntValue(i int) Value { return Value{typ: ValueInt, i: i} }

// FloatValue wraps a float.
func FloatValue(f float32) Value { return Value{typ: ValueFloat, f: f} }

// Vector2Value wraps a 2D vector.
func Vector2Value(v mgl32.Vec2) Value { return Value{typ: ValueVector2, v: mgl32.Vec4{v[0], v[1]}} }

// Vector3Value wraps a 3D vector.
func Vector3Value(v mgl32.Vec3) Value { return Value{typ: ValueVector3, v: v.Vec4(0)} }

// Vector4Value wraps a 4D vector.
func Vector4Value(v mgl32.Vec4) Value { return Value{typ: ValueVector4, v: v} }

// QuaternionValue wraps a rotation.
func QuaternionValue(q mgl32.Quat) Value { return Value{typ: ValueQuaternion, q: q} }

// ColorValue wraps an RGBA colour.
func ColorValue(c mgl32.Vec4) Value { return Value{typ: ValueColor, v: c} }

// ZeroValue returns the neutral value of a type: zero for scalars, vectors and colours and the
// identity rotation for quaternions.
func ZeroValue(t ValueType) Value {
	if t == ValueQuaternion {
		return QuaternionValue(mgl32.QuatIdent())
	}
	return Value{typ: t}
}

func (v Value) Type() ValueType { return v.typ }
func (v Value) Int() int { return v.i }
func (v Value) Float() float32 { return v.f }
func (v Value) Vector2() mgl32.Vec2 { return mgl32.Vec2{v.v[0], v.v[1]} }
func (v Value) Vector3() mgl32.Vec3 { return v.v.Vec3() }
func (v Value) Vector4() mgl32.Vec4 { return v.v }
func (v Value) Quaternion() mgl32.Quat { return v.q }
func (v Value) Color() mgl32.Vec4 { return v.v }

func (v Value) String() string {
	switch v.typ {
	case ValueInt:
		return fmt.Sprintf("int(%d)", v.i)
	case ValueFloat:
		return fmt.Sprintf("float(%g)", v.f)
	case ValueVector2:
		return fmt.Sprintf("vector2(%g, %g)", v.v[0], v.v[1])
	case ValueVector3:
		return fmt.Sprintf("vector3(%g, %g, %g)", v.v[0], v.v[1], v.v[2])
	case ValueQuaternion:
		return fmt.Sprintf("quaternion(%g, %g, %g, %g)", v.q.W, v.q.V[0], v.q.V[1], v.q.V[2])
	default:
		return fmt.Sprintf("%s(%g, %g, %g, %g)", v.typ, v.v[0], v.v[1], v.v[2], v.v[3])
	}
}

// valueOps is the per-type arithmetic used by numeric tracks.
type valueOps struct {
	interpolate func(a, b Value, t float32) Value
	scale       func(v Value, f float32) Value
	add         func(a, b Value) Value
}

var vectorOps = valueOps{
	interpolate: func(a, b Value, t float32) Value {
		a.v = a.v.Add(b.v.Sub(a.v).Mul(t))
		return a
	},
	scale: func(v Value, f float32) Value {
		v.v = v.v.Mul(f)
		return v
	},
	add: func(a, b Value) Value {
		a.v = a.v.Add(b.v)
		return a
	},
}

var opsTable = [...]valueOps{
	ValueInt: {
		interpolate: func(a, b Value, t float32) Value {
			return IntValue(a.i + roundInt(float32(b.i-a.i)*t))
		},
		scale: func(v Value, f float32) Value {
			return IntValue(roundInt(float32(v.i) * f))
		},
		add: func(a, b Value) Value {
			return IntValue(a.i + b.i)
		},
	},
	ValueFloat: {
		interpolate: func(a, b Value, t float32) Value {
			return FloatValue(a.f + (b.f-a.f)*t)
		},
		scale: func(v Value, f float32) Value {
			return FloatValue(v.f * f)
		},
		add: func(a, b Value) Value {
			return FloatValue(a.f + b.f)
		},
	},
	ValueVector2: vectorOps,
	ValueVector3: vectorOps,
	ValueVector4: vectorOps,
	ValueQuaternion: {
		interpolate: func(a, b Value, t float32) Value {
			return QuaternionValue(common.Slerp(a.q, b.q, t, true))
		},
		// scaling a rotation moves it part of the way from identity
		scale: func(v Value, f float32) Value {
			return QuaternionValue(common.Slerp(mgl32.QuatIdent(), v.q, f, true))
		},
		add: func(a, b Value) Value {
			return QuaternionValue(a.q.Mul(b.q).Normalize())
		},
	},
	ValueColor: vectorOps,
}

func roundInt(f float32) int {
	return int(math.Round(float64(f)))
}

func opsFor(t ValueType) (valueOps, error) {
	if t < 0 || int(t) >= len(opsTable) {
		return valueOps{}, errors.Errorf("unknown value type %d", int(t))
	}
	return opsTable[t], nil
}

// InterpolateValues blends a towards b by t.
//
// Parameters:
//   - a: the start value
//   - b: the end value, of the same type as a
//   - t: the blend fraction
//
// Returns:
//   - Value: the blended value
//   - error: ErrTypeMismatch if the types differ
func InterpolateValues(a, b Value, t float32) (Value, error) {
	if a.typ != b.typ {
		return Value{}, errors.Wrapf(ErrTypeMismatch, "interpolate %s with %s", a.typ, b.typ)
	}
	ops, err := opsFor(a.typ)
	if err != nil {
		return Value{}, err
	}
	return ops.interpolate(a, b, t), nil
}

// ScaleValue scales a value by f. Quaternions are scaled by moving from identity towards them.
//
// Parameters:
//   - v: the value
//   - f: the scale factor
//
// Returns:
//   - Value: the scaled value
func ScaleValue(v Value, f float32) Value {
	ops, err := opsFor(v.typ)
	if err != nil {
		return v
	}
	return ops.scale(v, f)
}

// AddValues composes a delta onto a value. Quaternions are composed by multiplication.
//
// Parameters:
//   - a: the base value
//   - b: the delta, of the same type as a
//
// Returns:
//   - Value: the composed value
//   - error: ErrTypeMismatch if the types differ
func AddValues(a, b Value) (Value, error) {
	if a.typ != b.typ {
		return Value{}, errors.Wrapf(ErrTypeMismatch, "add %s to %s", b.typ, a.typ)
	}
	ops, err := opsFor(a.typ)
	if err != nil {
		return Value{}, err
	}
	return ops.add(a, b), nil
}

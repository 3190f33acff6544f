package common

import (
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// DefaultTolerance is the comparison tolerance used when deciding whether two keyframe
// components are equal or whether a component deviates from its neutral value.
const DefaultTolerance float32 = 1e-3

// UnitScale is the neutral scale vector.
var UnitScale = mgl32.Vec3{1, 1, 1}

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}

// WrapTime wraps a time position into [0, length). A non-positive length disables wrapping
// and the time is returned unchanged.
//
// Parameters:
//   - t: the time position in seconds
//   - length: the total length in seconds
//
// Returns:
//   - float32: the wrapped time
func WrapTime(t, length float32) float32 {
	if length <= 0 {
		return t
	}
	w := float32(math.Mod(float64(t), float64(length)))
	if w < 0 {
		w += length
	}
	// float rounding can land exactly on length after the negative correction
	if w >= length {
		w = 0
	}
	return w
}

// LerpVec3 linearly interpolates between a and b.
//
// Parameters:
//   - a: the start vector
//   - b: the end vector
//   - t: the interpolation fraction
//
// Returns:
//   - mgl32.Vec3: a + (b - a) * t
func LerpVec3(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

// Slerp performs spherical linear interpolation between two quaternions. When shortestPath is
// set and the quaternions lie in opposite hemispheres, q is negated so the rotation takes the
// shorter arc.
//
// Parameters:
//   - p: the start rotation
//   - q: the end rotation
//   - t: the interpolation fraction
//   - shortestPath: whether to force the shortest rotation path
//
// Returns:
//   - mgl32.Quat: the interpolated rotation
func Slerp(p, q mgl32.Quat, t float32, shortestPath bool) mgl32.Quat {
	if shortestPath && p.Dot(q) < 0 {
		q = q.Scale(-1)
	}
	return mgl32.QuatSlerp(p, q, t)
}

// Nlerp performs normalised linear interpolation between two quaternions, optionally along
// the shortest path.
//
// Parameters:
//   - p: the start rotation
//   - q: the end rotation
//   - t: the interpolation fraction
//   - shortestPath: whether to force the shortest rotation path
//
// Returns:
//   - mgl32.Quat: the interpolated, normalised rotation
func Nlerp(p, q mgl32.Quat, t float32, shortestPath bool) mgl32.Quat {
	if shortestPath && p.Dot(q) < 0 {
		q = q.Scale(-1)
	}
	return mgl32.QuatNlerp(p, q, t)
}

// QuatLog returns the logarithm of a unit quaternion (w = 0, v = axis * half-angle).
//
// Parameters:
//   - q: the unit quaternion
//
// Returns:
//   - mgl32.Quat: the quaternion logarithm
func QuatLog(q mgl32.Quat) mgl32.Quat {
	if abs32(q.W) < 1 {
		angle := math.Acos(float64(q.W))
		sin := math.Sin(angle)
		if math.Abs(sin) >= 1e-6 {
			coeff := float32(angle / sin)
			return mgl32.Quat{W: 0, V: q.V.Mul(coeff)}
		}
	}
	return mgl32.Quat{W: 0, V: q.V}
}

// QuatExp returns the exponential of a pure quaternion, the inverse of QuatLog.
//
// Parameters:
//   - q: the pure quaternion (w ignored)
//
// Returns:
//   - mgl32.Quat: the unit quaternion
func QuatExp(q mgl32.Quat) mgl32.Quat {
	angle := float64(q.V.Len())
	sin := math.Sin(angle)
	w := float32(math.Cos(angle))
	if math.Abs(sin) >= 1e-6 {
		coeff := float32(sin / angle)
		return mgl32.Quat{W: w, V: q.V.Mul(coeff)}
	}
	return mgl32.Quat{W: w, V: q.V}
}

// Squad performs spherical quadrangle interpolation between p and q using the control
// rotations a and b.
//
// Parameters:
//   - t: the interpolation fraction
//   - p: the start rotation
//   - a: the tangent rotation at p
//   - b: the tangent rotation at q
//   - q: the end rotation
//   - shortestPath: whether the p→q arc takes the shortest path
//
// Returns:
//   - mgl32.Quat: the interpolated rotation
func Squad(t float32, p, a, b, q mgl32.Quat, shortestPath bool) mgl32.Quat {
	slerpT := 2 * t * (1 - t)
	slerpP := Slerp(p, q, t, shortestPath)
	slerpQ := Slerp(a, b, t, false)
	return Slerp(slerpP, slerpQ, slerpT, false)
}

// QuatAngle returns the rotation angle (radians, in [0, 2π]) encoded by a unit quaternion.
//
// Parameters:
//   - q: the unit quaternion
//
// Returns:
//   - float32: the rotation angle in radians
func QuatAngle(q mgl32.Quat) float32 {
	w := mgl32.Clamp(q.W, -1, 1)
	return 2 * float32(math.Acos(float64(w)))
}

// QuatEqual reports whether two rotations are within tolerance radians of each other.
// Antipodal quaternions describe the same rotation and compare equal.
//
// Parameters:
//   - p: the first rotation
//   - q: the second rotation
//   - tolerance: the angular tolerance in radians
//
// Returns:
//   - bool: true if the rotations match
func QuatEqual(p, q mgl32.Quat, tolerance float32) bool {
	return QuatAngleBetween(p, q) <= tolerance
}

// QuatAngleBetween returns the angle in radians, in [0, π], of the rotation taking p to q.
// The angle is derived from the chord between the unit quaternions, which stays exact for
// nearly equal rotations where acos of the dot product loses precision.
//
// Parameters:
//   - p: the first unit quaternion
//   - q: the second unit quaternion
//
// Returns:
//   - float32: the angle in radians
func QuatAngleBetween(p, q mgl32.Quat) float32 {
	if p.Dot(q) < 0 {
		q = q.Scale(-1)
	}
	half := mgl32.Clamp(p.Sub(q).Len()/2, 0, 1)
	return 4 * float32(math.Asin(float64(half)))
}

// Vec3Equal reports whether every component of a and b differs by no more than tolerance.
//
// Parameters:
//   - a: the first vector
//   - b: the second vector
//   - tolerance: the per-component tolerance
//
// Returns:
//   - bool: true if the vectors match
func Vec3Equal(a, b mgl32.Vec3, tolerance float32) bool {
	return abs32(a[0]-b[0]) <= tolerance && abs32(a[1]-b[1]) <= tolerance && abs32(a[2]-b[2]) <= tolerance
}

// ComposeMatrix builds a column-major transform matrix from a translation, rotation and scale.
// Result: T * R * S
//
// Parameters:
//   - translation: the translation
//   - rotation: the rotation quaternion
//   - scale: the per-axis scale
//
// Returns:
//   - mgl32.Mat4: the composed matrix
func ComposeMatrix(translation mgl32.Vec3, rotation mgl32.Quat, scale mgl32.Vec3) mgl32.Mat4 {
	m := rotation.Normalize().Mat4()
	for col := range 3 {
		for row := range 3 {
			m[col*4+row] *= scale[col]
		}
	}
	m[12], m[13], m[14] = translation[0], translation[1], translation[2]
	return m
}

// InverseMatrix builds the inverse of ComposeMatrix(translation, rotation, scale) directly from
// its components, avoiding a general 4x4 inversion.
// Result: S^-1 * R^-1 * T^-1
//
// Parameters:
//   - translation: the translation to invert
//   - rotation: the rotation to invert
//   - scale: the per-axis scale to invert (components must be non-zero)
//
// Returns:
//   - mgl32.Mat4: the inverse matrix
func InverseMatrix(translation mgl32.Vec3, rotation mgl32.Quat, scale mgl32.Vec3) mgl32.Mat4 {
	invRot := rotation.Normalize().Inverse()
	invScale := mgl32.Vec3{1 / scale[0], 1 / scale[1], 1 / scale[2]}
	invTrans := invRot.Rotate(translation.Mul(-1))
	invTrans = mgl32.Vec3{invTrans[0] * invScale[0], invTrans[1] * invScale[1], invTrans[2] * invScale[2]}

	m := invRot.Mat4()
	for col := range 3 {
		for row := range 3 {
			m[col*4+row] *= invScale[row]
		}
	}
	m[12], m[13], m[14] = invTrans[0], invTrans[1], invTrans[2]
	return m
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"github.com/go-gl/mathgl/mgl32"
)

// TransformSpace identifies the frame a relative transform operation is expressed in.
type TransformSpace int

const (
	// TransformSpaceLocal applies the operation relative to the node's own orientation.
	TransformSpaceLocal TransformSpace = iota

	// TransformSpaceParent applies the operation relative to the node's parent.
	TransformSpaceParent

	// TransformSpaceWorld applies the operation in world space.
	TransformSpaceWorld
)

// Transform represents a decomposed transform used for keyframes, bone poses and animation blending.
type Transform struct {
	// Translation is the position offset.
	Translation mgl32.Vec3

	// Rotation is the orientation as a unit quaternion.
	Rotation mgl32.Quat

	// Scale is the scale factor along each axis.
	Scale mgl32.Vec3
}

// IdentityTransform returns a transform with no translation, no rotation and unit scale.
//
// Returns:
//   - Transform: the identity transform
func IdentityTransform() Transform {
	return Transform{
		Rotation: mgl32.QuatIdent(),
		Scale:    UnitScale,
	}
}

// Mat4 composes the transform into a column-major 4x4 matrix (translate * rotate * scale).
//
// Returns:
//   - mgl32.Mat4: the composed matrix
func (t Transform) Mat4() mgl32.Mat4 {
	return ComposeMatrix(t.Translation, t.Rotation, t.Scale)
}

package asset

import (
	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/go-gl/mathgl/mgl32"
)

// --- Skeleton Types ---

// Transform is a decomposed local transform as a loader produces it.
type Transform struct {
	// Translation is the position offset.
	Translation [3]float32

	// Rotation is the orientation as a quaternion (x, y, z, w).
	Rotation [4]float32

	// Scale is the scale factor along each axis. A zero vector reads as unit scale.
	Scale [3]float32
}

// Bone is one parsed bone. Its index in Skeleton.Bones becomes its bone handle.
type Bone struct {
	// Name is the bone's identifier, unique within the skeleton or empty.
	Name string

	// ParentIndex is the index of the parent bone (-1 for root bones).
	ParentIndex int32

	// LocalTransform is the bind pose of the bone relative to its parent.
	LocalTransform Transform
}

// Skeleton is a parsed bone hierarchy.
type Skeleton struct {
	// Name is the skeleton identifier.
	Name string

	// Bones is the array of all bones in the skeleton.
	Bones []Bone
}

// --- Animation Types ---

// AnimationClip is one parsed animation (walk, run, attack, etc.).
type AnimationClip struct {
	// Name is the animation identifier.
	Name string

	// Duration is the total length of the animation, in ticks when TicksPerSecond > 0 and in
	// seconds otherwise.
	Duration float32

	// TicksPerSecond is the sample rate key times and Duration are expressed in, or 0 for seconds.
	TicksPerSecond float32

	// Channels contains animation data for each animated bone.
	Channels []AnimationChannel
}

// AnimationChannel contains keyframe data for a single bone. The three key lists have
// independent times.
type AnimationChannel struct {
	// BoneIndex is the index of the bone this channel animates.
	BoneIndex int32

	// PositionKeys are keyframes for translation.
	PositionKeys []VectorKeyframe

	// RotationKeys are keyframes for rotation (quaternion).
	RotationKeys []QuaternionKeyframe

	// ScaleKeys are keyframes for scale.
	ScaleKeys []VectorKeyframe
}

// VectorKeyframe stores a 3D vector value at a specific time.
type VectorKeyframe struct {
	Time  float32
	Value [3]float32
}

// QuaternionKeyframe stores a quaternion rotation (x, y, z, w) at a specific time.
type QuaternionKeyframe struct {
	Time  float32
	Value [4]float32
}

func (t Transform) translation() mgl32.Vec3 {
	return mgl32.Vec3(t.Translation)
}

func (t Transform) rotation() mgl32.Quat {
	return quat(t.Rotation)
}

func (t Transform) scale() mgl32.Vec3 {
	if t.Scale == [3]float32{} {
		return common.UnitScale
	}
	return mgl32.Vec3(t.Scale)
}

// quat converts an (x, y, z, w) array, treating the zero array as the identity.
func quat(v [4]float32) mgl32.Quat {
	if v == [4]float32{} {
		return mgl32.QuatIdent()
	}
	return mgl32.Quat{W: v[3], V: mgl32.Vec3{v[0], v[1], v[2]}}.Normalize()
}

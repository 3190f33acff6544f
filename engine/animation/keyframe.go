package animation

import (
	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/vertex"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// keyFrameOwner is notified whenever keyframe data it owns changes so derived caches can be
// invalidated.
type keyFrameOwner interface {
	keyFrameDataChanged()
}

// timedKeyFrame is the constraint shared by every keyframe kind stored in a track.
type timedKeyFrame interface {
	Time() float32
	setOwner(owner keyFrameOwner)
}

type keyFrameBase struct {
	time  float32
	owner keyFrameOwner
}

// Time returns the keyframe time in seconds.
func (k *keyFrameBase) Time() float32 {
	return k.time
}

func (k *keyFrameBase) setOwner(owner keyFrameOwner) {
	k.owner = owner
}

func (k *keyFrameBase) changed() {
	if k.owner != nil {
		k.owner.keyFrameDataChanged()
	}
}

// TransformKeyFrame is a node track keyframe. Its translation, rotation and scale are offsets
// from the bind pose of the node the track animates.
type TransformKeyFrame struct {
	keyFrameBase
	translate mgl32.Vec3
	rotation  mgl32.Quat
	scale     mgl32.Vec3
}

func newTransformKeyFrame(time float32) *TransformKeyFrame {
	return &TransformKeyFrame{
		keyFrameBase: keyFrameBase{time: time},
		rotation:     mgl32.QuatIdent(),
		scale:        common.UnitScale,
	}
}

// Translate returns the translation offset.
func (k *TransformKeyFrame) Translate() mgl32.Vec3 {
	return k.translate
}

// SetTranslate sets the translation offset.
func (k *TransformKeyFrame) SetTranslate(v mgl32.Vec3) {
	k.translate = v
	k.changed()
}

// Rotation returns the rotation offset.
func (k *TransformKeyFrame) Rotation() mgl32.Quat {
	return k.rotation
}

// SetRotation sets the rotation offset.
func (k *TransformKeyFrame) SetRotation(q mgl32.Quat) {
	k.rotation = q
	k.changed()
}

// Scale returns the scale factor.
func (k *TransformKeyFrame) Scale() mgl32.Vec3 {
	return k.scale
}

// SetScale sets the scale factor.
func (k *TransformKeyFrame) SetScale(v mgl32.Vec3) {
	k.scale = v
	k.changed()
}

// Transform returns the keyframe as a decomposed transform.
func (k *TransformKeyFrame) Transform() common.Transform {
	return common.Transform{Translation: k.translate, Rotation: k.rotation, Scale: k.scale}
}

// SetTransform sets translation, rotation and scale at once.
func (k *TransformKeyFrame) SetTransform(t common.Transform) {
	k.translate, k.rotation, k.scale = t.Translation, t.Rotation, t.Scale
	k.changed()
}

// NumericKeyFrame is a numeric track keyframe holding one tagged value.
type NumericKeyFrame struct {
	keyFrameBase
	value Value
}

// Value returns the keyframe value.
func (k *NumericKeyFrame) Value() Value {
	return k.value
}

// SetValue sets the keyframe value. The value must carry the value type of its track.
//
// Parameters:
//   - v: the new value
//
// Returns:
//   - error: ErrTypeMismatch if v has a different value type
func (k *NumericKeyFrame) SetValue(v Value) error {
	if v.Type() != k.value.Type() {
		return errors.Wrapf(ErrTypeMismatch, "keyframe holds %s, got %s", k.value.Type(), v.Type())
	}
	k.value = v
	k.changed()
	return nil
}

// VertexKeyFrame is implemented by the two vertex keyframe kinds, VertexMorphKeyFrame and
// VertexPoseKeyFrame.
type VertexKeyFrame interface {
	Time() float32
	setOwner(owner keyFrameOwner)
	vertexKeyFrame()
}

// VertexMorphKeyFrame references a full position snapshot.
type VertexMorphKeyFrame struct {
	keyFrameBase
	buffer vertex.Buffer
}

func (*VertexMorphKeyFrame) vertexKeyFrame() {}

// Buffer returns the position snapshot.
func (k *VertexMorphKeyFrame) Buffer() vertex.Buffer {
	return k.buffer
}

// SetBuffer sets the position snapshot.
func (k *VertexMorphKeyFrame) SetBuffer(b vertex.Buffer) {
	k.buffer = b
	k.changed()
}

// PoseRef references a pose by its index in the target's pose list together with an influence.
type PoseRef struct {
	// PoseIndex is the index of the pose in the target's pose list.
	PoseIndex uint16

	// Influence is the pose weight at this keyframe, usually in [0, 1].
	Influence float32
}

// VertexPoseKeyFrame holds pose references, at most one per pose index.
type VertexPoseKeyFrame struct {
	keyFrameBase
	refs []PoseRef
}

func (*VertexPoseKeyFrame) vertexKeyFrame() {}

// AddPoseReference adds a reference to a pose.
//
// Parameters:
//   - poseIndex: the pose index
//   - influence: the pose influence
//
// Returns:
//   - error: common.ErrDuplicate if the pose is already referenced
func (k *VertexPoseKeyFrame) AddPoseReference(poseIndex uint16, influence float32) error {
	if k.indexOf(poseIndex) >= 0 {
		return errors.Wrapf(common.ErrDuplicate, "pose %d already referenced", poseIndex)
	}
	k.refs = append(k.refs, PoseRef{PoseIndex: poseIndex, Influence: influence})
	k.changed()
	return nil
}

// UpdatePoseReference sets the influence of a pose, adding the reference if missing.
//
// Parameters:
//   - poseIndex: the pose index
//   - influence: the new influence
func (k *VertexPoseKeyFrame) UpdatePoseReference(poseIndex uint16, influence float32) {
	if i := k.indexOf(poseIndex); i >= 0 {
		k.refs[i].Influence = influence
	} else {
		k.refs = append(k.refs, PoseRef{PoseIndex: poseIndex, Influence: influence})
	}
	k.changed()
}

// RemovePoseReference removes the reference to a pose.
//
// Parameters:
//   - poseIndex: the pose index
//
// Returns:
//   - error: common.ErrNotFound if the pose is not referenced
func (k *VertexPoseKeyFrame) RemovePoseReference(poseIndex uint16) error {
	i := k.indexOf(poseIndex)
	if i < 0 {
		return errors.Wrapf(common.ErrNotFound, "pose %d", poseIndex)
	}
	k.refs = append(k.refs[:i], k.refs[i+1:]...)
	k.changed()
	return nil
}

// RemoveAllPoseReferences clears every reference.
func (k *VertexPoseKeyFrame) RemoveAllPoseReferences() {
	k.refs = nil
	k.changed()
}

// PoseReferences returns the references in insertion order. The slice is owned by the keyframe.
func (k *VertexPoseKeyFrame) PoseReferences() []PoseRef {
	return k.refs
}

// Influence returns the influence of a pose at this keyframe, 0 when it is not referenced.
func (k *VertexPoseKeyFrame) Influence(poseIndex uint16) float32 {
	if i := k.indexOf(poseIndex); i >= 0 {
		return k.refs[i].Influence
	}
	return 0
}

func (k *VertexPoseKeyFrame) indexOf(poseIndex uint16) int {
	for i, r := range k.refs {
		if r.PoseIndex == poseIndex {
			return i
		}
	}
	return -1
}

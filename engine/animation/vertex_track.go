package animation

import (
	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/vertex"
	"github.com/pkg/errors"
)

// VertexTarget supplies the vertex data and poses vertex tracks write to. Track handle 0 is the
// shared geometry and handle n is sub-mesh n-1.
type VertexTarget interface {
	// SoftwareVertexData returns the data software animation writes positions into.
	SoftwareVertexData(handle uint16) (*vertex.Data, bool)

	// HardwareVertexData returns the data hardware animation binds streams on.
	HardwareVertexData(handle uint16) (*vertex.Data, bool)

	// Poses returns the pose list pose keyframes index into.
	Poses() []*vertex.Pose
}

// VertexTrack animates vertex positions by morphing between snapshots or by blending poses. The
// animation type is fixed at creation.
type VertexTrack struct {
	trackBase[VertexKeyFrame]
	animType   VertexAnimationType
	targetMode VertexTargetMode
	target     *vertex.Data
	poses      []*vertex.Pose
	factory    vertex.BufferFactory
}

func newVertexTrack(parent *Animation, handle uint16, animType VertexAnimationType, target *vertex.Data) *VertexTrack {
	tr := &VertexTrack{
		animType: animType,
		target:   target,
		factory:  vertex.NewMemoryBufferFactory(),
	}
	tr.init(handle, parent, tr)
	return tr
}

// AnimationType returns the morph or pose type of the track.
func (tr *VertexTrack) AnimationType() VertexAnimationType {
	return tr.animType
}

// TargetMode returns whether Apply writes positions or binds hardware streams.
func (tr *VertexTrack) TargetMode() VertexTargetMode {
	return tr.targetMode
}

// SetTargetMode selects software or hardware application.
func (tr *VertexTrack) SetTargetMode(mode VertexTargetMode) {
	tr.targetMode = mode
}

// AssociatedVertexData returns the data driven by Apply.
func (tr *VertexTrack) AssociatedVertexData() *vertex.Data {
	return tr.target
}

// SetAssociatedVertexData sets the data driven by Apply.
func (tr *VertexTrack) SetAssociatedVertexData(data *vertex.Data) {
	tr.target = data
}

// SetAssociatedPoses sets the pose list Apply resolves pose references against.
func (tr *VertexTrack) SetAssociatedPoses(poses []*vertex.Pose) {
	tr.poses = poses
}

// SetPoseBufferFactory sets the factory dense pose streams are created with in hardware mode.
func (tr *VertexTrack) SetPoseBufferFactory(factory vertex.BufferFactory) {
	tr.factory = factory
}

// CreateVertexMorphKeyFrame inserts a morph keyframe at time.
//
// Parameters:
//   - time: the keyframe time in seconds
//   - buffer: the position snapshot at that time
//
// Returns:
//   - *VertexMorphKeyFrame: the keyframe
//   - error: error if the track is a pose track
func (tr *VertexTrack) CreateVertexMorphKeyFrame(time float32, buffer vertex.Buffer) (*VertexMorphKeyFrame, error) {
	if tr.animType != VertexAnimationMorph {
		return nil, errors.Errorf("vertex track %d is not a morph track", tr.handle)
	}
	k := &VertexMorphKeyFrame{keyFrameBase: keyFrameBase{time: time}, buffer: buffer}
	tr.addKeyFrame(k)
	return k, nil
}

// CreateVertexPoseKeyFrame inserts an empty pose keyframe at time.
//
// Parameters:
//   - time: the keyframe time in seconds
//
// Returns:
//   - *VertexPoseKeyFrame: the keyframe
//   - error: error if the track is a morph track
func (tr *VertexTrack) CreateVertexPoseKeyFrame(time float32) (*VertexPoseKeyFrame, error) {
	if tr.animType != VertexAnimationPose {
		return nil, errors.Errorf("vertex track %d is not a pose track", tr.handle)
	}
	k := &VertexPoseKeyFrame{keyFrameBase: keyFrameBase{time: time}}
	tr.addKeyFrame(k)
	return k, nil
}

// MorphKeyFrame returns the morph keyframe at index i.
func (tr *VertexTrack) MorphKeyFrame(i int) (*VertexMorphKeyFrame, error) {
	k, err := tr.KeyFrame(i)
	if err != nil {
		return nil, err
	}
	m, ok := k.(*VertexMorphKeyFrame)
	if !ok {
		return nil, errors.Errorf("vertex track %d is not a morph track", tr.handle)
	}
	return m, nil
}

// PoseKeyFrame returns the pose keyframe at index i.
func (tr *VertexTrack) PoseKeyFrame(i int) (*VertexPoseKeyFrame, error) {
	k, err := tr.KeyFrame(i)
	if err != nil {
		return nil, err
	}
	p, ok := k.(*VertexPoseKeyFrame)
	if !ok {
		return nil, errors.Errorf("vertex track %d is not a pose track", tr.handle)
	}
	return p, nil
}

// HasNonZeroKeyFrames reports whether the track affects its target at all. Morph tracks always
// do; pose tracks only when some keyframe references a pose with non-zero influence.
func (tr *VertexTrack) HasNonZeroKeyFrames() bool {
	if tr.animType == VertexAnimationMorph {
		return tr.keys.len() > 0
	}
	for _, k := range tr.keys.frames {
		for _, r := range k.(*VertexPoseKeyFrame).refs {
			if r.Influence > common.DefaultTolerance || r.Influence < -common.DefaultTolerance {
				return true
			}
		}
	}
	return false
}

// Apply drives the associated vertex data, resolving pose references against the associated
// poses. The per-frame rules of ApplyToVertexData apply.
func (tr *VertexTrack) Apply(timePos, weight float32) error {
	if tr.target == nil {
		return nil
	}
	return tr.ApplyToVertexData(tr.target, timePos, weight, tr.poses)
}

// ApplyToVertexData writes the track value at timePos into data. Morph tracks ignore weight.
// Pose tracks add onto the positions and claim hardware slots, so data must begin each frame
// with BeginFrame before the first track applies.
//
// Parameters:
//   - data: the vertex data to drive
//   - timePos: the time position in seconds
//   - weight: the pose blend weight
//   - poses: the pose list pose references index into
//
// Returns:
//   - error: error if a buffer operation fails or a pose reference is invalid
func (tr *VertexTrack) ApplyToVertexData(data *vertex.Data, timePos, weight float32, poses []*vertex.Pose) error {
	return tr.applyVertexData(data, tr.targetMode, timePos, weight, poses)
}

func (tr *VertexTrack) applyVertexData(data *vertex.Data, mode VertexTargetMode, timePos, weight float32, poses []*vertex.Pose) error {
	k1, k2, t, index := tr.KeyFramesAtTime(timePos)
	if index < 0 {
		return nil
	}

	if tr.animType == VertexAnimationMorph {
		return tr.applyMorph(data, mode, k1.(*VertexMorphKeyFrame), k2.(*VertexMorphKeyFrame), t)
	}
	return tr.applyPoses(data, mode, k1.(*VertexPoseKeyFrame), k2.(*VertexPoseKeyFrame), t, weight, poses)
}

func (tr *VertexTrack) applyMorph(data *vertex.Data, mode VertexTargetMode, k1, k2 *VertexMorphKeyFrame, t float32) error {
	if k1.buffer == nil || k2.buffer == nil {
		return errors.Errorf("vertex track %d has a morph keyframe without a buffer", tr.handle)
	}
	if mode == TargetHardware {
		slots := data.HardwareAnimation()
		if len(slots) == 0 {
			return errors.Errorf("vertex track %d: no hardware animation elements allocated", tr.handle)
		}
		data.SetBinding(data.PositionSource(), k1.buffer)
		data.SetBinding(slots[0].TargetBufferIndex, k2.buffer)
		slots[0].Parametric = t
		return nil
	}
	if err := vertex.SoftwareVertexMorph(t, k1.buffer, k2.buffer, data); err != nil {
		return errors.Wrapf(err, "vertex track %d", tr.handle)
	}
	return nil
}

func (tr *VertexTrack) applyPoses(data *vertex.Data, mode VertexTargetMode, k1, k2 *VertexPoseKeyFrame, t, weight float32, poses []*vertex.Pose) error {
	apply := func(poseIndex uint16, start, end float32) error {
		influence := (start + t*(end-start)) * weight
		return tr.applyPose(data, mode, poses, poseIndex, influence)
	}

	for _, r := range k1.refs {
		if err := apply(r.PoseIndex, r.Influence, k2.Influence(r.PoseIndex)); err != nil {
			return err
		}
	}
	for _, r := range k2.refs {
		if k1.indexOf(r.PoseIndex) >= 0 {
			continue
		}
		if err := apply(r.PoseIndex, 0, r.Influence); err != nil {
			return err
		}
	}
	return nil
}

func (tr *VertexTrack) applyPose(data *vertex.Data, mode VertexTargetMode, poses []*vertex.Pose, poseIndex uint16, influence float32) error {
	if int(poseIndex) >= len(poses) {
		return errors.Wrapf(common.ErrOutOfRange, "vertex track %d references pose %d of %d", tr.handle, poseIndex, len(poses))
	}
	pose := poses[poseIndex]

	if mode == TargetHardware {
		slot, ok := data.ClaimHardwareSlot()
		if !ok {
			return nil
		}
		buf, err := pose.HardwareBuffer(data.VertexCount(), tr.factory)
		if err != nil {
			return errors.Wrapf(err, "vertex track %d", tr.handle)
		}
		data.SetBinding(slot.TargetBufferIndex, buf)
		slot.Parametric = influence
		return nil
	}
	if err := vertex.SoftwareVertexPoseBlend(influence, pose.VertexOffsets(), data); err != nil {
		return errors.Wrapf(err, "vertex track %d pose %q", tr.handle, pose.Name())
	}
	return nil
}

func (tr *VertexTrack) keyFrameDataChanged() {}

func (tr *VertexTrack) clone(parent *Animation) *VertexTrack {
	c := newVertexTrack(parent, tr.handle, tr.animType, tr.target)
	c.targetMode = tr.targetMode
	c.poses = tr.poses
	c.factory = tr.factory
	c.useTimeIndex = tr.useTimeIndex
	for _, k := range tr.keys.frames {
		switch kf := k.(type) {
		case *VertexMorphKeyFrame:
			_, _ = c.CreateVertexMorphKeyFrame(kf.time, kf.buffer)
		case *VertexPoseKeyFrame:
			nk, _ := c.CreateVertexPoseKeyFrame(kf.time)
			nk.refs = append([]PoseRef(nil), kf.refs...)
		}
	}
	return c
}

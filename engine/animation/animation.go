// Package animation holds keyframed animations: tracks for transforms, numeric properties and
// vertices, the interpolation and blending that drives them, and the per-animation playback
// states that say which animations apply, where and how strongly.
package animation

import (
	"sort"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/vertex"
	"github.com/pkg/errors"
)

// TargetResolver maps node track handles onto the targets they drive, typically the bones of a
// skeleton by handle.
type TargetResolver interface {
	BoneTarget(handle uint16) (TransformTarget, bool)
}

// Animation is a named, fixed-length collection of node, numeric and vertex tracks keyed by handle.
type Animation struct {
	name   string
	length float32

	nodeTracks    map[uint16]*NodeTrack
	numericTracks map[uint16]*NumericTrack
	vertexTracks  map[uint16]*VertexTrack

	nodeOrder    []uint16
	numericOrder []uint16
	vertexOrder  []uint16

	interpolationMode         InterpolationMode
	rotationInterpolationMode RotationInterpolationMode
	useShortestRotationPath   bool
	poseBufferFactory         vertex.BufferFactory
}

// NewAnimation creates an empty animation with linear interpolation.
//
// Parameters:
//   - name: the animation name
//   - length: the animation length in seconds
//   - options: optional builder options
//
// Returns:
//   - *Animation: the animation
func NewAnimation(name string, length float32, options ...AnimationBuilderOption) *Animation {
	a := &Animation{
		name:                      name,
		length:                    length,
		nodeTracks:                make(map[uint16]*NodeTrack),
		numericTracks:             make(map[uint16]*NumericTrack),
		vertexTracks:              make(map[uint16]*VertexTrack),
		interpolationMode:         InterpolationLinear,
		rotationInterpolationMode: RotationLinear,
		useShortestRotationPath:   true,
	}
	for _, opt := range options {
		opt(a)
	}
	return a
}

// Name returns the animation name.
func (a *Animation) Name() string {
	return a.name
}

// Length returns the animation length in seconds.
func (a *Animation) Length() float32 {
	return a.length
}

// SetLength changes the animation length. Existing keyframes past the new length are kept.
func (a *Animation) SetLength(length float32) {
	a.length = length
}

// InterpolationMode returns the translation and scale interpolation mode.
func (a *Animation) InterpolationMode() InterpolationMode {
	return a.interpolationMode
}

// SetInterpolationMode changes the translation and scale interpolation mode.
func (a *Animation) SetInterpolationMode(mode InterpolationMode) {
	a.interpolationMode = mode
}

// RotationInterpolationMode returns the rotation interpolation mode.
func (a *Animation) RotationInterpolationMode() RotationInterpolationMode {
	return a.rotationInterpolationMode
}

// SetRotationInterpolationMode changes the rotation interpolation mode.
func (a *Animation) SetRotationInterpolationMode(mode RotationInterpolationMode) {
	a.rotationInterpolationMode = mode
}

// CreateNodeTrack creates a node track.
//
// Parameters:
//   - handle: the track handle, usually the handle of the bone it drives
//   - target: the associated target, or nil when the track is applied through a TargetResolver
//
// Returns:
//   - *NodeTrack: the track
//   - error: common.ErrDuplicate if the handle is taken
func (a *Animation) CreateNodeTrack(handle uint16, target TransformTarget) (*NodeTrack, error) {
	if _, ok := a.nodeTracks[handle]; ok {
		return nil, errors.Wrapf(common.ErrDuplicate, "animation %q node track %d", a.name, handle)
	}
	tr := newNodeTrack(a, handle, target)
	a.nodeTracks[handle] = tr
	a.nodeOrder = insertHandle(a.nodeOrder, handle)
	return tr, nil
}

// NodeTrack returns the node track with a handle.
func (a *Animation) NodeTrack(handle uint16) (*NodeTrack, bool) {
	tr, ok := a.nodeTracks[handle]
	return tr, ok
}

// HasNodeTrack reports whether a node track exists for handle.
func (a *Animation) HasNodeTrack(handle uint16) bool {
	_, ok := a.nodeTracks[handle]
	return ok
}

// NumNodeTracks returns the number of node tracks.
func (a *Animation) NumNodeTracks() int {
	return len(a.nodeTracks)
}

// NodeTracks returns the node tracks in ascending handle order.
func (a *Animation) NodeTracks() []*NodeTrack {
	out := make([]*NodeTrack, len(a.nodeOrder))
	for i, h := range a.nodeOrder {
		out[i] = a.nodeTracks[h]
	}
	return out
}

// DestroyNodeTrack removes a node track.
//
// Returns:
//   - error: common.ErrNotFound if no track has the handle
func (a *Animation) DestroyNodeTrack(handle uint16) error {
	if _, ok := a.nodeTracks[handle]; !ok {
		return errors.Wrapf(common.ErrNotFound, "animation %q node track %d", a.name, handle)
	}
	delete(a.nodeTracks, handle)
	a.nodeOrder = removeHandle(a.nodeOrder, handle)
	return nil
}

// CreateNumericTrack creates a numeric track whose keyframes hold values of valueType.
//
// Parameters:
//   - handle: the track handle
//   - valueType: the value type of the track
//
// Returns:
//   - *NumericTrack: the track
//   - error: common.ErrDuplicate if the handle is taken, or error for an unknown value type
func (a *Animation) CreateNumericTrack(handle uint16, valueType ValueType) (*NumericTrack, error) {
	if _, err := opsFor(valueType); err != nil {
		return nil, err
	}
	if _, ok := a.numericTracks[handle]; ok {
		return nil, errors.Wrapf(common.ErrDuplicate, "animation %q numeric track %d", a.name, handle)
	}
	tr := newNumericTrack(a, handle, valueType)
	a.numericTracks[handle] = tr
	a.numericOrder = insertHandle(a.numericOrder, handle)
	return tr, nil
}

// NumericTrack returns the numeric track with a handle.
func (a *Animation) NumericTrack(handle uint16) (*NumericTrack, bool) {
	tr, ok := a.numericTracks[handle]
	return tr, ok
}

// HasNumericTrack reports whether a numeric track exists for handle.
func (a *Animation) HasNumericTrack(handle uint16) bool {
	_, ok := a.numericTracks[handle]
	return ok
}

// NumNumericTracks returns the number of numeric tracks.
func (a *Animation) NumNumericTracks() int {
	return len(a.numericTracks)
}

// DestroyNumericTrack removes a numeric track.
func (a *Animation) DestroyNumericTrack(handle uint16) error {
	if _, ok := a.numericTracks[handle]; !ok {
		return errors.Wrapf(common.ErrNotFound, "animation %q numeric track %d", a.name, handle)
	}
	delete(a.numericTracks, handle)
	a.numericOrder = removeHandle(a.numericOrder, handle)
	return nil
}

// CreateVertexTrack creates a vertex track of a fixed animation type.
//
// Parameters:
//   - handle: the track handle (0 = shared geometry, n = sub-mesh n-1)
//   - animType: morph or pose
//   - target: the associated vertex data, or nil when applied through a VertexTarget
//
// Returns:
//   - *VertexTrack: the track
//   - error: common.ErrDuplicate if the handle is taken
func (a *Animation) CreateVertexTrack(handle uint16, animType VertexAnimationType, target *vertex.Data) (*VertexTrack, error) {
	if _, ok := a.vertexTracks[handle]; ok {
		return nil, errors.Wrapf(common.ErrDuplicate, "animation %q vertex track %d", a.name, handle)
	}
	tr := newVertexTrack(a, handle, animType, target)
	if a.poseBufferFactory != nil {
		tr.factory = a.poseBufferFactory
	}
	a.vertexTracks[handle] = tr
	a.vertexOrder = insertHandle(a.vertexOrder, handle)
	return tr, nil
}

// VertexTrack returns the vertex track with a handle.
func (a *Animation) VertexTrack(handle uint16) (*VertexTrack, bool) {
	tr, ok := a.vertexTracks[handle]
	return tr, ok
}

// HasVertexTrack reports whether a vertex track exists for handle.
func (a *Animation) HasVertexTrack(handle uint16) bool {
	_, ok := a.vertexTracks[handle]
	return ok
}

// NumVertexTracks returns the number of vertex tracks.
func (a *Animation) NumVertexTracks() int {
	return len(a.vertexTracks)
}

// DestroyVertexTrack removes a vertex track.
func (a *Animation) DestroyVertexTrack(handle uint16) error {
	if _, ok := a.vertexTracks[handle]; !ok {
		return errors.Wrapf(common.ErrNotFound, "animation %q vertex track %d", a.name, handle)
	}
	delete(a.vertexTracks, handle)
	a.vertexOrder = removeHandle(a.vertexOrder, handle)
	return nil
}

// DestroyAllTracks removes every track of every kind.
func (a *Animation) DestroyAllTracks() {
	a.nodeTracks = make(map[uint16]*NodeTrack)
	a.numericTracks = make(map[uint16]*NumericTrack)
	a.vertexTracks = make(map[uint16]*VertexTrack)
	a.nodeOrder, a.numericOrder, a.vertexOrder = nil, nil, nil
}

// Apply drives every track's associated target at a time position. Tracks without a target
// are skipped.
//
// Parameters:
//   - timePos: the time position in seconds
//   - weight: the blend weight
//   - accumulate: true to add node track values, false to average them
//   - scale: the scale factor for translation, scale and numeric values
//
// Returns:
//   - error: the first error returned by a numeric or vertex track
func (a *Animation) Apply(timePos, weight float32, accumulate bool, scale float32) error {
	for _, h := range a.nodeOrder {
		a.nodeTracks[h].Apply(timePos, weight, accumulate, scale)
	}
	for _, h := range a.numericOrder {
		if err := a.numericTracks[h].Apply(timePos, weight, scale); err != nil {
			return errors.Wrapf(err, "animation %q", a.name)
		}
	}
	for _, h := range a.vertexOrder {
		if err := a.vertexTracks[h].Apply(timePos, weight); err != nil {
			return errors.Wrapf(err, "animation %q", a.name)
		}
	}
	return nil
}

// ApplyToSkeleton drives the targets resolver returns for each node track handle. Handles the
// resolver does not know are skipped.
//
// Parameters:
//   - resolver: maps track handles onto targets
//   - timePos: the time position in seconds
//   - weight: the blend weight
//   - accumulate: true to add node track values, false to average them
//   - scale: the scale factor for translation and scale
func (a *Animation) ApplyToSkeleton(resolver TargetResolver, timePos, weight float32, accumulate bool, scale float32) {
	for _, h := range a.nodeOrder {
		target, ok := resolver.BoneTarget(h)
		if !ok {
			continue
		}
		a.nodeTracks[h].ApplyToTarget(target, timePos, weight, accumulate, scale)
	}
}

// ApplyToVertexTarget drives the vertex data of target. Morph tracks write to the software data
// when software is set and to the hardware data when hardware is set; pose tracks do the same
// using the target's pose list. Pose tracks add onto the data, so every vertex data must begin
// its frame with vertex.Data.BeginFrame first; ApplyVertexAnimationState does that.
//
// Parameters:
//   - target: supplies vertex data by track handle and the pose list
//   - timePos: the time position in seconds
//   - weight: the pose blend weight
//   - software: whether to apply to software vertex data
//   - hardware: whether to apply to hardware vertex data
//
// Returns:
//   - error: the first error returned by a vertex track
func (a *Animation) ApplyToVertexTarget(target VertexTarget, timePos, weight float32, software, hardware bool) error {
	poses := target.Poses()
	for _, h := range a.vertexOrder {
		tr := a.vertexTracks[h]
		if software {
			if data, ok := target.SoftwareVertexData(h); ok {
				if err := tr.applyVertexData(data, TargetSoftware, timePos, weight, poses); err != nil {
					return errors.Wrapf(err, "animation %q", a.name)
				}
			}
		}
		if hardware {
			if data, ok := target.HardwareVertexData(h); ok {
				if err := tr.applyVertexData(data, TargetHardware, timePos, weight, poses); err != nil {
					return errors.Wrapf(err, "animation %q", a.name)
				}
			}
		}
	}
	return nil
}

// AnimationSource looks animations up by name. Skeletons and skeleton instances implement it.
type AnimationSource interface {
	Animation(name string) (*Animation, bool)
}

// ApplyVertexAnimationState poses the vertex data of target from a state set for one frame.
// Every vertex data driven by an animation of the set, enabled or not, begins a new frame first,
// clearing the previous frame's poses and hardware slots; then the enabled states apply in
// enable order. States whose animation source does not know them are skipped.
//
// Parameters:
//   - target: supplies vertex data by track handle and the pose list
//   - set: the states to apply
//   - source: resolves state names to animations
//   - software: whether to apply to software vertex data
//   - hardware: whether to apply to hardware vertex data
//
// Returns:
//   - error: the first error from beginning a frame or applying an animation
func ApplyVertexAnimationState(target VertexTarget, set *AnimationStateSet, source AnimationSource, software, hardware bool) error {
	begun := make(map[*vertex.Data]struct{})
	begin := func(data *vertex.Data, ok bool) error {
		if !ok || data == nil {
			return nil
		}
		if _, done := begun[data]; done {
			return nil
		}
		begun[data] = struct{}{}
		return data.BeginFrame()
	}
	for _, st := range set.AnimationStates() {
		anim, ok := source.Animation(st.Name())
		if !ok {
			continue
		}
		for _, h := range anim.vertexOrder {
			if software {
				if err := begin(target.SoftwareVertexData(h)); err != nil {
					return errors.Wrapf(err, "software vertex data %d", h)
				}
			}
			if hardware {
				if err := begin(target.HardwareVertexData(h)); err != nil {
					return errors.Wrapf(err, "hardware vertex data %d", h)
				}
			}
		}
	}

	var err error
	set.VisitEnabled(func(st *AnimationState) {
		if err != nil {
			return
		}
		anim, ok := source.Animation(st.Name())
		if !ok {
			return
		}
		err = anim.ApplyToVertexTarget(target, st.TimePosition(), st.Weight(), software, hardware)
	})
	return err
}

// Optimise removes redundant keyframes from every node track, then destroys node tracks that
// never move their target unless preserveIdentityNodeTracks is set, and finally destroys vertex
// pose tracks whose keyframes carry no influence.
//
// Parameters:
//   - preserveIdentityNodeTracks: keep node tracks whose keyframes are all identity
func (a *Animation) Optimise(preserveIdentityNodeTracks bool) {
	for _, h := range append([]uint16(nil), a.nodeOrder...) {
		tr := a.nodeTracks[h]
		if !preserveIdentityNodeTracks && !tr.HasNonZeroKeyFrames() {
			_ = a.DestroyNodeTrack(h)
			continue
		}
		tr.Optimise()
	}
	for _, h := range append([]uint16(nil), a.vertexOrder...) {
		if !a.vertexTracks[h].HasNonZeroKeyFrames() {
			_ = a.DestroyVertexTrack(h)
		}
	}
}

// PrepareCaches builds every lazily computed cache: keyframe time indexes and, in spline mode,
// node track curves. Afterwards applying the animation only reads the animation, so several
// goroutines can apply it to distinct targets at once.
func (a *Animation) PrepareCaches() {
	for _, tr := range a.nodeTracks {
		tr.prepareCaches()
	}
	for _, tr := range a.numericTracks {
		tr.prepareIndex()
	}
	for _, tr := range a.vertexTracks {
		tr.prepareIndex()
	}
}

// Clone returns a deep copy of the animation under a new name. Keyframe buffers and associated
// targets are shared with the original.
//
// Parameters:
//   - name: the name of the copy
//
// Returns:
//   - *Animation: the copy
func (a *Animation) Clone(name string) *Animation {
	c := NewAnimation(name, a.length,
		WithInterpolationMode(a.interpolationMode),
		WithRotationInterpolationMode(a.rotationInterpolationMode),
		WithShortestRotationPath(a.useShortestRotationPath),
		WithPoseBufferFactory(a.poseBufferFactory),
	)
	for _, h := range a.nodeOrder {
		c.nodeTracks[h] = a.nodeTracks[h].clone(c)
	}
	for _, h := range a.numericOrder {
		c.numericTracks[h] = a.numericTracks[h].clone(c)
	}
	for _, h := range a.vertexOrder {
		c.vertexTracks[h] = a.vertexTracks[h].clone(c)
	}
	c.nodeOrder = append([]uint16(nil), a.nodeOrder...)
	c.numericOrder = append([]uint16(nil), a.numericOrder...)
	c.vertexOrder = append([]uint16(nil), a.vertexOrder...)
	return c
}

func insertHandle(order []uint16, h uint16) []uint16 {
	i := sort.Search(len(order), func(i int) bool { return order[i] >= h })
	order = append(order, 0)
	copy(order[i+1:], order[i:])
	order[i] = h
	return order
}

func removeHandle(order []uint16, h uint16) []uint16 {
	i := sort.Search(len(order), func(i int) bool { return order[i] >= h })
	if i < len(order) && order[i] == h {
		return append(order[:i], order[i+1:]...)
	}
	return order
}
